package constants

import "time"

const (
	AppName            = "habitkeep"
	Version            = "v0.3.0"
	DefaultConfigDir   = "~/.config/habitkeep"
	DefaultConfigFile  = "config.toml"
	DefaultDBPath      = "~/.config/habitkeep/habitkeep.db"
	DefaultAPIURL      = "http://localhost:3000"
	DefaultListenAddr  = ":3000"
	DefaultTimezone    = "UTC"
	DefaultKeyringUser = "database-connection"
	TokenKeyringUser   = "api-token"

	// DatabaseKeyring as the database setting reads the connection string
	// from the OS keyring.
	DatabaseKeyring = "keyring"

	// DateFormat is the calendar-day format used for completion history (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the reminder time format (HH:MM)
	TimeFormat = "15:04"

	// Environment overrides
	EnvAPIURL       = "HABITKEEP_API_URL"
	EnvDBConnection = "HABITKEEP_DB_CONNECTION"
	EnvJWTSecret    = "HABITKEEP_JWT_SECRET"
	EnvListenAddr   = "HABITKEEP_ADDR"
	EnvLogLevel     = "HABITKEEP_LOG_LEVEL"
	EnvTimezone     = "HABITKEEP_TIMEZONE"
	EnvToken        = "HABITKEEP_TOKEN"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitkeep-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifierLockfileName   = "habitkeep-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.habitkeep"
	DefaultTrayApp         = AppName + "-tray"

	// HTTP
	DefaultHTTPTimeout   = 10 * time.Second
	ShutdownGracePeriod  = 5 * time.Second
	DefaultFeaturedLimit = 6
	MaxListLimit         = 100

	// Progress window shown on the detail view
	ProgressWindowDays = 30
	MaxProgressDays    = 366

	// Validation limits
	MaxTitleLength       = 100
	MaxDescriptionLength = 2000
)

// Categories is the fixed set of habit categories.
var Categories = []string{"Morning", "Work", "Fitness", "Evening", "Study"}

// CategoryAll is accepted by filters and means "no category filter".
const CategoryAll = "All"
