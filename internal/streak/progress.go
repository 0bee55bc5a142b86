package streak

import "github.com/julianstephens/habitkeep/internal/constants"

// DayStatus is one cell of a progress grid.
type DayStatus struct {
	Day       string `json:"day"`
	Completed bool   `json:"completed"`
}

// Badge colours, least to most accomplished.
const (
	BadgeInfo    = "info"
	BadgeSuccess = "success"
	BadgeWarning = "warning"
	BadgeError   = "error"
)

// Tier is a milestone bucket for a streak length. Label and Message change at
// 1, 7 and 30 days; Badge also steps up at 14.
type Tier struct {
	Name    string
	Label   string
	Message string
	Badge   string
}

var tiers = []struct {
	min  int
	tier Tier
}{
	{30, Tier{Name: "master", Label: "Habit Master!", Message: "You've mastered this habit!", Badge: BadgeError}},
	{14, Tier{Name: "blazing", Label: "On Fire!", Message: "Consistency is key!", Badge: BadgeWarning}},
	{7, Tier{Name: "fire", Label: "On Fire!", Message: "Consistency is key!", Badge: BadgeSuccess}},
	{1, Tier{Name: "momentum", Label: "Building Momentum!", Message: "Keep going, you're doing great!", Badge: BadgeInfo}},
	{0, Tier{Name: "start", Label: "Start Your Journey!", Message: "Begin your streak today!", Badge: BadgeInfo}},
}

// TierFor returns the milestone tier for a streak.
func TierFor(streak int) Tier {
	for _, t := range tiers {
		if streak >= t.min {
			return t.tier
		}
	}
	return tiers[len(tiers)-1].tier
}

// Progress returns the trailing window of days calendar days ending at today,
// oldest first. An unparsable today or non-positive window yields nil.
func Progress(history []string, today string, days int) []DayStatus {
	if days <= 0 {
		return nil
	}
	end, err := parseDay(today)
	if err != nil {
		return nil
	}

	set := toSet(history)
	grid := make([]DayStatus, days)
	for i := 0; i < days; i++ {
		day := end.AddDate(0, 0, i-days+1).Format(constants.DateFormat)
		grid[i] = DayStatus{Day: day, Completed: set[day]}
	}
	return grid
}

// CompletionRate returns the whole-number percentage of completed days in the
// trailing window ending at today.
func CompletionRate(history []string, today string, days int) int {
	grid := Progress(history, today, days)
	if len(grid) == 0 {
		return 0
	}
	done := 0
	for _, d := range grid {
		if d.Completed {
			done++
		}
	}
	return (done*100 + len(grid)/2) / len(grid)
}
