package habits

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitkeep/internal/api"
	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/clock"
	"github.com/julianstephens/habitkeep/internal/config"
	"github.com/julianstephens/habitkeep/internal/errors"
	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/storage"
	"github.com/julianstephens/habitkeep/internal/storage/sqlite"
	"github.com/julianstephens/habitkeep/internal/streak"
)

const testSecret = "testsecret"

type env struct {
	clock *clock.Fixed
	url   string
	out   *bytes.Buffer
}

func setup(t *testing.T) *env {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	clk := clock.NewFixed(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	srv, err := api.New(api.Config{Store: store, Clock: clk, Location: time.UTC, JWTSecret: testSecret})
	require.NoError(t, err)
	ts := httptest.NewServer(adaptor.FiberApp(srv.App()))
	t.Cleanup(ts.Close)

	old := renderMarkdown
	renderMarkdown = func(md string) (string, error) { return md, nil }
	t.Cleanup(func() { renderMarkdown = old })

	return &env{clock: clk, url: ts.URL, out: &bytes.Buffer{}}
}

// context builds a fresh command context for email, sharing the output buffer.
func (e *env) context(t *testing.T, email string) *cli.Context {
	t.Helper()
	cfg := config.Default()
	cfg.APIURL = e.url
	token, err := api.IssueToken(testSecret, email, strings.Split(email, "@")[0], time.Hour)
	require.NoError(t, err)
	return &cli.Context{Config: cfg, Token: token, Clock: e.clock, Stdout: e.out}
}

func (e *env) output() string {
	s := e.out.String()
	e.out.Reset()
	return s
}

func TestHabitWorkflow(t *testing.T) {
	e := setup(t)
	ctx := e.context(t, "alice@example.com")

	require.NoError(t, (&HabitAddCmd{Title: "Read", Category: "Evening", Description: "Ten **pages**"}).Run(ctx))
	assert.Contains(t, e.output(), "✓ Added habit: Read")

	require.NoError(t, (&HabitListCmd{}).Run(ctx))
	out := e.output()
	assert.Contains(t, out, "[ ] Read (Evening) - streak 0 days")
	assert.Contains(t, out, "Completed today: 0/1")

	require.NoError(t, (&HabitCompleteCmd{Habit: "read"}).Run(ctx))
	assert.Contains(t, e.output(), "Read complete! Streak: 1 day.")

	err := (&HabitCompleteCmd{Habit: "Read"}).Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsReported(err))
	assert.ErrorIs(t, err, streak.ErrAlreadyCompleted)
	assert.Equal(t, errors.ExitAlreadyCompleted, errors.ExitCode(err))
	assert.Contains(t, e.output(), "already completed today")

	e.clock.Advance(24 * time.Hour)
	require.NoError(t, (&HabitCompleteCmd{Habit: "Read"}).Run(e.context(t, "alice@example.com")))
	assert.Contains(t, e.output(), "Streak: 2 days")

	require.NoError(t, (&HabitShowCmd{Habit: "Read", Days: 7}).Run(ctx))
	out = e.output()
	assert.Contains(t, out, "# Read")
	assert.Contains(t, out, "Ten **pages**")
	assert.Contains(t, out, "**Longest:** 2 days")
	assert.Contains(t, out, "Building Momentum!")
	assert.Contains(t, out, "## Last 7 days (29%)")
	assert.Contains(t, out, "□ □ □ □ □ ■ ■")
}

func TestHabitEditDeleteRestore(t *testing.T) {
	e := setup(t)
	ctx := e.context(t, "alice@example.com")
	require.NoError(t, (&HabitAddCmd{Title: "Run", Category: "Fitness"}).Run(ctx))
	e.output()

	title := "Run 5k"
	require.NoError(t, (&HabitEditCmd{Habit: "Run", Title: &title, Visibility: "private"}).Run(ctx))
	assert.Contains(t, e.output(), "✓ Updated habit: Run 5k")

	// Private habits vanish from browse.
	require.NoError(t, (&HabitBrowseCmd{Category: "All", Limit: 10}).Run(ctx))
	assert.Contains(t, e.output(), "No public habits found.")

	require.NoError(t, (&HabitDeleteCmd{Habit: "Run 5k"}).Run(ctx))
	assert.Contains(t, e.output(), "Deleted habit: Run 5k")

	err := (&HabitCompleteCmd{Habit: "Run 5k"}).Run(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, (&HabitRestoreCmd{Habit: "Run 5k"}).Run(ctx))
	assert.Contains(t, e.output(), "✓ Restored habit: Run 5k")

	err = (&HabitRestoreCmd{Habit: "Run 5k"}).Run(ctx)
	assert.ErrorContains(t, err, "is not deleted")
}

func TestHabitEditInput(t *testing.T) {
	h := models.Habit{Title: "Run", Category: "Fitness", Description: "d", IsPublic: true}

	in := (&HabitEditCmd{}).input(h)
	assert.Equal(t, "Run", in.Title)
	assert.Equal(t, "d", in.Description)
	require.NotNil(t, in.IsPublic)
	assert.True(t, *in.IsPublic)

	cat := "Morning"
	in = (&HabitEditCmd{Category: &cat, Visibility: "private"}).input(h)
	assert.Equal(t, "Morning", in.Category)
	assert.False(t, *in.IsPublic)
}

func TestBrowseShowsOthersPublicHabits(t *testing.T) {
	e := setup(t)
	require.NoError(t, (&HabitAddCmd{Title: "Stretch", Category: "Morning"}).Run(e.context(t, "alice@example.com")))
	require.NoError(t, (&HabitAddCmd{Title: "Journal", Category: "Evening", Private: true}).Run(e.context(t, "alice@example.com")))
	e.output()

	bob := e.context(t, "bob@example.com")
	require.NoError(t, (&HabitFeaturedCmd{}).Run(bob))
	out := e.output()
	assert.Contains(t, out, "Stretch (Morning) by alice")
	assert.NotContains(t, out, "Journal")

	require.NoError(t, (&HabitBrowseCmd{Search: "stre", Category: "All", Limit: 10}).Run(bob))
	assert.Contains(t, e.output(), "Stretch")

	// Bob cannot complete Alice's habit by title: it is not his.
	err := (&HabitCompleteCmd{Habit: "Stretch"}).Run(bob)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHabitExport(t *testing.T) {
	e := setup(t)
	ctx := e.context(t, "alice@example.com")
	require.NoError(t, (&HabitAddCmd{Title: "Read", Category: "Evening"}).Run(ctx))
	require.NoError(t, (&HabitCompleteCmd{Habit: "Read"}).Run(ctx))
	e.output()

	require.NoError(t, (&HabitExportCmd{Format: "json"}).Run(ctx))
	var fromJSON []models.Habit
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &fromJSON))
	e.output()
	require.Len(t, fromJSON, 1)
	assert.Equal(t, []string{"2024-03-10"}, fromJSON[0].CompletionHistory)

	path := filepath.Join(t.TempDir(), "habits.yaml")
	require.NoError(t, (&HabitExportCmd{Format: "yaml", Output: path}).Run(ctx))
	assert.Contains(t, e.output(), "Exported 1 habit(s)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var fromYAML []map[string]any
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "Read", fromYAML[0]["title"])
	assert.Equal(t, 1, fromYAML[0]["current_streak"])
}

func TestWriteExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeExport(&buf, "json", nil))
	assert.Equal(t, "[]\n", buf.String())

	assert.Error(t, writeExport(&buf, "csv", nil))
}

func TestProgressGrid(t *testing.T) {
	grid := streak.Progress([]string{"2024-03-10", "2024-03-08"}, "2024-03-10", 9)
	assert.Equal(t, "□ □ □ □ □ □ ■\n□ ■\n", progressGrid(grid))
}

func TestDetailMarkdownClampsDays(t *testing.T) {
	h := models.Habit{Title: "Read", Category: "Study", CompletionHistory: []string{"2024-03-10"}}

	md := detailMarkdown(h, "2024-03-10", 10000)
	assert.Contains(t, md, "## Last 366 days")
	assert.Equal(t, 366, strings.Count(md, "□")+strings.Count(md, "■"))

	assert.Contains(t, detailMarkdown(h, "2024-03-10", 0), "## Last 30 days")
	assert.Contains(t, detailMarkdown(h, "2024-03-10", 366), "## Last 366 days")
}
