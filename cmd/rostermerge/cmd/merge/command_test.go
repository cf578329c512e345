package merge

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rostermerge"
	"github.com/agentstation/rostermerge/internal/appcontext"
	"github.com/agentstation/rostermerge/internal/journal"
	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/store"
)

func fixedClock() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

func person(id, name, chamber string, district int) document.Document {
	return document.Document{
		"id":    "ocd-person/" + id,
		"name":  name,
		"roles": []any{map[string]any{"type": chamber, "district": district}},
	}
}

// setup seeds a roster under a temp data root and returns a mock app whose
// clients point at it.
func setup(t *testing.T, format string) (*appcontext.Mock, string) {
	t.Helper()
	root := t.TempDir()
	base := []rostermerge.Option{rostermerge.WithDataRoot(root), rostermerge.WithClock(fixedClock)}

	seeder, err := rostermerge.New(base...)
	require.NoError(t, err)
	st, err := seeder.Store("ak")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, store.NewRecord(store.KindPerson, store.Active, person("aaa", "Bob Roe", "lower", 1))))
	require.NoError(t, st.Save(ctx, store.NewRecord(store.KindPerson, store.Incoming, person("bbb", "Ann Lee", "lower", 2))))

	mock := &appcontext.Mock{
		Format: format,
		Plain:  true,
		ClientWithOptionsFunc: func(opts ...rostermerge.Option) (rostermerge.Client, error) {
			return rostermerge.New(append(base, opts...)...)
		},
	}
	return mock, root
}

func run(t *testing.T, app AppContext, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewCommand(app, "", false, false)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestMergeDryRun(t *testing.T) {
	app, root := setup(t, "table")

	out, _, err := run(t, app, "ak", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "In lower/1 retiring Bob Roe. (skipped)")
	assert.Contains(t, out, "In lower/2 creating Ann Lee. (skipped)")
	assert.Less(t, bytes.Index([]byte(out), []byte("retiring")), bytes.Index([]byte(out), []byte("creating")),
		"deferred operations run in seat order")

	matches, err := filepath.Glob(filepath.Join(root, "data", "ak", "people", "*.yml"))
	require.NoError(t, err)
	assert.Len(t, matches, 1, "dry run writes nothing")
}

func TestMergeApplies(t *testing.T) {
	app, root := setup(t, "table")

	out, _, err := run(t, app, "ak")
	require.NoError(t, err)
	assert.Contains(t, out, "In lower/2 creating Ann Lee.\n")
	assert.NotContains(t, out, "(skipped)")

	retired, err := filepath.Glob(filepath.Join(root, "data", "ak", "retired", "*.yml"))
	require.NoError(t, err)
	assert.Len(t, retired, 1)
}

func TestMergeJSON(t *testing.T) {
	app, _ := setup(t, "json")

	out, _, err := run(t, app, "ak", "--save=false")
	require.NoError(t, err)

	var summary struct {
		DryRun     bool `json:"dry_run"`
		Operations []struct {
			Kind  string `json:"kind"`
			State string `json:"state"`
		} `json:"operations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.True(t, summary.DryRun)
	require.Len(t, summary.Operations, 2)
	assert.Equal(t, "retire", summary.Operations[0].Kind)
	assert.Equal(t, "skipped", summary.Operations[1].State)
}

func TestMergeShowDiff(t *testing.T) {
	app, root := setup(t, "table")
	c, err := rostermerge.New(rostermerge.WithDataRoot(root))
	require.NoError(t, err)
	st, err := c.Store("ak")
	require.NoError(t, err)
	moved := person("ccc", "Bob Roe", "lower", 3)
	require.NoError(t, st.Save(context.Background(), store.NewRecord(store.KindPerson, store.Incoming, moved)))

	out, _, err := run(t, app, "ak", "--dry-run", "--show-diff")
	require.NoError(t, err)
	assert.Contains(t, out, "In lower/1 updating Bob Roe and moving to lower/3. (skipped)")
	assert.Contains(t, out, "+++ merged")
}

func TestMergeJournalFlag(t *testing.T) {
	app, _ := setup(t, "yaml")
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	_, _, err := run(t, app, "ak", "--journal", dbPath)
	require.NoError(t, err)

	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	defer j.Close()
	runs, err := j.Runs(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestMergeBadFormat(t *testing.T) {
	app, _ := setup(t, "xml")
	_, _, err := run(t, app, "ak")
	assert.Error(t, err)
}

func TestMergeBadEndDate(t *testing.T) {
	app, _ := setup(t, "table")
	_, _, err := run(t, app, "ak", "--end-date", "June")
	assert.Error(t, err)
}
