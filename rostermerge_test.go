package rostermerge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rostermerge/internal/journal"
	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/merger"
	"github.com/agentstation/rostermerge/pkg/operations"
	"github.com/agentstation/rostermerge/pkg/reconciler"
	"github.com/agentstation/rostermerge/pkg/retire"
	"github.com/agentstation/rostermerge/pkg/store"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func person(id, name, chamber string, district any) document.Document {
	return document.Document{
		"id":    "ocd-person/" + id,
		"name":  name,
		"roles": []any{map[string]any{"type": chamber, "district": district}},
	}
}

// seed writes a record through the jurisdiction's store and returns its path.
func seed(t *testing.T, c Client, partition store.Partition, doc document.Document) string {
	t.Helper()
	st, err := c.Store("ak")
	require.NoError(t, err)
	rec := store.NewRecord(store.KindPerson, partition, doc)
	require.NoError(t, st.Save(context.Background(), rec))
	path, err := st.Path(rec.Ref)
	require.NoError(t, err)
	return path
}

func newClient(t *testing.T, opts ...Option) (Client, string) {
	t.Helper()
	root := t.TempDir()
	c, err := New(append([]Option{WithDataRoot(root), WithClock(fixedClock)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, root
}

func TestMergeWithHooksAndJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	c, _ := newClient(t, WithJournal(dbPath))

	seed(t, c, store.Active, person("aaa", "Bob Roe", "lower", 1))
	seed(t, c, store.Active, person("bbb", "Jane Doe", "upper", 5))
	seed(t, c, store.Incoming, person("ccc", "Jane Doe", "upper", 7))
	seed(t, c, store.Incoming, person("ddd", "Ann Lee", "lower", 2))

	var created, updated, retired []string
	c.OnCreated(func(op *operations.Create) { created = append(created, op.Subject()) })
	c.OnUpdated(func(op *operations.Update) { updated = append(updated, op.Subject()) })
	c.OnRetired(func(op *operations.Retire) { retired = append(retired, op.Subject()) })

	ctx := context.Background()
	result, err := c.Merge(ctx, "ak")
	require.NoError(t, err)

	assert.Equal(t, []string{"Ann Lee"}, created)
	assert.Equal(t, []string{"Jane Doe"}, updated)
	assert.Equal(t, []string{"Bob Roe"}, retired)

	st, err := c.Store("ak")
	require.NoError(t, err)
	active, err := st.List(ctx, store.KindPerson, store.Active)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	require.NoError(t, c.Close())
	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	defer j.Close()

	runs, err := j.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
	assert.Equal(t, journal.StatusSucceeded, runs[0].Status)
	assert.True(t, runs[0].Save)

	entries, err := j.Entries(ctx, result.RunID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestMergeDryRunFiresNoHooks(t *testing.T) {
	c, _ := newClient(t)
	seed(t, c, store.Incoming, person("ddd", "Ann Lee", "lower", 2))

	fired := false
	c.OnCreated(func(*operations.Create) { fired = true })

	result, err := c.Merge(context.Background(), "ak", reconciler.WithSave(false))
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Len(t, result.Plan, 1)
	assert.False(t, fired)
}

func TestMergeWithSettings(t *testing.T) {
	settings := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(settings, []byte("ak:\n  lower_seats: 4\n"), 0o644))
	c, _ := newClient(t, WithSettingsFile(settings))
	seed(t, c, store.Incoming, person("ddd", "Ann Lee", "lower", 2))

	result, err := c.Merge(context.Background(), "ak", reconciler.WithSave(false))
	require.NoError(t, err)
	require.NotNil(t, result.IncomingCheck)
	assert.Equal(t, 4, result.IncomingCheck.Expected)
	assert.False(t, result.IncomingCheck.OK)
}

func TestMergeMissingSettingsSkipsCheck(t *testing.T) {
	c, _ := newClient(t, WithSettingsFile(filepath.Join(t.TempDir(), "missing.yml")))
	result, err := c.Merge(context.Background(), "ak")
	require.NoError(t, err)
	assert.Nil(t, result.IncomingCheck)
}

func TestCheckIncoming(t *testing.T) {
	settings := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(settings, []byte("ak:\n  lower_seats: 2\n"), 0o644))
	c, _ := newClient(t, WithSettingsFile(settings))
	seed(t, c, store.Incoming, person("aaa", "Ann Lee", "lower", 1))
	seed(t, c, store.Incoming, person("bbb", "Bob Roe", "lower", 2))

	check, err := c.CheckIncoming(context.Background(), "ak")
	require.NoError(t, err)
	assert.True(t, check.OK)

	_, err = c.CheckIncoming(context.Background(), "nh")
	assert.True(t, errors.IsNotFound(err))

	bare, _ := newClient(t)
	_, err = bare.CheckIncoming(context.Background(), "ak")
	assert.Error(t, err)
}

func TestRetire(t *testing.T) {
	c, _ := newClient(t)
	path := seed(t, c, store.Active, person("aaa", "Bob Roe", "lower", 1))

	result, err := c.Retire(context.Background(), path, retire.Retirement{EndDate: "2024-05-01", Death: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Roles)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	st, err := c.Store("ak")
	require.NoError(t, err)
	retired, err := st.List(context.Background(), store.KindPerson, store.Retired)
	require.NoError(t, err)
	require.Len(t, retired, 1)
	assert.Equal(t, "2024-05-01", retired[0].Doc["death_date"])
	assert.Equal(t, "Deceased", retired[0].Doc.Roles()[0]["end_reason"])
}

func TestRetireRejectsIncoming(t *testing.T) {
	c, _ := newClient(t)
	path := seed(t, c, store.Incoming, person("aaa", "Bob Roe", "lower", 1))
	_, err := c.Retire(context.Background(), path, retire.Retirement{EndDate: "2024-05-01"})
	assert.True(t, errors.IsValidationError(err))
}

func TestMergeFiles(t *testing.T) {
	t.Run("keeps both ids for active duplicates", func(t *testing.T) {
		c, _ := newClient(t)
		oldPath := seed(t, c, store.Active, person("aaa", "Bob Roe", "lower", 1))
		dup := person("bbb", "Bob Roe", "lower", 1)
		dup["email"] = "bob@example.com"
		newPath := seed(t, c, store.Active, dup)

		merged, err := c.MergeFiles(context.Background(), oldPath, newPath, merger.KeepNew)
		require.NoError(t, err)
		assert.Equal(t, "ocd-person/aaa", merged.ID())
		assert.Equal(t, "bob@example.com", merged["email"])
		assert.Equal(t, []any{map[string]any{"scheme": "openstates", "identifier": "ocd-person/bbb"}}, merged["other_identifiers"])

		_, err = os.Stat(newPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("drops incoming ids", func(t *testing.T) {
		c, _ := newClient(t)
		oldPath := seed(t, c, store.Active, person("aaa", "Bob Roe", "lower", 1))
		newPath := seed(t, c, store.Incoming, person("bbb", "Bob Roe", "lower", 1))

		merged, err := c.MergeFiles(context.Background(), oldPath, newPath, merger.KeepNew)
		require.NoError(t, err)
		assert.NotContains(t, merged, "other_identifiers")
	})

	t.Run("conflict under error policy", func(t *testing.T) {
		c, _ := newClient(t)
		old := person("aaa", "Bob Roe", "lower", 1)
		old["party"] = "Democratic"
		oldPath := seed(t, c, store.Active, old)
		dup := person("bbb", "Bob Roe", "lower", 1)
		dup["party"] = "Republican"
		newPath := seed(t, c, store.Active, dup)

		_, err := c.MergeFiles(context.Background(), oldPath, newPath, merger.KeepError)
		assert.True(t, errors.IsMergeConflict(err))
		_, err = os.Stat(newPath)
		assert.NoError(t, err, "nothing is deleted on conflict")
	})
}

func TestOptionValidation(t *testing.T) {
	_, err := New(WithDataRoot(""))
	assert.True(t, errors.IsValidationError(err))
	_, err = New(WithClock(nil))
	assert.Error(t, err)
}
