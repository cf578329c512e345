package mergefiles

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rostermerge"
	"github.com/agentstation/rostermerge/internal/appcontext"
	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/store"
)

func setup(t *testing.T, format string) (*appcontext.Mock, string, string) {
	t.Helper()
	client, err := rostermerge.New(rostermerge.WithDataRoot(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	st, err := client.Store("ak")
	require.NoError(t, err)

	paths := make([]string, 0, 2)
	for _, id := range []string{"aaa", "bbb"} {
		rec := store.NewRecord(store.KindPerson, store.Active, document.Document{
			"id":    "ocd-person/" + id,
			"name":  "Jane Doe",
			"roles": []any{map[string]any{"type": "upper", "district": 5}},
			"email": id + "@example.com",
		})
		require.NoError(t, st.Save(context.Background(), rec))
		path, err := st.Path(rec.Ref)
		require.NoError(t, err)
		paths = append(paths, path)
	}

	return &appcontext.Mock{
		Format:     format,
		Plain:      true,
		ClientFunc: func() (rostermerge.Client, error) { return client, nil },
	}, paths[0], paths[1]
}

func execute(t *testing.T, app AppContext, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMergeFiles(t *testing.T) {
	tests := []struct {
		name      string
		keep      string
		wantEmail string
	}{
		{name: "keep new", keep: "new", wantEmail: "bbb@example.com"},
		{name: "keep old", keep: "old", wantEmail: "aaa@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, oldPath, newPath := setup(t, "table")

			out, err := execute(t, app, "--old", oldPath, "--new", newPath, "--keep", tt.keep)
			require.NoError(t, err)
			assert.Contains(t, out, "email: "+tt.wantEmail)
			assert.Contains(t, out, "ocd-person/bbb", "the folded id is kept")

			_, err = os.Stat(newPath)
			assert.True(t, os.IsNotExist(err))
		})
	}
}

// The records disagree on email, so the default error policy refuses.
func TestMergeFilesConflict(t *testing.T) {
	app, oldPath, newPath := setup(t, "json")

	_, err := execute(t, app, "--old", oldPath, "--new", newPath)
	assert.True(t, errors.IsMergeConflict(err))

	_, err = os.Stat(newPath)
	assert.NoError(t, err)
}

func TestMergeFilesValidation(t *testing.T) {
	app, oldPath, newPath := setup(t, "table")

	_, err := execute(t, app, "--old", oldPath, "--new", oldPath)
	assert.True(t, errors.IsValidationError(err))

	_, err = execute(t, app, "--old", oldPath, "--new", newPath, "--keep", "both")
	assert.True(t, errors.IsValidationError(err))

	_, err = execute(t, app, "--old", oldPath)
	assert.Error(t, err, "--new is required")
}
