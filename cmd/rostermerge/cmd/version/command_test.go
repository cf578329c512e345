package version

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rostermerge/internal/appcontext"
)

func TestVersion(t *testing.T) {
	cmd := NewCommand(&appcontext.Mock{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "rostermerge version dev")
	assert.Contains(t, out.String(), "built by: test")
	assert.Contains(t, out.String(), runtime.Version())
}
