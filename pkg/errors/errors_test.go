package errors_test

import (
	"errors"
	"testing"

	pkgerrors "github.com/agentstation/rostermerge/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "person",
			ID:       "ocd-person/1234",
		}
		assert.Equal(t, "person with ID ocd-person/1234 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("settings", "ak")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestAlreadyExistsError(t *testing.T) {
	err := &pkgerrors.AlreadyExistsError{Resource: "record", ID: "retired/Jane-Doe.yml"}
	assert.Equal(t, "record retired/Jane-Doe.yml already exists", err.Error())
	assert.True(t, pkgerrors.IsAlreadyExists(err))
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("lower_seats", 3.5, "unrecognized seat specification")
		assert.Equal(t, "validation failed for field lower_seats: unrecognized seat specification", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "no jurisdiction given"}
		assert.Equal(t, "validation failed: no jurisdiction given", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("wrap helper", func(t *testing.T) {
		assert.Nil(t, pkgerrors.WrapValidation("end_date", nil))
		err := pkgerrors.WrapValidation("end_date", errors.New("bad date"))
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestMergeConflictError(t *testing.T) {
	err := pkgerrors.NewMergeConflictError("party", "Democratic", "Republican")
	assert.Equal(t, "merge conflict on party: Democratic != Republican", err.Error())
	assert.True(t, pkgerrors.IsMergeConflict(err))
	assert.False(t, pkgerrors.IsValidationError(err))
}

func TestOperationError(t *testing.T) {
	t.Run("with seat", func(t *testing.T) {
		base := errors.New("disk full")
		err := pkgerrors.NewOperationError("update", "Jane Doe", "lower/3", base)
		assert.Equal(t, "update Jane Doe in lower/3: disk full", err.Error())
		assert.True(t, pkgerrors.IsOperationError(err))
		assert.Equal(t, base, errors.Unwrap(err))
	})

	t.Run("without seat", func(t *testing.T) {
		err := pkgerrors.NewOperationError("create", "John Roe", "", errors.New("boom"))
		assert.Equal(t, "create John Roe: boom", err.Error())
	})
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("journal", "cannot open database", errors.New("permission denied"))
	assert.Contains(t, err.Error(), "journal")
	assert.Contains(t, err.Error(), "cannot open database")
	assert.NotNil(t, err.Unwrap())
}

func TestIOError(t *testing.T) {
	t.Run("unwrap", func(t *testing.T) {
		baseErr := errors.New("disk full")
		err := pkgerrors.NewIOError("write", "/data/ak/people/x.yml", baseErr)
		assert.Equal(t, baseErr, err.Unwrap())
	})

	t.Run("wrap helper", func(t *testing.T) {
		err := pkgerrors.WrapIO("move", "data/ak/people/x.yml", errors.New("exists"))
		ioErr, ok := err.(*pkgerrors.IOError)
		require.True(t, ok)
		assert.Equal(t, "move", ioErr.Operation)
		assert.Equal(t, "data/ak/people/x.yml", ioErr.Path)
		assert.Nil(t, pkgerrors.WrapIO("move", "x", nil))
	})
}

func TestParseError(t *testing.T) {
	err := pkgerrors.WrapParse("yaml", "people/x.yml", errors.New("mapping values are not allowed"))
	assert.Equal(t, "parse error in yaml file people/x.yml: mapping values are not allowed", err.Error())

	bare := pkgerrors.NewParseError("date", "", "expected YYYY-MM-DD", nil)
	assert.Equal(t, "date parse error: expected YYYY-MM-DD", bare.Error())
}
