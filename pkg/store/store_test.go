package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
)

func TestParsePartition(t *testing.T) {
	for _, p := range Partitions {
		got, err := ParsePartition(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePartition("archive")
	assert.True(t, errors.IsValidationError(err))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(KindPerson, Retired))
	assert.NoError(t, Validate(KindCommittee, Active))
	assert.True(t, errors.IsValidationError(Validate(KindCommittee, Incoming)))
	assert.True(t, errors.IsValidationError(Validate("bill", Active)))
	assert.True(t, errors.IsValidationError(Validate(KindPerson, "archive")))
}

func TestRef(t *testing.T) {
	rec := NewRecord(KindPerson, Incoming, document.Document{"id": "ocd-person/abc", "name": "Jane Doe"})
	assert.Equal(t, "Jane-Doe-abc.yml", rec.Ref.Name)
	assert.Equal(t, "person/incoming/Jane-Doe-abc.yml", rec.Ref.String())

	moved := rec.Ref.In(Active)
	assert.Equal(t, Active, moved.Partition)
	assert.Equal(t, rec.Ref.Name, moved.Name)
	assert.Equal(t, Incoming, rec.Ref.Partition)
}
