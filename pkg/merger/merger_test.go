package merger

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
)

const today = "2024-06-01"

func mustMerge(t *testing.T, existing, incoming document.Document, opts ...Option) document.Document {
	t.Helper()
	merged, err := Merge(existing, incoming, append([]Option{WithAsOf(today)}, opts...)...)
	require.NoError(t, err)
	return merged
}

func TestMergeScalars(t *testing.T) {
	existing := document.Document{
		"id":    "ocd-person/old",
		"name":  "Jane Doe",
		"email": "jane@old.example.com",
		"image": "https://example.com/jane.jpg",
	}
	incoming := document.Document{
		"id":        "ocd-person/new",
		"name":      "Jane Doe",
		"email":     "jane@new.example.com",
		"biography": "Former nurse.",
	}

	merged := mustMerge(t, existing, incoming)
	want := document.Document{
		"id":        "ocd-person/old",
		"name":      "Jane Doe",
		"email":     "jane@new.example.com",
		"image":     "https://example.com/jane.jpg",
		"biography": "Former nurse.",
	}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "jane@old.example.com", existing["email"], "inputs are not modified")
}

func TestMergePolicies(t *testing.T) {
	existing := document.Document{"id": "a", "party": "Democratic", "extras": map[string]any{"title": "Dr."}}
	incoming := document.Document{"id": "b", "party": "Independent", "extras": map[string]any{"title": "Mx."}}

	t.Run("keep new", func(t *testing.T) {
		merged := mustMerge(t, existing, incoming, WithPolicy(KeepNew))
		assert.Equal(t, "Independent", merged["party"])
		assert.Equal(t, "Mx.", merged["extras"].(map[string]any)["title"])
	})

	t.Run("keep old", func(t *testing.T) {
		merged := mustMerge(t, existing, incoming, WithPolicy(KeepOld))
		assert.Equal(t, "Democratic", merged["party"])
		assert.Equal(t, "Dr.", merged["extras"].(map[string]any)["title"])
	})

	t.Run("keep error", func(t *testing.T) {
		_, err := Merge(existing, incoming, WithPolicy(KeepError))
		require.Error(t, err)
		assert.True(t, errors.IsMergeConflict(err))
		var conflict *errors.MergeConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "extras.title", conflict.Key)
	})

	t.Run("keep error still fills gaps", func(t *testing.T) {
		merged := mustMerge(t, document.Document{"id": "a"}, document.Document{"party": "Green"}, WithPolicy(KeepError))
		assert.Equal(t, "Green", merged["party"])
	})
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("old")
	require.NoError(t, err)
	assert.Equal(t, KeepOld, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, KeepError, p)

	_, err = ParsePolicy("both")
	assert.True(t, errors.IsValidationError(err))
}

func TestMergeIDImmutable(t *testing.T) {
	existing := document.Document{"id": "ocd-person/keep", "name": "A"}
	incoming := document.Document{"id": "ocd-person/drop", "name": "B"}

	merged := mustMerge(t, existing, incoming)
	assert.Equal(t, "ocd-person/keep", merged.ID())
	assert.NotContains(t, merged, "other_identifiers")

	merged = mustMerge(t, existing, incoming, WithKeepBothIDs(true))
	assert.Equal(t, "ocd-person/keep", merged.ID())
	assert.Equal(t, []any{
		map[string]any{"scheme": "openstates", "identifier": "ocd-person/drop"},
	}, merged["other_identifiers"])
}

func TestMergeListsAppendIncomingOnly(t *testing.T) {
	existing := document.Document{"id": "a", "links": []any{map[string]any{"url": "https://a.example.com"}}}
	incoming := document.Document{"id": "a", "links": []any{map[string]any{"url": "https://b.example.com"}}}

	merged := mustMerge(t, existing, incoming)
	assert.Equal(t, []any{
		map[string]any{"url": "https://a.example.com"},
		map[string]any{"url": "https://b.example.com"},
	}, merged["links"])
}

func TestMergeContactDetailsByNote(t *testing.T) {
	existing := document.Document{
		"id": "a",
		"contact_details": []any{
			map[string]any{"note": "Capitol", "voice": "1"},
		},
	}
	incoming := document.Document{
		"contact_details": []any{
			map[string]any{"note": "District", "voice": "2"},
		},
	}

	merged := mustMerge(t, existing, incoming)
	want := []any{
		map[string]any{"note": "Capitol", "voice": "1"},
		map[string]any{"note": "District", "voice": "2"},
	}
	if diff := cmp.Diff(want, merged["contact_details"]); diff != "" {
		t.Errorf("contact_details mismatch (-want +got):\n%s", diff)
	}

	update := document.Document{
		"contact_details": []any{
			map[string]any{"note": "Capitol", "voice": "3", "fax": "4"},
		},
	}
	merged = mustMerge(t, merged, update)
	want = []any{
		map[string]any{"note": "Capitol", "voice": "3", "fax": "4"},
		map[string]any{"note": "District", "voice": "2"},
	}
	if diff := cmp.Diff(want, merged["contact_details"]); diff != "" {
		t.Errorf("contact_details overlay mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeContactDetailsMissingIncoming(t *testing.T) {
	existing := document.Document{"contact_details": []any{map[string]any{"note": "Capitol"}}}
	merged := mustMerge(t, existing, document.Document{})
	assert.Equal(t, existing["contact_details"], merged["contact_details"])
}

func TestMergeRolesSameSeatOverlays(t *testing.T) {
	existing := document.Document{
		"id": "a",
		"roles": []any{
			map[string]any{"type": "upper", "district": "5", "start_date": "2019-01-01"},
		},
	}
	incoming := document.Document{
		"roles": []any{
			map[string]any{"type": "upper", "district": "5", "jurisdiction": "ocd-jurisdiction/country:us/state:ak/government"},
		},
	}
	merged := mustMerge(t, existing, incoming)
	roles := merged.Roles()
	require.Len(t, roles, 1)
	assert.Equal(t, "2019-01-01", roles[0]["start_date"])
	assert.Equal(t, "ocd-jurisdiction/country:us/state:ak/government", roles[0]["jurisdiction"])
}

func TestSeatChangeUpdate(t *testing.T) {
	existing := document.Document{
		"id":   "ocd-person/1",
		"name": "Jane Doe",
		"roles": []any{
			map[string]any{"type": "upper", "district": "5"},
		},
	}
	incoming := document.Document{
		"id":   "ocd-person/2",
		"name": "Jane Doe",
		"roles": []any{
			map[string]any{"type": "upper", "district": "7"},
		},
	}
	newSeat, err := incoming.Seat()
	require.NoError(t, err)

	target := existing.Clone()
	ended, err := EndMovedRoles(target, newSeat, today, today)
	require.NoError(t, err)
	assert.Equal(t, 1, ended)

	merged := mustMerge(t, target, incoming)
	seat, err := merged.Seat()
	require.NoError(t, err)
	assert.Equal(t, newSeat, seat)
	assert.Equal(t, "ocd-person/1", merged.ID())

	roles := merged.Roles()
	require.Len(t, roles, 2)
	assert.Equal(t, today, roles[0]["end_date"])
	assert.NotContains(t, roles[1], "end_date")
}

func TestEndMovedRolesSkipsInactiveAndSameSeat(t *testing.T) {
	doc := document.Document{
		"roles": []any{
			map[string]any{"type": "lower", "district": "2", "end_date": "2018-01-01"},
			map[string]any{"type": "upper", "district": "7"},
		},
	}
	ended, err := EndMovedRoles(doc, document.Seat{Type: "upper", District: document.NumberDistrict(7)}, today, today)
	require.NoError(t, err)
	assert.Zero(t, ended)
	assert.Equal(t, "2018-01-01", doc.Roles()[0]["end_date"])
}

func TestNeedsUpdate(t *testing.T) {
	existing := document.Document{"id": "a", "name": "Jane", "phones": []any{"X"}}
	assert.False(t, NeedsUpdate(existing, document.Document{"id": "b", "name": "Jane"}))
	assert.True(t, NeedsUpdate(existing, document.Document{"name": "Jane", "phones": []any{"Y"}}))
}

func TestWithRuleOverride(t *testing.T) {
	existing := document.Document{"contact_details": []any{map[string]any{"note": "Capitol"}}}
	incoming := document.Document{"contact_details": []any{map[string]any{"note": "District"}}}

	replace := func(_, next any, _ string) (any, error) { return next, nil }
	merged := mustMerge(t, existing, incoming, WithRule("contact_details", replace))
	assert.Equal(t, incoming["contact_details"], merged["contact_details"])

	_, err := New(WithAsOf("June 1"))
	assert.True(t, errors.IsValidationError(err))
}
