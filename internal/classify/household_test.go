package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/crmimport/internal/model"
)

func TestSplit_TwoByTwo(t *testing.T) {
	row := model.Row{ID: "42", FirstName: "Klaus + Dr. Maria", LastName: "Bauer + Klein", Street: "Hauptstr. 1"}

	h, ok := Split(row)
	require.True(t, ok)
	require.Len(t, h.Members, 2)

	assert.Equal(t, "Bauer + Klein", h.Row.HouseholdName)
	assert.Empty(t, h.Row.FirstName)
	assert.Empty(t, h.Row.LastName)
	assert.Equal(t, "42", h.Row.ExternalID())

	her, him := h.Members[0], h.Members[1]
	assert.Equal(t, MemberHer, her.MemberIndex)
	assert.Equal(t, "Frau", her.Gender)
	assert.Equal(t, "Dr.", her.Title)
	assert.Equal(t, "Maria", her.FirstName)
	assert.Equal(t, "Klein", her.LastName)
	assert.Equal(t, "Hauptstr. 1", her.Street)

	assert.Equal(t, MemberHim, him.MemberIndex)
	assert.Equal(t, "Herr", him.Gender)
	assert.Empty(t, him.Title)
	assert.Equal(t, "Klaus", him.FirstName)
	assert.Equal(t, "Bauer", him.LastName)

	assert.Equal(t, "42_1", her.ExternalID())
	assert.Equal(t, "42_2", him.ExternalID())
	assert.NotEqual(t, her.ExternalID(), him.ExternalID())
}

func TestSplit_SharedLastNameRecoversTitle(t *testing.T) {
	row := model.Row{ID: "9", FirstName: "Dr. Klaus + Anna", LastName: "Bauer"}

	h, ok := Split(row)
	require.True(t, ok)
	require.Len(t, h.Members, 2)

	assert.Equal(t, "Bauer", h.Row.HouseholdName)

	her, him := h.Members[0], h.Members[1]
	assert.Equal(t, 1, her.MemberIndex)
	assert.Empty(t, her.Title)
	assert.Equal(t, "Anna", her.FirstName)
	assert.Equal(t, "Bauer", her.LastName)

	assert.Equal(t, 2, him.MemberIndex)
	assert.Equal(t, "Dr.", him.Title)
	assert.Equal(t, "Klaus", him.FirstName)
	assert.Equal(t, "Bauer", him.LastName)
}

// The row-level title only ever lands on him. Her title is whatever her own
// token carried, or the inherited row title in the two-last-name branch.
func TestSplit_RowTitleGoesToHimOnly(t *testing.T) {
	t.Run("shared last name", func(t *testing.T) {
		h, ok := Split(model.Row{ID: "1", Title: "Prof.", FirstName: "Dr. Klaus + Anna", LastName: "Bauer"})
		require.True(t, ok)
		assert.Empty(t, h.Members[0].Title)
		assert.Equal(t, "Prof.", h.Members[1].Title)
	})

	t.Run("two last names", func(t *testing.T) {
		h, ok := Split(model.Row{ID: "1", Title: "Prof.", FirstName: "Klaus + Anna", LastName: "Bauer + Klein"})
		require.True(t, ok)
		assert.Equal(t, "Prof.", h.Members[0].Title)
		assert.Equal(t, "Prof.", h.Members[1].Title)
	})

	t.Run("two last names with embedded title", func(t *testing.T) {
		h, ok := Split(model.Row{ID: "1", Title: "Prof.", FirstName: "Klaus + Dr. Anna", LastName: "Bauer + Klein"})
		require.True(t, ok)
		assert.Equal(t, "Dr.", h.Members[0].Title)
		assert.Equal(t, "Prof.", h.Members[1].Title)
	})
}

func TestSplit_HouseholdOnly(t *testing.T) {
	h, ok := Split(model.Row{ID: "5", LastName: "Müller + Schmidt"})
	require.True(t, ok)
	assert.Equal(t, "Müller + Schmidt", h.Row.HouseholdName)
	assert.Empty(t, h.Members)

	h, ok = Split(model.Row{ID: "6", LastName: "Müller", FirstName: "   "})
	require.True(t, ok)
	assert.Equal(t, "Müller", h.Row.HouseholdName)
	assert.Empty(t, h.Members)
}

func TestSplit_Unsplittable(t *testing.T) {
	rows := []model.Row{
		{FirstName: "A + B + C", LastName: "Bauer"},
		{FirstName: "Anna", LastName: "Bauer + Klein"},
		{FirstName: "A + B"},
		{FirstName: "A + B", LastName: "X + Y + Z"},
	}
	for _, row := range rows {
		if _, ok := Split(row); ok {
			t.Errorf("expected %+v to be unsplittable", row)
		}
	}
}

func TestSplit_DoesNotMutateInput(t *testing.T) {
	row := model.Row{ID: "1", Title: "Dr.", FirstName: "Klaus + Anna", LastName: "Bauer"}
	orig := row
	_, _ = Split(row)
	assert.Equal(t, orig, row)
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		in, title, first string
	}{
		{"Maria", "", "Maria"},
		{"Dr. Maria", "Dr.", "Maria"},
		{"Prof. Dr. Maria", "Prof. Dr.", "Maria"},
		{"", "", ""},
	}
	for _, tt := range tests {
		title, first := splitTitle(tt.in)
		if title != tt.title || first != tt.first {
			t.Errorf("splitTitle(%q) = (%q, %q), want (%q, %q)", tt.in, title, first, tt.title, tt.first)
		}
	}
}
