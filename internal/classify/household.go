package classify

import (
	"strings"

	"github.com/ppiankov/crmimport/internal/model"
)

// Member indexes used for household members' external identifiers
const (
	MemberHer = 1
	MemberHim = 2
)

const (
	genderHer = "Frau"
	genderHim = "Herr"
)

// Household is a household pseudo-contact and the people living in it
type Household struct {
	Row     model.Row
	Members []model.Row // empty, or exactly [her, him]
}

// Split derives a household and its two members from a row whose names are
// joined with the delimiter. The first listed person becomes "him" (member 2),
// the second "her" (member 1). A row title is forced onto him only; her title
// comes from her own first-name token.
//
// ok is false when the combination of name lists cannot be split.
func Split(row model.Row) (Household, bool) {
	last := splitNames(row.Get(model.FieldLastName))
	first := splitNames(row.Get(model.FieldFirstName))
	if len(last) == 0 {
		return Household{}, false
	}

	switch {
	case len(last) == 2 && len(first) == 2:
		her := member(row, last[1], first[1], genderHer, MemberHer)
		him := member(row, last[0], first[0], genderHim, MemberHim)
		forceRowTitle(&him, row)
		return Household{
			Row:     householdRow(row, strings.Join(last, " + ")),
			Members: []model.Row{her, him},
		}, true

	case len(last) == 1 && len(first) == 2:
		cleared := row.Clone()
		cleared.Title = ""
		her := member(cleared, last[0], first[1], genderHer, MemberHer)
		him := member(row, last[0], first[0], genderHim, MemberHim)
		forceRowTitle(&him, row)
		return Household{
			Row:     householdRow(row, last[0]),
			Members: []model.Row{her, him},
		}, true

	case len(last) == 2 && len(first) == 0:
		return Household{Row: householdRow(row, strings.Join(last, " + "))}, true

	case len(last) == 1 && (len(first) == 0 || (len(first) == 1 && first[0] == "")):
		return Household{Row: householdRow(row, last[0])}, true
	}

	return Household{}, false
}

// splitNames splits a name field on the delimiter. A blank field has no names.
func splitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, Delimiter)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// splitTitle recovers an embedded honorific: "Dr. Maria" → ("Dr.", "Maria").
func splitTitle(token string) (title, firstName string) {
	words := strings.Fields(token)
	if len(words) <= 1 {
		return "", strings.TrimSpace(token)
	}
	return strings.Join(words[:len(words)-1], " "), words[len(words)-1]
}

func member(base model.Row, lastName, firstToken, gender string, index int) model.Row {
	m := base.Clone()
	m.LastName = lastName
	m.Gender = gender
	title, firstName := splitTitle(firstToken)
	if title != "" {
		m.Title = title
	}
	m.FirstName = firstName
	m.MemberIndex = index
	return m
}

func forceRowTitle(him *model.Row, row model.Row) {
	if t := row.Get(model.FieldTitle); t != "" {
		him.Title = t
	}
}

func householdRow(row model.Row, name string) model.Row {
	h := row.Clone()
	h.FirstName = ""
	h.LastName = ""
	h.HouseholdName = name
	h.MemberIndex = 0
	return h
}
