// Package classify decides what kind of contact a source row describes.
//
// A row is an organization, an individual working for an organization, a
// household of two people written into one row ("Klaus + Anna"), or a plain
// individual. Rows that fit none of these produce no contact at all.
package classify

import (
	"strings"

	"github.com/ppiankov/crmimport/internal/model"
)

// Delimiter joins two people in a name field
const Delimiter = "+"

// Shape is the classification of a row
type Shape int

const (
	ShapeNone Shape = iota
	ShapeOrganization
	ShapeIndividualWithEmployer
	ShapeHouseholdPair
	ShapeIndividual
)

func (s Shape) String() string {
	switch s {
	case ShapeOrganization:
		return "organization"
	case ShapeIndividualWithEmployer:
		return "individual_with_employer"
	case ShapeHouseholdPair:
		return "household"
	case ShapeIndividual:
		return "individual"
	default:
		return "none"
	}
}

// Decision is the outcome of classifying one row
type Decision struct {
	Shape Shape
	Row   model.Row

	// Household is set for ShapeHouseholdPair when the names could be split
	Household *Household
}

// Classify inspects the row's name and organization fields.
// Rules are evaluated in order and the first match wins.
func Classify(row model.Row) Decision {
	d := Decision{Shape: shapeOf(row), Row: row}
	if d.Shape == ShapeHouseholdPair {
		if h, ok := Split(row); ok {
			d.Household = &h
		}
	}
	return d
}

func shapeOf(row model.Row) Shape {
	org := row.Has(model.FieldOrganization)
	first := row.Get(model.FieldFirstName)
	last := row.Get(model.FieldLastName)
	joined := isJoined(first) || isJoined(last)

	switch {
	case org && first == "" && last == "":
		return ShapeOrganization
	case org && first != "" && last != "" && !joined:
		return ShapeIndividualWithEmployer
	case !org && joined:
		return ShapeHouseholdPair
	case !org && first != "" && last != "":
		return ShapeIndividual
	}
	return ShapeNone
}

// isJoined reports whether splitting on the delimiter yields more than one token
func isJoined(s string) bool {
	return len(strings.Split(s, Delimiter)) > 1
}
