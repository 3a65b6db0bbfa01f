package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRow_SetNormalizes(t *testing.T) {
	var r Row
	r.Set(FieldLastName, "  Mu\u0308ller ")
	assert.Equal(t, "M\u00fcller", r.LastName)
	assert.True(t, r.Has(FieldLastName))

	r.Set(FieldCity, "   ")
	assert.False(t, r.Has(FieldCity))
}

func TestColumns_Lookup(t *testing.T) {
	c := Columns{"Kontakt erw\u00fcnscht?": FieldContactAllowed, "Email privat": FieldEmailHome}

	f, ok := c.Lookup(" email PRIVAT")
	assert.True(t, ok)
	assert.Equal(t, FieldEmailHome, f)

	f, ok = c.Lookup("Kontakt erwu\u0308nscht?")
	assert.True(t, ok)
	assert.Equal(t, FieldContactAllowed, f)

	_, ok = c.Lookup("Fax")
	assert.False(t, ok)
}

func TestRow_ExternalIDAndEmails(t *testing.T) {
	r := Row{ID: "42", Email: "c@example.org", EmailWork: "a@example.org"}
	assert.Equal(t, "42", r.ExternalID())
	assert.Equal(t, []string{"a@example.org", "c@example.org"}, r.Emails())

	r.MemberIndex = 2
	assert.Equal(t, "42_2", r.ExternalID())

	assert.Equal(t, "", Row{MemberIndex: 1}.ExternalID())
	assert.Equal(t, "household_name", FieldHouseholdName.String())
	assert.Equal(t, "unknown", Field(-1).String())
}
