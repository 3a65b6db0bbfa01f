package model

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Field identifies one named column of an input record
type Field int

const (
	FieldID Field = iota
	FieldGender
	FieldTitle
	FieldFirstName
	FieldLastName
	FieldOrganization
	FieldJobTitle
	FieldContactAllowed
	FieldEmailWork
	FieldEmailHome
	FieldEmail
	FieldPhoneWork
	FieldPhoneMobile
	FieldPhoneHome
	FieldStreet
	FieldPostalCode
	FieldCity
	FieldCountry
	FieldBirthDate
	FieldGroups
	FieldTags
	FieldMembership
	FieldDonationPlatform
	FieldOrigin
	FieldIBAN
	FieldBIC
	FieldAmount
	FieldDonationDate
	FieldDonationID
	FieldPaymentSource
	FieldDonationType
	FieldHouseholdName
)

var fieldNames = [...]string{
	FieldID:               "id",
	FieldGender:           "gender",
	FieldTitle:            "title",
	FieldFirstName:        "first_name",
	FieldLastName:         "last_name",
	FieldOrganization:     "organization",
	FieldJobTitle:         "job_title",
	FieldContactAllowed:   "contact_allowed",
	FieldEmailWork:        "email_work",
	FieldEmailHome:        "email_home",
	FieldEmail:            "email",
	FieldPhoneWork:        "phone_work",
	FieldPhoneMobile:      "phone_mobile",
	FieldPhoneHome:        "phone_home",
	FieldStreet:           "street",
	FieldPostalCode:       "postal_code",
	FieldCity:             "city",
	FieldCountry:          "country",
	FieldBirthDate:        "birth_date",
	FieldGroups:           "groups",
	FieldTags:             "tags",
	FieldMembership:       "membership",
	FieldDonationPlatform: "donation_platform",
	FieldOrigin:           "origin",
	FieldIBAN:             "iban",
	FieldBIC:              "bic",
	FieldAmount:           "amount",
	FieldDonationDate:     "donation_date",
	FieldDonationID:       "donation_id",
	FieldPaymentSource:    "payment_source",
	FieldDonationType:     "donation_type",
	FieldHouseholdName:    "household_name",
}

// String returns the snake_case field name
func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

// Columns maps source header labels to fields.
// Labels are matched case-insensitively after trimming and NFC normalization.
type Columns map[string]Field

// Lookup finds the field for a header label
func (c Columns) Lookup(label string) (Field, bool) {
	label = clean(label)
	if f, ok := c[label]; ok {
		return f, true
	}
	for k, f := range c {
		if strings.EqualFold(k, label) {
			return f, true
		}
	}
	return 0, false
}

// Row is one source record with every known column as a named field.
// An empty (or whitespace-only) value means the column was absent.
type Row struct {
	Line int // 1-based line in the source, 0 if unknown

	ID               string
	Gender           string
	Title            string
	FirstName        string
	LastName         string
	Organization     string
	JobTitle         string
	ContactAllowed   string
	EmailWork        string
	EmailHome        string
	Email            string
	PhoneWork        string
	PhoneMobile      string
	PhoneHome        string
	Street           string
	PostalCode       string
	City             string
	Country          string
	BirthDate        string
	Groups           string
	Tags             string
	Membership       string
	DonationPlatform string
	Origin           string
	IBAN             string
	BIC              string
	Amount           string
	DonationDate     string
	DonationID       string
	PaymentSource    string
	DonationType     string

	// Derived by household splitting
	HouseholdName string
	MemberIndex   int
}

func (r *Row) field(f Field) *string {
	switch f {
	case FieldID:
		return &r.ID
	case FieldGender:
		return &r.Gender
	case FieldTitle:
		return &r.Title
	case FieldFirstName:
		return &r.FirstName
	case FieldLastName:
		return &r.LastName
	case FieldOrganization:
		return &r.Organization
	case FieldJobTitle:
		return &r.JobTitle
	case FieldContactAllowed:
		return &r.ContactAllowed
	case FieldEmailWork:
		return &r.EmailWork
	case FieldEmailHome:
		return &r.EmailHome
	case FieldEmail:
		return &r.Email
	case FieldPhoneWork:
		return &r.PhoneWork
	case FieldPhoneMobile:
		return &r.PhoneMobile
	case FieldPhoneHome:
		return &r.PhoneHome
	case FieldStreet:
		return &r.Street
	case FieldPostalCode:
		return &r.PostalCode
	case FieldCity:
		return &r.City
	case FieldCountry:
		return &r.Country
	case FieldBirthDate:
		return &r.BirthDate
	case FieldGroups:
		return &r.Groups
	case FieldTags:
		return &r.Tags
	case FieldMembership:
		return &r.Membership
	case FieldDonationPlatform:
		return &r.DonationPlatform
	case FieldOrigin:
		return &r.Origin
	case FieldIBAN:
		return &r.IBAN
	case FieldBIC:
		return &r.BIC
	case FieldAmount:
		return &r.Amount
	case FieldDonationDate:
		return &r.DonationDate
	case FieldDonationID:
		return &r.DonationID
	case FieldPaymentSource:
		return &r.PaymentSource
	case FieldDonationType:
		return &r.DonationType
	case FieldHouseholdName:
		return &r.HouseholdName
	}
	return nil
}

// Set assigns a raw value to a field, trimmed and NFC-normalized
func (r *Row) Set(f Field, value string) {
	if p := r.field(f); p != nil {
		*p = clean(value)
	}
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Get returns the trimmed value of a field
func (r Row) Get(f Field) string {
	if p := r.field(f); p != nil {
		return strings.TrimSpace(*p)
	}
	return ""
}

// Has reports whether a field carries a non-blank value
func (r Row) Has(f Field) bool {
	return r.Get(f) != ""
}

// Clone returns an independent copy of the row
func (r Row) Clone() Row {
	return r
}

// ExternalID returns the identifier used for the backend's external_identifier.
// Household members get "<id>_<memberIndex>" so two contacts from one row stay distinct.
func (r Row) ExternalID() string {
	id := r.Get(FieldID)
	if id == "" || r.MemberIndex == 0 {
		return id
	}
	return id + "_" + strconv.Itoa(r.MemberIndex)
}

// Emails returns the row's email addresses in lookup order (work, home, generic)
func (r Row) Emails() []string {
	var out []string
	for _, f := range []Field{FieldEmailWork, FieldEmailHome, FieldEmail} {
		if v := r.Get(f); v != "" {
			out = append(out, v)
		}
	}
	return out
}
