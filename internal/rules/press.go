package rules

import (
	"strings"

	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
	"github.com/ppiankov/crmimport/internal/reference"
)

const (
	locationHome = 1
	locationWork = 2

	phoneLandline = 1
	phoneMobile   = 2

	defaultLanguage = "en_GB"
)

var pressColumns = model.Columns{
	"ID":                      model.FieldID,
	"Herr/Frau":               model.FieldGender,
	"Titel":                   model.FieldTitle,
	"Vorname":                 model.FieldFirstName,
	"Nachname":                model.FieldLastName,
	"Institution":             model.FieldOrganization,
	"Funktion":                model.FieldJobTitle,
	"Kontakt erwünscht?":      model.FieldContactAllowed,
	"Email beruflich":         model.FieldEmailWork,
	"Email privat":            model.FieldEmailHome,
	"Spendenplattform":        model.FieldDonationPlatform,
	"Telefon berufl.":         model.FieldPhoneWork,
	"Mobilnummer":             model.FieldPhoneMobile,
	"Telefon privat":          model.FieldPhoneHome,
	"Adresse - PLZ":           model.FieldPostalCode,
	"Adresse - Ort":           model.FieldCity,
	"Adresse - Straße":        model.FieldStreet,
	"Adresse - Land":          model.FieldCountry,
	"Geburtsdatum":            model.FieldBirthDate,
	"Gruppe":                  model.FieldGroups,
	"Tag":                     model.FieldTags,
	"Mitglied":                model.FieldMembership,
	"Kontakt generiert durch": model.FieldOrigin,
	"IBAN":                    model.FieldIBAN,
	"BIC":                     model.FieldBIC,
}

// mailing lists by group label
var pressGroups = map[string]int{
	"Pressevertreter*innen_BPK":     3,
	"Presseverteiler Englisch":      4,
	"Presseverteiler Deutsch":       5,
	"Presseverteiler Institutionen": 6,
	"Verteiler Seenotrettung":       7,
}

var pressMemberships = map[string]int{
	"Ordentliches Mitglied": 8,
}

var pressPlatformTags = map[string]int{
	"Betterplace": 7,
	"Altruja":     6,
}

// Press is the rule set for the bulk press and contact sheet
func Press() RuleSet {
	return RuleSet{
		Name:        "press",
		Description: "press distribution and contact sheet (people, households, institutions)",
		Columns:     pressColumns,
		Countries:   reference.ProfileDefaultGermany,
		Rules: map[payload.Kind]Rule{
			payload.KindContact:      pressContact,
			payload.KindOrganization: employerRule,
			payload.KindEmailWork:    pressWorkEmail,
			payload.KindEmail:        pressHomeEmail,
			payload.KindPhoneWork:    pressWorkPhone,
			payload.KindPhoneMobile:  pressMobilePhone,
			payload.KindPhone:        pressHomePhone,
			payload.KindAddress:      pressAddress,
			payload.KindBank:         bankRule,
			payload.KindOrigin:       pressOrigin,
			payload.KindGroup:        pressGroupMemberships,
			payload.KindTag:          pressTags,
		},
	}
}

// preferredLanguage derives the language from mailing lists first, then the country
func preferredLanguage(r model.Row) string {
	groups := r.Get(model.FieldGroups)
	if groups != "" {
		if strings.Contains(groups, "Englisch") || strings.Contains(groups, "Verteiler Seenotrettung") {
			return "en_GB"
		}
		if strings.Contains(groups, "Deutsch") ||
			strings.Contains(groups, "Pressevertreter*innen_BPK") ||
			strings.Contains(groups, "Presseverteiler Institutionen") {
			return "de_DE"
		}
	}

	country := r.Get(model.FieldCountry)
	if country == "" {
		return "de_DE"
	}
	if strings.Contains(country, "Deutschland") || strings.Contains(country, "Österreich") {
		return "de_DE"
	}
	return defaultLanguage
}

func genderID(r model.Row) *int {
	g := r.Get(model.FieldGender)
	if g == "" {
		return nil
	}
	id := genderMale
	if g == "Frau" {
		id = genderFemale
	}
	return &id
}

// prefixName is "Gender Title", or just the gender without a title
func prefixName(r model.Row) payload.Honorific {
	g := r.Get(model.FieldGender)
	if g == "" {
		return ""
	}
	if t := r.Get(model.FieldTitle); t != "" {
		return payload.Honorific(g + " " + t)
	}
	return payload.Honorific(g)
}

func pressContact(r EnrichedRow) payload.Entry {
	switch {
	case r.HouseholdName != "":
		p := householdContact(r, preferredLanguage(r.Row))
		return payload.One(payload.Fixed(p))
	case organizationOnly(r.Row):
		return payload.One(payload.Fixed(organizationContact(r, true)))
	}

	base := payload.Payload{
		"contact_type": "Individual",
		"do_not_sms":   1,
		"do_not_trade": 1,
	}.
		Set("external_identifier", r.ExternalID()).
		Set("gender_id", genderID(r.Row)).
		Set("prefix_id", prefixName(r.Row)).
		Set("first_name", r.FirstName).
		Set("last_name", r.LastName).
		Set("birth_date", birthDate(r.BirthDate)).
		Set("preferred_language", preferredLanguage(r.Row)).
		Set("job_title", r.JobTitle)

	if denied(r.ContactAllowed) {
		base["do_not_mail"] = 1
		base["do_not_email"] = 1
		base["do_not_phone"] = 1
	}

	return payload.One(func(employerID int) payload.Payload {
		p := base.Clone()
		if employerID > 0 {
			p["employer_id"] = employerID
		}
		return p
	})
}

func birthDate(s string) string {
	if t, ok := parseDate(s); ok {
		return t.Format("2006-01-02")
	}
	return s
}

func pressWorkEmail(r EnrichedRow) payload.Entry {
	if !r.Has(model.FieldEmailWork) {
		return payload.Entry{}
	}
	return payload.One(emailPayload(r.EmailWork, locationWork, employed(r.Row)))
}

func pressHomeEmail(r EnrichedRow) payload.Entry {
	if !r.Has(model.FieldEmailHome) {
		return payload.Entry{}
	}
	return payload.One(emailPayload(r.EmailHome, locationHome, !employed(r.Row)))
}

func pressWorkPhone(r EnrichedRow) payload.Entry {
	if !r.Has(model.FieldPhoneWork) {
		return payload.Entry{}
	}
	return payload.One(phonePayload(r.PhoneWork, locationWork, phoneLandline, false))
}

func pressMobilePhone(r EnrichedRow) payload.Entry {
	if !r.Has(model.FieldPhoneMobile) {
		return payload.Entry{}
	}
	return payload.One(phonePayload(r.PhoneMobile, locationHome, phoneMobile, false))
}

func pressHomePhone(r EnrichedRow) payload.Entry {
	if !r.Has(model.FieldPhoneHome) {
		return payload.Entry{}
	}
	return payload.One(phonePayload(r.PhoneHome, locationHome, phoneLandline, true))
}

func pressAddress(r EnrichedRow) payload.Entry {
	if !r.Has(model.FieldPostalCode) && !r.Has(model.FieldStreet) &&
		!r.Has(model.FieldCity) && !r.Has(model.FieldCountry) {
		return payload.Entry{}
	}

	location := locationHome
	if employed(r.Row) {
		location = locationWork
	}
	postal, city, street, country := r.PostalCode, r.City, r.Street, r.CountryID

	return payload.One(func(contactID int) payload.Payload {
		return payload.Payload{
			"contact_id":       contactID,
			"location_type_id": location,
		}.
			Set("postal_code", postal).
			Set("city", city).
			Set("street_address", street).
			Set("country_id", country)
	})
}

func pressOrigin(r EnrichedRow) payload.Entry {
	if !r.Has(model.FieldOrigin) {
		return payload.Entry{}
	}
	origin := r.Origin
	return payload.One(func(contactID int) payload.Payload {
		return payload.Payload{"entity_id": contactID}.Set("custom_3", origin)
	})
}

// pressGroupMemberships maps mailing lists and membership states to groups.
// The run-wide group is kept alongside them.
func pressGroupMemberships(r EnrichedRow) payload.Entry {
	var ids []int
	for _, g := range splitList(r.Groups) {
		if id, ok := pressGroups[g]; ok {
			ids = appendUnique(ids, id)
		}
	}
	for _, m := range splitList(r.Membership) {
		if id, ok := pressMemberships[m]; ok {
			ids = appendUnique(ids, id)
		}
	}
	if len(ids) == 0 {
		return payload.Entry{}
	}
	if r.GroupID > 0 {
		ids = appendUnique(ids, r.GroupID)
	}

	ds := make([]payload.Deferred, 0, len(ids))
	for _, id := range ids {
		ds = append(ds, groupContact(id))
	}
	return payload.Many(ds...)
}

// pressTags tags donors by the platform they gave through
func pressTags(r EnrichedRow) payload.Entry {
	var ids []int
	for _, p := range append(splitList(r.DonationPlatform), splitList(r.Row.Tags)...) {
		if id, ok := pressPlatformTags[p]; ok {
			ids = appendUnique(ids, id)
		}
	}
	if len(ids) == 0 {
		return payload.Entry{}
	}
	for _, id := range r.TagIDs {
		ids = appendUnique(ids, id)
	}

	ds := make([]payload.Deferred, 0, len(ids))
	for _, id := range ids {
		ds = append(ds, entityTag(id))
	}
	return payload.Many(ds...)
}

func appendUnique(ids []int, id int) []int {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
