package rules

import (
	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
)

const (
	genderFemale = 1
	genderMale   = 2
)

// employed reports whether the row is a person working for its organization
func employed(r model.Row) bool {
	return r.Has(model.FieldOrganization) && r.Has(model.FieldFirstName) && r.Has(model.FieldLastName)
}

// organizationOnly reports whether the row describes the organization itself
func organizationOnly(r model.Row) bool {
	return r.Has(model.FieldOrganization) && !r.Has(model.FieldFirstName) && !r.Has(model.FieldLastName)
}

func householdContact(r EnrichedRow, language string) payload.Payload {
	return payload.Payload{
		"contact_type": "Household",
		"do_not_sms":   1,
		"do_not_trade": 1,
	}.
		Set("external_identifier", r.ExternalID()).
		Set("preferred_language", language).
		Set("household_name", r.HouseholdName)
}

func organizationContact(r EnrichedRow, withExternalID bool) payload.Payload {
	p := payload.Payload{
		"contact_type": "Organization",
		"do_not_sms":   1,
		"do_not_trade": 1,
	}.Set("organization_name", r.Organization)
	if withExternalID {
		p.Set("external_identifier", r.ExternalID())
	}
	return p
}

// employerRule yields the organization a person works for. It is matched by
// name before being created, so it carries no external identifier.
func employerRule(r EnrichedRow) payload.Entry {
	if !employed(r.Row) {
		return payload.Entry{}
	}
	return payload.One(payload.Fixed(organizationContact(r, false)))
}

// bankRule yields the IBAN/BIC custom values
func bankRule(r EnrichedRow) payload.Entry {
	if !r.Has(model.FieldIBAN) && !r.Has(model.FieldBIC) {
		return payload.Entry{}
	}
	iban, bic := r.IBAN, r.BIC
	return payload.One(func(contactID int) payload.Payload {
		return payload.Payload{"entity_id": contactID}.
			Set("custom_1", iban).
			Set("custom_2", bic)
	})
}

func emailPayload(address string, location int, primary bool) payload.Deferred {
	return func(contactID int) payload.Payload {
		p := payload.Payload{
			"contact_id":       contactID,
			"location_type_id": location,
		}.Set("email", address)
		if primary {
			p["is_primary"] = 1
		}
		return p
	}
}

func phonePayload(number string, location, phoneType int, primary bool) payload.Deferred {
	return func(contactID int) payload.Payload {
		p := payload.Payload{
			"contact_id":       contactID,
			"location_type_id": location,
			"phone_type_id":    phoneType,
		}.Set("phone", number)
		if primary {
			p["is_primary"] = 1
		}
		return p
	}
}
