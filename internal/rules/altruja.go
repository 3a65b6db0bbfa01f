package rules

import (
	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
	"github.com/ppiankov/crmimport/internal/reference"
)

var altrujaColumns = model.Columns{
	"Anrede":          model.FieldGender,
	"Titel":           model.FieldTitle,
	"Vorname":         model.FieldFirstName,
	"Nachname":        model.FieldLastName,
	"Email":           model.FieldEmail,
	"Adresse":         model.FieldStreet,
	"Ort":             model.FieldCity,
	"Postleitzahl":    model.FieldPostalCode,
	"Land":            model.FieldCountry,
	"Country":         model.FieldCountry,
	"IBAN":            model.FieldIBAN,
	"BIC":             model.FieldBIC,
	"Spendenbetrag":   model.FieldAmount,
	"Datum":           model.FieldDonationDate,
	"Spenden-ID":      model.FieldDonationID,
	"Quelle":          model.FieldPaymentSource,
	"Spenden-Typ":     model.FieldDonationType,
	"Kontakt erlaubt": model.FieldContactAllowed,
}

var paymentInstruments = map[string]int{
	"Online (Wirecard/Kreditkarte)": 10,
	"Online (Wirecard/Lastschrift)": 9,
	"direkt / PayPal":               8,
	"Soforüberweisung":              7,
	"Offline-Spende":                3,
}

var financialTypes = map[string]int{
	"Einzelspende":     1,
	"Dauererstspende":  5,
	"Dauerfolgespende": 5,
}

const (
	altrujaPrefixFemale = 2
	altrujaPrefixMale   = 1
)

// Altruja is the rule set for the Altruja donation platform export
func Altruja() RuleSet {
	return RuleSet{
		Name:        "altruja",
		Description: "Altruja donation export (donors and their contributions)",
		Columns:     altrujaColumns,
		Countries:   reference.ProfileStrict,
		Rules: map[payload.Kind]Rule{
			payload.KindContact:      altrujaContact,
			payload.KindEmail:        altrujaEmail,
			payload.KindAddress:      altrujaAddress,
			payload.KindBank:         bankRule,
			payload.KindContribution: altrujaContribution,
		},
	}
}

func altrujaContact(r EnrichedRow) payload.Entry {
	if r.HouseholdName != "" {
		return payload.One(payload.Fixed(householdContact(r, "de_DE")))
	}

	optOut := flag(denied(r.ContactAllowed))
	prefix, gender := altrujaPrefixMale, genderMale
	if r.Gender == "Frau" {
		prefix, gender = altrujaPrefixFemale, genderFemale
	}

	p := payload.Payload{
		"contact_type":       "Individual",
		"preferred_language": "de_DE",
		"prefix_id":          prefix,
		"gender_id":          gender,
		"do_not_mail":        optOut,
		"do_not_email":       optOut,
		"do_not_phone":       optOut,
		"is_opt_out":         optOut,
		"do_not_sms":         optOut,
		"do_not_trade":       optOut,
	}.
		Set("external_identifier", r.ExternalID()).
		Set("first_name", r.FirstName).
		Set("last_name", r.LastName)

	return payload.One(payload.Fixed(p))
}

func altrujaEmail(r EnrichedRow) payload.Entry {
	if !r.Has(model.FieldEmail) {
		return payload.Entry{}
	}
	return payload.One(emailPayload(r.Email, locationHome, true))
}

func altrujaAddress(r EnrichedRow) payload.Entry {
	if !r.Has(model.FieldStreet) && !r.Has(model.FieldCity) &&
		!r.Has(model.FieldPostalCode) && r.CountryID == nil {
		return payload.Entry{}
	}
	street, city, postal, country := r.Street, r.City, r.PostalCode, r.CountryID

	return payload.One(func(contactID int) payload.Payload {
		return payload.Payload{
			"contact_id":       contactID,
			"location_type_id": locationHome,
			"is_primary":       1,
		}.
			Set("street_address", street).
			Set("city", city).
			Set("postal_code", postal).
			Set("country_id", country)
	})
}

func altrujaContribution(r EnrichedRow) payload.Entry {
	amount, ok := parseAmount(r.Amount)
	if !ok {
		return payload.Entry{}
	}

	var received string
	if t, ok := parseDate(r.DonationDate); ok {
		received = t.Format(backendDateTime)
	}
	financialType := lookup(financialTypes, r.DonationType)
	instrument := lookup(paymentInstruments, r.PaymentSource)
	trxn := r.DonationID

	return payload.One(func(contactID int) payload.Payload {
		return payload.Payload{
			"contact_id":             contactID,
			"total_amount":           amount,
			"currency":               "EUR",
			"source":                 "Altruja",
			"contribution_status_id": 1,
		}.
			Set("financial_type_id", financialType).
			Set("payment_instrument_id", instrument).
			Set("receive_date", received).
			Set("trxn_id", trxn)
	})
}
