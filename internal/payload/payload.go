// Package payload defines the entity-creation requests built from a row.
//
// A row is turned into a Graph: one Entry per logical Kind, each holding
// Deferred payloads that only miss the id of the contact they attach to.
// The importer resolves them once that contact exists.
package payload

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Payload is a flat backend field → value mapping for one create call
type Payload map[string]any

// Honorific is a prefix name whose backend id is resolved at send time
type Honorific string

// linkKeys only attach a payload to its parent; they carry no content.
var linkKeys = map[string]bool{
	"contact_id":   true,
	"entity_id":    true,
	"entity_table": true,
}

// Set stores a value unless it is blank. Blank strings, empty honorifics
// and nil values are omitted so the backend never receives them.
func (p Payload) Set(key string, value any) Payload {
	switch v := value.(type) {
	case nil:
		return p
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return p
		}
		p[key] = v
	case Honorific:
		if strings.TrimSpace(string(v)) == "" {
			return p
		}
		p[key] = v
	case *int:
		if v == nil {
			return p
		}
		p[key] = *v
	default:
		p[key] = value
	}
	return p
}

// IsEmpty reports whether the payload carries nothing beyond its parent link
func (p Payload) IsEmpty() bool {
	for k := range p {
		if !linkKeys[k] {
			return false
		}
	}
	return true
}

// String returns a string field, or "" when absent
func (p Payload) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case Honorific:
		return string(v)
	}
	return ""
}

// Decimal returns a numeric field as a decimal
func (p Payload) Decimal(key string) (decimal.Decimal, bool) {
	switch v := p[key].(type) {
	case decimal.Decimal:
		return v, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// Clone returns a shallow copy
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Deferred is a payload that still needs the id of its parent contact
type Deferred func(contactID int) Payload

// Fixed wraps a payload that does not depend on a parent id
func Fixed(p Payload) Deferred {
	return func(int) Payload { return p.Clone() }
}
