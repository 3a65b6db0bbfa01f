package payload

// Kind is a logical entity kind within a graph
type Kind string

const (
	KindContact      Kind = "contact"
	KindOrganization Kind = "organization"
	KindEmail        Kind = "email"
	KindEmailWork    Kind = "email_work"
	KindEmailOther   Kind = "email_other"
	KindPhone        Kind = "phone"
	KindPhoneWork    Kind = "phone_work"
	KindPhoneMobile  Kind = "phone_mobile"
	KindAddress      Kind = "address"
	KindContribution Kind = "contribution"
	KindBank         Kind = "customValue"
	KindOrigin       Kind = "origin"
	KindGroup        Kind = "group_contact"
	KindTag          Kind = "entity_tag"
)

// Entity is a backend entity name
type Entity string

const (
	EntityContact      Entity = "Contact"
	EntityRelationship Entity = "Relationship"
	EntityAddress      Entity = "Address"
	EntityEmail        Entity = "Email"
	EntityPhone        Entity = "Phone"
	EntityContribution Entity = "Contribution"
	EntityCustomValue  Entity = "CustomValue"
	EntityGroupContact Entity = "GroupContact"
	EntityEntityTag    Entity = "EntityTag"
	EntityOptionValue  Entity = "OptionValue"
	EntityCountry      Entity = "Country"
)

var kindEntities = map[Kind]Entity{
	KindContact:      EntityContact,
	KindOrganization: EntityContact,
	KindEmail:        EntityEmail,
	KindEmailWork:    EntityEmail,
	KindEmailOther:   EntityEmail,
	KindPhone:        EntityPhone,
	KindPhoneWork:    EntityPhone,
	KindPhoneMobile:  EntityPhone,
	KindAddress:      EntityAddress,
	KindContribution: EntityContribution,
	KindBank:         EntityCustomValue,
	KindOrigin:       EntityCustomValue,
	KindGroup:        EntityGroupContact,
	KindTag:          EntityEntityTag,
}

// Entity returns the backend entity a kind is created as
func (k Kind) Entity() Entity {
	return kindEntities[k]
}

// Known reports whether k is a recognised kind
func (k Kind) Known() bool {
	_, ok := kindEntities[k]
	return ok
}

// CreateOrder is the fixed order in which sub-entities are created once the
// primary contact exists. Contact and organization are handled before it.
var CreateOrder = []Kind{
	KindEmail,
	KindEmailWork,
	KindEmailOther,
	KindPhone,
	KindPhoneWork,
	KindPhoneMobile,
	KindAddress,
	KindContribution,
	KindBank,
	KindOrigin,
	KindGroup,
	KindTag,
}

// Entry holds either a single deferred payload or a list of them
type Entry struct {
	Single Deferred
	List   []Deferred
}

// One builds a single-payload entry
func One(d Deferred) Entry {
	return Entry{Single: d}
}

// Many builds a list entry, dropping nil payloads
func Many(ds ...Deferred) Entry {
	var out []Deferred
	for _, d := range ds {
		if d != nil {
			out = append(out, d)
		}
	}
	return Entry{List: out}
}

// IsList reports whether the entry holds a list
func (e Entry) IsList() bool {
	return e.Single == nil && e.List != nil
}

// Empty reports whether the entry carries no payload at all
func (e Entry) Empty() bool {
	return e.Single == nil && len(e.List) == 0
}

// Graph is the per-row bundle of not-yet-sent creation requests
type Graph map[Kind]Entry

// Merge overlays other onto g. Empty entries in other never remove an entry from g.
func (g Graph) Merge(other Graph) Graph {
	for k, e := range other {
		if e.Empty() {
			continue
		}
		g[k] = e
	}
	return g
}

// Has reports whether the graph carries a non-empty entry for k
func (g Graph) Has(k Kind) bool {
	e, ok := g[k]
	return ok && !e.Empty()
}
