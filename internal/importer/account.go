package importer

import (
	"github.com/ppiankov/crmimport/internal/classify"
	"github.com/ppiankov/crmimport/internal/dedup"
	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
	"github.com/ppiankov/crmimport/internal/rules"
)

// relationshipHouseholdMember links an individual to its household
const relationshipHouseholdMember = 8

// Member is one person living in a household
type Member struct {
	Row     model.Row
	Contact payload.Payload
}

// Account is everything needed to import one row
type Account struct {
	Row   model.Row
	Shape classify.Shape
	Keys  []dedup.IdentityKey

	// Organization is the employer, matched by name before it is created
	Organization payload.Payload
	// ContactLookup, when set, finds an existing primary contact by name
	ContactLookup payload.Payload
	// Contact builds the primary contact from the employer id (0 if none)
	Contact payload.Deferred
	Members []Member
	// Graph holds the sub-entities attached to the primary contact
	Graph payload.Graph

	// Skip is set when the row produces no contact at all
	Skip string
}

// Prepare classifies a row, splits households and builds the payload graph
func Prepare(row model.Row, rs rules.RuleSet, opts rules.Options) Account {
	d := classify.Classify(row)
	acc := Account{Row: row, Shape: d.Shape}

	primary := row
	switch d.Shape {
	case classify.ShapeNone:
		acc.Skip = "row has neither names nor an organization"
		return acc
	case classify.ShapeHouseholdPair:
		if d.Household == nil {
			acc.Skip = "household names cannot be split"
			return acc
		}
		primary = d.Household.Row
		for _, m := range d.Household.Members {
			g := rules.Build(m, rs, opts)
			if e := g[payload.KindContact]; e.Single != nil {
				acc.Members = append(acc.Members, Member{Row: m, Contact: e.Single(0)})
			}
		}
	}

	graph := rules.Build(primary, rs, opts)
	if e := graph[payload.KindContact]; e.Single != nil {
		acc.Contact = e.Single
	} else {
		acc.Skip = "rule set " + rs.Name + " produced no contact"
		return acc
	}
	if e := graph[payload.KindOrganization]; e.Single != nil && d.Shape == classify.ShapeIndividualWithEmployer {
		acc.Organization = e.Single(0)
	}
	if d.Shape == classify.ShapeOrganization {
		acc.ContactLookup = organizationLookup(primary.Organization)
	}
	delete(graph, payload.KindContact)
	delete(graph, payload.KindOrganization)

	acc.Graph = graph
	acc.Keys = dedup.KeysFor(primary)
	return acc
}

// organizationLookup matches organizations by exact name. No name, no lookup.
func organizationLookup(name string) payload.Payload {
	if name == "" {
		return nil
	}
	return payload.Payload{"contact_type": "Organization", "organization_name": name}
}
