package rules

import (
	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
	"github.com/ppiankov/crmimport/internal/reference"
)

// Options are the run-wide enrichments applied to every row
type Options struct {
	GroupID   int
	Tags      []int
	Countries reference.Countries
}

// EnrichedRow is a row plus values resolved against reference data.
// Unresolved values stay nil and must be omitted, never sent as zero.
type EnrichedRow struct {
	model.Row

	CountryID *int
	GroupID   int
	TagIDs    []int
}

// Enrich resolves the row's auxiliary fields under the rule set's country profile
func Enrich(row model.Row, rs RuleSet, opts Options) EnrichedRow {
	er := EnrichedRow{
		Row:     row,
		GroupID: opts.GroupID,
		TagIDs:  append([]int(nil), opts.Tags...),
	}
	if row.Has(model.FieldCountry) || rs.Countries == reference.ProfileDefaultGermany {
		if id, ok := rs.Countries.Resolve(row.Get(model.FieldCountry), opts.Countries); ok {
			er.CountryID = &id
		}
	}
	return er
}

// Build applies a rule set to one row. It makes no backend calls.
//
// Group and tag enrichment go in first. A rule returning an empty entry
// leaves them in place; a non-empty one replaces them.
func Build(row model.Row, rs RuleSet, opts Options) payload.Graph {
	er := Enrich(row, rs, opts)

	g := payload.Graph{}
	if opts.GroupID > 0 {
		g[payload.KindGroup] = payload.Many(groupContact(opts.GroupID))
	}
	if len(opts.Tags) > 0 {
		tags := make([]payload.Deferred, 0, len(opts.Tags))
		for _, id := range opts.Tags {
			tags = append(tags, entityTag(id))
		}
		g[payload.KindTag] = payload.Many(tags...)
	}

	for kind, rule := range rs.Rules {
		g.Merge(payload.Graph{kind: rule(er)})
	}
	return g
}

func groupContact(groupID int) payload.Deferred {
	return func(contactID int) payload.Payload {
		return payload.Payload{
			"contact_id": contactID,
			"group_id":   groupID,
			"status":     "Added",
		}
	}
}

func entityTag(tagID int) payload.Deferred {
	return func(contactID int) payload.Payload {
		return payload.Payload{
			"entity_table": "civicrm_contact",
			"entity_id":    contactID,
			"tag_id":       tagID,
		}
	}
}
