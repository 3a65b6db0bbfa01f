// Package rules turns rows into payload graphs.
//
// A RuleSet is a named, closed bundle of per-kind rules for one kind of
// source sheet. The catalog of rule sets is built and validated once at
// startup; a broken rule set panics before any row is read.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
	"github.com/ppiankov/crmimport/internal/reference"
)

// Rule extracts the payload entry of one kind from an enriched row.
// For KindContact the deferred argument is the employer id (0 if none);
// for every other kind it is the id of the contact the entry attaches to.
type Rule func(r EnrichedRow) payload.Entry

// RuleSet is a named set of rules for one source layout
type RuleSet struct {
	Name        string
	Description string
	Columns     model.Columns
	Countries   reference.CountryProfile
	Rules       map[payload.Kind]Rule
}

// Kinds lists the kinds the rule set defines, sorted
func (rs RuleSet) Kinds() []payload.Kind {
	kinds := make([]payload.Kind, 0, len(rs.Rules))
	for k := range rs.Rules {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Validate checks that the rule set is complete
func (rs RuleSet) Validate() error {
	var errs []error
	if rs.Name == "" {
		errs = append(errs, errors.New("name is empty"))
	}
	if len(rs.Columns) == 0 {
		errs = append(errs, errors.New("no columns"))
	}
	if rs.Countries != reference.ProfileStrict && rs.Countries != reference.ProfileDefaultGermany {
		errs = append(errs, fmt.Errorf("unknown country profile %d", rs.Countries))
	}
	if rs.Rules[payload.KindContact] == nil {
		errs = append(errs, errors.New("no contact rule"))
	}
	for k, rule := range rs.Rules {
		if !k.Known() {
			errs = append(errs, fmt.Errorf("unknown kind %q", k))
		}
		if rule == nil {
			errs = append(errs, fmt.Errorf("nil rule for %q", k))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("rule set %q: %w", rs.Name, err)
	}
	return nil
}

// Catalog is the read-only registry of rule sets
type Catalog struct {
	sets map[string]RuleSet
}

// NewCatalog registers the given rule sets. It panics on an invalid or
// duplicate rule set.
func NewCatalog(sets ...RuleSet) *Catalog {
	c := &Catalog{sets: make(map[string]RuleSet, len(sets))}
	for _, rs := range sets {
		if err := rs.Validate(); err != nil {
			panic(err)
		}
		if _, dup := c.sets[rs.Name]; dup {
			panic(fmt.Sprintf("rule set %q registered twice", rs.Name))
		}
		c.sets[rs.Name] = rs
	}
	return c
}

// Default returns the catalog of built-in rule sets
var Default = sync.OnceValue(func() *Catalog {
	return NewCatalog(Press(), Altruja())
})

// Get returns a rule set by name
func (c *Catalog) Get(name string) (RuleSet, error) {
	rs, ok := c.sets[name]
	if !ok {
		return RuleSet{}, fmt.Errorf("unknown rule set %q (available: %v)", name, c.Names())
	}
	return rs, nil
}

// Names lists registered rule sets, sorted
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.sets))
	for n := range c.sets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
