package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/crmimport/internal/backend"
	"github.com/ppiankov/crmimport/internal/dedup"
	"github.com/ppiankov/crmimport/internal/payload"
	"github.com/ppiankov/crmimport/internal/reference"
)

// Status is the terminal state of one row
type Status string

const (
	StatusCreated  Status = "created"
	StatusPartial  Status = "partial"
	StatusSkipped  Status = "skipped"
	StatusRejected Status = "rejected"
	StatusExcluded Status = "excluded"
)

// Result is the outcome of importing one row: Created, Skipped or Rejected
type Result interface {
	Status() Status
}

// Created means the contact exists now. SubEntityErrors lists the kinds that failed.
type Created struct {
	ContactID       int
	SubEntityErrors []error
}

func (c Created) Status() Status {
	if len(c.SubEntityErrors) > 0 {
		return StatusPartial
	}
	return StatusCreated
}

// Skipped means nothing was sent
type Skipped struct {
	Reason string
}

func (Skipped) Status() Status { return StatusSkipped }

// Rejected means the row failed before its primary contact existed, or its
// contribution could not be added to an existing contact.
type Rejected struct {
	IdentityKeys []dedup.IdentityKey
	Errors       []error
}

func (Rejected) Status() Status { return StatusRejected }

// Orchestrator creates the entities of one account against the backend
type Orchestrator struct {
	client     backend.Client
	resolver   *dedup.Resolver
	honorifics *reference.Honorifics
}

// NewOrchestrator creates an orchestrator. honorifics may be nil when the
// rule set never emits prefix names.
func NewOrchestrator(client backend.Client, honorifics *reference.Honorifics) *Orchestrator {
	return &Orchestrator{
		client:     client,
		resolver:   dedup.NewResolver(client),
		honorifics: honorifics,
	}
}

// DoImport imports one prepared account. Existing contacts only receive
// their contribution; new ones get the full graph.
func (o *Orchestrator) DoImport(ctx context.Context, acc Account) Result {
	if acc.Skip != "" {
		return Skipped{Reason: acc.Skip}
	}

	log := logrus.WithFields(logrus.Fields{
		"row_id": acc.Row.ExternalID(),
		"line":   acc.Row.Line,
		"shape":  acc.Shape.String(),
	})

	if id, found := o.resolver.ResolveExisting(ctx, acc.Keys); found {
		log.WithField("contact_id", id).Debug("contact exists")
		return o.importExisting(ctx, log, acc, id)
	}
	return o.importNew(ctx, log, acc)
}

func (o *Orchestrator) importExisting(ctx context.Context, log *logrus.Entry, acc Account, contactID int) Result {
	entry := acc.Graph[payload.KindContribution]
	if entry.Single == nil {
		return Skipped{Reason: fmt.Sprintf("contact %d exists", contactID)}
	}

	p := entry.Single(contactID)
	if p.IsEmpty() {
		return Skipped{Reason: fmt.Sprintf("contact %d exists", contactID)}
	}
	if reason := dropReason(payload.KindContribution, p); reason != "" {
		return Skipped{Reason: fmt.Sprintf("contact %d exists, contribution not importable: %s", contactID, reason)}
	}

	query := payload.Payload{"contact_id": contactID}.
		Set("total_amount", p["total_amount"]).
		Set("receive_date", p.String("receive_date"))
	res, err := o.client.Find(ctx, payload.EntityContribution, query)
	if err != nil {
		return Rejected{IdentityKeys: acc.Keys, Errors: []error{
			subEntityFailed(payload.KindContribution, fmt.Errorf("check existing contribution: %w", err)),
		}}
	}
	if res.Count > 0 {
		return Skipped{Reason: fmt.Sprintf("contribution already recorded for contact %d", contactID)}
	}

	if _, err := o.client.Create(ctx, payload.EntityContribution, p); err != nil {
		return Rejected{IdentityKeys: acc.Keys, Errors: []error{subEntityFailed(payload.KindContribution, err)}}
	}
	log.WithField("contact_id", contactID).Info("contribution added to existing contact")
	return Created{ContactID: contactID}
}

func (o *Orchestrator) importNew(ctx context.Context, log *logrus.Entry, acc Account) Result {
	var employerID int
	if acc.Organization != nil {
		id, err := o.findOrCreate(ctx, acc.Organization, organizationLookup(acc.Organization.String("organization_name")))
		if err != nil {
			return Rejected{IdentityKeys: acc.Keys, Errors: []error{parentFailed(payload.KindOrganization, err)}}
		}
		employerID = id
	}

	contact := acc.Contact(employerID)
	o.resolveHonorifics(ctx, log, contact)

	contactID, err := o.findOrCreate(ctx, contact, acc.ContactLookup)
	if err != nil {
		return Rejected{IdentityKeys: acc.Keys, Errors: []error{parentFailed(payload.KindContact, err)}}
	}
	log = log.WithField("contact_id", contactID)

	var errs []error
	for _, m := range acc.Members {
		if err := o.createMember(ctx, log, m, contactID); err != nil {
			errs = append(errs, err)
		}
	}

	for _, kind := range payload.CreateOrder {
		entry, ok := acc.Graph[kind]
		if !ok || entry.Empty() {
			continue
		}

		deferred := entry.List
		if !entry.IsList() {
			deferred = []payload.Deferred{entry.Single}
		}
		for _, d := range deferred {
			p := d(contactID)
			if p.IsEmpty() {
				continue
			}
			if reason := dropReason(kind, p); reason != "" {
				log.WithField("kind", kind).Warn("payload dropped: " + reason)
				continue
			}
			if _, err := o.client.Create(ctx, kind.Entity(), p); err != nil {
				log.WithField("kind", kind).WithError(err).Warn("sub-entity creation failed")
				errs = append(errs, subEntityFailed(kind, err))
				break
			}
		}
	}

	log.WithField("failed", len(errs)).Info("contact created")
	return Created{ContactID: contactID, SubEntityErrors: errs}
}

// findOrCreate returns the first record matching lookup, creating p when
// lookup is nil or matches nothing.
func (o *Orchestrator) findOrCreate(ctx context.Context, p, lookup payload.Payload) (int, error) {
	if lookup != nil && !lookup.IsEmpty() {
		res, err := o.client.Find(ctx, payload.EntityContact, lookup)
		if err == nil {
			if rec, ok := res.First(); ok {
				if id, ok := rec.Int("id"); ok && id > 0 {
					return id, nil
				}
			}
		}
	}

	res, err := o.client.Create(ctx, payload.EntityContact, p)
	if err != nil {
		return 0, err
	}
	if res.ID <= 0 {
		return 0, backend.ErrNoID
	}
	return res.ID, nil
}

func (o *Orchestrator) createMember(ctx context.Context, log *logrus.Entry, m Member, householdID int) error {
	p := m.Contact.Clone()
	o.resolveHonorifics(ctx, log, p)

	res, err := o.client.Create(ctx, payload.EntityContact, p)
	if err != nil {
		return subEntityFailed(payload.KindContact, fmt.Errorf("member %s: %w", m.Row.ExternalID(), err))
	}

	_, err = o.client.Create(ctx, payload.EntityRelationship, payload.Payload{
		"contact_id_a":         res.ID,
		"contact_id_b":         householdID,
		"relationship_type_id": relationshipHouseholdMember,
	})
	if err != nil {
		return subEntityFailed(payload.KindContact, fmt.Errorf("member %s relationship: %w", m.Row.ExternalID(), err))
	}
	log.WithField("member_id", res.ID).Debug("household member created")
	return nil
}

// resolveHonorifics replaces prefix names with their option values.
// Unresolvable prefixes are dropped from the payload.
func (o *Orchestrator) resolveHonorifics(ctx context.Context, log *logrus.Entry, p payload.Payload) {
	for key, v := range p {
		name, ok := v.(payload.Honorific)
		if !ok {
			continue
		}
		if o.honorifics == nil {
			delete(p, key)
			continue
		}
		id, err := o.honorifics.Resolve(ctx, string(name))
		if err != nil {
			log.WithError(&ImportError{Kind: KindLookupAmbiguous, Err: err}).Warn("prefix left unset")
			delete(p, key)
			continue
		}
		p[key] = id
	}
}

// dropReason applies the per-kind content filters. A contribution needs
// its full duplicate key (amount and receive date).
func dropReason(kind payload.Kind, p payload.Payload) string {
	switch kind {
	case payload.KindBank:
		if p.String("custom_1") == "" {
			return "no IBAN"
		}
	case payload.KindContribution:
		amount, ok := p.Decimal("total_amount")
		switch {
		case !ok:
			return "no amount"
		case amount.IsNegative():
			return "negative amount"
		case p.String("receive_date") == "":
			return "no receive date"
		}
	}
	return ""
}

// Errors flattens a result's errors for reporting
func Errors(r Result) []error {
	switch v := r.(type) {
	case Created:
		return v.SubEntityErrors
	case Rejected:
		return v.Errors
	}
	return nil
}

// IsParentFailure reports whether err aborted a row
func IsParentFailure(err error) bool {
	return errors.Is(err, ErrParentEntityCreationFailed)
}
