// Package dedup finds the existing backend contact for a row, if any.
package dedup

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/idna"

	"github.com/ppiankov/crmimport/internal/backend"
	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
)

// KeyKind says which backend field an identity key is matched against
type KeyKind string

const (
	KeyExternalID KeyKind = "external_id"
	KeyEmail      KeyKind = "email"
)

// IdentityKey is one candidate identity of a row
type IdentityKey struct {
	Kind  KeyKind `json:"kind"`
	Value string  `json:"value"`
}

func (k IdentityKey) String() string {
	return string(k.Kind) + ":" + k.Value
}

// KeysFor returns the row's identity keys: its external id when it has one,
// otherwise its email addresses in lookup order. Each address is tried as
// written first (that is how it was stored), then lowercased, then with an
// internationalized domain in ASCII form.
func KeysFor(row model.Row) []IdentityKey {
	if id := row.ExternalID(); id != "" {
		return []IdentityKey{{Kind: KeyExternalID, Value: id}}
	}

	var keys []IdentityKey
	seen := make(map[string]bool)
	for _, email := range row.Emails() {
		for _, form := range emailForms(email) {
			if form == "" || seen[form] {
				continue
			}
			seen[form] = true
			keys = append(keys, IdentityKey{Kind: KeyEmail, Value: form})
		}
	}
	return keys
}

func emailForms(email string) []string {
	email = strings.TrimSpace(email)
	return []string{email, strings.ToLower(email), NormalizeEmail(email)}
}

// NormalizeEmail lowercases an address and converts an internationalized
// domain to its ASCII form. Invalid domains are kept lowercased.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return email
	}
	local, domain := email[:at], email[at+1:]
	if ascii, err := idna.Lookup.ToASCII(domain); err == nil {
		domain = ascii
	}
	return local + "@" + domain
}

// Resolver looks identity keys up in the backend
type Resolver struct {
	client backend.Client
}

// NewResolver creates a resolver
func NewResolver(client backend.Client) *Resolver {
	return &Resolver{client: client}
}

// ResolveExisting returns the contact id of the first key that matches.
// A failed lookup only skips that key.
func (r *Resolver) ResolveExisting(ctx context.Context, keys []IdentityKey) (int, bool) {
	for _, key := range keys {
		id, err := r.lookup(ctx, key)
		if err != nil {
			logrus.WithFields(logrus.Fields{"key": key.String()}).WithError(err).Warn("identity lookup failed")
			continue
		}
		if id > 0 {
			return id, true
		}
	}
	return 0, false
}

func (r *Resolver) lookup(ctx context.Context, key IdentityKey) (int, error) {
	var (
		entity payload.Entity
		query  payload.Payload
		field  string
	)
	switch key.Kind {
	case KeyExternalID:
		entity, field = payload.EntityContact, "id"
		query = payload.Payload{"external_identifier": key.Value}
	case KeyEmail:
		entity, field = payload.EntityEmail, "contact_id"
		query = payload.Payload{"email": key.Value}
	default:
		return 0, nil
	}

	res, err := r.client.Find(ctx, entity, query)
	if err != nil {
		return 0, err
	}
	rec, ok := res.First()
	if !ok {
		return 0, nil
	}
	id, _ := rec.Int(field)
	return id, nil
}
