package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/crmimport/internal/backend/backendtest"
	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
)

func TestKeysFor_ExternalIDWins(t *testing.T) {
	keys := KeysFor(model.Row{ID: "12", EmailWork: "a@b.de"})
	assert.Equal(t, []IdentityKey{{Kind: KeyExternalID, Value: "12"}}, keys)

	keys = KeysFor(model.Row{ID: "12", MemberIndex: 2})
	assert.Equal(t, "12_2", keys[0].Value)
}

func TestKeysFor_EmailsInOrder(t *testing.T) {
	keys := KeysFor(model.Row{EmailWork: "Work@Firma.de", EmailHome: "home@example.org", Email: "work@firma.de"})
	assert.Equal(t, []IdentityKey{
		{Kind: KeyEmail, Value: "Work@Firma.de"},
		{Kind: KeyEmail, Value: "work@firma.de"},
		{Kind: KeyEmail, Value: "home@example.org"},
	}, keys)

	assert.Empty(t, KeysFor(model.Row{FirstName: "Max"}))
}

func TestKeysFor_InternationalDomain(t *testing.T) {
	keys := KeysFor(model.Row{Email: "Eva@M\u00fcller.de"})
	assert.Equal(t, []IdentityKey{
		{Kind: KeyEmail, Value: "Eva@M\u00fcller.de"},
		{Kind: KeyEmail, Value: "eva@m\u00fcller.de"},
		{Kind: KeyEmail, Value: "eva@xn--mller-kva.de"},
	}, keys)
}

func TestResolveExisting_StoredUnicodeAddress(t *testing.T) {
	fake := backendtest.New()
	fake.Seed(payload.EntityEmail, map[string]any{"email": "eva@m\u00fcller.de", "contact_id": 31})

	got, found := NewResolver(fake).ResolveExisting(context.Background(), KeysFor(model.Row{Email: "eva@m\u00fcller.de"}))
	require.True(t, found)
	assert.Equal(t, 31, got)
}

func TestNormalizeEmail(t *testing.T) {
	tests := map[string]string{
		"  Max@Example.ORG ": "max@example.org",
		"info@Müller.de":     "info@xn--mller-kva.de",
		"no-at-sign":         "no-at-sign",
		"trailing@":          "trailing@",
	}
	for in, want := range tests {
		if got := NormalizeEmail(in); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveExisting_ByExternalID(t *testing.T) {
	fake := backendtest.New()
	id := fake.Seed(payload.EntityContact, map[string]any{"external_identifier": "77"})

	got, found := NewResolver(fake).ResolveExisting(context.Background(), []IdentityKey{{Kind: KeyExternalID, Value: "77"}})
	require.True(t, found)
	assert.Equal(t, id, got)
}

func TestResolveExisting_FirstEmailMatchWins(t *testing.T) {
	fake := backendtest.New()
	fake.Seed(payload.EntityEmail, map[string]any{"email": "second@example.org", "contact_id": 501})
	fake.Seed(payload.EntityEmail, map[string]any{"email": "third@example.org", "contact_id": 502})

	keys := []IdentityKey{
		{Kind: KeyEmail, Value: "first@example.org"},
		{Kind: KeyEmail, Value: "second@example.org"},
		{Kind: KeyEmail, Value: "third@example.org"},
	}
	got, found := NewResolver(fake).ResolveExisting(context.Background(), keys)
	require.True(t, found)
	assert.Equal(t, 501, got)
	assert.Equal(t, 2, fake.CountCalls("get", payload.EntityEmail))
}

func TestResolveExisting_LookupErrorSkipsKey(t *testing.T) {
	fake := backendtest.New()
	fake.FindErr[payload.EntityContact] = errors.New("timeout")
	fake.Seed(payload.EntityEmail, map[string]any{"email": "a@example.org", "contact_id": 9})

	keys := []IdentityKey{
		{Kind: KeyExternalID, Value: "1"},
		{Kind: KeyEmail, Value: "a@example.org"},
	}
	got, found := NewResolver(fake).ResolveExisting(context.Background(), keys)
	require.True(t, found)
	assert.Equal(t, 9, got)
}

func TestResolveExisting_NotFound(t *testing.T) {
	fake := backendtest.New()
	_, found := NewResolver(fake).ResolveExisting(context.Background(), []IdentityKey{{Kind: KeyEmail, Value: "x@y.z"}})
	assert.False(t, found)

	_, found = NewResolver(fake).ResolveExisting(context.Background(), nil)
	assert.False(t, found)
}
