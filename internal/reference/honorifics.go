package reference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/crmimport/internal/backend"
	"github.com/ppiankov/crmimport/internal/payload"
)

// PrefixOptionGroup is the option group holding individual prefixes
const PrefixOptionGroup = 6

// ErrNoValue is returned when the backend creates an honorific without a value
var ErrNoValue = errors.New("honorific has no value")

// Honorifics maps prefix names ("Frau Dr.") to their option values for one run.
// It is seeded once and grows when a missing prefix is created. Not safe for
// concurrent rows.
type Honorifics struct {
	client backend.Client
	known  *gocache.Cache
}

// NewHonorifics creates an empty table
func NewHonorifics(client backend.Client) *Honorifics {
	return &Honorifics{
		client: client,
		known:  gocache.New(gocache.NoExpiration, 0),
	}
}

// Seed loads the existing prefixes
func (h *Honorifics) Seed(ctx context.Context) error {
	res, err := h.client.Find(ctx, payload.EntityOptionValue, payload.Payload{
		"option_group_id": PrefixOptionGroup,
		"options[limit]":  200,
	})
	if err != nil {
		return fmt.Errorf("load prefixes: %w", err)
	}

	for _, rec := range res.Values {
		h.remember(rec)
	}
	logrus.WithField("prefixes", h.known.ItemCount()).Info("loaded prefixes")
	return nil
}

// Len returns the number of known prefixes
func (h *Honorifics) Len() int {
	return h.known.ItemCount()
}

// Resolve returns the option value for name, creating the prefix on first use
func (h *Honorifics) Resolve(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if v, ok := h.known.Get(name); ok {
		return v.(int), nil
	}

	logrus.WithField("prefix", name).Info("creating prefix")
	res, err := h.client.Create(ctx, payload.EntityOptionValue, payload.Payload{
		"option_group_id": PrefixOptionGroup,
		"name":            name,
	})
	if err != nil {
		return 0, fmt.Errorf("create prefix %q: %w", name, err)
	}

	for _, rec := range res.Values {
		h.remember(rec)
	}
	if v, ok := h.known.Get(name); ok {
		return v.(int), nil
	}
	return 0, fmt.Errorf("create prefix %q: %w", name, ErrNoValue)
}

func (h *Honorifics) remember(rec backend.Record) {
	name := strings.TrimSpace(rec.String("name"))
	value, ok := rec.Int("value")
	if name == "" || !ok {
		return
	}
	h.known.Set(name, value, gocache.NoExpiration)
}
