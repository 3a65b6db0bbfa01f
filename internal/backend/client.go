// Package backend talks to the CRM's REST API.
//
// The importer only depends on the Client interface: Find returns matching
// records, Create returns the id of the new record. Anything without a
// usable id is a failure.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/crmimport/internal/payload"
)

// ErrNoID is returned when a create call succeeded on the wire but carried no id
var ErrNoID = errors.New("backend response carries no id")

// APIError is an error reported by the backend itself (is_error=1)
type APIError struct {
	Entity  payload.Entity
	Action  string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s.%s: %s (%s)", e.Entity, e.Action, e.Message, e.Code)
	}
	return fmt.Sprintf("%s.%s: %s", e.Entity, e.Action, e.Message)
}

// Record is one entity as returned by the backend
type Record map[string]any

// Int reads a numeric field. Backends return ids as numbers or strings.
func (r Record) Int(key string) (int, bool) {
	return toInt(r[key])
}

// String reads a field as text
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// FindResult is the outcome of a lookup
type FindResult struct {
	Count  int
	Values []Record
}

// First returns the first matching record
func (f FindResult) First() (Record, bool) {
	if f.Count == 0 || len(f.Values) == 0 {
		return nil, false
	}
	return f.Values[0], true
}

// CreateResult is the outcome of a create call
type CreateResult struct {
	ID     int
	Values []Record
}

// Client is the subset of the backend API the importer uses
type Client interface {
	Find(ctx context.Context, entity payload.Entity, query payload.Payload) (FindResult, error)
	Create(ctx context.Context, entity payload.Entity, p payload.Payload) (CreateResult, error)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := strconv.Atoi(n.String())
		return i, err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}
