// Package backendtest provides an in-memory backend for tests.
package backendtest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/ppiankov/crmimport/internal/backend"
	"github.com/ppiankov/crmimport/internal/payload"
)

// Call records one request made against the fake
type Call struct {
	Action  string
	Entity  payload.Entity
	Payload payload.Payload
}

// Fake stores created records per entity and answers finds by exact field match
type Fake struct {
	mu      sync.Mutex
	nextID  int
	records map[payload.Entity][]backend.Record

	// CreateErr makes every create of an entity fail with the given error
	CreateErr map[payload.Entity]error
	// FindErr makes every find of an entity fail with the given error
	FindErr map[payload.Entity]error
	// FailWhen fails a single create when it returns a non-nil error
	FailWhen func(entity payload.Entity, p payload.Payload) error

	Calls []Call
}

// New returns an empty fake whose ids start at 100
func New() *Fake {
	return &Fake{
		nextID:    100,
		records:   make(map[payload.Entity][]backend.Record),
		CreateErr: make(map[payload.Entity]error),
		FindErr:   make(map[payload.Entity]error),
	}
}

// Seed adds an existing record and returns its id
func (f *Fake) Seed(entity payload.Entity, fields map[string]any) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store(entity, fields)
}

func (f *Fake) store(entity payload.Entity, fields map[string]any) int {
	f.nextID++
	rec := backend.Record{"id": f.nextID}
	for k, v := range fields {
		rec[k] = v
	}
	if entity == payload.EntityOptionValue {
		if _, ok := rec["value"]; !ok {
			rec["value"] = strconv.Itoa(f.nextID)
		}
	}
	f.records[entity] = append(f.records[entity], rec)
	return f.nextID
}

func (f *Fake) Find(_ context.Context, entity payload.Entity, query payload.Payload) (backend.FindResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, Call{Action: "get", Entity: entity, Payload: query.Clone()})
	if err := f.FindErr[entity]; err != nil {
		return backend.FindResult{}, err
	}

	var out []backend.Record
	for _, rec := range f.records[entity] {
		if matches(rec, query) {
			out = append(out, rec)
		}
	}
	return backend.FindResult{Count: len(out), Values: out}, nil
}

func (f *Fake) Create(_ context.Context, entity payload.Entity, p payload.Payload) (backend.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, Call{Action: "create", Entity: entity, Payload: p.Clone()})
	if err := f.CreateErr[entity]; err != nil {
		return backend.CreateResult{}, err
	}
	if f.FailWhen != nil {
		if err := f.FailWhen(entity, p); err != nil {
			return backend.CreateResult{}, err
		}
	}

	id := f.store(entity, p)
	recs := f.records[entity]
	return backend.CreateResult{ID: id, Values: []backend.Record{recs[len(recs)-1]}}, nil
}

// Records returns every stored record of an entity
func (f *Fake) Records(entity payload.Entity) []backend.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.Record(nil), f.records[entity]...)
}

// Created returns the payloads of every create call for an entity
func (f *Fake) Created(entity payload.Entity) []payload.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []payload.Payload
	for _, c := range f.Calls {
		if c.Action == "create" && c.Entity == entity {
			out = append(out, c.Payload)
		}
	}
	return out
}

// CountCalls counts calls by action and entity
func (f *Fake) CountCalls(action string, entity payload.Entity) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.Calls {
		if c.Action == action && c.Entity == entity {
			n++
		}
	}
	return n
}

var ignoredQueryKeys = map[string]bool{
	"sequential":     true,
	"options[limit]": true,
	"return":         true,
}

func matches(rec backend.Record, query payload.Payload) bool {
	for k, want := range query {
		if ignoredQueryKeys[k] {
			continue
		}
		got, ok := rec[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
