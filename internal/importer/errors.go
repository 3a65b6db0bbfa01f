package importer

import (
	"fmt"

	"github.com/ppiankov/crmimport/internal/payload"
)

// ErrorKind classifies an import failure
type ErrorKind string

const (
	// KindLookupAmbiguous means a reference lookup gave no usable answer; the field is omitted
	KindLookupAmbiguous ErrorKind = "lookup_ambiguous"
	// KindParentCreation means the organization or primary contact could not be created
	KindParentCreation ErrorKind = "parent_entity_creation_failed"
	// KindSubEntityCreation means one sub-entity kind failed; the row still counts as created
	KindSubEntityCreation ErrorKind = "sub_entity_creation_failed"
)

// Sentinels for errors.Is
var (
	ErrParentEntityCreationFailed = &ImportError{Kind: KindParentCreation}
	ErrSubEntityCreationFailed    = &ImportError{Kind: KindSubEntityCreation}
)

// ImportError is a failure tied to one entity kind of one row
type ImportError struct {
	Kind       ErrorKind
	EntityKind payload.Kind
	Err        error
}

func (e *ImportError) Error() string {
	if e.EntityKind == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Kind, e.EntityKind, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Is matches any ImportError of the same kind
func (e *ImportError) Is(target error) bool {
	t, ok := target.(*ImportError)
	return ok && t.Kind == e.Kind
}

func parentFailed(kind payload.Kind, err error) *ImportError {
	return &ImportError{Kind: KindParentCreation, EntityKind: kind, Err: err}
}

func subEntityFailed(kind payload.Kind, err error) *ImportError {
	return &ImportError{Kind: KindSubEntityCreation, EntityKind: kind, Err: err}
}
