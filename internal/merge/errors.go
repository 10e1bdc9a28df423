package merge

import (
	"errors"
	"fmt"

	"github.com/hazlab/doseplan/internal/phitsdoc"
)

// ErrIdentifierExhausted is returned when no unused identifier remains in a
// type's valid range during renumbering.
var ErrIdentifierExhausted = errors.New("merge: identifier space exhausted")

// DanglingReferenceError reports a reference that resolves to no identifier
// in either document after rewriting. It signals a malformed template or
// base deck and is never silently dropped.
type DanglingReferenceError struct {
	Type phitsdoc.EntityType
	ID   int
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("merge: dangling %s reference %d", e.Type, e.ID)
}

// MissingPlaceholderError reports a placeholder key the current invocation
// requires but the template never exposes.
type MissingPlaceholderError struct {
	Key string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("merge: template does not expose required placeholder {%s}", e.Key)
}

// UnresolvedPlaceholderError reports a template placeholder that has no
// substitution value and is not optional by convention.
type UnresolvedPlaceholderError struct {
	Key string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("merge: no substitution for placeholder {%s}", e.Key)
}
