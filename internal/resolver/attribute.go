package resolver

import (
	"fmt"
	"reflect"

	"github.com/aretw0/navgraph/pkg/domain"
)

// ParentAttribute is the path segment that follows domain.Owned.
const ParentAttribute = "parent"

// BrokenChainError reports the segment where an attribute walk stopped.
type BrokenChainError struct {
	From    string
	Segment string
	Path    []string
}

func (e *BrokenChainError) Error() string {
	return fmt.Sprintf("broken ownership chain: %s has no %q (path %v)", e.From, e.Segment, e.Path)
}

// Walk follows path from e. The "parent" segment uses domain.Owned; every segment
// (including "parent" when Owned is not implemented) may be served by domain.AttributeHolder.
func Walk(e domain.Entity, path []string) (domain.Entity, error) {
	cur := e
	for _, seg := range path {
		next, ok := step(cur, seg)
		if !ok || isNil(next) {
			return nil, &BrokenChainError{From: domain.Describe(cur), Segment: seg, Path: path}
		}
		cur = next
	}
	return cur, nil
}

func step(e domain.Entity, segment string) (domain.Entity, bool) {
	if segment == ParentAttribute {
		if o, ok := e.(domain.Owned); ok {
			p := o.Parent()
			return p, !isNil(p)
		}
	}
	if h, ok := e.(domain.AttributeHolder); ok {
		return h.Attribute(segment)
	}
	return nil, false
}

// isNil also catches typed nil pointers stored in the interface.
func isNil(e domain.Entity) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
