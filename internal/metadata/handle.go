package metadata

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
)

// maxDepth bounds the parent chain of any element. The deepest valid path,
// catalog/schema/table/table/foreign_key/foreign_key_column, is six long;
// partitions of partitions add one level each.
const maxDepth = 8

// Segment is one level of a handle path.
type Segment struct {
	Kind Kind
	Name string
	// NoName is set for a synthetic schema, which has no name.
	NoName bool
}

func (s Segment) String() string {
	if s.NoName {
		return s.Kind.String()
	}
	return s.Kind.String() + ":" + url.PathEscape(s.Name)
}

// Handle is a value-typed reference to a metadata element of type T. It holds
// the path of kinds and internal names from the catalog down to the element,
// never the element itself, so it stays valid after the tree it was taken
// from is gone. Handles with the same path are ==, which makes them usable as
// map keys.
type Handle[T Element] struct {
	path string
}

// NewHandle returns the handle of e.
func NewHandle[T Element](e T) (Handle[T], error) {
	if isNil(e) {
		return Handle[T]{}, ErrNilElement
	}
	var segs []Segment
	var cur Element = e
	for cur != nil && !isNil(cur) {
		if len(segs) == maxDepth {
			return Handle[T]{}, fmt.Errorf("%w: more than %d levels above %s %q", ErrHandleTooDeep, maxDepth, e.Kind(), e.Name())
		}
		segs = append(segs, segmentOf(cur))
		cur = cur.Parent()
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return Handle[T]{path: encodePath(segs)}, nil
}

// ParseHandle parses the text form of a handle, as returned by String, and
// checks that it describes an element of type T.
func ParseHandle[T Element](s string) (Handle[T], error) {
	segs, err := decodePath(s)
	if err != nil {
		return Handle[T]{}, err
	}
	if err := validatePath(segs); err != nil {
		return Handle[T]{}, err
	}
	if want, ok := kindFor[T](); ok && segs[len(segs)-1].Kind != want {
		return Handle[T]{}, fmt.Errorf("%w: handle addresses a %s, want %s", ErrMalformedHandle, segs[len(segs)-1].Kind, want)
	}
	return Handle[T]{path: encodePath(segs)}, nil
}

// IsZero reports whether h is the zero Handle, which addresses nothing.
func (h Handle[T]) IsZero() bool { return h.path == "" }

// Kind returns the kind of the addressed element.
func (h Handle[T]) Kind() Kind {
	segs := h.Segments()
	if len(segs) == 0 {
		return 0
	}
	return segs[len(segs)-1].Kind
}

// Segments returns the path from the catalog down to the element.
func (h Handle[T]) Segments() []Segment {
	segs, err := decodePath(h.path)
	if err != nil {
		return nil
	}
	return segs
}

func (h Handle[T]) String() string { return h.path }

// Untyped returns the same handle typed as a plain Element.
func (h Handle[T]) Untyped() Handle[Element] { return Handle[Element]{path: h.path} }

func (h Handle[T]) MarshalText() ([]byte, error) {
	return []byte(h.path), nil
}

func (h *Handle[T]) UnmarshalText(text []byte) error {
	parsed, err := ParseHandle[T](string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// As converts an untyped handle to a handle of type T.
func As[T Element](h Handle[Element]) (Handle[T], error) {
	return ParseHandle[T](h.path)
}

func segmentOf(e Element) Segment {
	if s, ok := e.(*Schema); ok && s.IsSynthetic() {
		return Segment{Kind: KindSchema, NoName: true}
	}
	name := e.Name()
	if in, ok := e.(internalNamer); ok {
		name = in.InternalName()
	}
	return Segment{Kind: e.Kind(), Name: name}
}

func encodePath(segs []Segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.String()
	}
	return strings.Join(parts, "/")
}

func decodePath(s string) ([]Segment, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrMalformedHandle)
	}
	parts := strings.Split(s, "/")
	segs := make([]Segment, 0, len(parts))
	for _, p := range parts {
		kindText, escaped, named := strings.Cut(p, ":")
		kind, err := ParseKind(kindText)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedHandle, err)
		}
		if !named {
			segs = append(segs, Segment{Kind: kind, NoName: true})
			continue
		}
		name, err := url.PathUnescape(escaped)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %q: %v", ErrMalformedHandle, p, err)
		}
		segs = append(segs, Segment{Kind: kind, Name: name})
	}
	return segs, nil
}

func validatePath(segs []Segment) error {
	if len(segs) > maxDepth {
		return fmt.Errorf("%w: %d levels", ErrMalformedHandle, len(segs))
	}
	if segs[0].Kind != KindCatalog {
		return fmt.Errorf("%w: path starts with %s, want catalog", ErrMalformedHandle, segs[0].Kind)
	}
	for i, s := range segs {
		if s.NoName && s.Kind != KindSchema {
			return fmt.Errorf("%w: unnamed %s", ErrMalformedHandle, s.Kind)
		}
		if i > 0 && !s.Kind.CanHaveParent(segs[i-1].Kind) {
			return fmt.Errorf("%w: %s below %s", ErrMalformedHandle, s.Kind, segs[i-1].Kind)
		}
	}
	return nil
}

// kindFor returns the kind of element type T, or false when T is an
// interface and admits any kind.
func kindFor[T Element]() (Kind, bool) {
	var zero T
	if any(zero) == nil {
		return 0, false
	}
	return zero.Kind(), true
}

func isNil(e Element) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
