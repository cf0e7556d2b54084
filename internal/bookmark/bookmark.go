// Package bookmark keeps labelled element handles in a YAML file, so an
// element found once can be looked up again after the database or the tree
// has been reloaded.
package bookmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/hurou927/db-metadata/internal/metadata"
)

// Entry is one bookmark. Handle is kept as text so that a file edited by
// hand still loads when an entry is malformed.
type Entry struct {
	Label  string `yaml:"label"`
	Handle string `yaml:"handle"`
}

// Set is an ordered collection of bookmarks with unique labels.
type Set struct {
	Bookmarks []Entry `yaml:"bookmarks"`
}

// Load reads a bookmark file. A missing file is an empty set.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading bookmarks: %w", err)
	}

	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing bookmarks: %w", err)
	}
	return &s, nil
}

// Save writes the set to path.
func (s *Set) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding bookmarks: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing bookmarks: %w", err)
	}
	return nil
}

// Add stores h under label, replacing any bookmark with the same label.
func (s *Set) Add(label string, h metadata.Handle[metadata.Element]) {
	e := Entry{Label: label, Handle: h.String()}
	if i := s.index(label); i >= 0 {
		s.Bookmarks[i] = e
		return
	}
	s.Bookmarks = append(s.Bookmarks, e)
}

// Remove deletes the bookmark with the given label and reports whether it
// existed.
func (s *Set) Remove(label string) bool {
	i := s.index(label)
	if i < 0 {
		return false
	}
	s.Bookmarks = slices.Delete(s.Bookmarks, i, i+1)
	return true
}

// Get returns the bookmark with the given label.
func (s *Set) Get(label string) (Entry, bool) {
	if i := s.index(label); i >= 0 {
		return s.Bookmarks[i], true
	}
	return Entry{}, false
}

func (s *Set) index(label string) int {
	return slices.IndexFunc(s.Bookmarks, func(e Entry) bool { return e.Label == label })
}

// Status is the outcome of checking one bookmark against a tree.
type Status string

const (
	StatusResolved  Status = "resolved"
	StatusMissing   Status = "missing"
	StatusMalformed Status = "malformed"
)

// Result is the check outcome of one bookmark. Element is set when the
// bookmark resolved; Err is set when it is malformed.
type Result struct {
	Entry
	Status  Status
	Element metadata.Element
	Err     error
}

// Check resolves every bookmark against md.
func (s *Set) Check(ctx context.Context, md *metadata.Metadata) []Result {
	results := make([]Result, 0, len(s.Bookmarks))
	for _, e := range s.Bookmarks {
		results = append(results, check(ctx, md, e))
	}
	return results
}

func check(ctx context.Context, md *metadata.Metadata, e Entry) Result {
	r := Result{Entry: e}
	h, err := metadata.ParseHandle[metadata.Element](e.Handle)
	if err != nil {
		r.Status, r.Err = StatusMalformed, err
		return r
	}
	el, err := h.Resolve(ctx, md)
	switch {
	case err != nil:
		r.Status, r.Err = StatusMalformed, err
	case el == nil:
		r.Status = StatusMissing
	default:
		r.Status, r.Element = StatusResolved, el
	}
	return r
}
