// Package target holds the immutable catalog of sources the pipeline crawls.
package target

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("target not found")

// Selectors is a per-source hint profile for listing pages whose markup is
// known. Empty fields fall back to the generic extraction chain.
type Selectors struct {
	Articles string `json:"articles"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Link     string `json:"link"`
}

// Target is a configured source site. Immutable for the duration of a crawl.
type Target struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BaseURL   string    `json:"url"`
	DirectURL string    `json:"direct_url,omitempty"`
	Selectors Selectors `json:"selectors"`
}

// Registry maps target IDs to their configuration. It is populated once at
// construction and read-only afterwards, so lookups are safe across
// concurrent crawl invocations.
type Registry struct {
	targets map[string]Target
}

// NewRegistry builds a registry from the built-in catalog plus any extra
// targets (extras win on ID collision, which lets tests inject synthetic
// sources).
func NewRegistry(extra ...Target) *Registry {
	m := make(map[string]Target, len(builtin)+len(extra))
	for _, t := range builtin {
		m[t.ID] = t
	}
	for _, t := range extra {
		m[t.ID] = t
	}
	return &Registry{targets: m}
}

// Lookup resolves a target ID. An unknown ID is the only fatal condition in
// the whole pipeline.
func (r *Registry) Lookup(id string) (Target, error) {
	t, ok := r.targets[id]
	if !ok {
		return Target{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// IDs returns every registered target ID.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.targets))
	for id := range r.targets {
		ids = append(ids, id)
	}
	return ids
}
