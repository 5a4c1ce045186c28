package store

import (
	"sort"
	"strings"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
)

// FilterAll is the wildcard label value the panel sends to mean
// "no constraint" for category, model, and tag filters.
const FilterAll = "All"

// DefaultListLimit caps listings when the caller does not supply one.
const DefaultListLimit = 100

// MaxListLimit is the hard ceiling on a single listing.
const MaxListLimit = 1000

// ListFilter selects prompts for listing. All provided constraints are
// conjunctive. Zero values (and the "All" wildcard) mean unconstrained.
type ListFilter struct {
	Search   string // case-insensitive substring over text and notes
	Category string // exact label
	Model    string // exact label
	Tag      string // exact tag membership
	Limit    int    // max records returned
}

// Normalize collapses wildcards, lowercases the search and tag terms,
// and clamps the limit. Both backends call this before evaluating.
func (f *ListFilter) Normalize() {
	if f.Category == FilterAll {
		f.Category = ""
	}
	if f.Model == FilterAll {
		f.Model = ""
	}
	if f.Tag == FilterAll {
		f.Tag = ""
	}
	f.Search = strings.ToLower(strings.TrimSpace(f.Search))
	f.Tag = strings.ToLower(strings.TrimSpace(f.Tag))

	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
}

// Matches reports whether a prompt satisfies every provided constraint.
// Assumes the filter has been normalized.
func (f *ListFilter) Matches(p *domain.Prompt) bool {
	if f.Search != "" &&
		!strings.Contains(strings.ToLower(p.Text), f.Search) &&
		!strings.Contains(strings.ToLower(p.Notes), f.Search) {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Model != "" && p.Model != f.Model {
		return false
	}
	if f.Tag != "" && !p.HasTag(f.Tag) {
		return false
	}
	return true
}

// SortForListing orders prompts most-recently-updated first, ties broken
// by ID descending. This ordering governs pagination stability in the
// consuming panel, so both backends must produce it identically.
func SortForListing(prompts []*domain.Prompt) {
	sort.Slice(prompts, func(i, j int) bool {
		if !prompts[i].UpdatedAt.Equal(prompts[j].UpdatedAt) {
			return prompts[i].UpdatedAt.After(prompts[j].UpdatedAt)
		}
		return prompts[i].ID > prompts[j].ID
	})
}

// SortForExport orders prompts by CreatedAt ascending, ties by ID
// ascending, producing byte-stable snapshot output.
func SortForExport(prompts []*domain.Prompt) {
	sort.Slice(prompts, func(i, j int) bool {
		if !prompts[i].CreatedAt.Equal(prompts[j].CreatedAt) {
			return prompts[i].CreatedAt.Before(prompts[j].CreatedAt)
		}
		return prompts[i].ID < prompts[j].ID
	})
}
