// Package domain contains the core business entities for the prompt library.
package domain

import (
	"strings"
	"time"
)

// Prompt is the central entity: one saved text prompt with its labels,
// rating, and optional captured thumbnail.
type Prompt struct {
	Record
	Text      string         `json:"text"`
	Category  string         `json:"category,omitempty"`
	Model     string         `json:"model,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Rating    int            `json:"rating"`
	Notes     string         `json:"notes,omitempty"`
	UsedCount int            `json:"used_count"`
	Thumbnail *ThumbnailInfo `json:"thumbnail,omitempty"`
}

// ThumbnailInfo describes the captured thumbnail attached to a prompt.
// The image bytes themselves live in image storage keyed by the prompt ID;
// the record only carries the metadata needed by the panel.
type ThumbnailInfo struct {
	Hash       string    `json:"hash"`                // SHA256 of the stored image
	BlurHash   string    `json:"blur_hash,omitempty"` // Placeholder for progressive loading
	Size       int64     `json:"size"`
	CapturedAt time.Time `json:"captured_at"`
}

// MinRating and MaxRating bound the 0-5 star scale. Zero means unrated.
const (
	MinRating = 0
	MaxRating = 5
)

// ValidRating reports whether r is within the allowed 0-5 range.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// NormalizeTags lowercases, trims, and deduplicates a tag list while
// preserving first-seen order for stable display.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// SplitTags parses the comma-joined tag transport form ("a, b, c") into
// a normalized tag list.
func SplitTags(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(joined, ","))
}

// JoinTags renders a tag list in the comma-joined transport form.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// HasTag reports whether the prompt carries the given (already lowercase) tag.
func (p *Prompt) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ContentEquals compares the importable content fields of two prompts.
// Timestamps and thumbnails are not part of record identity for merge
// purposes and are excluded. Tags are compared as a set; their order
// carries no meaning.
func (p *Prompt) ContentEquals(other *Prompt) bool {
	if p.Text != other.Text ||
		p.Category != other.Category ||
		p.Model != other.Model ||
		p.Rating != other.Rating ||
		p.Notes != other.Notes ||
		p.UsedCount != other.UsedCount {
		return false
	}
	if len(p.Tags) != len(other.Tags) {
		return false
	}
	seen := make(map[string]bool, len(p.Tags))
	for _, tag := range p.Tags {
		seen[tag] = true
	}
	for _, tag := range other.Tags {
		if !seen[tag] {
			return false
		}
	}
	return true
}
