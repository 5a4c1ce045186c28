// Package snapshot encodes and decodes the export/import payload
// format. Payloads are validated against an embedded JSON Schema before
// any record is handed to the merger, so a malformed import fails
// before a single write happens.
//
// Two forms are accepted on import: a bare array of prompt records (the
// panel's export format) and a wrapped snapshot object with metadata.
// Exports to file always use the wrapped form.
package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json/v2"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	domainerrors "github.com/danieljanata/ComfyUI-Prompting-System/internal/errors"
)

//go:embed schema.json
var schemaJSON []byte

// compiled at init; the schema is embedded and must be valid.
var payloadSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("snapshot.json", bytes.NewReader(schemaJSON)); err != nil {
		panic("snapshot: add schema resource: " + err.Error())
	}
	schema, err := compiler.Compile("snapshot.json")
	if err != nil {
		panic("snapshot: compile schema: " + err.Error())
	}
	return schema
}

// Version is the wrapped snapshot format version.
const Version = 1

// TagList accepts both the stored array form and the comma-joined
// transport form of the tags field.
type TagList []string

// UnmarshalJSON implements flexible decoding for TagList.
func (t *TagList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var joined string
		if err := json.Unmarshal(trimmed, &joined); err != nil {
			return err
		}
		*t = TagList(domain.SplitTags(joined))
		return nil
	}

	var tags []string
	if err := json.Unmarshal(trimmed, &tags); err != nil {
		return err
	}
	*t = TagList(domain.NormalizeTags(tags))
	return nil
}

// Record is one prompt-shaped entry of an import payload. Every field
// except none is optional; missing fields default to zero values per
// the merge contract.
type Record struct {
	ID        string                `json:"id"`
	Text      string                `json:"text"`
	Category  string                `json:"category"`
	Model     string                `json:"model"`
	Tags      TagList               `json:"tags"`
	Rating    int                   `json:"rating"`
	Notes     string                `json:"notes"`
	UsedCount int                   `json:"used_count"`
	Thumbnail *domain.ThumbnailInfo `json:"thumbnail"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// ToPrompt converts the wire record into a domain prompt. Zero
// timestamps are left for the merger to fill.
func (r *Record) ToPrompt() *domain.Prompt {
	p := &domain.Prompt{
		Text:      r.Text,
		Category:  strings.TrimSpace(r.Category),
		Model:     strings.TrimSpace(r.Model),
		Tags:      []string(r.Tags),
		Rating:    r.Rating,
		Notes:     r.Notes,
		UsedCount: r.UsedCount,
		Thumbnail: r.Thumbnail,
	}
	p.ID = strings.TrimSpace(r.ID)
	p.CreatedAt = r.CreatedAt
	p.UpdatedAt = r.UpdatedAt
	return p
}

// Snapshot is the wrapped export form written to disk.
type Snapshot struct {
	Version    int       `json:"version"`
	SnapshotID string    `json:"snapshot_id"`
	ExportedAt time.Time `json:"exported_at"`
	Prompts    []Record  `json:"prompts"`
}

// fromPrompt converts a domain prompt into its wire record.
func fromPrompt(p *domain.Prompt) Record {
	return Record{
		ID:        p.ID,
		Text:      p.Text,
		Category:  p.Category,
		Model:     p.Model,
		Tags:      TagList(p.Tags),
		Rating:    p.Rating,
		Notes:     p.Notes,
		UsedCount: p.UsedCount,
		Thumbnail: p.Thumbnail,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Records converts domain prompts into the bare-array wire form.
func Records(prompts []*domain.Prompt) []Record {
	records := make([]Record, len(prompts))
	for i, p := range prompts {
		records[i] = fromPrompt(p)
	}
	return records
}

// New builds a wrapped snapshot with fresh metadata.
func New(prompts []*domain.Prompt) *Snapshot {
	return &Snapshot{
		Version:    Version,
		SnapshotID: uuid.NewString(),
		ExportedAt: time.Now().UTC(),
		Prompts:    Records(prompts),
	}
}

// Decode validates raw against the payload schema and returns the
// contained records as domain prompts. Both the bare-array and wrapped
// forms are accepted. Any structural problem yields an InvalidFormat
// error and no records.
func Decode(raw []byte) ([]*domain.Prompt, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domainerrors.InvalidFormat("import payload is not valid JSON").WithCause(err)
	}
	if err := payloadSchema.Validate(doc); err != nil {
		return nil, domainerrors.InvalidFormat("import payload is not a sequence of prompt records").WithCause(err)
	}

	var records []Record
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, domainerrors.InvalidFormat("import payload decode failed").WithCause(err)
		}
	} else {
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, domainerrors.InvalidFormat("import payload decode failed").WithCause(err)
		}
		records = snap.Prompts
	}

	prompts := make([]*domain.Prompt, len(records))
	for i := range records {
		prompts[i] = records[i].ToPrompt()
	}
	return prompts, nil
}

// WriteFile writes prompts as a wrapped snapshot file. The file is
// written atomically via a temp file rename.
func WriteFile(path string, prompts []*domain.Prompt) (*Snapshot, error) {
	snap := New(prompts)
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, err
	}
	return snap, nil
}

// ReadFile reads and decodes a snapshot file.
func ReadFile(path string) ([]*domain.Prompt, error) {
	raw, err := os.ReadFile(path) //#nosec G304 -- Snapshot path comes from operator config
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}
