package domain

// Stats is the read-only aggregation over the prompt table.
type Stats struct {
	Total         int `json:"total"`
	Rated         int `json:"rated"`
	WithThumbnail int `json:"with_thumbnail"`
}

// ImportResult summarizes one merge of an external snapshot.
// Skipped counts records that matched an existing prompt byte-for-byte
// in content; repeated imports of unchanged data report added=0 updated=0.
type ImportResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped,omitempty"`
}
