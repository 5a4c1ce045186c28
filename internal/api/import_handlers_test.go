package api

import (
	"encoding/json/v2"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/snapshot"
)

type importBody struct {
	Success bool `json:"success"`
	Added   int  `json:"added"`
	Updated int  `json:"updated"`
	Skipped int  `json:"skipped"`
}

func TestImportExportRoundTrip(t *testing.T) {
	ts := setupTestServer(t)

	payload := strings.NewReader(`[
		{"text": "a cat sitting on a mat", "category": "scenes", "tags": ["feline"]},
		{"text": "a spaceship over the city"}
	]`)

	resp := ts.api.Post("/api/v1/import", "Content-Type: application/json", payload)
	require.Equal(t, http.StatusOK, resp.Code, "import failed: %s", resp.Body.String())

	var imported importBody
	decodeBody(t, resp.Body, &imported)
	assert.True(t, imported.Success)
	assert.Equal(t, 2, imported.Added)
	assert.Equal(t, 0, imported.Updated)
	assert.Equal(t, 0, imported.Skipped)

	resp = ts.api.Get("/api/v1/export")
	require.Equal(t, http.StatusOK, resp.Code)

	var exported struct {
		Success bool              `json:"success"`
		Data    []snapshot.Record `json:"data"`
	}
	decodeBody(t, resp.Body, &exported)
	assert.True(t, exported.Success)
	require.Len(t, exported.Data, 2)
	for _, r := range exported.Data {
		assert.NotEmpty(t, r.ID)
		assert.NotEmpty(t, r.Text)
	}

	// The exported data array is itself a valid import payload.
	raw, err := json.Marshal(exported.Data)
	require.NoError(t, err)
	resp = ts.api.Post("/api/v1/import", "Content-Type: application/json", strings.NewReader(string(raw)))
	require.Equal(t, http.StatusOK, resp.Code)
	decodeBody(t, resp.Body, &imported)
	assert.Equal(t, 0, imported.Added)
	assert.Equal(t, 2, imported.Skipped)
}

func TestImport_Reimport_Skips(t *testing.T) {
	ts := setupTestServer(t)

	payload := `[{"id": "stable-id", "text": "already here"}]`

	resp := ts.api.Post("/api/v1/import", "Content-Type: application/json", strings.NewReader(payload))
	require.Equal(t, http.StatusOK, resp.Code)

	var body importBody
	decodeBody(t, resp.Body, &body)
	assert.Equal(t, 1, body.Added)

	resp = ts.api.Post("/api/v1/import", "Content-Type: application/json", strings.NewReader(payload))
	require.Equal(t, http.StatusOK, resp.Code)
	decodeBody(t, resp.Body, &body)
	assert.Equal(t, 0, body.Added)
	assert.Equal(t, 1, body.Skipped)
}

func TestImport_InvalidPayload(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"version": 1, "prompts": [`},
		{"rating out of range", `[{"text": "x", "rating": 9}]`},
		{"not a snapshot", `"just a string"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/import", "Content-Type: application/json", strings.NewReader(tt.payload))
			require.Equal(t, http.StatusBadRequest, resp.Code)

			var body APIError
			decodeBody(t, resp.Body, &body)
			assert.False(t, body.Success)
			assert.Equal(t, "INVALID_FORMAT", body.Code)
		})
	}

	// Nothing was written.
	resp := ts.api.Get("/api/v1/stats")
	require.Equal(t, http.StatusOK, resp.Code)
	var stats struct {
		Stats struct {
			Total int `json:"total"`
		} `json:"stats"`
	}
	decodeBody(t, resp.Body, &stats)
	assert.Equal(t, 0, stats.Stats.Total)
}

func TestImport_RateLimited(t *testing.T) {
	ts := setupTestServer(t)

	payload := `[{"text": "rapid fire"}]`

	limited := false
	for range 6 {
		resp := ts.api.Post("/api/v1/import", "Content-Type: application/json", strings.NewReader(payload))
		if resp.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
		require.Equal(t, http.StatusOK, resp.Code)
	}
	assert.True(t, limited, "expected a 429 after exhausting the burst")
}
