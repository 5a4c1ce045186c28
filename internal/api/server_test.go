package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json/v2"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/media/images"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/service"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/sse"
	badgerstore "github.com/danieljanata/ComfyUI-Prompting-System/internal/store/badger"
)

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api humatest.TestAPI
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	sseManager := sse.NewManager(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go sseManager.Start(ctx)
	t.Cleanup(cancel)

	st, err := badgerstore.Open(filepath.Join(tmpDir, "db"), logger, sseManager)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	storage, err := images.NewStorage(filepath.Join(tmpDir, "thumbnails"))
	require.NoError(t, err)
	processor := images.NewProcessor(storage, logger)

	services := &Services{
		Prompt:    service.NewPromptService(st, logger),
		Saver:     service.NewSaverService(st, logger, 0),
		Taxonomy:  service.NewTaxonomyService(st, logger),
		Import:    service.NewImportService(st, logger),
		Thumbnail: service.NewThumbnailService(st, processor, logger),
	}

	s := NewServer(st, services, sseManager, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

func decodeBody(t *testing.T, body *bytes.Buffer, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body.Bytes(), dst))
}

func (ts *testServer) createPrompt(t *testing.T, text string) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/prompts", map[string]any{
		"text":     text,
		"category": "scenes",
		"model":    "sdxl",
		"tags":     "test",
	})
	require.Equal(t, http.StatusCreated, resp.Code, "create failed: %s", resp.Body.String())

	var body struct {
		Prompt PromptResponse `json:"prompt"`
	}
	decodeBody(t, resp.Body, &body)
	require.NotEmpty(t, body.Prompt.ID)
	return body.Prompt.ID
}

func testPNGBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	var body HealthResponse
	decodeBody(t, resp.Body, &body)
	assert.True(t, body.Success)
	assert.Equal(t, "healthy", body.Status)
	assert.Contains(t, body.Components, "database")
	assert.Contains(t, body.Components, "sse")
}
