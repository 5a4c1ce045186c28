package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/snapshot"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/sse"
)

func (s *Server) registerImportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "importSnapshot",
		Method:      http.MethodPost,
		Path:        "/api/v1/import",
		Summary:     "Import snapshot",
		Description: "Merges an exported snapshot into the library. Records matching existing content are skipped; nothing is ever deleted",
		Tags:        []string{"Transfer"},
	}, s.handleImport)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportSnapshot",
		Method:      http.MethodGet,
		Path:        "/api/v1/export",
		Summary:     "Export snapshot",
		Description: "Returns the whole library as a snapshot suitable for import on another machine",
		Tags:        []string{"Transfer"},
	}, s.handleExport)
}

// ImportInput carries the raw snapshot payload. The body is validated
// against the snapshot schema before any record is written.
type ImportInput struct {
	RawBody []byte `contentType:"application/json"`
}

// ImportOutput wraps the merge result for Huma.
type ImportOutput struct {
	Body struct {
		Success bool `json:"success"`
		Added   int  `json:"added"`
		Updated int  `json:"updated"`
		Skipped int  `json:"skipped"`
	}
}

// ExportOutput wraps the exported prompt array for Huma. The HTTP
// endpoint returns the bare record array; wrapped snapshot metadata is
// only written to files on disk.
type ExportOutput struct {
	Body struct {
		Success bool              `json:"success"`
		Data    []snapshot.Record `json:"data"`
	}
}

func (s *Server) handleImport(ctx context.Context, input *ImportInput) (*ImportOutput, error) {
	result, err := s.services.Import.ImportPayload(ctx, input.RawBody)
	if err != nil {
		return nil, err
	}

	s.sseManager.Emit(sse.NewImportCompletedEvent(result))

	out := &ImportOutput{}
	out.Body.Success = true
	out.Body.Added = result.Added
	out.Body.Updated = result.Updated
	out.Body.Skipped = result.Skipped
	return out, nil
}

func (s *Server) handleExport(ctx context.Context, _ *struct{}) (*ExportOutput, error) {
	prompts, err := s.services.Import.Export(ctx)
	if err != nil {
		return nil, err
	}

	out := &ExportOutput{}
	out.Body.Success = true
	out.Body.Data = snapshot.Records(prompts)
	return out, nil
}
