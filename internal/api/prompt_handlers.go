package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/service"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

func (s *Server) registerPromptRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPrompts",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts",
		Summary:     "List prompts",
		Description: "Returns prompts matching the given filters, newest first",
		Tags:        []string{"Prompts"},
	}, s.handleListPrompts)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPrompt",
		Method:        http.MethodPost,
		Path:          "/api/v1/prompts",
		Summary:       "Create prompt",
		Description:   "Creates a prompt directly, bypassing submission classification",
		Tags:          []string{"Prompts"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPrompt",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts/{id}",
		Summary:     "Get prompt",
		Tags:        []string{"Prompts"},
	}, s.handleGetPrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePrompt",
		Method:      http.MethodPatch,
		Path:        "/api/v1/prompts/{id}",
		Summary:     "Update prompt",
		Description: "Partially updates a prompt; omitted fields keep their values",
		Tags:        []string{"Prompts"},
	}, s.handleUpdatePrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePrompt",
		Method:      http.MethodDelete,
		Path:        "/api/v1/prompts/{id}",
		Summary:     "Delete prompt",
		Tags:        []string{"Prompts"},
	}, s.handleDeletePrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "ratePrompt",
		Method:      http.MethodPost,
		Path:        "/api/v1/prompts/{id}/rate",
		Summary:     "Rate prompt",
		Description: "Sets the star rating; repeating the current rating resets to unrated",
		Tags:        []string{"Prompts"},
	}, s.handleRatePrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "markPromptUsed",
		Method:      http.MethodPost,
		Path:        "/api/v1/prompts/{id}/used",
		Summary:     "Mark prompt used",
		Description: "Increments the prompt's use counter",
		Tags:        []string{"Prompts"},
	}, s.handleMarkPromptUsed)

	huma.Register(s.api, huma.Operation{
		OperationID: "captureThumbnail",
		Method:      http.MethodPost,
		Path:        "/api/v1/prompts/{id}/thumbnail",
		Summary:     "Capture thumbnail",
		Description: "Attaches a preview image (raw base64 or data URI) to a prompt",
		Tags:        []string{"Prompts"},
	}, s.handleCaptureThumbnail)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeThumbnail",
		Method:      http.MethodDelete,
		Path:        "/api/v1/prompts/{id}/thumbnail",
		Summary:     "Remove thumbnail",
		Tags:        []string{"Prompts"},
	}, s.handleRemoveThumbnail)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Library statistics",
		Tags:        []string{"Prompts"},
	}, s.handleGetStats)
}

// === DTOs ===

// PromptResponse contains prompt data in API responses.
type PromptResponse struct {
	ID        string                `json:"id" doc:"Prompt ID"`
	Text      string                `json:"text" doc:"Prompt text"`
	Category  string                `json:"category,omitempty" doc:"Category label"`
	Model     string                `json:"model,omitempty" doc:"Model label"`
	Tags      []string              `json:"tags,omitempty" doc:"Normalized tags"`
	Rating    int                   `json:"rating" doc:"Star rating, 0 means unrated"`
	Notes     string                `json:"notes,omitempty" doc:"Free-form notes"`
	UsedCount int                   `json:"used_count" doc:"Times marked as used"`
	Thumbnail *domain.ThumbnailInfo `json:"thumbnail,omitempty" doc:"Thumbnail metadata"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func toPromptResponse(p *domain.Prompt) PromptResponse {
	return PromptResponse{
		ID:        p.ID,
		Text:      p.Text,
		Category:  p.Category,
		Model:     p.Model,
		Tags:      p.Tags,
		Rating:    p.Rating,
		Notes:     p.Notes,
		UsedCount: p.UsedCount,
		Thumbnail: p.Thumbnail,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// PromptOutput wraps a single prompt for Huma.
type PromptOutput struct {
	Body struct {
		Success bool           `json:"success"`
		Prompt  PromptResponse `json:"prompt"`
	}
}

func promptOutput(p *domain.Prompt) *PromptOutput {
	out := &PromptOutput{}
	out.Body.Success = true
	out.Body.Prompt = toPromptResponse(p)
	return out
}

// ListPromptsInput contains list filters from the query string.
type ListPromptsInput struct {
	Search   string `query:"search" doc:"Case-insensitive substring over text and notes"`
	Category string `query:"category" doc:"Exact category label, or All"`
	Model    string `query:"model" doc:"Exact model label, or All"`
	Tag      string `query:"tag" doc:"Exact tag membership, or All"`
	Limit    int    `query:"limit" doc:"Maximum records returned"`
}

// ListPromptsOutput wraps the prompt list for Huma.
type ListPromptsOutput struct {
	Body struct {
		Success bool             `json:"success"`
		Prompts []PromptResponse `json:"prompts"`
		Count   int              `json:"count"`
	}
}

// CreatePromptInput wraps the create request for Huma.
type CreatePromptInput struct {
	Body service.CreateRequest
}

// PromptIDInput contains the path parameter shared by single-prompt routes.
type PromptIDInput struct {
	ID string `path:"id" doc:"Prompt ID"`
}

// UpdatePromptInput wraps the partial update request for Huma.
type UpdatePromptInput struct {
	ID   string `path:"id" doc:"Prompt ID"`
	Body service.UpdateRequest
}

// RatePromptInput wraps the rating request for Huma.
type RatePromptInput struct {
	ID   string `path:"id" doc:"Prompt ID"`
	Body struct {
		Rating int `json:"rating" doc:"Star rating from 0 to 5"`
	}
}

// CaptureThumbnailInput wraps the thumbnail capture request for Huma.
type CaptureThumbnailInput struct {
	ID   string `path:"id" doc:"Prompt ID"`
	Body struct {
		Image string `json:"image" doc:"Image as base64 or data URI"`
	}
}

// MessageOutput wraps simple acknowledgement responses.
type MessageOutput struct {
	Body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
}

func messageOutput(msg string) *MessageOutput {
	out := &MessageOutput{}
	out.Body.Success = true
	out.Body.Message = msg
	return out
}

// StatsOutput wraps library statistics for Huma.
type StatsOutput struct {
	Body struct {
		Success bool         `json:"success"`
		Stats   domain.Stats `json:"stats"`
	}
}

// === Handlers ===

func (s *Server) handleListPrompts(ctx context.Context, input *ListPromptsInput) (*ListPromptsOutput, error) {
	prompts, err := s.services.Prompt.List(ctx, store.ListFilter{
		Search:   input.Search,
		Category: input.Category,
		Model:    input.Model,
		Tag:      input.Tag,
		Limit:    input.Limit,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]PromptResponse, len(prompts))
	for i, p := range prompts {
		resp[i] = toPromptResponse(p)
	}

	out := &ListPromptsOutput{}
	out.Body.Success = true
	out.Body.Prompts = resp
	out.Body.Count = len(resp)
	return out, nil
}

func (s *Server) handleCreatePrompt(ctx context.Context, input *CreatePromptInput) (*PromptOutput, error) {
	p, err := s.services.Prompt.Create(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return promptOutput(p), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, input *PromptIDInput) (*PromptOutput, error) {
	p, err := s.services.Prompt.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return promptOutput(p), nil
}

func (s *Server) handleUpdatePrompt(ctx context.Context, input *UpdatePromptInput) (*PromptOutput, error) {
	p, err := s.services.Prompt.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return promptOutput(p), nil
}

func (s *Server) handleDeletePrompt(ctx context.Context, input *PromptIDInput) (*MessageOutput, error) {
	if err := s.services.Prompt.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return messageOutput("prompt deleted"), nil
}

func (s *Server) handleRatePrompt(ctx context.Context, input *RatePromptInput) (*PromptOutput, error) {
	p, err := s.services.Prompt.Rate(ctx, input.ID, input.Body.Rating)
	if err != nil {
		return nil, err
	}
	return promptOutput(p), nil
}

func (s *Server) handleMarkPromptUsed(ctx context.Context, input *PromptIDInput) (*PromptOutput, error) {
	p, err := s.services.Prompt.MarkUsed(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return promptOutput(p), nil
}

func (s *Server) handleCaptureThumbnail(ctx context.Context, input *CaptureThumbnailInput) (*PromptOutput, error) {
	p, err := s.services.Thumbnail.Capture(ctx, input.ID, []byte(input.Body.Image))
	if err != nil {
		return nil, err
	}
	return promptOutput(p), nil
}

func (s *Server) handleRemoveThumbnail(ctx context.Context, input *PromptIDInput) (*PromptOutput, error) {
	p, err := s.services.Thumbnail.Remove(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return promptOutput(p), nil
}

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	stats, err := s.services.Prompt.Stats(ctx)
	if err != nil {
		return nil, err
	}

	out := &StatsOutput{}
	out.Body.Success = true
	out.Body.Stats = *stats
	return out, nil
}
