package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/service"
)

func (s *Server) registerSaverRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "submitPrompt",
		Method:      http.MethodPost,
		Path:        "/api/v1/saver/submit",
		Summary:     "Submit from saver",
		Description: "Classifies a saver submission as a continuation of its previous prompt or a new one, and applies it",
		Tags:        []string{"Savers"},
	}, s.handleSubmit)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetSaver",
		Method:      http.MethodPost,
		Path:        "/api/v1/saver/reset",
		Summary:     "Reset saver",
		Description: "Clears saver state so the next submission starts a new prompt. Empty saver_id resets every saver",
		Tags:        []string{"Savers"},
	}, s.handleResetSaver)
}

// SubmitInput wraps the saver submission for Huma.
type SubmitInput struct {
	Body service.SubmitRequest
}

// SubmitOutput wraps the classification result for Huma.
type SubmitOutput struct {
	Body struct {
		Success        bool           `json:"success"`
		Classification string         `json:"classification" doc:"Either new or continuation"`
		Score          float64        `json:"score" doc:"Similarity against the saver's previous text"`
		Prompt         PromptResponse `json:"prompt"`
	}
}

// ResetSaverInput wraps the reset request for Huma.
type ResetSaverInput struct {
	Body struct {
		SaverID string `json:"saver_id" doc:"Saver to reset; empty resets all"`
	}
}

func (s *Server) handleSubmit(ctx context.Context, input *SubmitInput) (*SubmitOutput, error) {
	result, err := s.services.Saver.Submit(ctx, input.Body)
	if err != nil {
		return nil, err
	}

	out := &SubmitOutput{}
	out.Body.Success = true
	out.Body.Classification = string(result.Classification)
	out.Body.Score = result.Score
	out.Body.Prompt = toPromptResponse(result.Prompt)
	return out, nil
}

func (s *Server) handleResetSaver(ctx context.Context, input *ResetSaverInput) (*MessageOutput, error) {
	if err := s.services.Saver.ResetForNew(ctx, input.Body.SaverID); err != nil {
		return nil, err
	}

	if input.Body.SaverID == "" {
		return messageOutput("all savers reset"), nil
	}
	return messageOutput("saver reset"), nil
}
