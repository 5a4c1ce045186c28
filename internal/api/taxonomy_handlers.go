package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerTaxonomyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Tags:        []string{"Taxonomy"},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "addCategory",
		Method:      http.MethodPost,
		Path:        "/api/v1/categories",
		Summary:     "Add category",
		Description: "Adds a category label. Adding an existing label is a no-op",
		Tags:        []string{"Taxonomy"},
	}, s.handleAddCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeCategory",
		Method:      http.MethodDelete,
		Path:        "/api/v1/categories/{name}",
		Summary:     "Remove category",
		Description: "Removes a label from the set only; prompts keep the orphaned value",
		Tags:        []string{"Taxonomy"},
	}, s.handleRemoveCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "listModels",
		Method:      http.MethodGet,
		Path:        "/api/v1/models",
		Summary:     "List models",
		Tags:        []string{"Taxonomy"},
	}, s.handleListModels)

	huma.Register(s.api, huma.Operation{
		OperationID: "addModel",
		Method:      http.MethodPost,
		Path:        "/api/v1/models",
		Summary:     "Add model",
		Tags:        []string{"Taxonomy"},
	}, s.handleAddModel)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeModel",
		Method:      http.MethodDelete,
		Path:        "/api/v1/models/{name}",
		Summary:     "Remove model",
		Tags:        []string{"Taxonomy"},
	}, s.handleRemoveModel)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns the distinct union of all prompts' tags",
		Tags:        []string{"Taxonomy"},
	}, s.handleListTagLabels)
}

// LabelsOutput wraps a label set for Huma.
type LabelsOutput struct {
	Body struct {
		Success bool     `json:"success"`
		Labels  []string `json:"labels"`
	}
}

func labelsOutput(labels []string) *LabelsOutput {
	out := &LabelsOutput{}
	out.Body.Success = true
	out.Body.Labels = labels
	return out
}

// AddLabelInput wraps a label creation request for Huma.
type AddLabelInput struct {
	Body struct {
		Name string `json:"name" doc:"Label name"`
	}
}

// RemoveLabelInput contains the label path parameter.
type RemoveLabelInput struct {
	Name string `path:"name" doc:"Label name"`
}

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*LabelsOutput, error) {
	labels, err := s.services.Taxonomy.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return labelsOutput(labels), nil
}

func (s *Server) handleAddCategory(ctx context.Context, input *AddLabelInput) (*LabelsOutput, error) {
	labels, err := s.services.Taxonomy.AddCategory(ctx, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return labelsOutput(labels), nil
}

func (s *Server) handleRemoveCategory(ctx context.Context, input *RemoveLabelInput) (*LabelsOutput, error) {
	labels, err := s.services.Taxonomy.RemoveCategory(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	return labelsOutput(labels), nil
}

func (s *Server) handleListModels(ctx context.Context, _ *struct{}) (*LabelsOutput, error) {
	labels, err := s.services.Taxonomy.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	return labelsOutput(labels), nil
}

func (s *Server) handleAddModel(ctx context.Context, input *AddLabelInput) (*LabelsOutput, error) {
	labels, err := s.services.Taxonomy.AddModel(ctx, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return labelsOutput(labels), nil
}

func (s *Server) handleRemoveModel(ctx context.Context, input *RemoveLabelInput) (*LabelsOutput, error) {
	labels, err := s.services.Taxonomy.RemoveModel(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	return labelsOutput(labels), nil
}

func (s *Server) handleListTagLabels(ctx context.Context, _ *struct{}) (*LabelsOutput, error) {
	labels, err := s.services.Taxonomy.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return labelsOutput(labels), nil
}
