package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/sales-intel/internal/generators"
	"github.com/jonathan/sales-intel/internal/pipeline"
	"github.com/jonathan/sales-intel/internal/types"
)

// PipelineRunRequest represents the request body for /api/v1/pipeline/run.
// Supplying products, personas or mappings skips the corresponding stage.
// CRM and PDF sources are included in the context unless disabled explicitly.
type PipelineRunRequest struct {
	CompanyName   string `json:"company_name" validate:"required"`
	GenerateCount int    `json:"generate_count,omitempty" validate:"omitempty,min=1"`
	Variant       string `json:"variant,omitempty" validate:"omitempty,oneof=four_stage three_stage two_stage baseline"`

	Products *types.ProductCatalog `json:"products,omitempty"`
	Personas *types.PersonaSet     `json:"personas,omitempty"`
	Mappings *types.MappingSet     `json:"mappings,omitempty"`

	MaxChars   int   `json:"max_chars,omitempty" validate:"omitempty,min=500"`
	IncludeCRM *bool `json:"include_crm,omitempty"`
	IncludePDF *bool `json:"include_pdf,omitempty"`
}

// PipelineRunError is the response body for a failed run. Result carries the
// artifacts produced before the failing stage.
type PipelineRunError struct {
	Error  string           `json:"error"`
	Stage  string           `json:"stage,omitempty"`
	Result *pipeline.Result `json:"result,omitempty"`
}

// StageResponse wraps one stage's payload with its run statistics
type StageResponse struct {
	Products  *types.ProductCatalog `json:"products,omitempty"`
	Personas  *types.PersonaSet     `json:"personas,omitempty"`
	Mappings  *types.MappingSet     `json:"mappings,omitempty"`
	Sequences *types.SequenceSet    `json:"sequences,omitempty"`
	Stats     *generators.Stats     `json:"stats,omitempty"`
}

// handlePipelineRun executes a full pipeline synchronously
func (s *Server) handlePipelineRun(w http.ResponseWriter, r *http.Request) {
	var req PipelineRunRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	res, err := s.orch.Run(r.Context(), pipeline.Request{
		CompanyName:   req.CompanyName,
		GenerateCount: req.GenerateCount,
		Variant:       pipeline.Variant(req.Variant),
		Products:      req.Products,
		Personas:      req.Personas,
		Mappings:      req.Mappings,
		MaxChars:      req.MaxChars,
		IncludeCRM:    req.IncludeCRM,
		IncludePDF:    req.IncludePDF,
	})
	if err != nil {
		body := PipelineRunError{Error: err.Error(), Result: res}
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			body.Stage = stageErr.Stage
		}
		s.jsonResponse(w, HTTPStatus(err), body)
		return
	}

	s.jsonResponse(w, http.StatusOK, res)
}

// ProductsGenerateRequest represents the request body for /api/v1/products/generate
type ProductsGenerateRequest struct {
	CompanyName string `json:"company_name" validate:"required"`
}

// handleGenerateProducts runs the product discovery stage on its own
func (s *Server) handleGenerateProducts(w http.ResponseWriter, r *http.Request) {
	var req ProductsGenerateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	catalog, stats, err := s.orch.GenerateProducts(r.Context(), req.CompanyName)
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, StageResponse{Products: catalog, Stats: stats})
}

// PersonasGenerateRequest represents the request body for /api/v1/personas/generate
type PersonasGenerateRequest struct {
	CompanyName   string                `json:"company_name" validate:"required"`
	GenerateCount int                   `json:"generate_count,omitempty" validate:"omitempty,min=1"`
	Products      *types.ProductCatalog `json:"products,omitempty"`
	MaxChars      int                   `json:"max_chars,omitempty" validate:"omitempty,min=500"`
	IncludeCRM    *bool                 `json:"include_crm,omitempty"`
	IncludePDF    *bool                 `json:"include_pdf,omitempty"`
}

// handleGeneratePersonas runs the persona stage on its own
func (s *Server) handleGeneratePersonas(w http.ResponseWriter, r *http.Request) {
	var req PersonasGenerateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	set, stats, err := s.orch.GeneratePersonas(r.Context(), pipeline.PersonaRequest{
		CompanyName:   req.CompanyName,
		GenerateCount: req.GenerateCount,
		Products:      req.Products,
		MaxChars:      req.MaxChars,
		IncludeCRM:    req.IncludeCRM,
		IncludePDF:    req.IncludePDF,
	})
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, StageResponse{Personas: set, Stats: stats})
}

// MappingsGenerateRequest represents the request body for /api/v1/mappings/generate
type MappingsGenerateRequest struct {
	CompanyName string                `json:"company_name" validate:"required"`
	Products    *types.ProductCatalog `json:"products,omitempty"`
	Personas    *types.PersonaSet     `json:"personas,omitempty"`
	MaxChars    int                   `json:"max_chars,omitempty" validate:"omitempty,min=500"`
	IncludeCRM  *bool                 `json:"include_crm,omitempty"`
	IncludePDF  *bool                 `json:"include_pdf,omitempty"`
}

// handleGenerateMappings runs the mapping stage on its own
func (s *Server) handleGenerateMappings(w http.ResponseWriter, r *http.Request) {
	var req MappingsGenerateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	set, stats, err := s.orch.GenerateMappings(r.Context(), pipeline.MappingRequest{
		CompanyName: req.CompanyName,
		Products:    req.Products,
		Personas:    req.Personas,
		MaxChars:    req.MaxChars,
		IncludeCRM:  req.IncludeCRM,
		IncludePDF:  req.IncludePDF,
	})
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, StageResponse{Mappings: set, Stats: stats})
}

// OutreachGenerateRequest represents the request body for /api/v1/outreach/generate.
// Mappings are request-scoped and required; stored mappings are never used.
type OutreachGenerateRequest struct {
	CompanyName string            `json:"company_name" validate:"required"`
	Mappings    *types.MappingSet `json:"mappings" validate:"required"`
	Personas    *types.PersonaSet `json:"personas,omitempty"`
}

// handleGenerateOutreach runs the outreach stage on its own
func (s *Server) handleGenerateOutreach(w http.ResponseWriter, r *http.Request) {
	var req OutreachGenerateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	set, stats, err := s.orch.GenerateOutreach(r.Context(), pipeline.OutreachRequest{
		CompanyName: req.CompanyName,
		Mappings:    req.Mappings,
		Personas:    req.Personas,
	})
	if err != nil {
		s.handleError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, StageResponse{Sequences: set, Stats: stats})
}
