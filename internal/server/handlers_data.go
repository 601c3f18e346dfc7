package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jonathan/sales-intel/internal/crm"
	"github.com/jonathan/sales-intel/internal/export"
	"github.com/jonathan/sales-intel/internal/store"
)

// ScrapeRequest represents the request body for /api/v1/scrape
type ScrapeRequest struct {
	CompanyName string `json:"company_name" validate:"required"`
}

// ScrapeResponse represents the response for /api/v1/scrape
type ScrapeResponse struct {
	CompanyName  string `json:"company_name"`
	PagesScraped int    `json:"pages_scraped"`
	Ref          string `json:"ref"`
}

// handleScrape searches for a company, scrapes its pages and persists the result
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if s.scraper == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "scraping is not configured")
		return
	}

	data, ref, err := s.scraper.ScrapeCompany(r.Context(), req.CompanyName)
	if err != nil {
		s.handleError(w, err)
		return
	}

	// The official website is one of the scraped pages, so SuccessCount
	// already covers it.
	s.jsonResponse(w, http.StatusOK, ScrapeResponse{
		CompanyName:  data.CompanyName,
		PagesScraped: data.SuccessCount(),
		Ref:          ref,
	})
}

// handleListCompanies enumerates companies with stored artifacts
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.ListCompanies(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	if companies == nil {
		companies = []store.CompanyInfo{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"companies": companies})
}

// handleExport renders the latest artifact of a kind as CSV or Markdown.
// Query parameters: company (required), kind (required), format (default csv).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	company := r.URL.Query().Get("company")
	if company == "" {
		s.errorResponse(w, http.StatusBadRequest, "company query parameter is required")
		return
	}

	kind := store.Kind(r.URL.Query().Get("kind"))
	if !kind.Valid() || kind == store.KindScraped {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("unsupported export kind %q", kind))
		return
	}

	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatCSV
	}
	if !format.Valid() {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format %q", format))
		return
	}

	artifact, err := store.LoadLatest(r.Context(), s.store, company, kind)
	if err != nil {
		s.handleError(w, err)
		return
	}

	out, err := export.Artifact(artifact, format)
	if err != nil {
		s.handleError(w, err)
		return
	}

	contentType, ext := "text/csv", "csv"
	if format == export.FormatMarkdown {
		contentType, ext = "text/markdown", "md"
	}
	filename := fmt.Sprintf("%s_%s.%s", store.Slugify(company), kind, ext)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		s.logger.Error("writing export response", zap.Error(err))
	}
}

// CRMUploadResponse represents the response for /api/v1/crm/upload
type CRMUploadResponse struct {
	Filename string `json:"filename"`
	FileType string `json:"file_type"`
	Records  int    `json:"records"`
}

// handleCRMUpload accepts one CSV file via multipart form and stores it in
// the CRM data directory after validating that it parses.
func (s *Server) handleCRMUpload(w http.ResponseWriter, r *http.Request) {
	if s.crmDir == "" {
		s.errorResponse(w, http.StatusServiceUnavailable, "CRM uploads are not configured")
		return
	}

	if err := r.ParseMultipartForm(crm.MaxUploadSize); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "file form field is required")
		return
	}
	defer file.Close()

	if err := crm.ValidateUpload(header.Filename, header.Size); err != nil {
		s.handleError(w, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, crm.MaxUploadSize))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return
	}

	parsed, err := crm.ParseCSV(header.Filename, bytes.NewReader(data))
	if err != nil {
		s.handleError(w, err)
		return
	}

	if err := os.MkdirAll(s.crmDir, 0o755); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "storing upload: "+err.Error())
		return
	}
	dest := filepath.Join(s.crmDir, filepath.Base(header.Filename))
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "storing upload: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, CRMUploadResponse{
		Filename: filepath.Base(header.Filename),
		FileType: string(parsed.Type),
		Records:  len(parsed.Records),
	})
}
