// Package crm loads CRM CSV exports and condenses them into the customer
// data summary fed to persona generation. Files from different CRM systems
// (Salesforce, HubSpot, Pipedrive, generic exports) are classified by type,
// their columns normalized to standard field names, and the merged rows
// reduced to distribution statistics.
package crm

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MaxUploadSize is the largest accepted CSV upload in bytes.
const MaxUploadSize = 20 << 20

// MaxRowsPerFile caps how many data rows are read from one CSV.
const MaxRowsPerFile = 10000

// FileType classifies a CRM export by the entity it describes
type FileType string

// Recognized CRM file types
const (
	FileAccount     FileType = "account"
	FileContact     FileType = "contact"
	FileOpportunity FileType = "opportunity"
	FileUnknown     FileType = "unknown"
)

// Record is one CSV row with normalized field names
type Record map[string]string

// File is one parsed and normalized CRM export
type File struct {
	Name    string
	Type    FileType
	Columns []string
	Records []Record
}

// ParseError reports a CSV that could not be read
type ParseError struct {
	Name    string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("crm parse error for %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("crm parse error for %s: %s", e.Name, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidateUpload checks an uploaded file's name and size before parsing.
func ValidateUpload(filename string, size int64) error {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return &ParseError{Name: filename, Message: "only CSV files are accepted"}
	}
	if size > MaxUploadSize {
		return &ParseError{Name: filename, Message: fmt.Sprintf("file exceeds %d MB limit", MaxUploadSize>>20)}
	}
	return nil
}

// fieldCandidates maps each standard field to the column names that carry it,
// in priority order. Names are compared case-insensitively.
var fieldCandidates = map[string][]string{
	// Account fields
	"company_name":     {"account name", "company name", "organization name", "company", "account_name", "company_name", "name"},
	"company_industry": {"industry", "company industry", "industry sector", "sicdesc", "sector", "vertical", "company_industry"},
	"company_country":  {"billingcountry", "shippingcountry", "country", "billing_country", "shipping_country"},
	"company_state":    {"billingstate", "shippingstate", "state/province", "state", "province", "billing_state"},
	"company_city":     {"billingcity", "shippingcity", "city", "billing_city"},
	"company_size":     {"numberofemployees", "number of employees", "employee count", "num_employees", "employee_count", "headcount", "company_size", "employees"},
	"company_revenue":  {"annualrevenue", "annual revenue", "annual_revenue", "revenue"},

	// Contact fields
	"contact_firstname":  {"firstname", "first name", "first_name", "fname"},
	"contact_lastname":   {"lastname", "last name", "last_name", "lname"},
	"contact_email":      {"email", "email_address"},
	"contact_job_title":  {"job title", "job_title", "title", "position", "role", "function"},
	"contact_department": {"department", "division", "team"},

	// Opportunity fields
	"deal_name":       {"opportunity name", "deal name", "dealname", "deal title", "opportunity_name", "deal_name"},
	"deal_stage":      {"stagename", "deal stage", "dealstage", "stage", "pipeline", "phase", "status", "deal_stage"},
	"deal_amount":     {"amount", "deal value", "expectedrevenue", "value", "deal_amount", "price"},
	"deal_close_date": {"closedate", "close date", "expected close date", "close_date", "closed_date"},
	"deal_type":       {"deal type", "deal_type", "type"},
}

// fileTypePatterns identifies exports by filename substring
var fileTypePatterns = map[FileType][]string{
	FileAccount:     {"account", "company", "organization"},
	FileContact:     {"contact", "person", "lead"},
	FileOpportunity: {"opportunity", "deal", "transaction", "sales"},
}

// ParseCSV reads one CSV export, classifies it and normalizes its columns.
func ParseCSV(name string, r io.Reader) (*File, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Name: name, Message: "file is empty"}
	}
	if err != nil {
		return nil, &ParseError{Name: name, Message: "failed to read header", Cause: err}
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	mapping := mapColumns(header)
	fileType := identifyFileType(name, header)

	var records []Record
	for len(records) < MaxRowsPerFile {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Name: name, Message: "failed to read row", Cause: err}
		}

		rec := make(Record, len(header))
		for i, value := range row {
			if i >= len(header) {
				break
			}
			col := header[i]
			if std, ok := mapping[col]; ok {
				col = std
			}
			value = strings.TrimSpace(value)
			if value != "" {
				rec[col] = value
			}
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}

	if len(records) == 0 {
		return nil, &ParseError{Name: name, Message: "file has no data rows"}
	}

	return &File{Name: name, Type: fileType, Columns: header, Records: records}, nil
}

// mapColumns pairs original column names with standard field names.
// Each standard field binds to at most one column.
func mapColumns(header []string) map[string]string {
	mapping := make(map[string]string)
	bound := make(map[string]bool)

	for field, candidates := range fieldCandidates {
		for _, cand := range candidates {
			if bound[field] {
				break
			}
			for _, col := range header {
				if strings.EqualFold(col, cand) {
					mapping[col] = field
					bound[field] = true
					break
				}
			}
		}
	}
	return mapping
}

// identifyFileType classifies an export by filename, then by its columns.
func identifyFileType(name string, header []string) FileType {
	lower := strings.ToLower(name)
	for _, fileType := range []FileType{FileAccount, FileContact, FileOpportunity} {
		for _, pattern := range fileTypePatterns[fileType] {
			if strings.Contains(lower, pattern) {
				return fileType
			}
		}
	}

	joined := strings.ToLower(strings.Join(header, " "))
	switch {
	case containsAny(joined, "billing", "shipping", "industry", "organization"):
		return FileAccount
	case containsAny(joined, "firstname", "lastname", "email", "department"):
		return FileContact
	case containsAny(joined, "stage", "amount", "closedate", "deal", "opportunity"):
		return FileOpportunity
	}
	return FileUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
