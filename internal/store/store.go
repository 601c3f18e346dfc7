// Package store persists timestamped JSON artifacts per company and artifact kind.
//
// Two implementations exist: a flat-file store (default) and a PostgreSQL
// versioned-record store selected when DATABASE_URL is configured. Both share
// the same interface; "latest" means the newest timestamp for files and the
// active version row for Postgres.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies one artifact family
type Kind string

// Artifact kinds, one per pipeline stage plus raw scraped company data
const (
	KindProducts  Kind = "products"
	KindPersonas  Kind = "personas"
	KindMappings  Kind = "mappings"
	KindSequences Kind = "sequences"
	KindScraped   Kind = "scraped"
)

// Valid reports whether the kind is known
func (k Kind) Valid() bool {
	switch k {
	case KindProducts, KindPersonas, KindMappings, KindSequences, KindScraped:
		return true
	}
	return false
}

// timestampLayout embeds lexicographically sortable timestamps in filenames
const timestampLayout = "2006-01-02T15-04-05"

// ErrNotFound indicates no artifact exists for the requested company and kind
var ErrNotFound = errors.New("artifact not found")

// CorruptError indicates an artifact exists but could not be decoded.
// Callers treat this the same as ErrNotFound for auto-load purposes.
type CorruptError struct {
	Ref   string
	Cause error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt artifact %s: %v", e.Ref, e.Cause)
}

func (e *CorruptError) Unwrap() error {
	return e.Cause
}

// Meta records provenance for one generated artifact
type Meta struct {
	Model            string `json:"model,omitempty"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	TotalTokens      int    `json:"total_tokens,omitempty"`
	DurationMS       int64  `json:"duration_ms,omitempty"`
	ContextChars     int    `json:"context_chars,omitempty"`
}

// Artifact is the persisted unit of pipeline output. Payload holds the
// kind-specific structured content; artifacts are never mutated after creation.
type Artifact struct {
	CompanyName string          `json:"company_name"`
	Kind        Kind            `json:"kind"`
	GeneratedAt time.Time       `json:"generated_at"`
	Meta        Meta            `json:"meta"`
	Payload     json.RawMessage `json:"payload"`
}

// DecodePayload unmarshals the artifact payload into v
func (a *Artifact) DecodePayload(v any) error {
	if err := json.Unmarshal(a.Payload, v); err != nil {
		return &CorruptError{Ref: string(a.Kind), Cause: err}
	}
	return nil
}

// CompanyInfo summarizes stored data for one company
type CompanyInfo struct {
	CompanyName string    `json:"company_name"`
	Artifacts   int       `json:"artifacts"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists and retrieves artifacts. Save returns a reference usable
// with Load; FindLatest returns the reference of the most recent artifact
// for a company and kind, or ErrNotFound.
type Store interface {
	Save(ctx context.Context, company string, kind Kind, payload any, meta Meta) (string, error)
	FindLatest(ctx context.Context, company string, kind Kind) (string, error)
	Load(ctx context.Context, ref string) (*Artifact, error)
	ListCompanies(ctx context.Context) ([]CompanyInfo, error)
}

// LoadLatest resolves and loads the newest artifact for a company and kind
func LoadLatest(ctx context.Context, s Store, company string, kind Kind) (*Artifact, error) {
	ref, err := s.FindLatest(ctx, company, kind)
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, ref)
}

// Slugify converts a company name to its filename/key form
func Slugify(company string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(company)), " ", "_")
}

// Unslugify converts a slug back to a display name
func Unslugify(slug string) string {
	words := strings.Split(strings.ReplaceAll(slug, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
