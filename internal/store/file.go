package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FileStore stores one JSON document per artifact under kind-partitioned
// directories: <dataDir>/generated/<kind>/<slug>_<kind>_<timestamp>.json.
// Writes never collide across companies, and timestamp-named files make
// writes append-only, so no locking is needed.
type FileStore struct {
	dataDir string
	logger  *zap.Logger
}

// NewFileStore creates a file store rooted at dataDir
func NewFileStore(dataDir string, logger *zap.Logger) (*FileStore, error) {
	if dataDir == "" {
		dataDir = "data"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Join(dataDir, "generated"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dataDir: dataDir, logger: logger}, nil
}

// Save writes the payload as a timestamped JSON artifact and returns its path
func (s *FileStore) Save(_ context.Context, company string, kind Kind, payload any, meta Meta) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	artifact := Artifact{
		CompanyName: company,
		Kind:        kind,
		GeneratedAt: time.Now(),
		Meta:        meta,
		Payload:     raw,
	}

	doc, err := json.MarshalIndent(&artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal artifact: %w", err)
	}

	dir := s.kindDir(kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	ts := artifact.GeneratedAt.Format(timestampLayout)
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.json", Slugify(company), kind, ts))
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	s.logger.Info("saved artifact",
		zap.String("company", company),
		zap.String("kind", string(kind)),
		zap.String("path", path))
	return path, nil
}

// FindLatest returns the path of the newest artifact for company+kind.
// Timestamps embedded in filenames sort lexicographically, so the last
// glob match (descending) is the most recent.
func (s *FileStore) FindLatest(_ context.Context, company string, kind Kind) (string, error) {
	pattern := filepath.Join(s.kindDir(kind), fmt.Sprintf("%s_%s_*.json", Slugify(company), kind))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("failed to list artifacts: %w", err)
	}
	if len(matches) == 0 {
		return "", ErrNotFound
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches[0], nil
}

// Load reads an artifact file by path
func (s *FileStore) Load(_ context.Context, ref string) (*Artifact, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", ref, err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, &CorruptError{Ref: ref, Cause: err}
	}
	return &artifact, nil
}

// ListCompanies enumerates companies that have stored artifacts, newest first
func (s *FileStore) ListCompanies(_ context.Context) ([]CompanyInfo, error) {
	byCompany := make(map[string]*CompanyInfo)

	matches, err := filepath.Glob(filepath.Join(s.dataDir, "generated", "*", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	for _, path := range matches {
		slug, _, ok := parseArtifactName(filepath.Base(path))
		if !ok {
			continue
		}
		name := Unslugify(slug)
		info, exists := byCompany[name]
		if !exists {
			info = &CompanyInfo{CompanyName: name}
			byCompany[name] = info
		}
		info.Artifacts++
		if fi, err := os.Stat(path); err == nil && fi.ModTime().After(info.UpdatedAt) {
			info.UpdatedAt = fi.ModTime()
		}
	}

	companies := make([]CompanyInfo, 0, len(byCompany))
	for _, info := range byCompany {
		companies = append(companies, *info)
	}
	sort.Slice(companies, func(i, j int) bool {
		return companies[i].UpdatedAt.After(companies[j].UpdatedAt)
	})
	return companies, nil
}

func (s *FileStore) kindDir(kind Kind) string {
	return filepath.Join(s.dataDir, "generated", string(kind))
}

// parseArtifactName splits <slug>_<kind>_<timestamp>.json into slug and kind
func parseArtifactName(name string) (slug string, kind Kind, ok bool) {
	name = strings.TrimSuffix(name, ".json")
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return "", "", false
	}
	// Timestamp is the last part; kind the second to last; slug the rest.
	kind = Kind(parts[len(parts)-2])
	if !kind.Valid() {
		return "", "", false
	}
	slug = strings.Join(parts[:len(parts)-2], "_")
	return slug, kind, true
}
