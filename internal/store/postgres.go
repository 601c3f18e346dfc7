package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PGStore keeps artifacts as explicit versioned records: one row per
// company+kind+version with an is_active flag marking the latest. This
// replaces filename-timestamp ordering with a transactional version counter,
// closing the concurrent read-latest-mid-write race the file store accepts.
type PGStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id         BIGSERIAL PRIMARY KEY,
	company    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	version    INT NOT NULL,
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	payload    JSONB NOT NULL,
	meta       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (company, kind, version)
);
CREATE INDEX IF NOT EXISTS artifacts_active_idx ON artifacts (company, kind) WHERE is_active;
`

// NewPGStore connects to PostgreSQL and ensures the artifacts table exists
func NewPGStore(ctx context.Context, databaseURL string, logger *zap.Logger) (*PGStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure artifacts schema: %w", err)
	}

	return &PGStore{pool: pool, logger: logger}, nil
}

// Close closes the connection pool
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Save inserts the next version for company+kind and flips the active flag
// to it in one transaction. The returned reference is company/kind/version.
func (s *PGStore) Save(ctx context.Context, company string, kind Kind, payload any, meta Meta) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	metaRaw, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal meta: %w", err)
	}

	slug := Slugify(company)
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var version int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM artifacts WHERE company = $1 AND kind = $2`,
		slug, string(kind),
	).Scan(&version)
	if err != nil {
		return "", fmt.Errorf("failed to allocate version: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE artifacts SET is_active = FALSE WHERE company = $1 AND kind = $2 AND is_active`,
		slug, string(kind),
	); err != nil {
		return "", fmt.Errorf("failed to deactivate prior versions: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO artifacts (company, kind, version, is_active, payload, meta)
		 VALUES ($1, $2, $3, TRUE, $4, $5)`,
		slug, string(kind), version, raw, metaRaw,
	); err != nil {
		return "", fmt.Errorf("failed to insert artifact: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit artifact: %w", err)
	}

	ref := makeRef(slug, kind, version)
	s.logger.Info("saved artifact",
		zap.String("company", company),
		zap.String("kind", string(kind)),
		zap.Int("version", version))
	return ref, nil
}

// FindLatest returns the reference of the active version for company+kind
func (s *PGStore) FindLatest(ctx context.Context, company string, kind Kind) (string, error) {
	slug := Slugify(company)
	var version int
	err := s.pool.QueryRow(ctx,
		`SELECT version FROM artifacts WHERE company = $1 AND kind = $2 AND is_active
		 ORDER BY version DESC LIMIT 1`,
		slug, string(kind),
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to find latest artifact: %w", err)
	}
	return makeRef(slug, kind, version), nil
}

// Load reads an artifact by company/kind/version reference
func (s *PGStore) Load(ctx context.Context, ref string) (*Artifact, error) {
	slug, kind, version, err := parseRef(ref)
	if err != nil {
		return nil, err
	}

	var (
		payload   []byte
		metaRaw   []byte
		createdAt time.Time
	)
	err = s.pool.QueryRow(ctx,
		`SELECT payload, meta, created_at FROM artifacts
		 WHERE company = $1 AND kind = $2 AND version = $3`,
		slug, string(kind), version,
	).Scan(&payload, &metaRaw, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load artifact %s: %w", ref, err)
	}

	artifact := &Artifact{
		CompanyName: Unslugify(slug),
		Kind:        kind,
		GeneratedAt: createdAt,
		Payload:     payload,
	}
	if err := json.Unmarshal(metaRaw, &artifact.Meta); err != nil {
		return nil, &CorruptError{Ref: ref, Cause: err}
	}
	return artifact, nil
}

// ListCompanies enumerates companies with stored artifacts, newest first
func (s *PGStore) ListCompanies(ctx context.Context) ([]CompanyInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company, COUNT(*), MAX(created_at) FROM artifacts GROUP BY company
		 ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []CompanyInfo
	for rows.Next() {
		var (
			slug      string
			count     int
			updatedAt time.Time
		)
		if err := rows.Scan(&slug, &count, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}
		companies = append(companies, CompanyInfo{
			CompanyName: Unslugify(slug),
			Artifacts:   count,
			UpdatedAt:   updatedAt,
		})
	}
	return companies, rows.Err()
}

func makeRef(slug string, kind Kind, version int) string {
	return fmt.Sprintf("%s/%s/v%d", slug, kind, version)
}

func parseRef(ref string) (slug string, kind Kind, version int, err error) {
	parts := strings.Split(ref, "/")
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "v") {
		return "", "", 0, fmt.Errorf("invalid artifact reference %q", ref)
	}
	version, err = strconv.Atoi(strings.TrimPrefix(parts[2], "v"))
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid artifact version in %q", ref)
	}
	return parts[0], Kind(parts[1]), version, nil
}
