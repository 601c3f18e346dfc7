package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sales-intel/internal/crm"
	"github.com/jonathan/sales-intel/internal/scrape"
	"github.com/jonathan/sales-intel/internal/store"
)

// memStore is an in-memory artifact store for tests
type memStore struct {
	artifacts map[string]*store.Artifact
}

func newMemStore() *memStore {
	return &memStore{artifacts: make(map[string]*store.Artifact)}
}

func (m *memStore) Save(_ context.Context, company string, kind store.Kind, payload any, meta store.Meta) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	ref := fmt.Sprintf("%s/%s", store.Slugify(company), kind)
	m.artifacts[ref] = &store.Artifact{
		CompanyName: company,
		Kind:        kind,
		GeneratedAt: time.Now().UTC(),
		Meta:        meta,
		Payload:     raw,
	}
	return ref, nil
}

func (m *memStore) FindLatest(_ context.Context, company string, kind store.Kind) (string, error) {
	ref := fmt.Sprintf("%s/%s", store.Slugify(company), kind)
	if _, ok := m.artifacts[ref]; !ok {
		return "", store.ErrNotFound
	}
	return ref, nil
}

func (m *memStore) Load(_ context.Context, ref string) (*store.Artifact, error) {
	a, ok := m.artifacts[ref]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (m *memStore) ListCompanies(_ context.Context) ([]store.CompanyInfo, error) {
	return nil, nil
}

func seedScraped(t *testing.T, st store.Store, company, official string, pages ...scrape.PageContent) {
	t.Helper()
	data := scrape.CompanyData{
		CompanyName:     company,
		OfficialWebsite: official,
		Content:         pages,
		ScrapedAt:       time.Now().UTC(),
	}
	_, err := st.Save(context.Background(), company, store.KindScraped, data, store.Meta{})
	require.NoError(t, err)
}

func TestPrepare_WebOnly(t *testing.T) {
	st := newMemStore()
	seedScraped(t, st, "Acme", "Acme makes anvils.",
		scrape.PageContent{URL: "https://news.example.org/acme", ContentType: "news_article", Markdown: "Acme raised funding.", Success: true},
		scrape.PageContent{URL: "https://down.example.org", ContentType: "news_article", Success: false, Error: "timeout"},
	)

	a := NewAggregator(st, nil, nil, nil, nil)
	ctx, err := a.Prepare(context.Background(), "Acme", DefaultOptions())
	require.NoError(t, err)

	assert.Contains(t, ctx.Text, "=== WEB SCRAPED CONTENT ===")
	assert.Contains(t, ctx.Text, "OFFICIAL WEBSITE:\nAcme makes anvils.")
	assert.Contains(t, ctx.Text, "--- NEWS_ARTICLE ---")
	assert.NotContains(t, ctx.Text, "down.example.org")
	require.Len(t, ctx.Sections, 1)
	assert.Equal(t, LabelWeb, ctx.Sections[0].Label)
	assert.Equal(t, len(ctx.Text), ctx.TotalChars)
}

func TestPrepare_NoWebData(t *testing.T) {
	a := NewAggregator(newMemStore(), nil, nil, nil, nil)
	_, err := a.Prepare(context.Background(), "Unknown Co", DefaultOptions())
	assert.ErrorIs(t, err, ErrNoWebData)
}

func TestPrepare_IncludesCRMSection(t *testing.T) {
	st := newMemStore()
	seedScraped(t, st, "Acme", "Acme makes anvils.")

	dir := t.TempDir()
	csv := "Account Name,Industry\nAcme Corp,Manufacturing\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.csv"), []byte(csv), 0o644))

	a := NewAggregator(st, nil, crm.NewLoader(dir, nil), nil, nil)
	ctx, err := a.Prepare(context.Background(), "Acme", DefaultOptions())
	require.NoError(t, err)

	assert.Contains(t, ctx.Text, "=== CRM CUSTOMER DATA ===")
	assert.Contains(t, ctx.Text, "Total Accounts: 1")
	require.Len(t, ctx.Sections, 2)
}

func TestPrepare_CRMExcludedByOption(t *testing.T) {
	st := newMemStore()
	seedScraped(t, st, "Acme", "Acme makes anvils.")

	dir := t.TempDir()
	csv := "Account Name,Industry\nAcme Corp,Manufacturing\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.csv"), []byte(csv), 0o644))

	a := NewAggregator(st, nil, crm.NewLoader(dir, nil), nil, nil)
	ctx, err := a.Prepare(context.Background(), "Acme", Options{MaxChars: DefaultMaxChars})
	require.NoError(t, err)
	assert.NotContains(t, ctx.Text, "=== CRM CUSTOMER DATA ===")
}

func TestAssemble_UnderBudget(t *testing.T) {
	ctx := assemble("Acme", []Section{
		{Label: LabelWeb, Text: "web content"},
		{Label: LabelCRM, Text: "crm content"},
	}, 1000)

	assert.False(t, ctx.Sections[0].Truncated)
	assert.False(t, ctx.Sections[1].Truncated)
	assert.Equal(t, len(ctx.Text), ctx.TotalChars)
	assert.LessOrEqual(t, ctx.TotalChars, 1000)
}

func TestAssemble_TrimsPDFFirst(t *testing.T) {
	web := strings.Repeat("w", 400)
	crmText := strings.Repeat("c", 300)
	pdf := strings.Repeat("p", 500)

	ctx := assemble("Acme", []Section{
		{Label: LabelWeb, Text: web},
		{Label: LabelCRM, Text: crmText},
		{Label: LabelPDF, Text: pdf},
	}, 1000)

	assert.LessOrEqual(t, ctx.TotalChars, 1000)
	require.Len(t, ctx.Sections, 3)
	assert.False(t, ctx.Sections[0].Truncated)
	assert.False(t, ctx.Sections[1].Truncated)
	assert.True(t, ctx.Sections[2].Truncated)
	assert.True(t, strings.HasSuffix(ctx.Sections[2].Text, truncationMarker))
}

func TestAssemble_DropsPDFThenTrimsCRM(t *testing.T) {
	web := strings.Repeat("w", 700)
	crmText := strings.Repeat("c", 600)
	pdf := strings.Repeat("p", 40)

	ctx := assemble("Acme", []Section{
		{Label: LabelWeb, Text: web},
		{Label: LabelCRM, Text: crmText},
		{Label: LabelPDF, Text: pdf},
	}, 1000)

	assert.LessOrEqual(t, ctx.TotalChars, 1000)
	require.Len(t, ctx.Sections, 2)
	assert.Equal(t, LabelWeb, ctx.Sections[0].Label)
	assert.False(t, ctx.Sections[0].Truncated)
	assert.Equal(t, LabelCRM, ctx.Sections[1].Label)
	assert.True(t, ctx.Sections[1].Truncated)
}

func TestAssemble_WebTruncatedLast(t *testing.T) {
	web := strings.Repeat("w", 2000)

	ctx := assemble("Acme", []Section{{Label: LabelWeb, Text: web}}, 500)

	assert.LessOrEqual(t, ctx.TotalChars, 500)
	require.Len(t, ctx.Sections, 1)
	assert.True(t, ctx.Sections[0].Truncated)
	assert.True(t, strings.HasSuffix(ctx.Text, truncationMarker))
}

func TestAssemble_RuneSafeTruncation(t *testing.T) {
	web := strings.Repeat("é", 600) // two bytes each

	ctx := assemble("Acme", []Section{{Label: LabelWeb, Text: web}}, 500)

	assert.LessOrEqual(t, ctx.TotalChars, 500)
	body := strings.TrimSuffix(ctx.Sections[0].Text, truncationMarker)
	for _, r := range body {
		assert.Equal(t, 'é', r)
	}
}

func TestRenderWeb_SkipsDuplicateOfficialPage(t *testing.T) {
	data := &scrape.CompanyData{
		OfficialWebsite: "Official text",
		Content: []scrape.PageContent{
			{URL: "https://acme.com", ContentType: "official_website", Markdown: "Official text", Success: true},
			{URL: "https://x.org/acme", ContentType: "case_study", Markdown: "Case study text", Success: true},
		},
	}
	out := renderWeb(data)
	assert.Equal(t, 1, strings.Count(out, "Official text"))
	assert.Contains(t, out, "--- CASE_STUDY ---")
}

func TestPrepare_FloorsTinyBudget(t *testing.T) {
	st := newMemStore()
	seedScraped(t, st, "Acme", strings.Repeat("Acme makes anvils. ", 200))

	a := NewAggregator(st, nil, nil, nil, nil)
	ctx, err := a.Prepare(context.Background(), "Acme", Options{MaxChars: 10})
	require.NoError(t, err)

	// Budgets below the floor are raised to it rather than producing a
	// context that is nothing but headers and truncation markers.
	assert.LessOrEqual(t, ctx.TotalChars, MinMaxChars)
	assert.Contains(t, ctx.Text, "Acme makes anvils.")
	require.Len(t, ctx.Sections, 1)
	assert.True(t, ctx.Sections[0].Truncated)
}
