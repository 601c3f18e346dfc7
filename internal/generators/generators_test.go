package generators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sales-intel/internal/llm"
	"github.com/jonathan/sales-intel/internal/sources"
	"github.com/jonathan/sales-intel/internal/store"
	"github.com/jonathan/sales-intel/internal/types"
)

// stubLLM returns canned responses in order, recording every prompt
type stubLLM struct {
	responses []string
	err       error
	prompts   []string
	calls     int
}

func (s *stubLLM) GenerateJSON(_ context.Context, _, prompt string, _ llm.ModelTier) (*llm.Result, error) {
	return s.next(prompt)
}

func (s *stubLLM) GenerateJSONWithSearch(_ context.Context, _, prompt string, _ llm.ModelTier) (*llm.Result, error) {
	return s.next(prompt)
}

func (s *stubLLM) next(prompt string) (*llm.Result, error) {
	s.prompts = append(s.prompts, prompt)
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	text := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return &llm.Result{
		Text:  text,
		Model: "stub-model",
		Usage: llm.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}, nil
}

func (s *stubLLM) GetModel(llm.ModelTier) string { return "stub-model" }
func (s *stubLLM) Close() error                  { return nil }

// memStore is an in-memory artifact store for tests
type memStore struct {
	artifacts map[string]*store.Artifact
	saves     int
}

func newMemStore() *memStore {
	return &memStore{artifacts: make(map[string]*store.Artifact)}
}

func (m *memStore) Save(_ context.Context, company string, kind store.Kind, payload any, meta store.Meta) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	m.saves++
	ref := fmt.Sprintf("%s/%s/%d", store.Slugify(company), kind, m.saves)
	m.artifacts[ref] = &store.Artifact{
		CompanyName: company, Kind: kind, GeneratedAt: time.Now().UTC(),
		Meta: meta, Payload: raw,
	}
	return ref, nil
}

func (m *memStore) FindLatest(_ context.Context, company string, kind store.Kind) (string, error) {
	best := ""
	for ref, a := range m.artifacts {
		if a.CompanyName == company && a.Kind == kind && ref > best {
			best = ref
		}
	}
	if best == "" {
		return "", store.ErrNotFound
	}
	return best, nil
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

func testContext() *sources.Context {
	text := "=== WEB SCRAPED CONTENT ===\nAcme builds forecasting software for sales teams."
	return &sources.Context{CompanyName: "Acme", Text: text, TotalChars: len(text)}
}

const productsJSON = `{"products":[{"product_name":"Acme Forecast","description":"Pipeline forecasting platform.","source_url":"https://acme.com/forecast"}]}`

const personasJSON = `{"personas":[
  {"persona_name":"US Mid-market SaaS - RevOps","tier":"tier_2","job_titles":["VP Revenue Operations"],"excluded_job_titles":["Intern"],"industry":"SaaS","company_size_range":"200-1000","company_type":"B2B","location":"US","description":"Owns forecasting accuracy."},
  {"persona_name":"EU Enterprise Manufacturing - Sales Leadership","tier":"tier_1","job_titles":["CRO"],"industry":"Manufacturing","company_size_range":"1000+","company_type":"B2B","location":"EU","description":"Owns global pipeline."}
],"tier_classification":{"tier_1":["EU Enterprise Manufacturing - Sales Leadership"],"tier_2":["US Mid-market SaaS - RevOps"],"tier_3":[]}}`

const mappingsJSON = `{"personas_with_mappings":[
  {"persona_name":"US Mid-market SaaS - RevOps","mappings":[
    {"pain_point":"Forecasts drift 20% from actuals.","value_proposition":"Acme Forecast cuts drift below 5%."},
    {"pain_point":"Manual pipeline reviews burn a day per week.","value_proposition":"Acme Forecast automates review prep."},
    {"pain_point":"No multi-region visibility.","value_proposition":"Acme Forecast unifies regional pipelines."}
  ]}
]}`

const sequencesJSON = `{"sequences":[
  {"name":"RevOps Outreach Sequence","persona_name":"US Mid-market SaaS - RevOps","objective":"Book a discovery call","total_touches":5,"duration_days":12,
   "touches":[
     {"sort_order":1,"touch_type":"email","timing_days":0,"objective":"Open with value","subject_line":"Cut forecast drift below 5%","content_suggestion":"Intro email."},
     {"sort_order":2,"touch_type":"linkedin","timing_days":3,"objective":"Social proof","subject_line":"Quick thought","content_suggestion":"Connect note."},
     {"sort_order":3,"touch_type":"email","timing_days":6,"objective":"Case study","subject_line":"How Globex fixed drift","content_suggestion":"Case study email."},
     {"sort_order":4,"touch_type":"email","timing_days":9,"objective":"Address objection","subject_line":"Rollout in 2 weeks","content_suggestion":"Objection email."},
     {"sort_order":5,"touch_type":"phone","timing_days":12,"objective":"Direct ask","subject_line":"ignored","content_suggestion":"Call script."}
   ]}
]}`

func testPersonas() *types.PersonaSet {
	var set types.PersonaSet
	if err := json.Unmarshal([]byte(personasJSON), &set); err != nil {
		panic(err)
	}
	for i := range set.Personas {
		set.Personas[i].ID = fmt.Sprintf("persona-%d", i+1)
	}
	return &set
}

func TestGenerateProducts(t *testing.T) {
	client := &stubLLM{responses: []string{"Here are the products:\n" + productsJSON + "\nHope this helps."}}
	st := newMemStore()
	g := New(client, st, nil)

	catalog, stats, err := g.GenerateProducts(context.Background(), "Acme")
	require.NoError(t, err)
	require.Len(t, catalog.Products, 1)
	assert.Equal(t, "Acme Forecast", catalog.Products[0].ProductName)

	assert.Equal(t, StatePersisted, stats.State)
	assert.Equal(t, 150, stats.Usage.TotalTokens)
	assert.False(t, stats.Retried)
	require.Len(t, stats.Refs, 1)

	// Persisted artifact round-trips
	a, err := st.Load(context.Background(), stats.Refs[0])
	require.NoError(t, err)
	var loaded types.ProductCatalog
	require.NoError(t, a.DecodePayload(&loaded))
	assert.Equal(t, *catalog, loaded)
	assert.Equal(t, "stub-model", a.Meta.Model)
}

func TestGenerateProducts_RetryDiscardsFirstAttempt(t *testing.T) {
	stale := `{"products":[{"product_name":"Ghost Product","description":""}]}`
	client := &stubLLM{responses: []string{stale, productsJSON}}
	g := New(client, newMemStore(), nil)

	catalog, stats, err := g.GenerateProducts(context.Background(), "Acme")
	require.NoError(t, err)
	assert.True(t, stats.Retried)
	assert.Equal(t, 2, client.calls)

	// Nothing from the rejected first response survives into the result
	require.Len(t, catalog.Products, 1)
	assert.Equal(t, "Acme Forecast", catalog.Products[0].ProductName)
}

func TestGenerateProducts_EmptyCompany(t *testing.T) {
	g := New(&stubLLM{}, newMemStore(), nil)
	_, _, err := g.GenerateProducts(context.Background(), "")
	var rerr *RequestError
	assert.ErrorAs(t, err, &rerr)
}

func TestGeneratePersonas(t *testing.T) {
	client := &stubLLM{responses: []string{"```json\n" + personasJSON + "\n```"}}
	g := New(client, newMemStore(), nil)

	set, stats, err := g.GeneratePersonas(context.Background(), testContext(), nil, 2)
	require.NoError(t, err)
	require.Len(t, set.Personas, 2)

	// Synthetic ids assigned, classification rebuilt
	for _, p := range set.Personas {
		assert.NotEmpty(t, p.ID)
	}
	assert.Equal(t, []string{"EU Enterprise Manufacturing - Sales Leadership"}, set.TierClassification.Tier1)
	assert.Equal(t, StatePersisted, stats.State)

	// Soft products dependency: prompt notes its absence
	assert.Contains(t, client.prompts[0], noProductsSection)
}

func TestGeneratePersonas_InvalidCount(t *testing.T) {
	g := New(&stubLLM{}, newMemStore(), nil)
	_, _, err := g.GeneratePersonas(context.Background(), testContext(), nil, -1)
	var rerr *RequestError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "generate_count", rerr.Field)
}

func TestGeneratePersonas_UnknownTierCoerced(t *testing.T) {
	payload := `{"personas":[{"persona_name":"Mystery Segment","tier":"platinum","job_titles":["CEO"]}]}`
	client := &stubLLM{responses: []string{payload}}
	g := New(client, newMemStore(), nil)

	set, _, err := g.GeneratePersonas(context.Background(), testContext(), nil, 1)
	require.NoError(t, err)
	assert.Equal(t, types.Tier3, set.Personas[0].Tier)
	assert.Contains(t, set.TierClassification.Tier3, "Mystery Segment")
}

func TestGeneratePersonas_RetryOnSchemaFailure(t *testing.T) {
	client := &stubLLM{responses: []string{`{"personas":[]}`, personasJSON}}
	g := New(client, newMemStore(), nil)

	set, stats, err := g.GeneratePersonas(context.Background(), testContext(), nil, 2)
	require.NoError(t, err)
	assert.Len(t, set.Personas, 2)
	assert.True(t, stats.Retried)
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 300, stats.Usage.TotalTokens)

	// Retry prompt carries the validation errors forward
	assert.Contains(t, client.prompts[1], "Validation errors")
}

func TestGeneratePersonas_FailsAfterRetry(t *testing.T) {
	client := &stubLLM{responses: []string{"not json at all"}}
	g := New(client, newMemStore(), nil)

	_, stats, err := g.GeneratePersonas(context.Background(), testContext(), nil, 2)
	require.Error(t, err)
	var serr *SchemaParseError
	assert.ErrorAs(t, err, &serr)
	assert.Equal(t, StateFailed, stats.State)
	assert.Equal(t, 2, client.calls)
}

func TestGeneratePersonas_UpstreamError(t *testing.T) {
	client := &stubLLM{err: errors.New("quota exceeded")}
	g := New(client, newMemStore(), nil)

	_, stats, err := g.GeneratePersonas(context.Background(), testContext(), nil, 2)
	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, StateFailed, stats.State)
}

func TestGenerateMappings(t *testing.T) {
	client := &stubLLM{responses: []string{mappingsJSON}}
	st := newMemStore()
	g := New(client, st, nil)

	personas := testPersonas()
	set, stats, err := g.GenerateMappings(context.Background(), testContext(), &types.ProductCatalog{
		Products: []types.Product{{ProductName: "Acme Forecast", Description: "Forecasting."}},
	}, personas)
	require.NoError(t, err)

	require.Len(t, set.PersonasWithMappings, 1)
	assert.Equal(t, 3, set.TotalMappings())
	// Synthetic id carried over from the persona set
	assert.Equal(t, "persona-1", set.PersonasWithMappings[0].PersonaID)
	assert.Equal(t, StatePersisted, stats.State)
	assert.Contains(t, client.prompts[0], "Acme Forecast")
}

func TestGenerateMappings_MissingPersonas(t *testing.T) {
	client := &stubLLM{}
	g := New(client, newMemStore(), nil)

	_, _, err := g.GenerateMappings(context.Background(), testContext(), nil, nil)
	var merr *MissingDependencyError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "personas", merr.Dependency)
	// No LLM call was made
	assert.Equal(t, 0, client.calls)
}

func TestGenerateOutreach(t *testing.T) {
	client := &stubLLM{responses: []string{sequencesJSON}}
	g := New(client, newMemStore(), nil)

	var mappings types.MappingSet
	require.NoError(t, json.Unmarshal([]byte(mappingsJSON), &mappings))
	personas := testPersonas()

	set, stats, err := g.GenerateOutreach(context.Background(), "Acme", &mappings, personas)
	require.NoError(t, err)
	require.Len(t, set.Sequences, 1)

	seq := set.Sequences[0]
	assert.Equal(t, 5, seq.TotalTouches)
	// duration_days recomputed as the last touch's cumulative timing
	assert.Equal(t, 12, seq.DurationDays)
	// Subject line cleared on the phone touch
	assert.Empty(t, seq.Touches[4].SubjectLine)
	assert.Equal(t, "persona-1", seq.PersonaID)
	assert.Equal(t, StatePersisted, stats.State)

	// Tier plan rendered into the prompt
	assert.Contains(t, client.prompts[0], "tier: tier_2")
}

func TestGenerateOutreach_MissingMappings(t *testing.T) {
	client := &stubLLM{}
	g := New(client, newMemStore(), nil)

	_, _, err := g.GenerateOutreach(context.Background(), "Acme", &types.MappingSet{}, nil)
	var merr *MissingDependencyError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, 0, client.calls)
}

func TestGenerateThreeStage(t *testing.T) {
	fused := `{"personas_with_mappings":` + extractField(t, mappingsJSON, "personas_with_mappings") +
		`,"sequences":` + extractField(t, sequencesJSON, "sequences") + `}`
	client := &stubLLM{responses: []string{fused}}
	st := newMemStore()
	g := New(client, st, nil)

	res, stats, err := g.GenerateThreeStage(context.Background(), testContext(), nil, testPersonas())
	require.NoError(t, err)
	require.NotNil(t, res.Mappings)
	require.NotNil(t, res.Sequences)
	assert.Nil(t, res.Products)

	// One call, two persisted artifacts
	assert.Equal(t, 1, client.calls)
	assert.Len(t, stats.Refs, 2)
	assert.Equal(t, StatePersisted, stats.State)
}

func TestGenerateThreeStage_MissingPersonas(t *testing.T) {
	g := New(&stubLLM{}, newMemStore(), nil)
	_, _, err := g.GenerateThreeStage(context.Background(), testContext(), nil, nil)
	var merr *MissingDependencyError
	assert.ErrorAs(t, err, &merr)
}

func TestGenerateBaseline(t *testing.T) {
	fused := `{"products":` + extractField(t, productsJSON, "products") +
		`,"personas":` + extractField(t, personasJSON, "personas") +
		`,"tier_classification":` + extractField(t, personasJSON, "tier_classification") +
		`,"personas_with_mappings":` + extractField(t, mappingsJSON, "personas_with_mappings") +
		`,"sequences":` + extractField(t, sequencesJSON, "sequences") + `}`
	client := &stubLLM{responses: []string{fused}}
	st := newMemStore()
	g := New(client, st, nil)

	res, stats, err := g.GenerateBaseline(context.Background(), testContext(), 2)
	require.NoError(t, err)
	require.NotNil(t, res.Products)
	require.NotNil(t, res.Personas)
	require.NotNil(t, res.Mappings)
	require.NotNil(t, res.Sequences)

	assert.Equal(t, 1, client.calls)
	assert.Len(t, stats.Refs, 4)

	// Four kinds persisted
	for _, kind := range []store.Kind{store.KindProducts, store.KindPersonas, store.KindMappings, store.KindSequences} {
		_, err := st.FindLatest(context.Background(), "Acme", kind)
		assert.NoError(t, err, string(kind))
	}
}

// extractField pulls one top-level field out of a JSON document
func extractField(t *testing.T, doc, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(doc), &m))
	raw, ok := m[field]
	require.True(t, ok, field)
	return string(raw)
}
