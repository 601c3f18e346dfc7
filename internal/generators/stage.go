// Package generators implements the LLM-backed generation stages: product
// discovery, persona generation, pain-point mapping and outreach sequencing,
// plus the fused multi-output variants. All stages share one execution
// template: build prompt, call the LLM, validate the structured response
// (with one corrective retry), persist the payload.
package generators

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/sales-intel/internal/llm"
	"github.com/jonathan/sales-intel/internal/prompts"
	"github.com/jonathan/sales-intel/internal/store"
)

// State tracks a stage's progress through its lifecycle
type State string

// Stage lifecycle states
const (
	StatePending      State = "PENDING"
	StateContextReady State = "CONTEXT_READY"
	StateLLMCalled    State = "LLM_CALLED"
	StateParsed       State = "PARSED"
	StatePersisted    State = "PERSISTED"
	StateFailed       State = "FAILED"
)

// Stats records timing, token usage and provenance for one stage run
type Stats struct {
	Stage        string    `json:"stage"`
	State        State     `json:"state"`
	Model        string    `json:"model,omitempty"`
	Usage        llm.Usage `json:"usage"`
	DurationMS   int64     `json:"duration_ms"`
	ContextChars int       `json:"context_chars,omitempty"`
	Retried      bool      `json:"retried,omitempty"`
	AutoLoaded   []string  `json:"auto_loaded,omitempty"`
	Refs         []string  `json:"refs,omitempty"`
}

// meta converts the stats into artifact store metadata.
func (s *Stats) meta() store.Meta {
	return store.Meta{
		Model:            s.Model,
		PromptTokens:     s.Usage.PromptTokens,
		CompletionTokens: s.Usage.CompletionTokens,
		TotalTokens:      s.Usage.TotalTokens,
		DurationMS:       s.DurationMS,
		ContextChars:     s.ContextChars,
	}
}

// parseFunc validates one raw LLM response and decodes it into the stage
// output. The returned error's text is fed back to the model on retry.
type parseFunc func(text string) error

// stageSpec parameterizes the shared execution template
type stageSpec struct {
	name   string
	tier   llm.ModelTier
	search bool // product discovery grounds the call in live web search
}

// Generator runs generation stages against one LLM client and artifact store.
type Generator struct {
	llm    llm.Client
	store  store.Store
	logger *zap.Logger
}

// New creates a stage generator.
func New(client llm.Client, st store.Store, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{llm: client, store: st, logger: logger}
}

// execute runs the shared stage template up to the PARSED state. The parse
// callback validates and decodes the response; on its first failure the model
// is asked once to regenerate with the validation errors attached.
func (g *Generator) execute(ctx context.Context, st *Stats, spec stageSpec, system, prompt string, parse parseFunc) error {
	st.Stage = spec.name
	st.State = StateContextReady
	st.Model = g.llm.GetModel(spec.tier)

	start := time.Now()
	defer func() { st.DurationMS = time.Since(start).Milliseconds() }()

	result, err := g.generate(ctx, spec, system, prompt)
	if err != nil {
		st.State = StateFailed
		return &UpstreamError{Stage: spec.name, Cause: err}
	}
	st.State = StateLLMCalled
	st.Usage.Add(result.Usage)

	perr := parse(result.Text)
	if perr != nil {
		g.logger.Warn("stage response failed validation, retrying once",
			zap.String("stage", spec.name), zap.Error(perr))
		st.Retried = true

		retry := prompts.Format(prompts.MustGet("common.json", "schema-retry"),
			map[string]string{"Errors": perr.Error()})

		result, err = g.generate(ctx, spec, system, prompt+"\n\n"+retry)
		if err != nil {
			st.State = StateFailed
			return &UpstreamError{Stage: spec.name, Cause: err}
		}
		st.Usage.Add(result.Usage)

		if perr = parse(result.Text); perr != nil {
			st.State = StateFailed
			return &SchemaParseError{Stage: spec.name, Cause: perr}
		}
	}

	st.State = StateParsed
	g.logger.Info("stage response parsed",
		zap.String("stage", spec.name),
		zap.String("model", st.Model),
		zap.Int("total_tokens", st.Usage.TotalTokens),
		zap.Bool("retried", st.Retried))
	return nil
}

func (g *Generator) generate(ctx context.Context, spec stageSpec, system, prompt string) (*llm.Result, error) {
	if spec.search {
		return g.llm.GenerateJSONWithSearch(ctx, system, prompt, spec.tier)
	}
	return g.llm.GenerateJSON(ctx, system, prompt, spec.tier)
}

// mustPrompt loads an embedded prompt, panicking on a missing key.
func mustPrompt(file, key string) string {
	return prompts.MustGet(file, key)
}

// formatPrompt loads an embedded prompt and fills its placeholders.
func formatPrompt(file, key string, data map[string]string) string {
	return prompts.Format(prompts.MustGet(file, key), data)
}

// persist saves one stage payload and advances the stats to PERSISTED.
func (g *Generator) persist(ctx context.Context, st *Stats, company string, kind store.Kind, payload any) (string, error) {
	ref, err := g.store.Save(ctx, company, kind, payload, st.meta())
	if err != nil {
		st.State = StateFailed
		return "", err
	}
	st.Refs = append(st.Refs, ref)
	st.State = StatePersisted
	g.logger.Info("stage artifact persisted",
		zap.String("stage", st.Stage),
		zap.String("kind", string(kind)),
		zap.String("ref", ref))
	return ref, nil
}
