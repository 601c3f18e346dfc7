// Package pipeline sequences the generation stages into full runs: four-stage
// (maximal inter-stage data flow), three-stage and two-stage (fused late
// stages), and the single-call baseline. The orchestrator auto-loads persisted
// upstream artifacts when the request omits them and aggregates per-stage
// timing and token statistics.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/sales-intel/internal/crm"
	"github.com/jonathan/sales-intel/internal/generators"
	"github.com/jonathan/sales-intel/internal/llm"
	"github.com/jonathan/sales-intel/internal/sources"
	"github.com/jonathan/sales-intel/internal/store"
	"github.com/jonathan/sales-intel/internal/types"
)

// Variant selects the pipeline shape
type Variant string

// Pipeline variants. FourStage is the recommended production path; Baseline
// exists for quality comparison.
const (
	FourStage  Variant = "four_stage"
	ThreeStage Variant = "three_stage"
	TwoStage   Variant = "two_stage"
	Baseline   Variant = "baseline"
)

// Valid reports whether the variant is known
func (v Variant) Valid() bool {
	switch v {
	case FourStage, ThreeStage, TwoStage, Baseline:
		return true
	}
	return false
}

// Request configures one pipeline run. Explicitly supplied artifacts always
// win over auto-loaded ones and cause their stage to be skipped.
type Request struct {
	CompanyName   string
	GenerateCount int
	Variant       Variant

	Products *types.ProductCatalog
	Personas *types.PersonaSet
	Mappings *types.MappingSet

	MaxChars   int
	IncludeCRM *bool
	IncludePDF *bool
}

// contextOptions applies request overrides onto the default source options.
// Nil toggles keep the defaults, so CRM and PDF sources stay included unless
// a caller disables them explicitly.
func contextOptions(maxChars int, includeCRM, includePDF *bool) sources.Options {
	opts := sources.DefaultOptions()
	if maxChars > 0 {
		opts.MaxChars = maxChars
	}
	if includeCRM != nil {
		opts.IncludeCRM = *includeCRM
	}
	if includePDF != nil {
		opts.IncludePDF = *includePDF
	}
	return opts
}

// StageError identifies which stage failed a run
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result bundles the payloads, persisted references and statistics of one
// run. On partial failure it carries everything produced before the failing
// stage.
type Result struct {
	RunID       string                 `json:"run_id"`
	CompanyName string                 `json:"company_name"`
	Variant     Variant                `json:"variant"`
	Products    *types.ProductCatalog  `json:"products,omitempty"`
	Personas    *types.PersonaSet      `json:"personas,omitempty"`
	Mappings    *types.MappingSet      `json:"mappings,omitempty"`
	Sequences   *types.SequenceSet     `json:"sequences,omitempty"`
	Stages      []*generators.Stats    `json:"stages"`
	TotalUsage  llm.Usage              `json:"total_usage"`
	TotalMS     int64                  `json:"total_duration_ms"`
}

// addStage records one stage's statistics into the run totals.
func (r *Result) addStage(st *generators.Stats) {
	if st == nil {
		return
	}
	r.Stages = append(r.Stages, st)
	r.TotalUsage.Add(st.Usage)
	r.TotalMS += st.DurationMS
}

// Orchestrator runs pipelines against one generator, aggregator and store.
type Orchestrator struct {
	gen    *generators.Generator
	agg    *sources.Aggregator
	store  store.Store
	crm    *crm.Loader
	logger *zap.Logger
}

// New creates a pipeline orchestrator. The CRM loader is optional and only
// feeds the two-stage variant's CRM section.
func New(gen *generators.Generator, agg *sources.Aggregator, st store.Store, crmLoader *crm.Loader, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{gen: gen, agg: agg, store: st, crm: crmLoader, logger: logger}
}

// Run executes one pipeline. Stages run strictly sequentially; when a stage
// fails terminally the remaining stages are skipped and the artifacts already
// produced are returned alongside the failure. Persisted artifacts are never
// rolled back.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if req.CompanyName == "" {
		return nil, &generators.RequestError{Field: "company_name", Message: "must not be empty"}
	}
	if req.GenerateCount < 0 {
		return nil, &generators.RequestError{Field: "generate_count", Message: "must be at least 1"}
	}
	if req.Variant == "" {
		req.Variant = FourStage
	}
	if !req.Variant.Valid() {
		return nil, &generators.RequestError{Field: "variant", Message: fmt.Sprintf("unknown variant %q", req.Variant)}
	}

	res := &Result{
		RunID:       uuid.NewString(),
		CompanyName: req.CompanyName,
		Variant:     req.Variant,
		Products:    req.Products,
		Personas:    req.Personas,
		Mappings:    req.Mappings,
	}

	o.logger.Info("pipeline run started",
		zap.String("run_id", res.RunID),
		zap.String("company", req.CompanyName),
		zap.String("variant", string(req.Variant)))

	var err error
	switch req.Variant {
	case FourStage:
		err = o.runFourStage(ctx, req, res)
	case ThreeStage:
		err = o.runThreeStage(ctx, req, res)
	case TwoStage:
		err = o.runTwoStage(ctx, req, res)
	case Baseline:
		err = o.runBaseline(ctx, req, res)
	}

	if err != nil {
		o.logger.Error("pipeline run failed",
			zap.String("run_id", res.RunID), zap.Error(err))
		return res, err
	}

	o.logger.Info("pipeline run finished",
		zap.String("run_id", res.RunID),
		zap.Int("stages", len(res.Stages)),
		zap.Int("total_tokens", res.TotalUsage.TotalTokens),
		zap.Int64("duration_ms", res.TotalMS))
	return res, nil
}

func (o *Orchestrator) runFourStage(ctx context.Context, req Request, res *Result) error {
	if err := o.ensureProducts(ctx, req, res); err != nil {
		return err
	}

	cctx, err := o.prepareContext(ctx, req)
	if err != nil {
		return &StageError{Stage: "context", Err: err}
	}

	if res.Personas == nil {
		personas, st, perr := o.gen.GeneratePersonas(ctx, cctx, res.Products, req.GenerateCount)
		res.addStage(st)
		if perr != nil {
			return &StageError{Stage: "personas", Err: perr}
		}
		res.Personas = personas
	}

	if res.Mappings == nil {
		mappings, st, merr := o.gen.GenerateMappings(ctx, cctx, res.Products, res.Personas)
		res.addStage(st)
		if merr != nil {
			return &StageError{Stage: "mappings", Err: merr}
		}
		res.Mappings = mappings
	}

	sequences, st, serr := o.gen.GenerateOutreach(ctx, req.CompanyName, res.Mappings, res.Personas)
	res.addStage(st)
	if serr != nil {
		return &StageError{Stage: "sequences", Err: serr}
	}
	res.Sequences = sequences
	return nil
}

func (o *Orchestrator) runThreeStage(ctx context.Context, req Request, res *Result) error {
	if err := o.ensureProducts(ctx, req, res); err != nil {
		return err
	}

	cctx, err := o.prepareContext(ctx, req)
	if err != nil {
		return &StageError{Stage: "context", Err: err}
	}

	if res.Personas == nil {
		personas, st, perr := o.gen.GeneratePersonas(ctx, cctx, res.Products, req.GenerateCount)
		res.addStage(st)
		if perr != nil {
			return &StageError{Stage: "personas", Err: perr}
		}
		res.Personas = personas
	}

	fused, st, ferr := o.gen.GenerateThreeStage(ctx, cctx, res.Products, res.Personas)
	res.addStage(st)
	if ferr != nil {
		return &StageError{Stage: "three_stage", Err: ferr}
	}
	res.Mappings = fused.Mappings
	res.Sequences = fused.Sequences
	return nil
}

func (o *Orchestrator) runTwoStage(ctx context.Context, req Request, res *Result) error {
	if err := o.ensureProducts(ctx, req, res); err != nil {
		return err
	}

	cctx, err := o.prepareContext(ctx, req)
	if err != nil {
		return &StageError{Stage: "context", Err: err}
	}

	crmSummary := ""
	if (req.IncludeCRM == nil || *req.IncludeCRM) && o.crm != nil {
		summary, cerr := o.crm.Summary()
		if cerr != nil && !errors.Is(cerr, crm.ErrNoData) {
			return &StageError{Stage: "two_stage", Err: cerr}
		}
		crmSummary = summary
	}

	fused, st, ferr := o.gen.GenerateTwoStage(ctx, cctx, res.Products, crmSummary, req.GenerateCount)
	res.addStage(st)
	if ferr != nil {
		return &StageError{Stage: "two_stage", Err: ferr}
	}
	res.Personas = fused.Personas
	res.Mappings = fused.Mappings
	res.Sequences = fused.Sequences
	return nil
}

func (o *Orchestrator) runBaseline(ctx context.Context, req Request, res *Result) error {
	cctx, err := o.prepareContext(ctx, req)
	if err != nil {
		return &StageError{Stage: "context", Err: err}
	}

	fused, st, ferr := o.gen.GenerateBaseline(ctx, cctx, req.GenerateCount)
	res.addStage(st)
	if ferr != nil {
		return &StageError{Stage: "baseline", Err: ferr}
	}
	res.Products = fused.Products
	res.Personas = fused.Personas
	res.Mappings = fused.Mappings
	res.Sequences = fused.Sequences
	return nil
}

// ensureProducts resolves the product catalog: explicit request value first,
// then freshly generated. Product generation is the pipeline's first stage,
// so there is nothing older to auto-load that a prior run would not have
// produced; an explicit catalog skips the stage.
func (o *Orchestrator) ensureProducts(ctx context.Context, req Request, res *Result) error {
	if res.Products != nil {
		return nil
	}
	products, st, err := o.gen.GenerateProducts(ctx, req.CompanyName)
	res.addStage(st)
	if err != nil {
		return &StageError{Stage: "products", Err: err}
	}
	res.Products = products
	return nil
}

func (o *Orchestrator) prepareContext(ctx context.Context, req Request) (*sources.Context, error) {
	return o.agg.Prepare(ctx, req.CompanyName, contextOptions(req.MaxChars, req.IncludeCRM, req.IncludePDF))
}
