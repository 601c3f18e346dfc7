package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/sales-intel/internal/generators"
	"github.com/jonathan/sales-intel/internal/store"
	"github.com/jonathan/sales-intel/internal/types"
)

// autoLoad fetches the newest artifact payload of one kind. Any store
// failure (missing, corrupt) is treated as "no prior artifact": logged,
// never fatal.
func autoLoad[T any](ctx context.Context, st store.Store, logger *zap.Logger, company string, kind store.Kind) (*T, string) {
	artifact, err := store.LoadLatest(ctx, st, company, kind)
	if err != nil {
		logger.Debug("no prior artifact to auto-load",
			zap.String("company", company), zap.String("kind", string(kind)), zap.Error(err))
		return nil, ""
	}
	var payload T
	if err := artifact.DecodePayload(&payload); err != nil {
		logger.Warn("auto-load artifact is corrupt, ignoring",
			zap.String("company", company), zap.String("kind", string(kind)), zap.Error(err))
		return nil, ""
	}
	ref, _ := st.FindLatest(ctx, company, kind)
	logger.Info("auto-loaded prior artifact",
		zap.String("company", company), zap.String("kind", string(kind)), zap.String("ref", ref))
	return &payload, ref
}

// recordAutoLoad marks an auto-loaded dependency in the stage statistics.
func recordAutoLoad(st *generators.Stats, kind store.Kind, ref string) {
	if st == nil || ref == "" {
		return
	}
	st.AutoLoaded = append(st.AutoLoaded, string(kind)+":"+ref)
}

// GenerateProducts runs the product discovery stage on its own.
func (o *Orchestrator) GenerateProducts(ctx context.Context, companyName string) (*types.ProductCatalog, *generators.Stats, error) {
	return o.gen.GenerateProducts(ctx, companyName)
}

// PersonaRequest configures a standalone persona generation
type PersonaRequest struct {
	CompanyName   string
	GenerateCount int
	Products      *types.ProductCatalog
	MaxChars      int
	IncludeCRM    *bool
	IncludePDF    *bool
}

// GeneratePersonas runs the persona stage on its own. The product catalog is
// auto-loaded from storage when not supplied explicitly; explicit always wins.
func (o *Orchestrator) GeneratePersonas(ctx context.Context, req PersonaRequest) (*types.PersonaSet, *generators.Stats, error) {
	cctx, err := o.agg.Prepare(ctx, req.CompanyName, contextOptions(req.MaxChars, req.IncludeCRM, req.IncludePDF))
	if err != nil {
		return nil, nil, err
	}

	products := req.Products
	var productsRef string
	if products == nil {
		products, productsRef = autoLoad[types.ProductCatalog](ctx, o.store, o.logger, req.CompanyName, store.KindProducts)
	}

	set, st, err := o.gen.GeneratePersonas(ctx, cctx, products, req.GenerateCount)
	recordAutoLoad(st, store.KindProducts, productsRef)
	return set, st, err
}

// MappingRequest configures a standalone mapping generation
type MappingRequest struct {
	CompanyName string
	Products    *types.ProductCatalog
	Personas    *types.PersonaSet
	MaxChars    int
	IncludeCRM  *bool
	IncludePDF  *bool
}

// GenerateMappings runs the mapping stage on its own. Personas are a hard
// dependency resolved explicit-first then auto-loaded; products soft.
func (o *Orchestrator) GenerateMappings(ctx context.Context, req MappingRequest) (*types.MappingSet, *generators.Stats, error) {
	personas := req.Personas
	var personasRef string
	if personas == nil {
		personas, personasRef = autoLoad[types.PersonaSet](ctx, o.store, o.logger, req.CompanyName, store.KindPersonas)
	}
	if personas == nil || len(personas.Personas) == 0 {
		// Fail before context assembly or any LLM call
		return nil, nil, &generators.MissingDependencyError{Stage: "mappings", Dependency: "personas"}
	}

	products := req.Products
	var productsRef string
	if products == nil {
		products, productsRef = autoLoad[types.ProductCatalog](ctx, o.store, o.logger, req.CompanyName, store.KindProducts)
	}

	cctx, err := o.agg.Prepare(ctx, req.CompanyName, contextOptions(req.MaxChars, req.IncludeCRM, req.IncludePDF))
	if err != nil {
		return nil, nil, err
	}

	set, st, err := o.gen.GenerateMappings(ctx, cctx, products, personas)
	recordAutoLoad(st, store.KindPersonas, personasRef)
	recordAutoLoad(st, store.KindProducts, productsRef)
	return set, st, err
}

// OutreachRequest configures a standalone outreach generation. Mappings must
// be supplied directly: they are request-scoped and deliberately not
// auto-loaded. Personas are auto-loaded only to recover tiers and ids.
type OutreachRequest struct {
	CompanyName string
	Mappings    *types.MappingSet
	Personas    *types.PersonaSet
}

// GenerateOutreach runs the outreach stage on its own.
func (o *Orchestrator) GenerateOutreach(ctx context.Context, req OutreachRequest) (*types.SequenceSet, *generators.Stats, error) {
	if req.Mappings == nil || len(req.Mappings.PersonasWithMappings) == 0 {
		return nil, nil, &generators.MissingDependencyError{Stage: "sequences", Dependency: "mappings"}
	}

	personas := req.Personas
	var personasRef string
	if personas == nil {
		personas, personasRef = autoLoad[types.PersonaSet](ctx, o.store, o.logger, req.CompanyName, store.KindPersonas)
	}

	set, st, err := o.gen.GenerateOutreach(ctx, req.CompanyName, req.Mappings, personas)
	recordAutoLoad(st, store.KindPersonas, personasRef)
	return set, st, err
}
