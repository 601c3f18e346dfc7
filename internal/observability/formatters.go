// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/sales-intel/internal/generators"
	"github.com/jonathan/sales-intel/internal/llm"
	"github.com/jonathan/sales-intel/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProducts outputs a human-readable summary of the discovered catalog.
func (p *Printer) PrintProducts(catalog *types.ProductCatalog) {
	if catalog == nil || len(catalog.Products) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Products found: %d\n\n", len(catalog.Products)))

	count := min(len(catalog.Products), maxItemsToShow)
	for i := 0; i < count; i++ {
		prod := catalog.Products[i]
		sb.WriteString(fmt.Sprintf("  • %s\n", prod.ProductName))
		desc := prod.Description
		if len(desc) > 44 {
			desc = desc[:41] + "..."
		}
		sb.WriteString(fmt.Sprintf("    %s\n", desc))
	}
	if len(catalog.Products) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(catalog.Products)-maxItemsToShow))
	}

	p.printBox("PRODUCT CATALOG", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPersonas outputs a human-readable summary of the generated personas.
func (p *Printer) PrintPersonas(set *types.PersonaSet) {
	if set == nil || len(set.Personas) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Personas generated: %d\n\n", len(set.Personas)))

	for i, persona := range set.Personas {
		if i >= maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(set.Personas)-maxItemsToShow))
			break
		}
		sb.WriteString(fmt.Sprintf("  #%d  %s (%s)\n", i+1, persona.PersonaName, persona.Tier))
		if len(persona.JobTitles) > 0 {
			titles := strings.Join(persona.JobTitles, ", ")
			if len(titles) > 40 {
				titles = titles[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("      Titles: %s\n", titles))
		}
	}

	p.printBox("CUSTOMER PERSONAS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMappings outputs per-persona pain point counts.
func (p *Printer) PrintMappings(set *types.MappingSet) {
	if set == nil || len(set.PersonasWithMappings) == 0 {
		return
	}

	var sb strings.Builder
	for _, pwm := range set.PersonasWithMappings {
		sb.WriteString(fmt.Sprintf("  %s: %d pain point mappings\n", pwm.PersonaName, len(pwm.Mappings)))
	}

	p.printBox("PAIN POINT MAPPINGS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSequences outputs a summary of the generated outreach sequences.
func (p *Printer) PrintSequences(set *types.SequenceSet) {
	if set == nil || len(set.Sequences) == 0 {
		return
	}

	var sb strings.Builder
	for _, seq := range set.Sequences {
		sb.WriteString(fmt.Sprintf("  %s\n", seq.Name))
		sb.WriteString(fmt.Sprintf("      %d touches over %d days\n", seq.TotalTouches, seq.DurationDays))
	}

	p.printBox("OUTREACH SEQUENCES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStageStats outputs timing and token usage for one completed stage.
func (p *Printer) PrintStageStats(st *generators.Stats) {
	if st == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("State:    %s\n", st.State))
	if st.Model != "" {
		sb.WriteString(fmt.Sprintf("Model:    %s\n", st.Model))
	}
	sb.WriteString(fmt.Sprintf("Duration: %d ms\n", st.DurationMS))
	sb.WriteString(fmt.Sprintf("Tokens:   %d prompt / %d completion / %d total\n",
		st.Usage.PromptTokens, st.Usage.CompletionTokens, st.Usage.TotalTokens))
	if st.ContextChars > 0 {
		sb.WriteString(fmt.Sprintf("Context:  %d chars\n", st.ContextChars))
	}
	if st.Retried {
		sb.WriteString("Retried:  yes (schema correction)\n")
	}
	for _, ref := range st.AutoLoaded {
		sb.WriteString(fmt.Sprintf("Loaded:   %s\n", ref))
	}
	for _, ref := range st.Refs {
		sb.WriteString(fmt.Sprintf("Saved:    %s\n", ref))
	}

	p.printBox(fmt.Sprintf("STAGE: %s", strings.ToUpper(st.Stage)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunTotals outputs aggregate usage for a finished pipeline run.
func (p *Printer) PrintRunTotals(runID string, stages []*generators.Stats, usage llm.Usage, totalMS int64) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run ID:   %s\n", runID))
	sb.WriteString(fmt.Sprintf("Stages:   %d\n", len(stages)))
	sb.WriteString(fmt.Sprintf("Duration: %d ms\n", totalMS))
	sb.WriteString(fmt.Sprintf("Tokens:   %d total\n", usage.TotalTokens))

	p.printBox("PIPELINE SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
