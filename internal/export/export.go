// Package export renders persisted artifacts as CSV or Markdown for
// consumption outside the pipeline. Column sets are fixed per artifact kind.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/sales-intel/internal/store"
	"github.com/jonathan/sales-intel/internal/types"
)

// Format selects an export representation
type Format string

// Supported export formats
const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Valid reports whether the format is supported
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatMarkdown
}

// listSep joins multi-valued fields inside one CSV cell
const listSep = "; "

// Artifact renders a stored artifact in the given format. The payload is
// decoded according to the artifact kind.
func Artifact(a *store.Artifact, format Format) ([]byte, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	switch a.Kind {
	case store.KindProducts:
		var catalog types.ProductCatalog
		if err := a.DecodePayload(&catalog); err != nil {
			return nil, err
		}
		return render(format, productRows(&catalog), "Products", a.CompanyName)
	case store.KindPersonas:
		var set types.PersonaSet
		if err := a.DecodePayload(&set); err != nil {
			return nil, err
		}
		return render(format, personaRows(&set), "Personas", a.CompanyName)
	case store.KindMappings:
		var set types.MappingSet
		if err := a.DecodePayload(&set); err != nil {
			return nil, err
		}
		return render(format, mappingRows(&set), "Pain Point Mappings", a.CompanyName)
	case store.KindSequences:
		var set types.SequenceSet
		if err := a.DecodePayload(&set); err != nil {
			return nil, err
		}
		return render(format, sequenceRows(&set), "Outreach Sequences", a.CompanyName)
	default:
		return nil, fmt.Errorf("artifact kind %q has no export representation", a.Kind)
	}
}

// table is a header row plus data rows
type table struct {
	header []string
	rows   [][]string
}

func render(format Format, tbl table, title, company string) ([]byte, error) {
	if format == FormatCSV {
		return renderCSV(tbl)
	}
	return renderMarkdown(tbl, title, company), nil
}

func renderCSV(tbl table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(tbl.header); err != nil {
		return nil, err
	}
	for _, row := range tbl.rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderMarkdown(tbl table, title, company string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s - %s\n\n", company, title)

	b.WriteString("| " + strings.Join(tbl.header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(tbl.header)) + "\n")
	for _, row := range tbl.rows {
		escaped := make([]string, len(row))
		for i, cell := range row {
			escaped[i] = strings.ReplaceAll(strings.ReplaceAll(cell, "|", "\\|"), "\n", " ")
		}
		b.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
	}
	return b.Bytes()
}

func productRows(catalog *types.ProductCatalog) table {
	tbl := table{header: []string{"product_name", "description", "source_url"}}
	for _, p := range catalog.Products {
		tbl.rows = append(tbl.rows, []string{p.ProductName, p.Description, p.SourceURL})
	}
	return tbl
}

func personaRows(set *types.PersonaSet) table {
	tbl := table{header: []string{
		"persona_name", "tier", "industry", "company_size_range", "company_type",
		"location", "job_titles", "excluded_job_titles", "description",
	}}
	for _, p := range set.Personas {
		tbl.rows = append(tbl.rows, []string{
			p.PersonaName, string(p.Tier), p.Industry, p.CompanySizeRange, p.CompanyType,
			p.Location, strings.Join(p.JobTitles, listSep), strings.Join(p.ExcludedJobTitles, listSep),
			p.Description,
		})
	}
	return tbl
}

func mappingRows(set *types.MappingSet) table {
	tbl := table{header: []string{"persona_name", "pain_point", "value_proposition"}}
	for _, group := range set.PersonasWithMappings {
		for _, m := range group.Mappings {
			tbl.rows = append(tbl.rows, []string{group.PersonaName, m.PainPoint, m.ValueProposition})
		}
	}
	return tbl
}

// sequenceRows emits one row per touch, sequence fields repeated.
func sequenceRows(set *types.SequenceSet) table {
	tbl := table{header: []string{
		"sequence_name", "persona_name", "objective", "total_touches", "duration_days",
		"touch_order", "touch_type", "timing_days", "touch_objective",
		"subject_line", "content_suggestion", "hints",
	}}
	for _, seq := range set.Sequences {
		for _, touch := range seq.Touches {
			tbl.rows = append(tbl.rows, []string{
				seq.Name, seq.PersonaName, seq.Objective,
				strconv.Itoa(seq.TotalTouches), strconv.Itoa(seq.DurationDays),
				strconv.Itoa(touch.SortOrder), string(touch.TouchType), strconv.Itoa(touch.TimingDays),
				touch.Objective, touch.SubjectLine, touch.ContentSuggestion, touch.Hints,
			})
		}
	}
	return tbl
}
