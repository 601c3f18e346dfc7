package sources

import (
	"strings"
)

// sectionOverhead is the rendered length a section adds beyond its text:
// the "=== LABEL ===\n" header plus the blank line separating sections.
func sectionOverhead(label string) int {
	return len("=== "+label+" ===\n") + len("\n\n")
}

// assemble renders the sections under their headers and enforces the
// character budget. Sections are trimmed lowest priority first (PDF, then
// CRM); the web section is only cut when it alone exceeds the budget, and
// is never dropped.
func assemble(companyName string, sections []Section, maxChars int) *Context {
	for i := range sections {
		sections[i].Chars = len(sections[i].Text)
	}

	over := renderedLen(sections) - maxChars
	for i := len(sections) - 1; i > 0 && over > 0; i-- {
		over = shrink(&sections[i], over)
		if sections[i].Text == "" {
			sections = append(sections[:i], sections[i+1:]...)
		}
	}
	if over > 0 {
		// Only the web section remains over budget
		keep := len(sections[0].Text) - over - len(truncationMarker)
		if keep < 0 {
			keep = 0
		}
		sections[0].Text = truncateRunes(sections[0].Text, keep) + truncationMarker
		sections[0].Chars = len(sections[0].Text)
		sections[0].Truncated = true
	}

	text := render(sections)
	return &Context{
		CompanyName: companyName,
		Text:        text,
		Sections:    sections,
		TotalChars:  len(text),
	}
}

// shrink trims one section by up to `over` characters and returns the
// remaining excess. A section that cannot fit a meaningful remainder is
// emptied so the caller drops it entirely.
func shrink(sec *Section, over int) int {
	keep := len(sec.Text) - over - len(truncationMarker)
	if keep <= 0 {
		freed := len(sec.Text) + sectionOverhead(sec.Label)
		sec.Text = ""
		sec.Chars = 0
		return over - freed
	}
	sec.Text = truncateRunes(sec.Text, keep) + truncationMarker
	sec.Chars = len(sec.Text)
	sec.Truncated = true
	return 0
}

func renderedLen(sections []Section) int {
	n := 0
	for _, sec := range sections {
		n += sectionOverhead(sec.Label) + len(sec.Text)
	}
	if len(sections) > 0 {
		n -= len("\n\n") // no separator after the last section
	}
	return n
}

func render(sections []Section) string {
	parts := make([]string, 0, len(sections))
	for _, sec := range sections {
		parts = append(parts, "=== "+sec.Label+" ===\n"+sec.Text)
	}
	return strings.Join(parts, "\n\n")
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max < 0 {
		max = 0
	}
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
