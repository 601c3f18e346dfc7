package crm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// fieldCount is one value and how many rows carry it
type fieldCount struct {
	Value string
	Count int
}

// numericStats summarizes one numeric column
type numericStats struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Count  int
}

// Statistics condenses a dataset into the distributions that matter for
// persona generation.
type Statistics struct {
	TotalAccounts      int
	TotalContacts      int
	TotalOpportunities int

	Industries    []fieldCount
	LocationField string
	Locations     []fieldCount
	JobTitles     []fieldCount
	DealStages    []fieldCount

	CompanySize *numericStats
	DealAmount  *numericStats
}

// Statistics computes distribution statistics over the dataset.
func (d *Dataset) Statistics() *Statistics {
	s := &Statistics{
		TotalAccounts:      len(d.Accounts),
		TotalContacts:      len(d.Contacts),
		TotalOpportunities: len(d.Opportunities),
	}

	s.Industries = distribution(d.Accounts, "company_industry", 20)

	// First location granularity with data wins
	for _, field := range []string{"company_country", "company_state", "company_city"} {
		if dist := distribution(d.Accounts, field, 20); len(dist) > 0 {
			s.LocationField = strings.TrimPrefix(field, "company_")
			s.Locations = dist
			break
		}
	}

	s.JobTitles = distribution(d.Contacts, "contact_job_title", 30)
	s.DealStages = distribution(d.Opportunities, "deal_stage", 20)
	s.CompanySize = numbers(d.Accounts, "company_size")
	s.DealAmount = numbers(d.Opportunities, "deal_amount")

	return s
}

// Text renders the statistics as the summary block fed to the LLM.
func (s *Statistics) Text() string {
	var b strings.Builder

	b.WriteString("=== CRM CUSTOMER DATA SUMMARY ===\n\n")
	fmt.Fprintf(&b, "Total Accounts: %d\n", s.TotalAccounts)
	fmt.Fprintf(&b, "Total Contacts: %d\n", s.TotalContacts)
	fmt.Fprintf(&b, "Total Opportunities: %d\n\n", s.TotalOpportunities)

	if len(s.Industries) > 0 {
		b.WriteString("--- Industry Distribution ---\n")
		writeCounts(&b, s.Industries, 10)
	}

	if len(s.Locations) > 0 {
		fmt.Fprintf(&b, "--- %s Distribution ---\n", titleCase(s.LocationField))
		writeCounts(&b, s.Locations, 10)
	}

	if s.CompanySize != nil {
		b.WriteString("--- Company Size Statistics ---\n")
		fmt.Fprintf(&b, "  Mean: %.0f employees\n", s.CompanySize.Mean)
		fmt.Fprintf(&b, "  Median: %.0f employees\n", s.CompanySize.Median)
		fmt.Fprintf(&b, "  Range: %.0f - %.0f employees\n\n", s.CompanySize.Min, s.CompanySize.Max)
	}

	if len(s.JobTitles) > 0 {
		b.WriteString("--- Top Job Titles ---\n")
		writeCounts(&b, s.JobTitles, 15)
	}

	if len(s.DealStages) > 0 {
		b.WriteString("--- Deal Stage Distribution ---\n")
		writeCounts(&b, s.DealStages, 20)
	}

	if s.DealAmount != nil {
		b.WriteString("--- Deal Amount Statistics ---\n")
		fmt.Fprintf(&b, "  Mean: $%.0f\n", s.DealAmount.Mean)
		fmt.Fprintf(&b, "  Median: $%.0f\n", s.DealAmount.Median)
		fmt.Fprintf(&b, "  Range: $%.0f - $%.0f\n\n", s.DealAmount.Min, s.DealAmount.Max)
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeCounts(b *strings.Builder, counts []fieldCount, max int) {
	for i, c := range counts {
		if i >= max {
			break
		}
		fmt.Fprintf(b, "  %s: %d\n", c.Value, c.Count)
	}
	b.WriteString("\n")
}

// distribution counts the distinct values of one field, most frequent first.
func distribution(records []Record, field string, top int) []fieldCount {
	counts := make(map[string]int)
	for _, rec := range records {
		if v := rec[field]; v != "" {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	out := make([]fieldCount, 0, len(counts))
	for value, n := range counts {
		out = append(out, fieldCount{Value: value, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})

	if len(out) > top {
		out = out[:top]
	}
	return out
}

// numbers computes stats over one numeric field, tolerating currency formatting.
func numbers(records []Record, field string) *numericStats {
	var values []float64
	for _, rec := range records {
		raw := rec[field]
		if raw == "" {
			continue
		}
		raw = strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil
	}

	sort.Float64s(values)

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	n := len(values)
	median := values[n/2]
	if n%2 == 0 {
		median = (values[n/2-1] + values[n/2]) / 2
	}

	return &numericStats{
		Mean:   sum / float64(n),
		Median: median,
		Min:    values[0],
		Max:    values[n-1],
		Count:  n,
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
