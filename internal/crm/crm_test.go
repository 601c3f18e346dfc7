package crm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountsCSV = `Account Name,Industry,BillingCountry,NumberOfEmployees
Acme Corp,Manufacturing,USA,1200
Globex,Software,USA,300
Initech,Software,Germany,80
`

const contactsCSV = `First Name,Last Name,Email,Job Title,Department
Jane,Doe,jane@acme.com,VP of Operations,Operations
Ravi,Patel,ravi@globex.com,CTO,Engineering
Mei,Chen,mei@initech.de,CTO,Engineering
`

const dealsCSV = `Opportunity Name,StageName,Amount,CloseDate
Acme Expansion,Closed Won,"$120,000",2026-01-15
Globex Pilot,Negotiation,45000,2026-03-01
`

func TestParseCSV_NormalizesColumns(t *testing.T) {
	f, err := ParseCSV("accounts_export.csv", strings.NewReader(accountsCSV))
	require.NoError(t, err)

	assert.Equal(t, FileAccount, f.Type)
	require.Len(t, f.Records, 3)
	assert.Equal(t, "Acme Corp", f.Records[0]["company_name"])
	assert.Equal(t, "Manufacturing", f.Records[0]["company_industry"])
	assert.Equal(t, "USA", f.Records[0]["company_country"])
	assert.Equal(t, "1200", f.Records[0]["company_size"])
}

func TestParseCSV_ClassifiesByColumnsWhenNameIsOpaque(t *testing.T) {
	f, err := ParseCSV("export_2026.csv", strings.NewReader(contactsCSV))
	require.NoError(t, err)
	assert.Equal(t, FileContact, f.Type)
	assert.Equal(t, "CTO", f.Records[1]["contact_job_title"])
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV("empty.csv", strings.NewReader(""))
	require.Error(t, err)

	_, err = ParseCSV("headeronly.csv", strings.NewReader("Name,Email\n"))
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestValidateUpload(t *testing.T) {
	assert.NoError(t, ValidateUpload("contacts.csv", 1024))
	assert.NoError(t, ValidateUpload("CONTACTS.CSV", 1024))
	assert.Error(t, ValidateUpload("contacts.xlsx", 1024))
	assert.Error(t, ValidateUpload("contacts.csv", MaxUploadSize+1))
}

func TestStatisticsAndText(t *testing.T) {
	accounts, err := ParseCSV("accounts.csv", strings.NewReader(accountsCSV))
	require.NoError(t, err)
	contacts, err := ParseCSV("contacts.csv", strings.NewReader(contactsCSV))
	require.NoError(t, err)
	deals, err := ParseCSV("opportunities.csv", strings.NewReader(dealsCSV))
	require.NoError(t, err)

	ds := Merge([]*File{accounts, contacts, deals})
	stats := ds.Statistics()

	assert.Equal(t, 3, stats.TotalAccounts)
	assert.Equal(t, 3, stats.TotalContacts)
	assert.Equal(t, 2, stats.TotalOpportunities)

	// Software appears twice so it sorts first
	require.NotEmpty(t, stats.Industries)
	assert.Equal(t, fieldCount{Value: "Software", Count: 2}, stats.Industries[0])

	assert.Equal(t, "country", stats.LocationField)
	require.NotNil(t, stats.CompanySize)
	assert.InDelta(t, 300.0, stats.CompanySize.Median, 0.01)

	// Currency formatting in amounts is tolerated
	require.NotNil(t, stats.DealAmount)
	assert.InDelta(t, 120000.0, stats.DealAmount.Max, 0.01)

	text := stats.Text()
	assert.True(t, strings.HasPrefix(text, "=== CRM CUSTOMER DATA SUMMARY ==="))
	assert.Contains(t, text, "Total Accounts: 3")
	assert.Contains(t, text, "--- Industry Distribution ---")
	assert.Contains(t, text, "CTO: 2")
	assert.Contains(t, text, "--- Deal Amount Statistics ---")
}

func TestLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.csv"), []byte(accountsCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.csv"), []byte(""), 0o644))

	l := NewLoader(dir, nil)
	summary, err := l.Summary()
	require.NoError(t, err)
	assert.Contains(t, summary, "Total Accounts: 3")
}

func TestLoader_NoData(t *testing.T) {
	l := NewLoader(t.TempDir(), nil)
	_, err := l.Summary()
	assert.ErrorIs(t, err, ErrNoData)

	l = NewLoader(filepath.Join(t.TempDir(), "missing"), nil)
	_, err = l.Summary()
	assert.ErrorIs(t, err, ErrNoData)
}
