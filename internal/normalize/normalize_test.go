package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCompanyUS(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "leading article and legal form", input: "The Acme Corp", expected: "acme"},
		{name: "company suffix", input: "ACME Company", expected: "acme"},
		{name: "punctuation", input: "Acme Inc.", expected: "acme"},
		{name: "stacked suffixes", input: "Acme Holdings Inc", expected: "acme"},
		{name: "three stacked suffixes", input: "Acme Holding Co Ltd", expected: "acme"},
		{name: "conjunction", input: "Johnson and Johnson", expected: "johnsonjohnson"},
		{name: "ampersand dropped", input: "AT&T Inc", expected: "att"},
		{name: "fiscal period fragment", input: "Acme Corp Q3 2019", expected: "acme"},
		{name: "trailing old token", input: "Acme Corp OLD", expected: "acme"},
		{name: "trailing adr token", input: "Sony Corp ADR", expected: "sony"},
		{name: "share class with space", input: "Berkshire Hathaway CL A", expected: "berkshirehathaway"},
		{name: "share class without space", input: "Berkshire Hathaway CLB", expected: "berkshirehathaway"},
		{name: "redh marker", input: "Acme REDH", expected: "acme"},
		{name: "surrounding whitespace", input: "   Acme   Inc  ", expected: "acme"},
		{name: "suffix alone is kept", input: "Inc", expected: "inc"},
		{name: "international form untouched in us mode", input: "Volvo AB", expected: "volvoab"},
		{name: "leading pt untouched in us mode", input: "PT Astra", expected: "ptastra"},
		{name: "empty", input: "", expected: ""},
		{name: "only punctuation", input: "!!!", expected: ""},
		{name: "digits kept", input: "3M Co", expected: "3m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input, CompanyUS))
		})
	}
}

func TestNormalizeCompanyInternational(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "swedish ab", input: "Volvo AB", expected: "volvo"},
		{name: "german ag", input: "Siemens AG", expected: "siemens"},
		{name: "dutch nv", input: "Philips N.V.", expected: "philips"},
		{name: "italian spa", input: "Enel S.p.A.", expected: "enel"},
		{name: "indonesian pt prefix and tbk suffix", input: "PT Astra International Tbk", expected: "astrainternational"},
		{name: "stacked international and us forms", input: "Acme Holding AG", expected: "acme"},
		{name: "us forms still apply", input: "The Acme Corp", expected: "acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input, CompanyInternational))
		})
	}
}

// The hyphenated artifact is removed before punctuation stripping.
func TestNormalizeTrailingHyphenOld(t *testing.T) {
	assert.Equal(t, "acme", Normalize("Acme Corp-OLD", CompanyUS))
	assert.Equal(t, "acme", Normalize("Acme Corp-old", CompanyInternational))
	assert.Equal(t, "acmeold", Normalize("Acme-Old Co Inc", CompanyUS))
}

func TestNormalizePerson(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "token order", input: "John Q Smith", expected: "johnqsmith"},
		{name: "reversed with comma", input: "Smith, John Q", expected: "johnqsmith"},
		{name: "degree suffix", input: "Jane Doe PhD", expected: "doejane"},
		{name: "several titles", input: "Jane Doe, CFA, MBA", expected: "doejane"},
		{name: "leading title", input: "MD Jane Doe", expected: "doejane"},
		{name: "title prefix inside a word is kept", input: "Jane MDonald", expected: "janemdonald"},
		{name: "titles are case sensitive", input: "Phd Jones", expected: "jonesphd"},
		{name: "non ascii letters dropped", input: "José García", expected: "garcajos"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input, Person))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"The Acme Corp", "Acme Holdings Inc", "Johnson and Johnson", "PT Astra International Tbk",
		"Acme Corp-OLD", "Berkshire Hathaway CL A", "Smith, John Q", "Jane Doe, CFA, MBA",
		"  the and co  ", "q1 old", "", "Société Générale SA", "İstanbul Holding",
	}

	for _, mode := range Modes {
		for _, input := range inputs {
			once := Normalize(input, mode)
			assert.Equal(t, once, Normalize(once, mode), "mode=%s input=%q", mode, input)
		}
	}
}

func TestNormalizeCaseAndWhitespaceInsensitive(t *testing.T) {
	variants := []string{"Acme Inc.", "ACME INC", "  acme inc  ", "Acme   Inc"}
	for _, mode := range []Mode{CompanyUS, CompanyInternational} {
		want := Normalize(variants[0], mode)
		for _, v := range variants[1:] {
			assert.Equal(t, want, Normalize(v, mode), "mode=%s variant=%q", mode, v)
		}
	}
}

func TestNormalizeLegalFormStacking(t *testing.T) {
	assert.Equal(t, Normalize("Acme", CompanyUS), Normalize("Acme Holdings Inc", CompanyUS))
	assert.Equal(t, Normalize("Acme", CompanyInternational), Normalize("Acme Holdings Inc", CompanyInternational))
}

func TestNormalizePersonTokenOrder(t *testing.T) {
	assert.Equal(t, Normalize("John Q Smith", Person), Normalize("Smith John Q", Person))
}

func TestNormalizeCoercesNonStrings(t *testing.T) {
	assert.Equal(t, "12345", Normalize(12345, CompanyUS))
	assert.Equal(t, "15", Normalize(1.5, CompanyUS))
	assert.Equal(t, "", Normalize(nil, Person))
	assert.Equal(t, "acme", Normalize([]byte("Acme Inc"), CompanyUS))
}

func TestNormalizeUnknownMode(t *testing.T) {
	assert.Equal(t, "Acme Inc", Normalize("  Acme Inc ", Mode("nope")))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
	}{
		{"company-us", CompanyUS},
		{"Firm (US)", CompanyUS},
		{"US", CompanyUS},
		{"Firm (Int)", CompanyInternational},
		{"company-int", CompanyInternational},
		{"Person", Person},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
			assert.True(t, mode.Valid())
		})
	}

	_, err := ParseMode("organisation")
	assert.Error(t, err)
	assert.False(t, Mode("").Valid())
}

func TestTrace(t *testing.T) {
	trace := Trace("The Acme Holdings Inc.", CompanyUS)
	require.Len(t, trace, len(Rules(CompanyUS)))

	byRule := make(map[string]string, len(trace))
	for _, step := range trace {
		byRule[step.Rule] = step.Value
	}

	assert.Equal(t, "the acme holdings inc.", byRule["lowercase"])
	assert.Equal(t, "the acme holdings inc", byRule["special-characters"])
	assert.Equal(t, "the acme", byRule["legal-form"])
	assert.Equal(t, "acme", byRule["leading-article"])
	assert.Equal(t, Normalize("The Acme Holdings Inc.", CompanyUS), trace[len(trace)-1].Value)
}
