package normalize

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Step is one entry in a mode's rewrite table. A step either rewrites
// Pattern matches to Replace or, when Transform is set, maps the whole string.
type Step struct {
	Name      string
	Pattern   *regexp.Regexp
	Replace   string
	Transform func(string) string

	// Repeat re-applies the rewrite (trimming after each pass) until the
	// pattern no longer matches, so stacked suffixes are all removed.
	Repeat bool
}

// Apply runs the step against s.
func (st Step) Apply(s string) string {
	if st.Transform != nil {
		return st.Transform(s)
	}

	if !st.Repeat {
		return st.Pattern.ReplaceAllString(s, st.Replace)
	}

	for st.Pattern.MatchString(s) {
		next := strings.TrimSpace(st.Pattern.ReplaceAllString(s, st.Replace))
		if next == s {
			break
		}
		s = next
	}

	return s
}

// Legal-form suffixes stripped from the end of company names.
var usLegalForms = []string{
	"public limited company", "public limited", "limited", "unlimited",
	"partnership", "incorporation", "incorporated", "corporation",
	"plc", "pbc", "ltd", "inc", "corp", "llc", "lp", "co",
	"company", "companies", "hldgs", "holdings", "holding",
}

var internationalLegalForms = append(append([]string{}, usLegalForms...),
	"ab", "ag", "as", "asa", "berhad", "bhd", "bv", "cva", "esp", "jsc",
	"jscb", "kgaa", "kpsc", "ksc", "kscp", "nv", "oyj", "pcl", "pt", "publ",
	"spa", "sae", "sa", "saa", "saog", "se", "spv", "tbk",
)

// Professional titles and degrees removed from person names. Case-sensitive.
var personTitles = []string{
	"Economics", "PharmD", "CISA", "MPPM", "Hons", "Hon", "BBA", "MBA", "JD",
	"MIM", "PhD", "FCPA", "CFA", "CPA", "FCA", "CMA", "MAI", "BSc", "BSC",
	"MSc", "MSC", "ESQ", "MS", "BA", "CA", "BE", "AM", "PE", "AO", "MD",
}

var lower = cases.Lower(language.Und)

func lowerTrim(s string) string {
	return strings.TrimSpace(lower.String(s))
}

func removeSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, "")
}

func suffixPattern(forms []string) *regexp.Regexp {
	return regexp.MustCompile(` (` + strings.Join(forms, "|") + `)$`)
}

// companyRules builds the organization pipeline. The hyphenated "-old"
// artifact is stripped before punctuation removal, otherwise the hyphen is
// gone and the rule can never fire.
func companyRules(legalForms []string, leading string) []Step {
	return []Step{
		{Name: "lowercase", Transform: lowerTrim},
		{Name: "old-artifact", Pattern: regexp.MustCompile(`-old$`)},
		{Name: "special-characters", Pattern: regexp.MustCompile(`[^a-z0-9 ]`)},
		{Name: "period-fragment", Pattern: regexp.MustCompile(` (q[1-4].*?|old|adr)$`)},
		{Name: "share-class", Pattern: regexp.MustCompile(` (cl ?a|cl ?b|redh)$`)},
		{Name: "legal-form", Pattern: suffixPattern(legalForms), Repeat: true},
		{Name: "leading-article", Pattern: regexp.MustCompile(`^(` + leading + `) `)},
		{Name: "conjunction", Pattern: regexp.MustCompile(` and `), Replace: " "},
		{Name: "whitespace", Transform: removeSpaces},
	}
}

func personRules() []Step {
	return []Step{
		{Name: "special-characters", Pattern: regexp.MustCompile(`[^A-Za-z0-9 ]`)},
		{Name: "titles", Pattern: regexp.MustCompile(`\b(` + strings.Join(personTitles, "|") + `)\b`)},
		{Name: "lowercase", Transform: lowerTrim},
		{Name: "sort-tokens", Transform: sortTokens},
	}
}

var ruleTable = map[Mode][]Step{
	CompanyUS:            companyRules(usLegalForms, "the"),
	CompanyInternational: companyRules(internationalLegalForms, "the|pt"),
	Person:               personRules(),
}

// Rules returns the ordered rewrite table for mode, or nil for an unknown mode.
func Rules(mode Mode) []Step {
	return ruleTable[mode]
}
