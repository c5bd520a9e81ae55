package segments

import (
	"strings"

	"SegPull/internal/domain/models"
)

// Rule maps a statistic name onto a record field when Match accepts it.
// Match receives the lower-cased series name.
type Rule struct {
	Match func(name string) bool
	Field string
}

// Contains matches names holding substr.
func Contains(substr string) func(string) bool {
	return func(name string) bool { return strings.Contains(name, substr) }
}

// StatisticRules classifies key statistics series, first match wins.
// "revenue" precedes "employment" so "Revenue per employment unit" lands on Revenue.
var StatisticRules = []Rule{
	{Match: Contains("revenue"), Field: models.FieldRevenue},
	{Match: Contains("employment"), Field: models.FieldEmployment},
	{Match: Contains("wages"), Field: models.FieldWages},
	{Match: Contains("establish"), Field: models.FieldEstablishments},
}

// RatioRules picks named ratios out of the key ratios section. Names are
// compared after NormalizeName.
var RatioRules = []Rule{
	{Match: equals("revenue_per_employee"), Field: models.FieldRevenuePerEmployee},
	{Match: equals("wages_as_a_share_of_revenue"), Field: models.FieldWagesShareOfRevenue},
}

func equals(want string) func(string) bool {
	return func(name string) bool { return name == want }
}

// NormalizeName lower-cases a statistic name and replaces spaces with underscores.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// Classify returns the field a key statistics series is stored under.
// Unmatched names fall back to their normalized form.
func Classify(rules []Rule, name string) string {
	lower := strings.ToLower(name)
	for _, r := range rules {
		if r.Match(lower) {
			return r.Field
		}
	}
	return NormalizeName(name)
}

// matchRatio returns the ratio field for a normalized name, if any.
func matchRatio(rules []Rule, name string) (string, bool) {
	norm := NormalizeName(name)
	for _, r := range rules {
		if r.Match(norm) {
			return r.Field, true
		}
	}
	return "", false
}
