// Package segments flattens Segment Benchmarking responses into one record
// per segment-size label.
package segments

import (
	"SegPull/internal/domain/models"
)

// overviewFields are copied from the current year overview onto a segment.
var overviewFields = []string{
	models.FieldAverageRevenue,
	models.FieldTotalRevenue,
	models.FieldMarketShare,
	models.FieldMarketShareForecast,
	models.FieldMarketSharePrediction,
}

// fallbackFields are carried by records synthesized from the overview alone.
var fallbackFields = []string{
	models.FieldAverageRevenue,
	models.FieldTotalRevenue,
	models.FieldMarketShare,
}

// Normalizer turns raw section responses into SegmentRecords.
type Normalizer struct {
	statRules  []Rule
	ratioRules []Rule
}

// NewNormalizer returns a normalizer using StatisticRules and RatioRules.
func NewNormalizer() *Normalizer {
	return &Normalizer{statRules: StatisticRules, ratioRules: RatioRules}
}

// NewNormalizerWithRules allows custom classification, e.g. for additional series names.
func NewNormalizerWithRules(statRules, ratioRules []Rule) *Normalizer {
	return &Normalizer{statRules: statRules, ratioRules: ratioRules}
}

// Normalize flattens resp into records for code. Missing sections read as
// empty; Normalize never fails.
func (n *Normalizer) Normalize(code string, resp *models.ReportResponse) []models.SegmentRecord {
	set := resp.SectionSet()
	overview, overviewOrder := set.Overview().ByLabel()
	ratios := set.KeyRatios()

	var records []models.SegmentRecord
	for _, seg := range set.KeyStatistics().Segments {
		label := seg.Label()
		if label == "" {
			continue
		}
		rec := n.fromStatistics(code, label, seg.Statistics)

		if entry, ok := overview[label]; ok {
			copyFields(rec, entry, overviewFields)
		}
		n.applyRatios(rec, ratios.Find(label))
		applyRevenuePerEmployee(rec)

		records = append(records, rec)
	}

	if len(records) > 0 {
		return records
	}

	for _, label := range overviewOrder {
		rec := models.NewSegmentRecord(code, label)
		rec.Year = models.Null()
		copyFields(rec, overview[label], fallbackFields)
		records = append(records, rec)
	}
	return records
}

func (n *Normalizer) fromStatistics(code, label string, stats []models.Series) models.SegmentRecord {
	rec := models.NewSegmentRecord(code, label)
	latestYear := 0
	for _, s := range stats {
		year, value, _ := Latest(s)
		if year > latestYear {
			latestYear = year
		}
		rec.Fields[Classify(n.statRules, s.Name)] = value
	}
	if latestYear > 0 {
		rec.Year = models.Int(latestYear)
	} else {
		rec.Year = models.Null()
	}
	return rec
}

func (n *Normalizer) applyRatios(rec models.SegmentRecord, entries []models.SegmentStatistics) {
	for _, entry := range entries {
		for _, s := range entry.Statistics {
			field, ok := matchRatio(n.ratioRules, s.Name)
			if !ok {
				continue
			}
			_, value, _ := Latest(s)
			rec.Fields[field] = value
		}
	}
}

func copyFields(rec models.SegmentRecord, entry models.OverviewEntry, fields []string) {
	for _, f := range fields {
		if v, ok := entry.Field(f); ok {
			rec.Fields[f] = v
		}
	}
}

// applyRevenuePerEmployee derives RevenuePerEmployee from Revenue and
// Employment when the ratios section did not provide it. A zero or
// unparsable employment count yields null.
func applyRevenuePerEmployee(rec models.SegmentRecord) {
	if _, ok := rec.Fields[models.FieldRevenuePerEmployee]; ok {
		return
	}
	rev, okRev := rec.Fields[models.FieldRevenue]
	emp, okEmp := rec.Fields[models.FieldEmployment]
	if !okRev || !okEmp || rev.IsNull() || emp.IsNull() {
		return
	}
	rec.Fields[models.FieldRevenuePerEmployee] = RevenuePerEmployee(rev, emp)
}

// RevenuePerEmployee divides revenue by employment. Division by zero and
// conversion failures return null instead of an error.
func RevenuePerEmployee(revenue, employment models.Value) models.Value {
	r, ok := revenue.Float64()
	if !ok {
		return models.Null()
	}
	e, ok := employment.Float64()
	if !ok || e == 0 {
		return models.Null()
	}
	return models.Float(r / e)
}

// Normalize flattens resp with the default rules.
func Normalize(code string, resp *models.ReportResponse) []models.SegmentRecord {
	return NewNormalizer().Normalize(code, resp)
}
