package segments

import (
	"encoding/json"
	"testing"

	"SegPull/internal/domain/models"
)

const sampleResponse = `{
  "Sections": [
    {
      "RequestedSection": "currentyearoverview",
      "StatusCode": 200,
      "Body": {
        "CurrentYearOverview": [
          {
            "SegmentSize": "1-4",
            "AverageRevenue": 100000.0,
            "TotalRevenue": 400000,
            "MarketShare": 0.1,
            "MarketShareForecast": 0.11,
            "MarketSharePrediction": "stable"
          }
        ]
      }
    },
    {
      "RequestedSection": "keystatistics",
      "StatusCode": 200,
      "Body": {
        "KeyStatistics": [
          {
            "SegmentSize": "1-4",
            "Statistics": [
              {"Name": "Revenue", "Unit": "$", "Data": [{"Year": 2024, "Value": 100000}, {"Year": 2025, "Value": 110000}]},
              {"Name": "Employment", "Unit": "people", "Data": [{"Year": 2025, "Value": 3}]},
              {"Name": "Wages", "Unit": "$", "Data": [{"Year": 2025, "Value": 50000}]}
            ]
          }
        ]
      }
    }
  ]
}`

func decode(t *testing.T, raw string) *models.ReportResponse {
	t.Helper()
	var resp models.ReportResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return &resp
}

func field(t *testing.T, rec models.SegmentRecord, name string) models.Value {
	t.Helper()
	v, ok := rec.Get(name)
	if !ok {
		t.Fatalf("record %s/%s has no %s", rec.Code, rec.SegmentSize, name)
	}
	return v
}

func TestLatestPicksMaxYear(t *testing.T) {
	s := models.Series{Name: "Revenue", Data: []models.Point{
		{Year: models.Int(2024), Value: models.Int(100000)},
		{Year: models.Int(2025), Value: models.Int(110000)},
	}}
	year, v, ok := Latest(s)
	if !ok || year != 2025 || v.String() != "110000" {
		t.Fatalf("expected (2025, 110000), got (%d, %s, %v)", year, v, ok)
	}
}

func TestLatestUnsortedYears(t *testing.T) {
	s := models.Series{Data: []models.Point{
		{Year: models.Int(2026), Value: models.Int(3)},
		{Year: models.Int(2021), Value: models.Int(1)},
		{Year: models.Int(2023), Value: models.Int(2)},
	}}
	year, v, _ := Latest(s)
	if year != 2026 || v.String() != "3" {
		t.Fatalf("expected 2026/3, got %d/%s", year, v)
	}
}

func TestLatestPreferringYear(t *testing.T) {
	s := models.Series{Data: []models.Point{
		{Year: models.Int(2024), Value: models.Int(100000)},
		{Year: models.Int(2025), Value: models.Int(110000)},
	}}
	year, v, ok := LatestPreferring(s, 2024)
	if !ok || year != 2024 || v.String() != "100000" {
		t.Fatalf("expected preferred 2024, got %d/%s", year, v)
	}
	year, _, _ = LatestPreferring(s, 1999)
	if year != 2025 {
		t.Fatalf("expected fallback to 2025, got %d", year)
	}
}

func TestLatestEmptySeries(t *testing.T) {
	if _, v, ok := Latest(models.Series{Name: "Revenue"}); ok || !v.IsNull() {
		t.Fatalf("expected no observation")
	}
}

func TestNormalizeSample(t *testing.T) {
	recs := Normalize("32191", decode(t, sampleResponse))
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	r := recs[0]
	if r.Code != "32191" || r.SegmentSize != "1-4" {
		t.Fatalf("unexpected identity %s/%s", r.Code, r.SegmentSize)
	}
	checks := map[string]string{
		models.FieldRevenue:               "110000",
		models.FieldEmployment:            "3",
		models.FieldWages:                 "50000",
		models.FieldAverageRevenue:        "100000.0",
		models.FieldYear:                  "2025",
		models.FieldMarketSharePrediction: "stable",
	}
	for name, want := range checks {
		if got := field(t, r, name).String(); got != want {
			t.Fatalf("%s: expected %s, got %s", name, want, got)
		}
	}
	rpe, ok := field(t, r, models.FieldRevenuePerEmployee).Float64()
	if !ok || rpe < 36666.66 || rpe > 36666.67 {
		t.Fatalf("expected computed revenue per employee 110000/3, got %v", rpe)
	}
}

func TestNormalizeOverviewFallback(t *testing.T) {
	raw := `{"Sections": [
	  {"RequestedSection": "currentyearoverview", "Body": {"CurrentYearOverview": [{"SegmentSize": "All", "AverageRevenue": 200000}]}},
	  {"RequestedSection": "keystatistics", "Body": {"KeyStatistics": []}}
	]}`
	recs := Normalize("42344", decode(t, raw))
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	r := recs[0]
	if r.SegmentSize != "All" || !r.Year.IsNull() {
		t.Fatalf("expected All with null year, got %s/%s", r.SegmentSize, r.Year)
	}
	if got := field(t, r, models.FieldAverageRevenue).String(); got != "200000" {
		t.Fatalf("unexpected average revenue %s", got)
	}
	if r.Has(models.FieldTotalRevenue) || r.Has(models.FieldMarketShareForecast) {
		t.Fatalf("absent overview fields must not be filled: %v", r.Fields)
	}
}

func TestNormalizeZeroEmployment(t *testing.T) {
	raw := `{"Sections": [{"RequestedSection": "KeyStatistics", "Body": {"KeyStatistics": [
	  {"SegmentSize": "5-9", "Statistics": [
	    {"Name": "Revenue", "Data": [{"Year": 2025, "Value": 5000}]},
	    {"Name": "Employment", "Data": [{"Year": 2025, "Value": 0}]}
	  ]}
	]}}]}`
	recs := Normalize("1", decode(t, raw))
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	v, ok := recs[0].Get(models.FieldRevenuePerEmployee)
	if !ok || !v.IsNull() {
		t.Fatalf("expected explicit null revenue per employee, got %v (present=%v)", v, ok)
	}
}

func TestNormalizeRatiosWin(t *testing.T) {
	raw := `{"Sections": [
	  {"RequestedSection": "keystatistics", "Body": {"KeyStatistics": [
	    {"SegmentSize": "1-4", "Statistics": [
	      {"Name": "Revenue", "Data": [{"Year": 2025, "Value": 100}]},
	      {"Name": "Employment", "Data": [{"Year": 2025, "Value": 4}]}
	    ]}
	  ]}},
	  {"RequestedSection": "keyratios", "Body": {"KeyRatios": [
	    {"SegmentSize": "5-9", "Statistics": [{"Name": "Revenue per Employee", "Data": [{"Year": 2025, "Value": 1}]}]},
	    {"SegmentSize": "1-4", "Statistics": [
	      {"Name": "Revenue per Employee", "Data": [{"Year": 2024, "Value": 20}, {"Year": 2025, "Value": 30}]},
	      {"Name": "Wages as a Share of Revenue", "Data": [{"Year": 2025, "Value": 0.4}]}
	    ]}
	  ]}}
	]}`
	r := Normalize("1", decode(t, raw))[0]
	if got := field(t, r, models.FieldRevenuePerEmployee).String(); got != "30" {
		t.Fatalf("expected ratio value 30, got %s", got)
	}
	if got := field(t, r, models.FieldWagesShareOfRevenue).String(); got != "0.4" {
		t.Fatalf("expected wages share 0.4, got %s", got)
	}
}

func TestNormalizeClassification(t *testing.T) {
	raw := `{"Sections": [{"RequestedSection": "keystatistics", "Body": {"KeyStatistics": [
	  {"SegmentSize": "All", "Statistics": [
	    {"Name": "Number of Establishments", "Data": [{"Year": 2023, "Value": 12}]},
	    {"Name": "Total Wages", "Data": [{"Year": 2022, "Value": 7}]},
	    {"Name": "Industry Value Added", "Data": [{"Year": 2021, "Value": 9}]}
	  ]}
	]}}]}`
	r := Normalize("1", decode(t, raw))[0]
	if got := field(t, r, models.FieldEstablishments).String(); got != "12" {
		t.Fatalf("establishments: got %s", got)
	}
	if got := field(t, r, models.FieldWages).String(); got != "7" {
		t.Fatalf("wages: got %s", got)
	}
	if got := field(t, r, "industry_value_added").String(); got != "9" {
		t.Fatalf("fallback name: got %s", got)
	}
	if got := r.Year.String(); got != "2023" {
		t.Fatalf("year: expected max 2023, got %s", got)
	}
	if r.Has(models.FieldRevenuePerEmployee) {
		t.Fatalf("revenue per employee must not be derived without inputs")
	}
}

func TestNormalizeBareSegment(t *testing.T) {
	raw := `{"Sections": [{"RequestedSection": "keystatistics", "Body": {"KeyStatistics": [{"SegmentSize": "10-19", "Statistics": []}]}}]}`
	recs := Normalize("9", decode(t, raw))
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	r := recs[0]
	if len(r.Fields) != 0 || !r.Year.IsNull() || r.SegmentSize != "10-19" {
		t.Fatalf("expected bare record, got %+v", r)
	}
}

func TestNormalizeMissingAndMalformedSections(t *testing.T) {
	if recs := Normalize("1", decode(t, `{"Sections": []}`)); len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
	if recs := Normalize("1", nil); len(recs) != 0 {
		t.Fatalf("expected no records for nil response")
	}
	raw := `{"Sections": [{"RequestedSection": "keystatistics", "Body": ["unexpected"]}]}`
	if recs := Normalize("1", decode(t, raw)); len(recs) != 0 {
		t.Fatalf("expected malformed body to read as empty, got %d", len(recs))
	}
}

func TestNormalizeLastSectionWins(t *testing.T) {
	raw := `{"Sections": [
	  {"RequestedSection": "currentyearoverview", "Body": {"CurrentYearOverview": [{"SegmentSize": "All", "AverageRevenue": 1}]}},
	  {"RequestedSection": "CurrentYearOverview", "Body": {"CurrentYearOverview": [{"SegmentSize": "All", "AverageRevenue": 2}]}}
	]}`
	r := Normalize("1", decode(t, raw))[0]
	if got := field(t, r, models.FieldAverageRevenue).String(); got != "2" {
		t.Fatalf("expected last section to win, got %s", got)
	}
}

func TestRevenuePerEmployeeConversionFailure(t *testing.T) {
	if v := RevenuePerEmployee(models.Text("n/a"), models.Int(3)); !v.IsNull() {
		t.Fatalf("expected null, got %s", v)
	}
	if v := RevenuePerEmployee(models.Int(9), models.Int(3)); v.String() != "3" {
		t.Fatalf("expected 3, got %s", v)
	}
}

func TestNormalizeDropsOnlyMalformedSeries(t *testing.T) {
	raw := `{"Sections": [{"RequestedSection": "keystatistics", "Body": {"KeyStatistics": [
	  {"SegmentSize": "1-4", "Statistics": [
	    {"Name": 7, "Data": [{"Year": 2025, "Value": 1}]},
	    {"Name": "Revenue", "Data": [{"Year": 2025, "Value": 110000}]}
	  ]},
	  "not a segment",
	  {"SegmentSize": "All", "Statistics": [
	    {"Name": "Employment", "Data": "n/a"},
	    {"Name": "Wages", "Data": [{"Year": 2024, "Value": 50000}]}
	  ]}
	]}}]}`
	recs := Normalize("1", decode(t, raw))
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if got := field(t, recs[0], models.FieldRevenue).String(); got != "110000" {
		t.Fatalf("expected revenue to survive, got %s", got)
	}
	if recs[1].SegmentSize != "All" {
		t.Fatalf("unexpected second segment %q", recs[1].SegmentSize)
	}
	if recs[1].Has(models.FieldEmployment) {
		t.Fatalf("malformed employment series should be dropped")
	}
	if got := field(t, recs[1], models.FieldWages).String(); got != "50000" {
		t.Fatalf("expected wages to survive, got %s", got)
	}
}
