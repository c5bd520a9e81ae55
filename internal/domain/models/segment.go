package models

import (
	"encoding/json"
	"sort"
)

// Canonical field names of a SegmentRecord.
const (
	FieldCode                  = "Code"
	FieldSegmentSize           = "SegmentSize"
	FieldYear                  = "Year"
	FieldRevenue               = "Revenue"
	FieldEmployment            = "Employment"
	FieldWages                 = "Wages"
	FieldEstablishments        = "Establishments"
	FieldAverageRevenue        = "AverageRevenue"
	FieldTotalRevenue          = "TotalRevenue"
	FieldMarketShare           = "MarketShare"
	FieldMarketShareForecast   = "MarketShareForecast"
	FieldMarketSharePrediction = "MarketSharePrediction"
	FieldRevenuePerEmployee    = "RevenuePerEmployee"
	FieldWagesShareOfRevenue   = "WagesShareOfRevenue"
)

// CommonColumns is the fixed column prefix of every export table.
var CommonColumns = []string{
	FieldCode,
	FieldSegmentSize,
	FieldYear,
	FieldRevenue,
	FieldEmployment,
	FieldWages,
	FieldEstablishments,
	FieldAverageRevenue,
	FieldTotalRevenue,
	FieldMarketShare,
	FieldRevenuePerEmployee,
}

// SegmentRecord is the flattened view of one segment of one report.
type SegmentRecord struct {
	Code        string
	SegmentSize string
	Year        Value // null when no series contributed a year
	Fields      map[string]Value
}

// NewSegmentRecord starts an empty record for (code, segment).
func NewSegmentRecord(code, segment string) SegmentRecord {
	return SegmentRecord{
		Code:        code,
		SegmentSize: segment,
		Fields:      make(map[string]Value),
	}
}

// Get returns the value of a column and whether the record has it.
func (r SegmentRecord) Get(column string) (Value, bool) {
	switch column {
	case FieldCode:
		return Text(r.Code), true
	case FieldSegmentSize:
		return Text(r.SegmentSize), true
	case FieldYear:
		return r.Year, true
	}
	v, ok := r.Fields[column]
	return v, ok
}

// Has reports whether the record carries the named field.
func (r SegmentRecord) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// Columns lists every column of the record: identity columns first, then
// field names in lexical order.
func (r SegmentRecord) Columns() []string {
	cols := make([]string, 0, len(r.Fields)+3)
	cols = append(cols, FieldCode, FieldSegmentSize, FieldYear)
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return append(cols, names...)
}

// MarshalJSON renders the record as one flat object.
func (r SegmentRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]Value, len(r.Fields)+3)
	for k, v := range r.Fields {
		flat[k] = v
	}
	flat[FieldCode] = Text(r.Code)
	flat[FieldSegmentSize] = Text(r.SegmentSize)
	flat[FieldYear] = r.Year
	return json.Marshal(flat)
}
