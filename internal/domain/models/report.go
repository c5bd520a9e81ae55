package models

import (
	"encoding/json"
	"strings"
)

// Section names understood by the normalizer (lower-cased).
const (
	SectionKeyStatistics       = "keystatistics"
	SectionCurrentYearOverview = "currentyearoverview"
	SectionKeyRatios           = "keyratios"
)

// DefaultSections is the section set requested by bulk exports.
var DefaultSections = []string{SectionKeyStatistics, SectionCurrentYearOverview, SectionKeyRatios}

// Report is one entry of a report listing. The listing schema is owned by
// the upstream API and passed through untouched.
type Report map[string]any

// ReportResponse is the raw multi-section answer of the sections endpoint.
type ReportResponse struct {
	Sections []Section `json:"Sections"`
}

// Section is one requested block of a report. Body is decoded lazily by the
// section accessors of SectionSet.
type Section struct {
	RequestedSection string          `json:"RequestedSection"`
	StatusCode       int             `json:"StatusCode,omitempty"`
	Body             json.RawMessage `json:"Body"`
}

// Series is a named, unit-tagged yearly time series.
type Series struct {
	Name string  `json:"Name"`
	Unit string  `json:"Unit,omitempty"`
	Data []Point `json:"Data"`
}

// Point is a single (year, value) observation. Years are not guaranteed sorted.
type Point struct {
	Year  Value `json:"Year"`
	Value Value `json:"Value"`
}

// YearInt returns the observation year, or 0 when it is missing or not a whole number.
func (p Point) YearInt() int {
	y, ok := p.Year.Int64()
	if !ok {
		return 0
	}
	return int(y)
}

// SegmentStatistics groups the series of one segment inside the key
// statistics and key ratios sections.
type SegmentStatistics struct {
	SegmentSize Value    `json:"SegmentSize"`
	Statistics  []Series `json:"Statistics"`
}

// UnmarshalJSON keeps the segment when some of its series are malformed;
// only those series are dropped.
func (s *SegmentStatistics) UnmarshalJSON(b []byte) error {
	var aux struct {
		SegmentSize Value           `json:"SegmentSize"`
		Statistics  json.RawMessage `json:"Statistics"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.SegmentSize = aux.SegmentSize
	s.Statistics = decodeEach[Series](aux.Statistics)
	return nil
}

// Label returns the segment-size label ("1-4", "All", ...).
func (s SegmentStatistics) Label() string { return s.SegmentSize.String() }

// KeyStatistics is the body of the "keystatistics" section.
type KeyStatistics struct {
	Segments []SegmentStatistics `json:"KeyStatistics"`
}

func (k *KeyStatistics) UnmarshalJSON(b []byte) error {
	var aux struct {
		Segments json.RawMessage `json:"KeyStatistics"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	k.Segments = decodeEach[SegmentStatistics](aux.Segments)
	return nil
}

// KeyRatios is the body of the "keyratios" section.
type KeyRatios struct {
	Segments []SegmentStatistics `json:"KeyRatios"`
}

func (k *KeyRatios) UnmarshalJSON(b []byte) error {
	var aux struct {
		Segments json.RawMessage `json:"KeyRatios"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	k.Segments = decodeEach[SegmentStatistics](aux.Segments)
	return nil
}

// Find returns the ratio entries whose label equals label, in document order.
func (k KeyRatios) Find(label string) []SegmentStatistics {
	var out []SegmentStatistics
	for _, s := range k.Segments {
		if s.Label() == label {
			out = append(out, s)
		}
	}
	return out
}

// OverviewEntry is one segment of the "currentyearoverview" section. It is
// kept as a field map so that absent and null fields stay distinguishable.
type OverviewEntry map[string]Value

// Label returns the segment-size label of the entry.
func (e OverviewEntry) Label() string { return e["SegmentSize"].String() }

// Field returns a field and whether the source carried it at all.
func (e OverviewEntry) Field(name string) (Value, bool) {
	v, ok := e[name]
	return v, ok
}

// CurrentYearOverview is the body of the "currentyearoverview" section.
type CurrentYearOverview struct {
	Entries []OverviewEntry `json:"CurrentYearOverview"`
}

func (c *CurrentYearOverview) UnmarshalJSON(b []byte) error {
	var aux struct {
		Entries json.RawMessage `json:"CurrentYearOverview"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	c.Entries = decodeEach[OverviewEntry](aux.Entries)
	return nil
}

// decodeEach decodes the elements of a JSON array one by one. Elements that
// do not fit T are skipped; a body that is not an array yields nil.
func decodeEach[T any](raw json.RawMessage) []T {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ByLabel indexes labelled entries. A repeated label keeps its first
// position in order and the last entry's data.
func (c CurrentYearOverview) ByLabel() (map[string]OverviewEntry, []string) {
	idx := make(map[string]OverviewEntry, len(c.Entries))
	var order []string
	for _, e := range c.Entries {
		label := e.Label()
		if label == "" {
			continue
		}
		if _, seen := idx[label]; !seen {
			order = append(order, label)
		}
		idx[label] = e
	}
	return idx, order
}

// SectionSet maps lower-cased section names to their bodies.
type SectionSet struct {
	bodies map[string]json.RawMessage
}

// SectionSet builds the section lookup. When a name repeats the last
// occurrence wins.
func (r *ReportResponse) SectionSet() SectionSet {
	set := SectionSet{bodies: make(map[string]json.RawMessage)}
	if r == nil {
		return set
	}
	for _, s := range r.Sections {
		set.bodies[strings.ToLower(s.RequestedSection)] = s.Body
	}
	return set
}

// Has reports whether the response carried the named section.
func (s SectionSet) Has(name string) bool {
	_, ok := s.bodies[strings.ToLower(name)]
	return ok
}

// KeyStatistics decodes the key statistics section. A missing or
// malformed body yields an empty value.
func (s SectionSet) KeyStatistics() KeyStatistics {
	var out KeyStatistics
	s.decode(SectionKeyStatistics, &out)
	return out
}

// Overview decodes the current year overview section.
func (s SectionSet) Overview() CurrentYearOverview {
	var out CurrentYearOverview
	s.decode(SectionCurrentYearOverview, &out)
	return out
}

// KeyRatios decodes the key ratios section.
func (s SectionSet) KeyRatios() KeyRatios {
	var out KeyRatios
	s.decode(SectionKeyRatios, &out)
	return out
}

func (s SectionSet) decode(name string, dest any) {
	body, ok := s.bodies[name]
	if !ok || len(body) == 0 {
		return
	}
	if err := json.Unmarshal(body, dest); err != nil {
		// malformed bodies read as empty sections
		switch d := dest.(type) {
		case *KeyStatistics:
			*d = KeyStatistics{}
		case *KeyRatios:
			*d = KeyRatios{}
		case *CurrentYearOverview:
			*d = CurrentYearOverview{}
		}
	}
}
