package segments

import "SegPull/internal/domain/models"

// Latest returns the observation with the highest year. Ties keep the first
// observation in document order. ok is false for an empty series.
func Latest(s models.Series) (year int, value models.Value, ok bool) {
	if len(s.Data) == 0 {
		return 0, models.Null(), false
	}
	best := s.Data[0]
	for _, p := range s.Data[1:] {
		if p.YearInt() > best.YearInt() {
			best = p
		}
	}
	return best.YearInt(), best.Value, true
}

// LatestPreferring returns the observation for preferredYear when the series
// has one, and otherwise falls back to Latest.
func LatestPreferring(s models.Series, preferredYear int) (year int, value models.Value, ok bool) {
	for _, p := range s.Data {
		if p.YearInt() == preferredYear {
			return p.YearInt(), p.Value, true
		}
	}
	return Latest(s)
}
