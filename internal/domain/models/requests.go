package models

// Requests for the HTTP API. Empty country or language use the client's locale.

type ReportsRequest struct {
	Country  string `query:"country" json:"country" validate:"omitempty,alpha,max=3"`
	Language string `query:"language" json:"language" validate:"omitempty,alpha"`
	Refresh  bool   `query:"refresh" json:"refresh"`
}

type SegmentRequest struct {
	Code     string   `param:"code" json:"code" validate:"required,max=32"`
	Sections []string `query:"section" json:"section" validate:"max=16"`
	Country  string   `query:"country" json:"country" validate:"omitempty,alpha,max=3"`
	Language string   `query:"language" json:"language" validate:"omitempty,alpha"`
	Refresh  bool     `query:"refresh" json:"refresh"`
	// Raw returns the upstream sections instead of normalized records.
	Raw bool `query:"raw" json:"raw"`
}

type UpdatedReportsRequest struct {
	Start    string `query:"start" json:"start" validate:"required,datetime=2006-01-02"`
	End      string `query:"end" json:"end" validate:"required,datetime=2006-01-02"`
	Country  string `query:"country" json:"country" validate:"omitempty,alpha,max=3"`
	Language string `query:"language" json:"language" validate:"omitempty,alpha"`
}

type ExportRequest struct {
	Codes    []string `query:"code" json:"code" validate:"min=1,max=200"`
	Sections []string `query:"section" json:"section" validate:"max=16"`
	Refresh  bool     `query:"refresh" json:"refresh"`
	Format   string   `query:"format" json:"format" default:"json" validate:"oneof=json csv"`
}
