package models

// FetchOptions are per-call overrides for upstream requests. Empty
// Country or Language fall back to the client's configured locale.
type FetchOptions struct {
	Country  string
	Language string
	// Refresh skips the cache read; the fresh response is still written.
	Refresh bool
}

type FetchOption func(*FetchOptions)

func WithCountry(country string) FetchOption {
	return func(o *FetchOptions) { o.Country = country }
}

func WithLanguage(language string) FetchOption {
	return func(o *FetchOptions) { o.Language = language }
}

func WithRefresh(refresh bool) FetchOption {
	return func(o *FetchOptions) { o.Refresh = refresh }
}

// ApplyFetchOptions resolves opts over the given locale defaults.
func ApplyFetchOptions(country, language string, opts ...FetchOption) FetchOptions {
	o := FetchOptions{Country: country, Language: language}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Country == "" {
		o.Country = country
	}
	if o.Language == "" {
		o.Language = language
	}
	return o
}
