package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Key kinds.
const (
	KindReportList = "reportlist"
	KindSegment    = "segment"
)

const maxFileNameLen = 200

const hashedNameMark = "~"

// GenerateKey joins a kind and its parameters into a cache key. Every part is
// query-escaped so the separators cannot appear inside a part, which keeps
// distinct parameter tuples on distinct keys.
func GenerateKey(kind string, params ...string) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, url.QueryEscape(kind))
	for _, p := range params {
		parts = append(parts, url.QueryEscape(p))
	}
	return strings.Join(parts, "|")
}

// ReportListKey is the key of a report listing for a locale.
func ReportListKey(country, language string) string {
	return GenerateKey(KindReportList, country, language)
}

// SegmentKey is the key of a sections request. The section list is
// canonicalized so that order and case do not matter.
func SegmentKey(country, language, code string, sections []string) string {
	canon := CanonicalSections(sections)
	escaped := make([]string, len(canon))
	for i, s := range canon {
		escaped[i] = url.QueryEscape(s)
	}
	return GenerateKey(KindSegment, country, language, code) + "|" + strings.Join(escaped, ",")
}

// CanonicalSections lower-cases, de-duplicates and sorts section names.
func CanonicalSections(sections []string) []string {
	seen := make(map[string]struct{}, len(sections))
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// FileName maps a key onto a file name. Bytes outside [A-Za-z0-9._-] are
// written as %XX, so distinct keys get distinct names. Names that would
// exceed the usual filesystem limit are shortened and suffixed with '~' and a
// hash of the full key; escaped names never contain '~'.
func FileName(key string) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		if isFileSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
	}
	name := b.String()
	if len(name) > maxFileNameLen {
		name = name[:maxFileNameLen-65] + hashedNameMark + HashKey(key)
	}
	return name + ".json"
}

func isFileSafe(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_' || c == '-':
		return true
	}
	return false
}

// HashKey returns the hex SHA-256 of a key.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
