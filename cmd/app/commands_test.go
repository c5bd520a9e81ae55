package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCodes(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codes.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write codes: %v", err)
	}
	return path
}

func TestResolveCodesFromFile(t *testing.T) {
	codes, err := resolveCodes(writeCodes(t, "32191\n# comment\n\n44111\n"), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if strings.Join(codes, ",") != "32191,44111" {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestResolveCodesFromArgs(t *testing.T) {
	codes, err := resolveCodes("", []string{"1", "2,3"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if strings.Join(codes, ",") != "1,2,3" {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestResolveCodesRejectsBothSources(t *testing.T) {
	_, err := resolveCodes(writeCodes(t, "32191\n"), []string{"44111"})
	if !errors.Is(err, errBothCodes) {
		t.Fatalf("expected errBothCodes, got %v", err)
	}
}

func TestResolveCodesRequiresOne(t *testing.T) {
	if _, err := resolveCodes("", nil); !errors.Is(err, errNoCodes) {
		t.Fatalf("expected errNoCodes, got %v", err)
	}
	if _, err := resolveCodes(writeCodes(t, "# only comments\n"), nil); !errors.Is(err, errNoCodes) {
		t.Fatalf("expected errNoCodes for empty file, got %v", err)
	}
	if _, err := resolveCodes(filepath.Join(t.TempDir(), "missing.txt"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}
