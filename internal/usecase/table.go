package usecase

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"SegPull/internal/domain/models"
)

// Table is the rectangular form of an export. A table with no header is
// the "nothing to export" result.
type Table struct {
	Header []string
	Rows   [][]string
}

// Empty reports whether the table has no columns.
func (t Table) Empty() bool { return len(t.Header) == 0 }

// BuildTable lays records out under the common columns followed by every
// other field name seen, sorted. Missing cells are empty strings.
func BuildTable(records []models.SegmentRecord) Table {
	if len(records) == 0 {
		return Table{}
	}

	common := make(map[string]struct{}, len(models.CommonColumns))
	for _, c := range models.CommonColumns {
		common[c] = struct{}{}
	}
	extraSet := make(map[string]struct{})
	for _, r := range records {
		for k := range r.Fields {
			if _, ok := common[k]; !ok {
				extraSet[k] = struct{}{}
			}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extras = append(extras, k)
	}
	sort.Strings(extras)

	header := append(append([]string{}, models.CommonColumns...), extras...)
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(header))
		for i, col := range header {
			if v, ok := r.Get(col); ok {
				row[i] = v.String()
			}
		}
		rows = append(rows, row)
	}
	return Table{Header: header, Rows: rows}
}

// WriteCSV writes the header and rows. An empty table writes nothing.
func WriteCSV(w io.Writer, t Table) error {
	if t.Empty() {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// WriteCSVFile writes t to path through a temporary file in the same
// directory, so the target is either complete or untouched.
func WriteCSVFile(path string, t Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := WriteCSV(tmp, t); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
