package services

import (
	"cmp"
	"fmt"
	"fos-allocation-service/internal/domain"
	"slices"
	"strings"
)

// ListColumns returns every column present in rows, sorted, without the
// coordinate columns. These are the columns a filter may name.
func ListColumns(rows []domain.Row) []string {
	seen := make(map[string]struct{})
	cols := make([]string, 0)
	for _, r := range rows {
		for col := range r {
			if col == ColLatitude || col == ColLongitude {
				continue
			}
			if _, ok := seen[col]; ok {
				continue
			}
			seen[col] = struct{}{}
			cols = append(cols, col)
		}
	}
	slices.Sort(cols)
	return cols
}

// ColumnValues returns the distinct values of col, the candidates for a
// filter on it. Numbers sort before text; a single nil leads the list when
// any row has the column blank or unset.
func ColumnValues(rows []domain.Row, col string) ([]any, error) {
	if !HasColumn(rows, col) {
		return nil, fmt.Errorf("column values: column %q: %w", col, domain.ErrNotFound)
	}

	var (
		hasBlank bool
		numbers  []float64
		texts    []string
	)
	seenNum := make(map[float64]struct{})
	seenText := make(map[string]struct{})
	for _, r := range rows {
		v := r[col]
		if f, ok := numberValue(v); ok {
			if _, dup := seenNum[f]; !dup {
				seenNum[f] = struct{}{}
				numbers = append(numbers, f)
			}
			continue
		}
		s := FormatValue(v)
		if strings.TrimSpace(s) == "" {
			hasBlank = true
			continue
		}
		if _, dup := seenText[s]; !dup {
			seenText[s] = struct{}{}
			texts = append(texts, s)
		}
	}
	slices.SortFunc(numbers, cmp.Compare[float64])
	slices.Sort(texts)

	out := make([]any, 0, len(numbers)+len(texts)+1)
	if hasBlank {
		out = append(out, nil)
	}
	for _, f := range numbers {
		out = append(out, f)
	}
	for _, s := range texts {
		out = append(out, s)
	}
	return out, nil
}
