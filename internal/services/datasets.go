package services

import (
	"encoding/json"
	"fmt"
	"fos-allocation-service/internal/domain"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Column names of the agent and case spreadsheets.
const (
	ColLatitude   = "latitude"
	ColLongitude  = "longitude"
	ColAgentName  = "E_Name"
	ColAgentID    = "E_ID"
	ColStatus     = "assignedStatus"
	ColAddress    = "Cus_Add"
	ColLoanNumber = "LoanNo/CC"

	ColAssignedAgent   = "Assigned_FOS"
	ColAssignedAgentID = "Assigned_FOS_ID"
	ColDistanceKm      = "Distance(KM)"
	ColAcceptance      = "acceptanceStatus"
)

// AgentColumns are the agent columns carried through a run.
var AgentColumns = []string{
	ColAgentName, ColAgentID, "role", "activeStatus", "physicalAddress",
	ColLatitude, ColLongitude,
}

// CaseColumns are the case columns carried through a run.
var CaseColumns = []string{
	ColLoanNumber, "Lot", "Port", "BKT/DPD", "Asset/Product", "Cus_Name",
	"Cus_Mobile", ColAddress, "Mailing_Loc", "District", "Perma_Add",
	"Emp_Address", ColLatitude, ColLongitude, "EMI", "TAD", "POS", "TC_ID",
	"TC_Name", "TL_ID", "TL_Name", ColStatus, "Masked_LoanNo/CC",
}

// ColumnFilter keeps rows whose Column value is one of Values.
// A filter with no column or no values is ignored.
type ColumnFilter struct {
	Column string `json:"column"`
	Values []any  `json:"values"`
}

// ProjectColumns keeps only the listed columns of every row.
func ProjectColumns(rows []domain.Row, keep []string) []domain.Row {
	out := make([]domain.Row, 0, len(rows))
	for _, r := range rows {
		p := make(domain.Row, len(keep))
		for _, col := range keep {
			if v, ok := r[col]; ok {
				p[col] = v
			}
		}
		out = append(out, p)
	}
	return out
}

// ApplyFilters narrows rows by each active filter in turn.
func ApplyFilters(rows []domain.Row, filters []ColumnFilter) ([]domain.Row, error) {
	for _, f := range filters {
		if f.Column == "" || len(f.Values) == 0 {
			continue
		}
		if len(rows) > 0 && !HasColumn(rows, f.Column) {
			return nil, domain.Invalidf("filter column %q not found", f.Column)
		}

		kept := make([]domain.Row, 0, len(rows))
		for _, r := range rows {
			if slices.ContainsFunc(f.Values, func(v any) bool { return valuesEqual(r[f.Column], v) }) {
				kept = append(kept, r)
			}
		}
		rows = kept
	}
	return rows, nil
}

// HasColumn reports whether any row carries col.
func HasColumn(rows []domain.Row, col string) bool {
	for _, r := range rows {
		if _, ok := r[col]; ok {
			return true
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, okA := numberValue(a)
	fb, okB := numberValue(b)
	if okA && okB {
		return fa == fb
	}
	return FormatValue(a) == FormatValue(b)
}

// numberValue converts typed numbers only; strings are not numbers here.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ToFloat coerces a cell to a finite number. Numeric strings are accepted;
// anything else reports false.
func ToFloat(v any) (float64, bool) {
	f, ok := numberValue(v)
	if !ok {
		s, isString := v.(string)
		if !isString {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatValue renders a cell as text. Integral numbers print without a
// fractional part so numeric ids survive JSON decoding as float64.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	}
	return fmt.Sprint(v)
}

func requireColumns(rows []domain.Row, dataset string, cols ...string) error {
	missing := make([]string, 0)
	for _, c := range cols {
		if !HasColumn(rows, c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return domain.Invalidf("%s data must have %s columns (missing: %s)",
			dataset, strings.Join(cols, ", "), strings.Join(missing, ", "))
	}
	return nil
}

func rowCoordinates(r domain.Row) (domain.Coordinates, bool) {
	lat, ok := ToFloat(r[ColLatitude])
	if !ok {
		return domain.Coordinates{}, false
	}
	lon, ok := ToFloat(r[ColLongitude])
	if !ok {
		return domain.Coordinates{}, false
	}
	return domain.Coordinates{Lat: lat, Lon: lon}, true
}

// ParseAgents converts agent rows into agents. Rows without numeric
// coordinates are dropped and counted.
func ParseAgents(rows []domain.Row) ([]domain.Agent, int, error) {
	if err := requireColumns(rows, "agent", ColAgentName, ColLatitude, ColLongitude); err != nil {
		return nil, 0, fmt.Errorf("parse agents: %w", err)
	}

	agents := make([]domain.Agent, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		loc, ok := rowCoordinates(r)
		if !ok {
			dropped++
			continue
		}

		fields := maps.Clone(r)
		name := strings.TrimSpace(FormatValue(r[ColAgentName]))
		fields[ColAgentName] = name
		fields[ColLatitude] = loc.Lat
		fields[ColLongitude] = loc.Lon

		agents = append(agents, domain.Agent{
			ID:       strings.TrimSpace(FormatValue(r[ColAgentID])),
			Name:     name,
			Location: loc,
			Fields:   fields,
		})
	}

	return agents, dropped, nil
}

// ParseCases converts case rows into unassigned cases. Rows without numeric
// coordinates or without a status are dropped; rows whose status does not
// parse as unassigned (including "Assigned..." text that merely mentions
// "unassigned") are skipped. Both are counted as dropped.
func ParseCases(rows []domain.Row) ([]domain.Case, int, error) {
	if len(rows) == 0 {
		return []domain.Case{}, 0, nil
	}
	if err := requireColumns(rows, "case", ColLatitude, ColLongitude, ColStatus); err != nil {
		return nil, 0, fmt.Errorf("parse cases: %w", err)
	}

	cases := make([]domain.Case, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		loc, ok := rowCoordinates(r)
		if !ok {
			dropped++
			continue
		}

		rawStatus := strings.TrimSpace(FormatValue(r[ColStatus]))
		if rawStatus == "" || !strings.Contains(strings.ToLower(rawStatus), "unassigned") {
			dropped++
			continue
		}
		status, err := domain.ParseStatus(rawStatus)
		if err != nil || !status.IsUnassigned() {
			dropped++
			continue
		}

		fields := maps.Clone(r)
		fields[ColLatitude] = loc.Lat
		fields[ColLongitude] = loc.Lon

		cases = append(cases, domain.Case{
			Ref:      FormatValue(r[ColLoanNumber]),
			Address:  FormatValue(r[ColAddress]),
			Location: loc,
			Status:   status,
			Fields:   fields,
		})
	}

	return cases, dropped, nil
}

// ParseCapacity validates the per-agent case ceiling. Integral JSON numbers
// and integer strings are accepted; the value must be greater than 0.
func ParseCapacity(v any) (int, error) {
	const msg = "max_cases must be a number greater than 0"

	var n int
	switch x := v.(type) {
	case nil:
		return 0, domain.Invalidf("%s (missing)", msg)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, domain.Invalidf("%s (got %q)", msg, x)
		}
		n = parsed
	default:
		f, ok := numberValue(x)
		if !ok || f != math.Trunc(f) || f > math.MaxInt32 {
			return 0, domain.Invalidf("%s (got %v)", msg, v)
		}
		n = int(f)
	}

	if n <= 0 {
		return 0, domain.Invalidf("%s (got %d)", msg, n)
	}
	return n, nil
}

// RecordRows renders assignable records as output rows.
func RecordRows(records []domain.AssignmentRecord) []domain.Row {
	out := make([]domain.Row, 0, len(records))
	for _, rec := range records {
		row := maps.Clone(rec.Case.Fields)
		if row == nil {
			row = domain.Row{}
		}
		row[ColAssignedAgent] = rec.AgentName
		row[ColAssignedAgentID] = nil
		if rec.AgentID != "" {
			row[ColAssignedAgentID] = rec.AgentID
		}
		row[ColDistanceKm] = rec.DistanceKm
		row[ColStatus] = rec.Status
		row[ColAcceptance] = rec.Acceptance
		out = append(out, row)
	}
	return out
}

// ExcludedRows renders cases that stayed unassigned. Their status is unchanged.
func ExcludedRows(cases []domain.Case) []domain.Row {
	out := make([]domain.Row, 0, len(cases))
	for _, c := range cases {
		row := maps.Clone(c.Fields)
		if row == nil {
			row = domain.Row{}
		}
		row[ColAssignedAgent] = nil
		row[ColAssignedAgentID] = nil
		row[ColDistanceKm] = nil
		row[ColStatus] = c.Status.String()
		out = append(out, row)
	}
	return out
}
