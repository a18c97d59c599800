package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/ports"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeDatasets struct {
	mu     sync.Mutex
	agents []domain.Row
	cases  []domain.Row
	err    error
}

func (f *fakeDatasets) ListAgentRows(ctx context.Context) ([]domain.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.agents, f.err
}

func (f *fakeDatasets) ListCaseRows(ctx context.Context) ([]domain.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cases, f.err
}

func (f *fakeDatasets) ReplaceAgentRows(ctx context.Context, rows []domain.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents = rows
	return f.err
}

func (f *fakeDatasets) ReplaceCaseRows(ctx context.Context, rows []domain.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cases = rows
	return f.err
}

type fakeAssignments struct {
	runID      string
	rows       []domain.Row
	assignedAt time.Time
	err        error
}

func (f *fakeAssignments) SaveAssignments(ctx context.Context, runID string, rows []domain.Row, assignedAt time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.runID, f.rows, f.assignedAt = runID, rows, assignedAt
	return len(rows), nil
}

type fakeResolver struct {
	loans []string
	err   error
}

func (f *fakeResolver) ResolveLoans(ctx context.Context, loanNumbers []string) (int, int, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.loans = loanNumbers
	return len(loanNumbers), len(loanNumbers) - 1, nil
}

type fakeGeocoder map[string]domain.Coordinates

func (f fakeGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	c, ok := f[address]
	if !ok {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}
	return c, nil
}

func agentRows() []map[string]any {
	return []map[string]any{
		{"E_Name": "Asha", "E_ID": 101, "latitude": 19.0760, "longitude": 72.8777},
		{"E_Name": "Ravi", "E_ID": 102, "latitude": 18.5204, "longitude": 73.8567},
	}
}

func caseRows() []map[string]any {
	return []map[string]any{
		{"LoanNo/CC": "L1", "Cus_Add": "Andheri", "latitude": 19.1136, "longitude": 72.8697, "assignedStatus": "unAssigned0"},
		{"LoanNo/CC": "L3", "Cus_Add": "Kothrud", "latitude": 18.5074, "longitude": 73.8077, "assignedStatus": "unAssigned2"},
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := NewRouter(Deps{})

	rec := do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode(t, rec)["status"])
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = do(t, h, http.MethodPost, "/health", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := NewRouter(Deps{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestAllocate(t *testing.T) {
	h := NewRouter(Deps{})

	rec := do(t, h, http.MethodPost, "/allocations", map[string]any{
		"agents":    agentRows(),
		"cases":     caseRows(),
		"max_cases": "1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		RunID       string           `json:"run_id"`
		Assignments []map[string]any `json:"fos_assignments"`
		Excluded    []map[string]any `json:"excluded_cases"`
		Map         struct {
			CenterLat float64          `json:"center_lat"`
			CenterLon float64          `json:"center_long"`
			Agents    []map[string]any `json:"fos_locations"`
			Cases     []map[string]any `json:"case_locations"`
		} `json:"map_data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	require.NotEmpty(t, res.RunID)
	require.Len(t, res.Assignments, 2)
	require.Empty(t, res.Excluded)

	byLoan := map[string]map[string]any{}
	for _, r := range res.Assignments {
		byLoan[r["LoanNo/CC"].(string)] = r
	}
	require.Equal(t, "Asha", byLoan["L1"]["Assigned_FOS"])
	require.Equal(t, "101", byLoan["L1"]["Assigned_FOS_ID"])
	require.Equal(t, "Assigned1", byLoan["L1"]["assignedStatus"])
	require.Equal(t, "Ravi", byLoan["L3"]["Assigned_FOS"])
	require.Equal(t, "Assigned3", byLoan["L3"]["assignedStatus"])
	require.Equal(t, "pending", byLoan["L3"]["acceptanceStatus"])

	require.InDelta(t, (19.0760+18.5204)/2, res.Map.CenterLat, 1e-9)
	require.InDelta(t, (72.8777+73.8567)/2, res.Map.CenterLon, 1e-9)
	require.Len(t, res.Map.Agents, 2)
	require.Len(t, res.Map.Cases, 2)
}

func TestAllocateRejectsBadRequests(t *testing.T) {
	h := NewRouter(Deps{})

	tests := []struct {
		name string
		body any
	}{
		{"non numeric max_cases", map[string]any{"agents": agentRows(), "cases": caseRows(), "max_cases": "abc"}},
		{"zero max_cases", map[string]any{"agents": agentRows(), "cases": caseRows(), "max_cases": 0}},
		{"missing max_cases", map[string]any{"agents": agentRows(), "cases": caseRows()}},
		{"unknown field", map[string]any{"agents": agentRows(), "cases": caseRows(), "max_cases": 1, "extra": true}},
		{"agents without coordinates", map[string]any{"agents": []map[string]any{{"E_Name": "Asha"}}, "cases": caseRows(), "max_cases": 1}},
		{"unknown filter column", map[string]any{
			"agents": agentRows(), "cases": caseRows(), "max_cases": 1,
			"agent_filters": []map[string]any{{"column": "role", "values": []string{"FOS"}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/allocations", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			require.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestAllocateUsesDefaultMaxCases(t *testing.T) {
	h := NewRouter(Deps{DefaultMaxCases: 5})

	rec := do(t, h, http.MethodPost, "/allocations", map[string]any{
		"agents": agentRows(),
		"cases":  caseRows(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAllocateStored(t *testing.T) {
	rec := do(t, NewRouter(Deps{}), http.MethodPost, "/allocations/stored", map[string]any{"max_cases": 1})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	store := &fakeDatasets{}
	h := NewRouter(Deps{Datasets: store, DatasetWriter: store})

	var agents, cases []domain.Row
	for _, r := range agentRows() {
		agents = append(agents, r)
	}
	for _, r := range caseRows() {
		cases = append(cases, r)
	}

	rec = do(t, h, http.MethodPut, "/datasets/agents", map[string]any{"rows": agents})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.EqualValues(t, 2, decode(t, rec)["rows"])

	rec = do(t, h, http.MethodPut, "/datasets/cases", map[string]any{"rows": cases})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/allocations/stored", map[string]any{"max_cases": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, decode(t, rec)["fos_assignments"], 2)

	store.err = errors.New("connection refused")
	rec = do(t, h, http.MethodPost, "/allocations/stored", map[string]any{"max_cases": 1})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "internal server error", decode(t, rec)["error"])
}

func TestReplaceDatasetRequiresRows(t *testing.T) {
	store := &fakeDatasets{}
	h := NewRouter(Deps{DatasetWriter: store})

	rec := do(t, h, http.MethodPut, "/datasets/agents", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/datasets/cases", map[string]any{"rows": []any{}})
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCommitAssignments(t *testing.T) {
	store := &fakeAssignments{}
	h := NewRouter(Deps{Assignments: store})

	rows := []map[string]any{{
		"LoanNo/CC": "L1", "Assigned_FOS": "Asha", "Assigned_FOS_ID": "101",
		"assignedStatus": "Assigned1", "acceptanceStatus": "pending", "latitude": 19.1,
	}}
	rec := do(t, h, http.MethodPost, "/assignments", map[string]any{"run_id": "run-1", "rows": rows})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.EqualValues(t, 1, decode(t, rec)["stored"])

	require.Equal(t, "run-1", store.runID)
	require.Len(t, store.rows, 1)
	require.NotContains(t, store.rows[0], "latitude")
	require.Equal(t, "Asia/Kolkata", store.assignedAt.Location().String())

	rec = do(t, h, http.MethodPost, "/assignments", map[string]any{"rows": rows})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	store.err = errors.New("disk full")
	rec = do(t, h, http.MethodPost, "/assignments", map[string]any{"run_id": "run-2", "rows": rows})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPrepareCasesThenListColumns(t *testing.T) {
	store := &fakeDatasets{}
	h := NewRouter(Deps{Datasets: store, DatasetWriter: store})

	raw := []map[string]any{
		{"Loan Number": "LN0012345678", "Cus_Add": "Andheri", "Zone": "West", "latitude": 19.1, "longitude": 72.8},
		{"Loan Number": "LN0098765432", "Cus_Add": "Kothrud", "assignedStatus": "unAssigned3", "latitude": 18.5, "longitude": 73.8},
	}
	rec := do(t, h, http.MethodPost, "/datasets/cases/prepare", map[string]any{
		"rows": raw, "loan_column": "Loan Number", "store": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	require.Equal(t, true, body["stored"])
	rows := body["rows"].([]any)
	require.Len(t, rows, 2)
	first := rows[0].(map[string]any)
	require.Equal(t, "LN0012345678", first["LoanNo/CC"])
	require.Equal(t, "xxxx345678", first["Masked_LoanNo/CC"])
	require.Equal(t, "unAssigned0", first["assignedStatus"])
	require.NotContains(t, first, "Loan Number")
	require.Equal(t, "unAssigned3", rows[1].(map[string]any)["assignedStatus"])
	require.Len(t, store.cases, 2)

	rec = do(t, h, http.MethodGet, "/datasets/cases/columns", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t,
		[]any{"Cus_Add", "LoanNo/CC", "Masked_LoanNo/CC", "Zone", "assignedStatus"},
		decode(t, rec)["columns"])

	rec = do(t, h, http.MethodGet, "/datasets/cases/values?column=Zone", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, []any{nil, "West"}, decode(t, rec)["values"])

	rec = do(t, h, http.MethodGet, "/datasets/cases/values?column=Region", nil)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/datasets/agents/values", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPrepareCasesValidation(t *testing.T) {
	store := &fakeDatasets{}
	h := NewRouter(Deps{DatasetWriter: store})

	rec := do(t, h, http.MethodPost, "/datasets/cases/prepare", map[string]any{
		"rows": []map[string]any{{"Cus_Add": "Andheri"}}, "loan_column": "Loan Number",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, NewRouter(Deps{}), http.MethodPost, "/datasets/cases/prepare", map[string]any{
		"rows": []map[string]any{{"LoanNo/CC": "L1"}}, "store": true,
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, NewRouter(Deps{}), http.MethodGet, "/datasets/agents/columns", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestResolveAssignments(t *testing.T) {
	resolver := &fakeResolver{}
	body := map[string]any{
		"rows":        []map[string]any{{"Loan": "L1"}, {"Loan": "L2"}, {"Loan": "L1"}},
		"loan_column": "Loan",
	}
	resolve := func(h http.Handler, token string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req := httptest.NewRequest(http.MethodPost, "/assignments/resolve", &buf)
		if token != "" {
			req.Header.Set("X-Resolve-Token", token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := resolve(NewRouter(Deps{LoanResolver: resolver}), "secret")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h := NewRouter(Deps{LoanResolver: resolver, ResolveToken: "secret"})
	rec = resolve(h, "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = resolve(h, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, resolver.loans)

	rec = resolve(h, "secret")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	require.EqualValues(t, 2, out["processed_loan_numbers"])
	require.EqualValues(t, 2, out["matching_cases"])
	require.EqualValues(t, 1, out["updated_documents"])
	require.Equal(t, []string{"L1", "L2"}, resolver.loans)

	resolver.err = errors.New("connection reset")
	rec = resolve(h, "secret")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDistances(t *testing.T) {
	h := NewRouter(Deps{})

	rec := do(t, h, http.MethodPost, "/distances", map[string]any{"rows": []map[string]any{
		{"latitude": 19.0760, "longitude": 72.8777, "Fos_latitude": 18.5204, "Fos_longitude": 73.8567},
		{"latitude": "noGPS", "longitude": "noGPS", "Fos_latitude": 18.5204, "Fos_longitude": 73.8567},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Rows    []map[string]any `json:"rows"`
		Dropped int              `json:"dropped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Rows, 1)
	require.Equal(t, 1, res.Dropped)
	require.InDelta(t, 119.0, res.Rows[0]["Distance(KM)"], 2.0)

	rec = do(t, h, http.MethodPost, "/distances", map[string]any{"rows": []map[string]any{{"latitude": 1.0}}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeocode(t *testing.T) {
	rec := do(t, NewRouter(Deps{}), http.MethodPost, "/geocode", map[string]any{"rows": []any{}})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h := NewRouter(Deps{Geocoder: fakeGeocoder{"Andheri East": {Lat: 19.11, Lon: 72.86}}})

	rec = do(t, h, http.MethodPost, "/geocode", map[string]any{"rows": []map[string]any{
		{"LoanNo/CC": "L1", "Cus_Add": "  Andheri   East "},
		{"LoanNo/CC": "L2", "Cus_Add": "Nowhere"},
		{"LoanNo/CC": "L3", "Cus_Add": "Kothrud", "latitude": 18.5, "longitude": 73.8},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Rows     []map[string]any `json:"rows"`
		Resolved int              `json:"resolved"`
		NotFound int              `json:"not_found"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Rows, 3)
	require.Equal(t, 1, res.Resolved)
	require.Equal(t, 1, res.NotFound)
	require.InDelta(t, 19.11, res.Rows[0]["latitude"], 1e-9)
	require.Equal(t, "noGPS", res.Rows[1]["latitude"])
	require.InDelta(t, 18.5, res.Rows[2]["latitude"], 1e-9)
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewRouter(Deps{})

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
