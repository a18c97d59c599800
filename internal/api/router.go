package api

import (
	"fos-allocation-service/internal/api/handlers"
	"fos-allocation-service/internal/ports"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the adapters the HTTP layer needs. Any of the stores and the
// geocoder may be nil; the endpoints that need them then answer 503.
type Deps struct {
	Datasets        ports.DatasetRepository
	DatasetWriter   ports.DatasetWriter
	Assignments     ports.AssignmentStore
	LoanResolver    ports.LoanResolver
	ResolveToken    string
	Geocoder        ports.Geocoder
	GeocodeCache    ports.GeocodeCache
	DefaultMaxCases int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	allocHandler := &handlers.AllocationHandler{
		Datasets:        deps.Datasets,
		DefaultMaxCases: deps.DefaultMaxCases,
	}
	assignmentHandler := &handlers.AssignmentHandler{
		Store:        deps.Assignments,
		Resolver:     deps.LoanResolver,
		ResolveToken: deps.ResolveToken,
	}
	datasetHandler := &handlers.DatasetHandler{Repo: deps.Datasets, Store: deps.DatasetWriter}
	geocodeHandler := &handlers.GeocodeHandler{Geocoder: deps.Geocoder, Cache: deps.GeocodeCache}

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/allocations", allocHandler.Allocate)
	mux.HandleFunc("/allocations/stored", allocHandler.AllocateStored)
	mux.HandleFunc("/assignments", assignmentHandler.Commit)
	mux.HandleFunc("/assignments/resolve", assignmentHandler.Resolve)
	mux.HandleFunc("/datasets/agents", datasetHandler.ReplaceAgents)
	mux.HandleFunc("/datasets/agents/columns", datasetHandler.AgentColumns)
	mux.HandleFunc("/datasets/agents/values", datasetHandler.AgentColumnValues)
	mux.HandleFunc("/datasets/cases", datasetHandler.ReplaceCases)
	mux.HandleFunc("/datasets/cases/columns", datasetHandler.CaseColumns)
	mux.HandleFunc("/datasets/cases/values", datasetHandler.CaseColumnValues)
	mux.HandleFunc("/datasets/cases/prepare", datasetHandler.PrepareCases)
	mux.HandleFunc("/distances", handlers.Distances)
	mux.HandleFunc("/geocode", geocodeHandler.Geocode)

	return requestIDMiddleware(loggingMiddleware(mux))
}
