package services

import (
	"cmp"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/geo"
	"slices"
)

// DistanceMatrix is a dense cases x agents table of haversine distances in km.
// It is computed eagerly because both assignment phases re-scan it.
type DistanceMatrix struct {
	rows int
	cols int
	km   []float64
}

// BuildDistanceMatrix computes entry (i, j) = Haversine(cases[i], agents[j]).
func BuildDistanceMatrix(cases []domain.Case, agents []domain.Agent) *DistanceMatrix {
	m := &DistanceMatrix{
		rows: len(cases),
		cols: len(agents),
		km:   make([]float64, len(cases)*len(agents)),
	}

	for i, c := range cases {
		row := m.km[i*m.cols : (i+1)*m.cols]
		for j, a := range agents {
			row[j] = geo.Haversine(c.Location, a.Location)
		}
	}

	return m
}

func (m *DistanceMatrix) Rows() int { return m.rows }
func (m *DistanceMatrix) Cols() int { return m.cols }

// At returns the distance between case i and agent j.
func (m *DistanceMatrix) At(i, j int) float64 { return m.km[i*m.cols+j] }

// Row returns a copy of the distances from case i to every agent.
func (m *DistanceMatrix) Row(i int) []float64 {
	return slices.Clone(m.km[i*m.cols : (i+1)*m.cols])
}

// NearestAgents returns agent indices for case i ordered by ascending distance.
// Equal distances keep the agents' input order.
func (m *DistanceMatrix) NearestAgents(i int) []int {
	row := m.km[i*m.cols : (i+1)*m.cols]

	order := make([]int, m.cols)
	for j := range order {
		order[j] = j
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(row[a], row[b])
	})

	return order
}
