package services

import (
	"fmt"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/geo"
	"maps"
)

const (
	ColAgentLatitude  = "Fos_latitude"
	ColAgentLongitude = "Fos_longitude"
)

// PairDistanceColumns must all be present for CalculatePairDistances.
var PairDistanceColumns = []string{ColLatitude, ColLongitude, ColAgentLatitude, ColAgentLongitude}

// CalculatePairDistances adds Distance(KM) to rows that pair a case location
// with an agent location. Rows with a non-numeric coordinate are dropped;
// the number dropped is returned alongside the rows.
func CalculatePairDistances(rows []domain.Row) ([]domain.Row, int, error) {
	missing := make([]string, 0)
	for _, col := range PairDistanceColumns {
		if !HasColumn(rows, col) {
			missing = append(missing, col)
		}
	}
	if len(rows) > 0 && len(missing) > 0 {
		return nil, 0, fmt.Errorf("calculate distances: %w",
			domain.Invalidf("missing required columns: %v", missing))
	}

	out := make([]domain.Row, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		vals := make([]float64, len(PairDistanceColumns))
		ok := true
		for i, col := range PairDistanceColumns {
			if vals[i], ok = ToFloat(r[col]); !ok {
				break
			}
		}
		if !ok {
			dropped++
			continue
		}

		caseLoc := domain.Coordinates{Lat: vals[0], Lon: vals[1]}
		agentLoc := domain.Coordinates{Lat: vals[2], Lon: vals[3]}

		row := maps.Clone(r)
		for i, col := range PairDistanceColumns {
			row[col] = vals[i]
		}
		row[ColDistanceKm] = geo.RoundKm(geo.Haversine(caseLoc, agentLoc))
		out = append(out, row)
	}

	return out, dropped, nil
}
