package services

import (
	"context"
	"errors"
	"fmt"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/platform/metrics"
	"fos-allocation-service/internal/platform/obs"
	"fos-allocation-service/internal/ports"
	"log"
	"maps"
	"strings"
)

// NoGPS marks a coordinate that could not be resolved.
const NoGPS = "noGPS"

type GeocodeStats struct {
	Requested int
	FromCache int
	Resolved  int
	NotFound  int
	Exhausted bool
}

// NormalizeAddress collapses whitespace so equivalent addresses share a cache key.
func NormalizeAddress(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// GeocodeRows fills latitude/longitude for rows that lack numeric
// coordinates, looking up Cus_Add in cache first and then via geocoder.
//
// Lookups stop when the geocoder reports that every API key is exhausted;
// rows left without coordinates, and addresses with no match, get NoGPS.
// cache may be nil.
func GeocodeRows(
	ctx context.Context,
	rows []domain.Row,
	geocoder ports.Geocoder,
	cache ports.GeocodeCache,
) (_ []domain.Row, _ GeocodeStats, err error) {
	defer obs.Time(ctx, "geocode.rows")(&err)

	var stats GeocodeStats
	if len(rows) > 0 && !HasColumn(rows, ColAddress) {
		return nil, stats, fmt.Errorf("geocode rows: %w", domain.Invalidf("column %q not found", ColAddress))
	}

	out := make([]domain.Row, 0, len(rows))
	pending := make(map[int]string)
	uniq := make([]string, 0)
	seen := make(map[string]struct{})
	for i, r := range rows {
		row := maps.Clone(r)
		out = append(out, row)

		if _, ok := rowCoordinates(row); ok {
			continue
		}
		addr := NormalizeAddress(FormatValue(row[ColAddress]))
		if addr == "" {
			continue
		}
		pending[i] = addr
		if _, ok := seen[addr]; !ok {
			seen[addr] = struct{}{}
			uniq = append(uniq, addr)
		}
	}
	stats.Requested = len(uniq)

	resolved := make(map[string]domain.Coordinates, len(uniq))
	if cache != nil && len(uniq) > 0 {
		hits, err := cache.GetMany(ctx, uniq)
		if err != nil {
			return nil, stats, fmt.Errorf("geocode rows: get geocode cache: %w", err)
		}
		maps.Copy(resolved, hits)
		stats.FromCache = len(hits)
	}

	fresh := make(map[string]domain.Coordinates)
	for _, addr := range uniq {
		if _, ok := resolved[addr]; ok {
			continue
		}

		c, err := geocoder.Geocode(ctx, addr)
		if errors.Is(err, ports.ErrAddressNotFound) {
			stats.NotFound++
			continue
		}
		if errors.Is(err, ports.ErrGeocoderExhausted) {
			log.Printf("req_id=%s geocoding stopped: %v", obs.RequestID(ctx), err)
			stats.Exhausted = true
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("geocode rows: geocode %q: %w", addr, err)
		}

		fresh[addr] = c
		resolved[addr] = c
		stats.Resolved++
	}

	if cache != nil && len(fresh) > 0 {
		if err := cache.PutMany(ctx, fresh); err != nil {
			log.Printf("req_id=%s geocode cache write failed: %v", obs.RequestID(ctx), err)
		}
	}

	metrics.ObserveGeocode("cache", stats.FromCache)
	metrics.ObserveGeocode("api", stats.Resolved)
	metrics.ObserveGeocode("not_found", stats.NotFound)

	for i, row := range out {
		if loc, ok := rowCoordinates(row); ok {
			row[ColLatitude] = loc.Lat
			row[ColLongitude] = loc.Lon
			continue
		}
		if c, ok := resolved[pending[i]]; ok && pending[i] != "" {
			row[ColLatitude] = c.Lat
			row[ColLongitude] = c.Lon
			continue
		}
		row[ColLatitude] = NoGPS
		row[ColLongitude] = NoGPS
	}

	return out, stats, nil
}
