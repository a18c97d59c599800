package services

import (
	"context"
	"errors"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/ports"
	"testing"
)

type stubGeocoder struct {
	known     map[string]domain.Coordinates
	exhaustAt int
	calls     []string
}

func (g *stubGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	g.calls = append(g.calls, address)
	if g.exhaustAt > 0 && len(g.calls) >= g.exhaustAt {
		return domain.Coordinates{}, ports.ErrGeocoderExhausted
	}
	c, ok := g.known[address]
	if !ok {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}
	return c, nil
}

type memoryGeocodeCache struct {
	m    map[string]domain.Coordinates
	puts int
}

func (c *memoryGeocodeCache) GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	out := map[string]domain.Coordinates{}
	for _, a := range addresses {
		if v, ok := c.m[a]; ok {
			out[a] = v
		}
	}
	return out, nil
}

func (c *memoryGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	c.puts++
	for k, v := range results {
		c.m[k] = v
	}
	return nil
}

func TestGeocodeRows(t *testing.T) {
	geocoder := &stubGeocoder{known: map[string]domain.Coordinates{
		"12 MG Road, Pune": {Lat: 18.52, Lon: 73.85},
	}}
	cache := &memoryGeocodeCache{m: map[string]domain.Coordinates{
		"Andheri East, Mumbai": {Lat: 19.11, Lon: 72.86},
	}}

	rows := []domain.Row{
		{"Cus_Add": "Andheri   East, Mumbai"},
		{"Cus_Add": "12 MG Road, Pune", "latitude": nil},
		{"Cus_Add": "12 MG Road,  Pune"},
		{"Cus_Add": "Nowhere"},
		{"Cus_Add": "Colaba", "latitude": 18.9, "longitude": "72.8"},
	}

	out, stats, err := GeocodeRows(context.Background(), rows, geocoder, cache)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Requested != 3 || stats.FromCache != 1 || stats.Resolved != 1 || stats.NotFound != 1 || stats.Exhausted {
		t.Fatalf("stats = %+v", stats)
	}
	if len(geocoder.calls) != 2 {
		t.Fatalf("geocoder calls = %v, want one per uncached address", geocoder.calls)
	}

	if out[0]["latitude"] != 19.11 || out[1]["longitude"] != 73.85 || out[2]["latitude"] != 18.52 {
		t.Fatalf("resolved rows = %v", out[:3])
	}
	if out[3]["latitude"] != NoGPS || out[3]["longitude"] != NoGPS {
		t.Fatalf("unmatched row = %v, want noGPS", out[3])
	}
	if out[4]["longitude"] != 72.8 {
		t.Fatalf("existing coordinates should be kept, got %v", out[4])
	}

	if cache.puts != 1 || cache.m["12 MG Road, Pune"].Lat != 18.52 {
		t.Fatalf("fresh lookups should be cached: %+v", cache.m)
	}
	if _, ok := rows[0]["latitude"]; ok {
		t.Fatal("input rows must not be modified")
	}
}

func TestGeocodeRowsStopsWhenKeysExhausted(t *testing.T) {
	geocoder := &stubGeocoder{
		known:     map[string]domain.Coordinates{"A": {Lat: 1, Lon: 1}, "B": {Lat: 2, Lon: 2}},
		exhaustAt: 2,
	}
	rows := []domain.Row{{"Cus_Add": "A"}, {"Cus_Add": "B"}, {"Cus_Add": "C"}}

	out, stats, err := GeocodeRows(context.Background(), rows, geocoder, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stats.Exhausted || stats.Resolved != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(geocoder.calls) != 2 {
		t.Fatalf("calls = %v, want lookups to stop after exhaustion", geocoder.calls)
	}
	if out[0]["latitude"] != 1.0 || out[1]["latitude"] != NoGPS || out[2]["latitude"] != NoGPS {
		t.Fatalf("rows = %v", out)
	}
}

func TestGeocodeRowsRequiresAddressColumn(t *testing.T) {
	_, _, err := GeocodeRows(context.Background(), []domain.Row{{"latitude": 1.0}}, &stubGeocoder{}, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}
