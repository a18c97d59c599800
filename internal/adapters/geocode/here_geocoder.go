package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/platform/obs"
	"fos-allocation-service/internal/ports"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

const DefaultHereBaseURL = "https://geocode.search.hereapi.com"

// HereGeocoder implements ports.Geocoder with the HERE geocoding API.
//
// Several API keys may be configured. A key that is rate limited or keeps
// failing is parked for keyCooldown and the next key is tried; when no key
// is usable Geocode returns ports.ErrGeocoderExhausted.
//
// The geocoder is safe for concurrent use.
type HereGeocoder struct {
	session     *http.Client
	baseURL     string
	keys        []string
	keyCooldown time.Duration
	backoff     time.Duration
	maxAttempts int
	now         func() time.Time

	mu          sync.Mutex
	parkedUntil map[string]time.Time
}

type hereResponse struct {
	Items []struct {
		Position struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"position"`
	} `json:"items"`
}

func NewHereGeocoder(apiKeys []string, baseURL string) (*HereGeocoder, error) {
	keys := make([]string, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, errors.New("here geocoder: no api keys configured")
	}
	if baseURL == "" {
		baseURL = DefaultHereBaseURL
	}

	return &HereGeocoder{
		session:     &http.Client{Timeout: 10 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		keys:        keys,
		keyCooldown: time.Hour,
		backoff:     200 * time.Millisecond,
		maxAttempts: 4,
		now:         time.Now,
		parkedUntil: make(map[string]time.Time),
	}, nil
}

// Geocode resolves address with the first usable key.
func (h *HereGeocoder) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "here.Geocode")(&err)

	address = strings.Join(strings.Fields(address), " ")
	if address == "" {
		return domain.Coordinates{}, errors.New("here geocode: address must be non-empty")
	}

	for _, key := range h.usableKeys() {
		c, err := h.lookup(ctx, key, address)
		if err == nil || errors.Is(err, ports.ErrAddressNotFound) {
			return c, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Coordinates{}, ctxErr
		}

		log.Printf("req_id=%s here geocode key=%s failed, trying next key: %v", obs.RequestID(ctx), maskKey(key), err)
		h.park(key)
	}

	return domain.Coordinates{}, ports.ErrGeocoderExhausted
}

func (h *HereGeocoder) usableKeys() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	out := make([]string, 0, len(h.keys))
	for _, k := range h.keys {
		if until, ok := h.parkedUntil[k]; ok && now.Before(until) {
			continue
		}
		out = append(out, k)
	}
	return out
}

func (h *HereGeocoder) park(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.parkedUntil[key] = h.now().Add(h.keyCooldown)
}

func (h *HereGeocoder) lookup(ctx context.Context, key, address string) (domain.Coordinates, error) {
	endpoint := h.baseURL + "/v1/geocode"

	resp, err := h.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("q", address)
		q.Set("apiKey", key)
		req.URL.RawQuery = q.Encode()
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded hereResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Items) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no geocode results for %q: %w", address, ports.ErrAddressNotFound)
	}

	pos := decoded.Items[0].Position
	return domain.Coordinates{Lat: pos.Lat, Lon: pos.Lng}, nil
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
