package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"neurostack/backend/config"
)

const maxSuggestions = 10

type rxCacheEntry struct {
	payload rxResponse
	fetched time.Time
}

type rxResponse struct {
	Suggestions []string `json:"suggestions"`
	TotalCount  int      `json:"totalCount"`
}

// rxCache is a read-through cache over the public drug-name lookup
// service, keyed by normalized query.
type rxCache struct {
	mu      sync.RWMutex
	entries map[string]rxCacheEntry
}

var drugNames = &rxCache{entries: make(map[string]rxCacheEntry)}

func (c *rxCache) get(key string, ttl time.Duration) (rxResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Since(e.fetched) > ttl {
		return rxResponse{}, false
	}
	return e.payload, true
}

func (c *rxCache) put(key string, payload rxResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Evict anything stale while we hold the lock; the map stays
	// bounded by one hour of distinct queries.
	for k, e := range c.entries {
		if time.Since(e.fetched) > config.C.RxTerms.CacheTTL {
			delete(c.entries, k)
		}
	}
	c.entries[key] = rxCacheEntry{payload: payload, fetched: time.Now()}
}

// RxTerms proxies drug-name autocomplete lookups. Queries shorter than
// two characters are rejected; results are capped and cached.
func RxTerms(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		writeError(w, http.StatusBadRequest, "Query must be at least 2 characters")
		return
	}

	key := strings.ToLower(query)
	if cached, ok := drugNames.get(key, config.C.RxTerms.CacheTTL); ok {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, cached)
		return
	}

	upstream := config.C.RxTerms.Upstream +
		"?terms=" + url.QueryEscape(query) + "&ef=DISPLAY_NAME"

	resp, err := http.Get(upstream)
	if err != nil {
		slog.Error("rxterms lookup failed", "source", "rxterms", "error", err.Error())
		writeError(w, http.StatusBadGateway, "Failed to fetch drug suggestions")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("rxterms upstream error", "source", "rxterms", "status", resp.StatusCode)
		writeError(w, http.StatusBadGateway, "Failed to fetch drug suggestions")
		return
	}

	// The upstream replies [totalCount, codes, extraFields, rawData]
	// where extraFields holds the DISPLAY_NAME list we asked for.
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil || len(raw) < 3 {
		slog.Error("rxterms malformed response", "source", "rxterms")
		writeError(w, http.StatusBadGateway, "Failed to fetch drug suggestions")
		return
	}

	var total int
	_ = json.Unmarshal(raw[0], &total)

	var extra map[string][]string
	_ = json.Unmarshal(raw[2], &extra)
	suggestions := extra["DISPLAY_NAME"]
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	payload := rxResponse{Suggestions: suggestions, TotalCount: total}
	drugNames.put(key, payload)

	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, payload)
}
