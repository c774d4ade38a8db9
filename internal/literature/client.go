// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package literature queries the bibliographic search API and formats the
// results as citation strings. One client instance owns the process-wide
// request gate and response cache shared by all concurrent pipeline runs.
// Implements: prd002-literature (R1-R5);
//
//	docs/ARCHITECTURE § Literature Client.
package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/pdiddy/draft-engine/internal/httputil"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// defaultAPIBase is the paper search endpoint used when the configuration
// does not override it.
const defaultAPIBase = "https://api.semanticscholar.org/graph/v1"

const searchFields = "title,year,authors,venue,citationCount,externalIds,url"

// KeyPapers groups search results into the three buckets the pipeline
// consumes: foundational (older, highly cited), recent, and high impact.
// Papers are deduplicated by external identity across buckets.
type KeyPapers struct {
	Foundational []types.LiteratureRecord
	Recent       []types.LiteratureRecord
	HighImpact   []types.LiteratureRecord
}

// All returns the buckets flattened in discovery order: foundational
// first, then recent, then high impact.
func (k KeyPapers) All() []types.LiteratureRecord {
	out := make([]types.LiteratureRecord, 0, len(k.Foundational)+len(k.Recent)+len(k.HighImpact))
	out = append(out, k.Foundational...)
	out = append(out, k.Recent...)
	out = append(out, k.HighImpact...)
	return out
}

// gate serializes outbound requests and enforces the minimum inter-request
// interval. The mutex is held for the whole wait so calls queue in arrival
// order.
type gate struct {
	mu       sync.Mutex
	next     time.Time
	interval time.Duration
}

func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if d := time.Until(g.next); d > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	g.next = time.Now().Add(g.interval)
	return nil
}

type cacheEntry struct {
	records []types.LiteratureRecord
	expires time.Time
}

// Client is the rate-limited, cached literature search client. Construct
// one per process; its cache keys are a full function of the request
// parameters, so sharing across runs is safe.
type Client struct {
	cfg    types.LiteratureConfig
	client *http.Client
	policy httputil.Policy
	log    zerolog.Logger

	gate gate

	cacheMu sync.Mutex
	cache   map[string]cacheEntry
}

// retryBaseDelay is the base duration for search backoff. Tests override
// this to avoid real sleeps.
var retryBaseDelay = time.Second

// NewClient builds a literature client from configuration. Zero-valued
// settings receive defaults: 30s timeout, 1s minimum interval, 10m cache
// TTL, 3 retries.
func NewClient(cfg types.LiteratureConfig, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	} else if cfg.MinInterval == 0 {
		cfg.MinInterval = time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIBase
	}
	policy := httputil.DefaultPolicy(cfg.MaxRetries + 1)
	policy.BaseDelay = retryBaseDelay
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		policy: policy,
		log:    log.With().Str("component", "literature").Logger(),
		gate:   gate{interval: cfg.MinInterval},
		cache:  make(map[string]cacheEntry),
	}
}

// searchQuery holds the parameters of one search call; its encoded form is
// the cache key.
type searchQuery struct {
	topic string
	limit int
	years string
	sort  string
}

func (q searchQuery) signature() string {
	return fmt.Sprintf("q=%s|n=%d|y=%s|s=%s", q.topic, q.limit, q.years, q.sort)
}

// ExtractKeyPapers searches the topic and returns three deduplicated
// buckets: foundational (published five or more years ago, sorted by
// citations), recent (last three years), and high impact (all-time, sorted
// by citations). Each bucket is capped at count entries. A missing API key
// is a configuration error and is never retried. In mock mode the call
// returns count synthetic records without touching the network.
func (c *Client) ExtractKeyPapers(ctx context.Context, topic string, count int) (KeyPapers, error) {
	if strings.TrimSpace(topic) == "" {
		return KeyPapers{}, fmt.Errorf("literature topic is empty")
	}
	if count <= 0 {
		return KeyPapers{}, nil
	}
	if c.cfg.MockMode {
		records := make([]types.LiteratureRecord, count)
		for i := range records {
			records[i] = Placeholder(i+1, topic)
		}
		return KeyPapers{Foundational: records}, nil
	}
	if c.cfg.APIKey == "" {
		return KeyPapers{}, fmt.Errorf("literature API key not configured: add literature-api-key to .secrets/")
	}

	year := time.Now().Year()
	queries := []struct {
		bucket string
		query  searchQuery
	}{
		{"foundational", searchQuery{topic: topic, limit: count, years: fmt.Sprintf("-%d", year-5), sort: "citationCount:desc"}},
		{"recent", searchQuery{topic: topic, limit: count, years: fmt.Sprintf("%d-", year-3)}},
		{"high_impact", searchQuery{topic: topic, limit: count, sort: "citationCount:desc"}},
	}

	var papers KeyPapers
	seen := make(map[string]bool)

	for _, q := range queries {
		records, err := c.search(ctx, q.query)
		if err != nil {
			return KeyPapers{}, fmt.Errorf("searching %s papers: %w", q.bucket, err)
		}

		var kept []types.LiteratureRecord
		for _, r := range records {
			key := dedupKey(r)
			if key != "" && seen[key] {
				continue
			}
			if key != "" {
				seen[key] = true
			}
			kept = append(kept, r)
		}

		switch q.bucket {
		case "foundational":
			papers.Foundational = kept
		case "recent":
			papers.Recent = kept
		default:
			papers.HighImpact = kept
		}
	}

	c.log.Debug().Str("topic", topic).
		Int("foundational", len(papers.Foundational)).
		Int("recent", len(papers.Recent)).
		Int("high_impact", len(papers.HighImpact)).
		Msg("key papers extracted")

	return papers, nil
}

// search performs one cached, rate-limited, retried search call.
func (c *Client) search(ctx context.Context, q searchQuery) ([]types.LiteratureRecord, error) {
	key := q.signature()

	c.cacheMu.Lock()
	if entry, ok := c.cache[key]; ok && time.Now().Before(entry.expires) {
		c.cacheMu.Unlock()
		return entry.records, nil
	}
	c.cacheMu.Unlock()

	if err := c.gate.wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"query":  {q.topic},
		"limit":  {fmt.Sprintf("%d", q.limit)},
		"fields": {searchFields},
	}
	if q.years != "" {
		params.Set("year", q.years)
	}
	if q.sort != "" {
		params.Set("sort", q.sort)
	}

	reqURL := c.cfg.BaseURL + "/paper/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.policy)
	if err != nil {
		return nil, fmt.Errorf("literature API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("literature API returned HTTP %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing literature response: %w", err)
	}

	records := make([]types.LiteratureRecord, 0, len(sr.Data))
	for _, p := range sr.Data {
		r := types.LiteratureRecord{
			ID:            p.PaperID,
			Title:         p.Title,
			Year:          p.Year,
			Venue:         p.Venue,
			CitationCount: p.CitationCount,
			DOI:           p.ExternalIDs.DOI,
			URL:           p.URL,
		}
		for _, a := range p.Authors {
			r.Authors = append(r.Authors, a.Name)
		}
		if r.ID == "" {
			r.ID = r.DOI
		}
		records = append(records, r)
	}

	c.cacheMu.Lock()
	c.cache[key] = cacheEntry{records: records, expires: time.Now().Add(c.cfg.CacheTTL)}
	c.cacheMu.Unlock()

	return records, nil
}

// dedupKey identifies a record for cross-bucket deduplication. It prefers
// the external identifier and falls back to the normalized title; records
// with neither get an empty key and are never collapsed.
func dedupKey(r types.LiteratureRecord) string {
	if r.ID != "" {
		return "id:" + r.ID
	}
	if title := normalizeTitle(r.Title); title != "" {
		return "title:" + title
	}
	return ""
}

func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Placeholder returns the synthetic record used to pad insufficient search
// results so the requested reference count is always met.
func Placeholder(n int, topic string) types.LiteratureRecord {
	return types.LiteratureRecord{
		ID:      fmt.Sprintf("placeholder-%d", n),
		Title:   fmt.Sprintf("Forthcoming work on %s (%d)", topic, n),
		Year:    time.Now().Year(),
		Authors: []string{"Unattributed"},
		Venue:   "Unpublished manuscript",
	}
}

// Literature search API JSON structures.
type searchResponse struct {
	Total int           `json:"total"`
	Data  []searchPaper `json:"data"`
}

type searchPaper struct {
	PaperID       string         `json:"paperId"`
	Title         string         `json:"title"`
	Year          int            `json:"year"`
	Venue         string         `json:"venue"`
	CitationCount int            `json:"citationCount"`
	URL           string         `json:"url"`
	Authors       []searchAuthor `json:"authors"`
	ExternalIDs   searchIDs      `json:"externalIds"`
}

type searchAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type searchIDs struct {
	DOI string `json:"DOI"`
}
