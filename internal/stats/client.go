package stats

import (
	"context"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"afisha/internal/logger"
	"afisha/internal/models"
)

// statsEpoch is the lower bound for hit queries: all hits ever recorded.
var statsEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const eventPath = "/events/"

type Config struct {
	BaseURL string
	AppName string
	Timeout time.Duration
}

// Hit is the wire model for recording a page view.
type Hit struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

// HitCount is the wire model for aggregated view counts per URI.
type HitCount struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// Client talks to the external stat collector. It is a best-effort
// enrichment: every failure is logged and absorbed, reads degrade to zero
// views instead of propagating errors.
type Client struct {
	baseURL    string
	appName    string
	httpClient *http.Client
	cache      *ViewsCache
}

func NewClient(cfg Config, cache *ViewsCache) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		appName: cfg.AppName,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: cache,
	}
}

// RecordHit registers a page view. Fire-and-forget: errors never surface.
func (c *Client) RecordHit(ctx context.Context, uri, clientIP string) {
	hit := Hit{
		App:       c.appName,
		URI:       uri,
		IP:        clientIP,
		Timestamp: time.Now().Format(models.DateTimeLayout),
	}

	body, err := json.Marshal(hit)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to marshal stat hit", "error", err, "uri", uri)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		logger.WithContext(ctx).Error("Failed to build stat hit request", "error", err, "uri", uri)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to record stat hit", "error", err, "uri", uri)
		return
	}
	resp.Body.Close()
}

// Views returns view counts per event id. Missing events and any collaborator
// failure yield zero counts.
func (c *Client) Views(ctx context.Context, eventIDs []int64) map[int64]int64 {
	result := make(map[int64]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return result
	}

	missing := eventIDs
	if c.cache != nil {
		var cached map[int64]int64
		cached, missing = c.cache.Get(ctx, eventIDs)
		for id, views := range cached {
			result[id] = views
		}
	}

	if len(missing) == 0 {
		return result
	}

	queried, err := c.queryHits(ctx, missing)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to query view stats, defaulting to zero",
			"error", err, "events", len(missing))
		return result
	}

	for _, id := range missing {
		result[id] = queried[id]
	}
	if c.cache != nil {
		c.cache.Set(ctx, missing, queried)
	}

	return result
}

func (c *Client) queryHits(ctx context.Context, eventIDs []int64) (map[int64]int64, error) {
	uris := make([]string, len(eventIDs))
	for i, id := range eventIDs {
		uris[i] = eventPath + strconv.FormatInt(id, 10)
	}

	params := url.Values{}
	params.Set("start", statsEpoch.Format(models.DateTimeLayout))
	params.Set("end", time.Now().Format(models.DateTimeLayout))
	params.Set("unique", "false")
	params.Set("uris", strings.Join(uris, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stats request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var counts []HitCount
	if err := json.NewDecoder(resp.Body).Decode(&counts); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}

	result := make(map[int64]int64, len(counts))
	for _, count := range counts {
		if count.App != c.appName {
			continue
		}
		idStr := strings.TrimPrefix(count.URI, eventPath)
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		result[id] = count.Hits
	}

	return result, nil
}
