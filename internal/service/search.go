package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"studyhall/internal/config"
	"studyhall/internal/engine"
)

// SearchService is the external answer-lookup gateway with a TTL cache in
// front of it. It implements engine.Searcher.
type SearchService struct {
	config *config.SearchConfig
	client *http.Client
	cache  *gocache.Cache
}

// NewSearchService creates a new search gateway
func NewSearchService() *SearchService {
	cfg := config.DefaultSearchConfig()
	ttl := time.Duration(cfg.CacheTTLMS) * time.Millisecond
	return &SearchService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Search answers a query through the lookup API. Repeated queries inside
// the TTL are served from cache and flagged as such.
func (s *SearchService) Search(ctx context.Context, query, contextSummary, userID string) (*engine.SearchResult, error) {
	if !s.config.IsEnabled() {
		return nil, nil
	}

	key := strings.ToLower(strings.TrimSpace(query))
	if cached, found := s.cache.Get(key); found {
		result := cached.(engine.SearchResult)
		result.FromCache = true
		return &result, nil
	}

	answer, err := s.callSearchAPI(ctx, query, contextSummary, userID)
	if err != nil {
		return nil, err
	}

	result := engine.SearchResult{
		Answer:    answer,
		Timestamp: time.Now(),
	}
	s.cache.Set(key, result, gocache.DefaultExpiration)
	return &result, nil
}

func (s *SearchService) callSearchAPI(ctx context.Context, query, contextSummary, userID string) (string, error) {
	reqURL := fmt.Sprintf("%s/answer?q=%s&context=%s&user=%s",
		s.config.BaseURL,
		url.QueryEscape(query),
		url.QueryEscape(contextSummary),
		url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", err
	}
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search API returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var searchResp struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return "", err
	}
	if searchResp.Answer == "" {
		return "", fmt.Errorf("empty answer from search API")
	}
	return searchResp.Answer, nil
}
