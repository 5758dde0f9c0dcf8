package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"auction-analyzer/backend/pkg/models"
)

// NaverNewsClient searches the Naver news API.
type NaverNewsClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	client       *http.Client
}

// NewNaverNewsClient creates a new NaverNewsClient.
func NewNaverNewsClient(baseURL, clientID, clientSecret string) *NaverNewsClient {
	return &NaverNewsClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

// Search returns up to display articles for query, newest first.
func (c *NaverNewsClient) Search(ctx context.Context, query string, display int) ([]models.RawNews, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("display", strconv.Itoa(display))
	q.Set("sort", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/search/news.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to search news: status code %d", resp.StatusCode)
	}

	var body struct {
		Items []models.RawNews `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	return body.Items, nil
}
