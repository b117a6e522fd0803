package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

// TMDB is the external movie metadata lookup. The provider rate-limits
// requests; callers are expected to keep n_results small.
type TMDB interface {
	SearchMovies(ctx context.Context, query string) ([]TMDBSearchResult, error)
	MovieInfo(ctx context.Context, movieID int64) (map[string]any, error)
	MovieCredits(ctx context.Context, movieID int64) (map[string]any, error)
}

// TMDBSearchResult is one candidate work from a title search, ranked by the
// provider's own relevance ordering.
type TMDBSearchResult struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
}

type TMDBClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type TMDBOption func(*TMDBClient)

// WithTMDBBaseURL overrides the API endpoint, mainly for tests.
func WithTMDBBaseURL(baseURL string) TMDBOption {
	return func(c *TMDBClient) {
		c.baseURL = baseURL
	}
}

func NewTMDB(apiKey string, opts ...TMDBOption) *TMDBClient {
	c := &TMDBClient{
		apiKey:  apiKey,
		baseURL: tmdbBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *TMDBClient) SearchMovies(ctx context.Context, query string) ([]TMDBSearchResult, error) {
	var page struct {
		Results []TMDBSearchResult `json:"results"`
	}
	path := "/search/movie?query=" + url.QueryEscape(query)
	if err := c.get(ctx, path, &page); err != nil {
		return nil, goerr.Wrap(err, "failed to search movies", goerr.V("query", query))
	}
	return page.Results, nil
}

func (c *TMDBClient) MovieInfo(ctx context.Context, movieID int64) (map[string]any, error) {
	var info map[string]any
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", movieID), &info); err != nil {
		return nil, goerr.Wrap(err, "failed to get movie info", goerr.V("movie_id", movieID))
	}
	return info, nil
}

func (c *TMDBClient) MovieCredits(ctx context.Context, movieID int64) (map[string]any, error) {
	var credits map[string]any
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/credits", movieID), &credits); err != nil {
		return nil, goerr.Wrap(err, "failed to get movie credits", goerr.V("movie_id", movieID))
	}
	return credits, nil
}

func (c *TMDBClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to create request")
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return goerr.New("TMDB API returned error",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode response")
	}

	return nil
}
