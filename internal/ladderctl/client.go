// Package ladderctl is a command-line client for the ladder HTTP API.
package ladderctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/types"
)

// ErrAPI is returned for any non-success response.
var ErrAPI = errors.New("api error")

// APIError carries the decoded error body of a failed request.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v: %d", ErrAPI, e.Status)
	}
	return fmt.Sprintf("%v: %d %s: %s", ErrAPI, e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return ErrAPI }

// MatchRequest is the body of POST /matches.
type MatchRequest struct {
	RequestID string   `json:"request_id,omitempty"`
	Date      string   `json:"date,omitempty"`
	Kind      string   `json:"kind"`
	TeamA     []string `json:"team_a"`
	TeamB     []string `json:"team_b"`
	Winner    string   `json:"winner"`
	Score     string   `json:"score,omitempty"`
	Sets      string   `json:"sets,omitempty"`
}

// AdjustmentRequest is the body of POST /adjustments.
type AdjustmentRequest struct {
	RequestID string `json:"request_id,omitempty"`
	Date      string `json:"date,omitempty"`
	Player    string `json:"player"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason,omitempty"`
}

// PlayerRequest is the body of POST /players.
type PlayerRequest struct {
	RequestID      string `json:"request_id,omitempty"`
	Date           string `json:"date,omitempty"`
	Name           string `json:"name"`
	StartingRating int    `json:"starting_rating"`
}

// WriteResponse is returned by the write endpoints.
type WriteResponse struct {
	Status    string        `json:"status"`
	Duplicate bool          `json:"duplicate"`
	Record    *model.Record `json:"record,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client talks to a running ladder service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Ranking fetches GET /ranking.
func (c *Client) Ranking(ctx context.Context) (types.Ranking, error) {
	var out types.Ranking
	err := c.do(ctx, http.MethodGet, "/ranking", nil, &out)
	return out, err
}

// History fetches GET /history.
func (c *Client) History(ctx context.Context) ([]types.HistoryEntry, error) {
	var out []types.HistoryEntry
	err := c.do(ctx, http.MethodGet, "/history", nil, &out)
	return out, err
}

// Players fetches GET /players.
func (c *Client) Players(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/players", nil, &out)
	return out, err
}

// PostMatch records a match.
func (c *Client) PostMatch(ctx context.Context, req MatchRequest) (WriteResponse, error) {
	var out WriteResponse
	err := c.do(ctx, http.MethodPost, "/matches", req, &out)
	return out, err
}

// PostAdjustment records a manual correction.
func (c *Client) PostAdjustment(ctx context.Context, req AdjustmentRequest) (WriteResponse, error) {
	var out WriteResponse
	err := c.do(ctx, http.MethodPost, "/adjustments", req, &out)
	return out, err
}

// PostPlayer registers a new player.
func (c *Client) PostPlayer(ctx context.Context, req PlayerRequest) (WriteResponse, error) {
	var out WriteResponse
	err := c.do(ctx, http.MethodPost, "/players", req, &out)
	return out, err
}

// Delete removes the record at position.
func (c *Client) Delete(ctx context.Context, position int) error {
	return c.do(ctx, http.MethodDelete, "/history/"+strconv.Itoa(position), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var e errorResponse
		if json.Unmarshal(data, &e) == nil {
			apiErr.Code, apiErr.Message = e.Code, e.Message
		}
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
