package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"riddleme-service/internal/domain"
)

// Client talks to the riddle API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates an API client for baseURL (e.g. http://localhost:8080).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response carrying the server's {error, message} body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps well-known statuses back onto domain errors.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return domain.ErrValidation
	case http.StatusNotFound:
		if e.Code == "player_not_found" {
			return domain.ErrPlayerNotFound
		}
		return domain.ErrRiddleNotFound
	case http.StatusServiceUnavailable:
		return domain.ErrGenerationUnavailable
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	}
	return nil
}

// AnswerRequest mirrors the POST /api/riddle/answer body.
type AnswerRequest struct {
	Username      string `json:"username"`
	Answer        string `json:"answer"`
	RiddleID      int64  `json:"riddleId"`
	HintsUsed     int    `json:"hintsUsed"`
	CurrentPoints int    `json:"currentPoints"`
}

type skipRequest struct {
	Username string `json:"username"`
	RiddleID int64  `json:"riddleId"`
}

type riddleEnvelope struct {
	Message string              `json:"message"`
	Riddle  domain.PublicRiddle `json:"riddle"`
}

func (c *Client) Current(ctx context.Context) (domain.PublicRiddle, error) {
	var out domain.PublicRiddle
	err := c.do(ctx, http.MethodGet, "/api/riddle/current", nil, &out)
	return out, err
}

func (c *Client) Answer(ctx context.Context, req AnswerRequest) (domain.AnswerResult, error) {
	var out domain.AnswerResult
	err := c.do(ctx, http.MethodPost, "/api/riddle/answer", req, &out)
	return out, err
}

// Skip abandons riddleID and returns the riddle now in play.
func (c *Client) Skip(ctx context.Context, username string, riddleID int64) (domain.PublicRiddle, error) {
	var out riddleEnvelope
	err := c.do(ctx, http.MethodPost, "/api/riddle/skip", skipRequest{Username: username, RiddleID: riddleID}, &out)
	return out.Riddle, err
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	path := "/api/leaderboard"
	if limit > 0 {
		path += "?" + url.Values{"limit": {fmt.Sprint(limit)}}.Encode()
	}
	var out []domain.LeaderboardEntry
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
			apiErr.Code, apiErr.Message = eb.Error, eb.Message
		} else {
			apiErr.Message = resp.Status
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
