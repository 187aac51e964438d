package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrModelUnavailable signals that the inference endpoint cannot serve
// requests right now (cold start or throttling). The caller cools down
// and retries the same batch.
var ErrModelUnavailable = errors.New("model endpoint unavailable")

// Prediction is the top-ranked label for one input sentence
type Prediction struct {
	Label int
	Score float64
}

type rankedLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type inferenceRequest struct {
	Inputs  []string         `json:"inputs"`
	Options inferenceOptions `json:"options"`
}

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Client calls a hosted text-classification endpoint. One request
// carries a batch of sentences, the response ranks every label per
// sentence and only the top one is kept.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

func NewClient(endpoint, token string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		token:      token,
	}
}

func (c *Client) Predict(ctx context.Context, inputs []string) ([]Prediction, error) {
	payload, err := json.Marshal(inferenceRequest{
		Inputs:  inputs,
		Options: inferenceOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call model endpoint: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("predict: %w", ErrModelUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("predict: unexpected status %d", resp.StatusCode)
	}

	var rankings [][]rankedLabel
	if err := json.NewDecoder(resp.Body).Decode(&rankings); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(rankings) != len(inputs) {
		return nil, fmt.Errorf("predict: expected %d results, got %d", len(inputs), len(rankings))
	}

	predictions := make([]Prediction, 0, len(rankings))
	for i, ranked := range rankings {
		if len(ranked) == 0 {
			return nil, fmt.Errorf("predict: empty ranking for input %d", i)
		}
		label, err := parseLabel(ranked[0].Label)
		if err != nil {
			return nil, fmt.Errorf("predict: %w", err)
		}
		predictions = append(predictions, Prediction{Label: label, Score: ranked[0].Score})
	}

	return predictions, nil
}

// parseLabel accepts both bare numeric labels ("3") and the
// "LABEL_3" form used by hosted classification models
func parseLabel(raw string) (int, error) {
	trimmed := strings.TrimPrefix(raw, "LABEL_")
	label, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("unparseable label %q", raw)
	}
	return label, nil
}
