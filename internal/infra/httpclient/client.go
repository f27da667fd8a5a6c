package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/symptom-check/internal/domain/symptoms"
)

const (
	analyzePath    = "/analyze-symptom"
	defaultMessage = "Failed to analyze symptom"
	maxBody        = 64 << 10
)

type request struct {
	SymptomText string `json:"symptomText"`
	BodyArea    string `json:"bodyArea,omitempty"`
	Duration    string `json:"duration,omitempty"`
	AgeRange    string `json:"ageRange,omitempty"`
}

// Client calls a remote symptom-check API. It satisfies intake.Analyzer.
type Client struct {
	endpoint string
	http     *http.Client
}

func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: timeout},
	}
}

// Analyze posts the query and decodes the analysis. Any error body the
// server sends, even on 200, becomes the returned error message verbatim.
func (c *Client) Analyze(ctx context.Context, q symptoms.Query) (symptoms.Analysis, error) {
	payload, err := json.Marshal(request{
		SymptomText: q.Text,
		BodyArea:    q.BodyArea,
		Duration:    q.Duration,
		AgeRange:    q.AgeRange,
	})
	if err != nil {
		return symptoms.Analysis{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+analyzePath, bytes.NewReader(payload))
	if err != nil {
		return symptoms.Analysis{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return symptoms.Analysis{}, errors.New(defaultMessage)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return symptoms.Analysis{}, errors.New(defaultMessage)
	}

	var e struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &e)
	if e.Error != "" {
		return symptoms.Analysis{}, errors.New(e.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return symptoms.Analysis{}, errors.New(defaultMessage)
	}

	var a symptoms.Analysis
	if err := json.Unmarshal(body, &a); err != nil {
		return symptoms.Analysis{}, errors.New(defaultMessage)
	}
	return a, nil
}
