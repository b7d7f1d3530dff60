// Package client calls the prediction service the way the dashboard does:
// one synchronous POST per record with a bounded wait.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/personnel-insights/internal/domain/personnel"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds one Predict call.
const DefaultTimeout = 10 * time.Second

// Responses larger than this are not read.
const maxResponseBytes = 1 << 20

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// Client talks to one prediction service.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// New creates a client for the service at baseURL, e.g. "http://127.0.0.1:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type predictResponse struct {
	LeadershipPotential string  `json:"leadership_potential"`
	AttritionRisk       string  `json:"attrition_risk"`
	Error               *string `json:"error"`
}

// Predict posts rec to /predict. Transport failures and timeouts wrap
// ErrConnectivity; error payloads come back as *RemoteError.
func (c *Client) Predict(ctx context.Context, rec personnel.Record) (personnel.Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(rec)
	if err != nil {
		return personnel.Prediction{}, fmt.Errorf("failed to marshal record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return personnel.Prediction{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return personnel.Prediction{}, fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return personnel.Prediction{}, fmt.Errorf("%w: %w", ErrConnectivity, err)
	}

	var out predictResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return personnel.Prediction{}, fmt.Errorf("%w: status %d: %w", ErrUnexpectedResponse, resp.StatusCode, err)
	}
	if out.Error != nil {
		return personnel.Prediction{}, &RemoteError{Status: resp.StatusCode, Message: *out.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return personnel.Prediction{}, &RemoteError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if out.LeadershipPotential == "" || out.AttritionRisk == "" {
		return personnel.Prediction{}, fmt.Errorf("%w: missing labels", ErrUnexpectedResponse)
	}
	return personnel.Prediction{
		LeadershipPotential: out.LeadershipPotential,
		AttritionRisk:       out.AttritionRisk,
	}, nil
}

// Result pairs one input record with its outcome.
type Result struct {
	Record     personnel.Record
	Prediction personnel.Prediction
	Err        error
}

// PredictMany predicts every record with at most workers calls in flight.
// Results are index-aligned with recs; a failed record does not stop the others.
func (c *Client) PredictMany(ctx context.Context, recs []personnel.Record, workers int) []Result {
	if workers < 1 {
		workers = 1
	}
	results := make([]Result, len(recs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, rec := range recs {
		g.Go(func() error {
			pred, err := c.Predict(ctx, rec)
			results[i] = Result{Record: rec, Prediction: pred, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
