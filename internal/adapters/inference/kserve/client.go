// Package kserve implements classifier.Classifier over the KServe V2 (Open
// Inference Protocol) REST API, for models served out of process.
package kserve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/okian/personnel-insights/internal/domain/encoding"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultInputName = "input0"
	maxErrorBody     = 4 << 10
)

// Sentinel error kinds for this package.
var (
	ErrRequest  = errors.New("kserve request failed")
	ErrResponse = errors.New("kserve response invalid")
	ErrNotReady = errors.New("kserve model not ready")
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each HTTP call. It applies through the request
// context, so it also holds for a client set with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithVersion pins a model version (adds /versions/{v} to the path).
func WithVersion(version string) Option {
	return func(c *Client) { c.version = version }
}

// WithInputName overrides the input tensor name.
func WithInputName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.inputName = name
		}
	}
}

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// Client classifies vectors with a remote model.
type Client struct {
	endpoint   string
	model      string
	version    string
	inputName  string
	schema     *encoding.Schema
	timeout    time.Duration
	httpClient *http.Client
}

// New builds a client for the model called name at endpoint (e.g.
// "http://localhost:8000"). Vectors must belong to schema.
func New(endpoint, name string, schema *encoding.Schema, opts ...Option) *Client {
	c := &Client{
		endpoint:  strings.TrimRight(endpoint, "/"),
		model:     name,
		inputName: defaultInputName,
		schema:    schema,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c
}

// Name returns the remote model name.
func (c *Client) Name() string { return c.model }

type tensor struct {
	Name     string    `json:"name"`
	Shape    []int     `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float64 `json:"data"`
}

type inferRequest struct {
	Inputs []tensor `json:"inputs"`
}

type inferResponse struct {
	ModelName string `json:"model_name"`
	Outputs   []struct {
		Name string    `json:"name"`
		Data []float64 `json:"data"`
	} `json:"outputs"`
}

// Classify sends v as a [1, n] FP64 tensor and reads the first output value
// as the class index.
func (c *Client) Classify(ctx context.Context, v encoding.Vector) (int, error) {
	if v.Schema != c.schema {
		return 0, fmt.Errorf("%w: %s model got a vector for another schema", encoding.ErrSchemaDrift, c.model)
	}
	if err := c.schema.Check(v.Values); err != nil {
		return 0, err
	}

	body, err := json.Marshal(inferRequest{Inputs: []tensor{{
		Name:     c.inputName,
		Shape:    []int{1, len(v.Values)},
		Datatype: "FP64",
		Data:     v.Values,
	}}})
	if err != nil {
		return 0, fmt.Errorf("%w: marshal: %w", ErrRequest, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL()+"/infer", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, fmt.Errorf("%w: status=%d body=%s", ErrResponse, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: decode: %w", ErrResponse, err)
	}
	if len(out.Outputs) == 0 || len(out.Outputs[0].Data) == 0 {
		return 0, fmt.Errorf("%w: no outputs", ErrResponse)
	}
	class := out.Outputs[0].Data[0]
	if class != math.Trunc(class) {
		return 0, fmt.Errorf("%w: class index %v is not an integer", ErrResponse, class)
	}
	return int(class), nil
}

// Ready checks GET {model}/ready. A model that is not ready is a load failure.
func (c *Client) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelURL()+"/ready", http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotReady, c.model, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: status=%d", ErrNotReady, c.model, resp.StatusCode)
	}
	return nil
}

// Close drops idle connections.
func (c *Client) Close(_ context.Context) error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) modelURL() string {
	u := c.endpoint + "/v2/models/" + c.model
	if c.version != "" {
		u += "/versions/" + c.version
	}
	return u
}
