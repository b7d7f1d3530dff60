// Package service provides the prediction service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/personnel-insights/internal/domain/classifier"
	"github.com/okian/personnel-insights/internal/domain/encoding"
	"github.com/okian/personnel-insights/internal/domain/personnel"
	"github.com/okian/personnel-insights/pkg/logger"
	"github.com/okian/personnel-insights/pkg/metrics"
)

// State is the position of one request in the prediction flow.
type State int

const (
	StateReceived State = iota
	StateEncoded
	StatePredicted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateEncoded:
		return "encoded"
	case StatePredicted:
		return "predicted"
	case StateFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Service serves predictions from an immutable pair of models.
type Service struct {
	mu sync.RWMutex

	// Models are fixed at construction; the predict path reads them without locks.
	models  *classifier.Set
	loadErr error
	backend string

	// Counters
	served      atomic.Int64
	encoding    atomic.Int64
	inference   atomic.Int64
	unavailable atomic.Int64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithModels injects the loaded model pair.
func WithModels(set *classifier.Set) Option {
	return func(s *Service) {
		s.models = set
	}
}

// WithLoadError records why the models could not be loaded. Predict
// reports it in every ErrModelsUnavailable until the process restarts.
func WithLoadError(err error) Option {
	return func(s *Service) {
		s.loadErr = err
	}
}

// WithBackend names the model backend for stats and logs.
func WithBackend(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.backend = name
		}
	}
}

// New constructs a Service. Without WithModels every prediction fails
// with ErrModelsUnavailable.
func New(opts ...Option) *Service {
	s := &Service{backend: "none"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start marks the service as running and publishes model readiness.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	ready := s.Ready()
	metrics.UpdateModelsReady(ready)
	if ready {
		s.logger.Info(ctx, "prediction service started",
			logger.String("backend", s.backend),
			logger.String("leadership", s.models.Leadership.Name()),
			logger.String("attrition", s.models.Attrition.Name()),
		)
	} else {
		s.logger.Warn(ctx, "prediction service started without models",
			logger.String("backend", s.backend),
			logger.String("reason", s.Reason()),
		)
	}

	s.started = true
	return nil
}

// Stop releases the models.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false
	metrics.UpdateModelsReady(false)

	if s.models == nil {
		return nil
	}
	if err := s.models.Close(ctx); err != nil {
		s.log().Warn(ctx, "closing models", logger.Error(err))
		return err
	}
	s.log().Info(ctx, "prediction service stopped")
	return nil
}

// Ready reports whether both models are loaded.
func (s *Service) Ready() bool {
	return s.loadErr == nil && s.models.Ready()
}

// Reason explains why the service is not ready, or returns "".
func (s *Service) Reason() string {
	switch {
	case s.Ready():
		return ""
	case s.loadErr != nil:
		return s.loadErr.Error()
	default:
		return "no models configured"
	}
}

// Predict encodes rec for both models and returns the decoded labels.
// Either both labels are returned or an error is; never one of them.
func (s *Service) Predict(ctx context.Context, rec personnel.Record) (pred personnel.Prediction, err error) {
	defer func() { s.record(ctx, err) }()
	s.trace(ctx, StateReceived, rec.PersonnelID)

	if err := s.available(); err != nil {
		return personnel.Prediction{}, err
	}
	return s.predict(ctx, rec)
}

// PredictJSON decodes one JSON record and predicts it. Decoding problems are
// reported as ErrEncoding.
func (s *Service) PredictJSON(ctx context.Context, body []byte) (pred personnel.Prediction, err error) {
	defer func() { s.record(ctx, err) }()
	s.trace(ctx, StateReceived, 0)

	if err := s.available(); err != nil {
		return personnel.Prediction{}, err
	}
	rec, err := personnel.DecodeRecord(body)
	if err != nil {
		return personnel.Prediction{}, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return s.predict(ctx, rec)
}

func (s *Service) predict(ctx context.Context, rec personnel.Record) (personnel.Prediction, error) {
	lv, err := encoding.BuildLeadershipVector(rec)
	if err != nil {
		return personnel.Prediction{}, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	av, err := encoding.BuildAttritionVector(rec)
	if err != nil {
		return personnel.Prediction{}, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	s.trace(ctx, StateEncoded, rec.PersonnelID)

	lc, err := classify(ctx, encoding.ModelLeadership, s.models.Leadership, lv)
	if err != nil {
		return personnel.Prediction{}, err
	}
	ac, err := classify(ctx, encoding.ModelAttrition, s.models.Attrition, av)
	if err != nil {
		return personnel.Prediction{}, err
	}

	pred := personnel.Prediction{
		LeadershipPotential: encoding.DecodeLeadership(lc),
		AttritionRisk:       encoding.DecodeAttrition(ac),
	}
	metrics.RecordPrediction(encoding.ModelLeadership, pred.LeadershipPotential)
	metrics.RecordPrediction(encoding.ModelAttrition, pred.AttritionRisk)
	s.trace(ctx, StatePredicted, rec.PersonnelID)
	return pred, nil
}

// classify calls one model, turning errors and panics into ErrModelInference.
func classify(ctx context.Context, model string, c classifier.Classifier, v encoding.Vector) (class int, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s model panicked: %v", ErrModelInference, model, r)
		}
		metrics.RecordInferenceLatency(model, float64(time.Since(start).Microseconds())/1000)
	}()

	class, err = c.Classify(ctx, v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrModelInference, model, err)
	}
	return class, nil
}

func (s *Service) available() error {
	if s.Ready() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrModelsUnavailable, s.Reason())
}

func (s *Service) record(ctx context.Context, err error) {
	if err == nil {
		s.served.Add(1)
		return
	}
	switch Kind(err) {
	case "encoding":
		s.encoding.Add(1)
	case "unavailable":
		s.unavailable.Add(1)
	case "inference":
		s.inference.Add(1)
	}
	metrics.RecordPredictionError(Kind(err))
	s.log().Debug(ctx, "prediction state",
		logger.String("state", StateFailed.String()),
		logger.Error(err),
	)
}

func (s *Service) trace(ctx context.Context, st State, id int) {
	s.log().Debug(ctx, "prediction state",
		logger.String("state", st.String()),
		logger.Int("personnel_id", id),
	)
}

func (s *Service) log() logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Get()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"backend":           s.backend,
		"modelsReady":       s.Ready(),
		"predictionsServed": s.served.Load(),
		"encodingErrors":    s.encoding.Load(),
		"inferenceErrors":   s.inference.Load(),
		"unavailableErrors": s.unavailable.Load(),
	}
	if reason := s.Reason(); reason != "" {
		stats["reason"] = reason
	}
	return stats
}
