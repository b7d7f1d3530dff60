package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/personnel-insights/internal/adapters/http/api"
	service "github.com/okian/personnel-insights/internal/app"
	"github.com/okian/personnel-insights/internal/domain/personnel"
	"github.com/okian/personnel-insights/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDeps implements api.Dependencies.
type mockDeps struct {
	pred   personnel.Prediction
	err    error
	ready  bool
	reason string
	bodies [][]byte
	ctxIDs []string
}

func (m *mockDeps) PredictJSON(ctx context.Context, body []byte) (personnel.Prediction, error) {
	m.bodies = append(m.bodies, body)
	m.ctxIDs = append(m.ctxIDs, logger.RequestID(ctx))
	if m.err != nil {
		return personnel.Prediction{}, m.err
	}
	return m.pred, nil
}

func (m *mockDeps) Ready() bool    { return m.ready }
func (m *mockDeps) Reason() string { return m.reason }

func (m *mockDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "predictionsServed": 3}
}

func newMux(deps *mockDeps, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorBody(w *httptest.ResponseRecorder) string {
	var body map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body["error"]
}

func TestPredictEndpoint(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{
			ready: true,
			pred:  personnel.Prediction{LeadershipPotential: "High", AttritionRisk: "Low"},
		}
		mux := newMux(deps)

		Convey("When posting a record", func() {
			w := do(mux, http.MethodPost, "/predict", `{"PersonnelID":101}`)

			Convey("Then both labels should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				So(w.Body.String(), ShouldContainSubstring, `"leadership_potential":"High"`)
				So(w.Body.String(), ShouldContainSubstring, `"attrition_risk":"Low"`)
				So(string(deps.bodies[0]), ShouldEqual, `{"PersonnelID":101}`)
			})

			Convey("Then a request id should be generated and logged", func() {
				id := w.Header().Get(api.HeaderRequestID)
				So(id, ShouldNotBeBlank)
				So(deps.ctxIDs[0], ShouldEqual, id)
			})
		})

		Convey("When the caller sends a request id", func() {
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{}`))
			req.Header.Set(api.HeaderRequestID, "trace-1")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be echoed", func() {
				So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "trace-1")
				So(deps.ctxIDs[0], ShouldEqual, "trace-1")
			})
		})

		Convey("When the service reports failures", func() {
			cases := []struct {
				name   string
				err    error
				status int
			}{
				{"an encoding error", fmt.Errorf("%w: %w", service.ErrEncoding, personnel.NewUnknownCategory("Rank", "Pilot")), http.StatusBadRequest},
				{"unavailable models", fmt.Errorf("%w: load failed", service.ErrModelsUnavailable), http.StatusServiceUnavailable},
				{"an inference error", fmt.Errorf("%w: boom", service.ErrModelInference), http.StatusInternalServerError},
				{"an unknown error", errors.New("strange"), http.StatusInternalServerError},
			}
			for _, tc := range cases {
				Convey("With "+tc.name, func() {
					deps.err = tc.err
					w := do(mux, http.MethodPost, "/predict", `{}`)

					Convey("Then the status and error body should match", func() {
						So(w.Code, ShouldEqual, tc.status)
						So(errorBody(w), ShouldEqual, tc.err.Error())
					})
				})
			}
		})

		Convey("When using the wrong method", func() {
			w := do(mux, http.MethodGet, "/predict", "")

			Convey("Then it should answer 405 with an error body", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
				So(errorBody(w), ShouldContainSubstring, "method not allowed")
				So(len(deps.bodies), ShouldEqual, 0)
			})
		})

		Convey("When the body is too large", func() {
			mux := newMux(deps, api.WithMaxBodyBytes(16))
			w := do(mux, http.MethodPost, "/predict", strings.Repeat("x", 64))

			Convey("Then it should answer 413 without calling the service", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(errorBody(w), ShouldContainSubstring, "too large")
				So(len(deps.bodies), ShouldEqual, 0)
			})
		})
	})

	Convey("Given an API server in legacy status mode", t, func() {
		deps := &mockDeps{ready: true, err: fmt.Errorf("%w: x", service.ErrModelInference)}
		mux := newMux(deps, api.WithLegacyStatusCodes(true))

		Convey("When a prediction fails", func() {
			w := do(mux, http.MethodPost, "/predict", `{}`)

			Convey("Then it should still answer 200 with the error body", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(errorBody(w), ShouldContainSubstring, "model inference failed")
			})
		})
	})
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given ready models", t, func() {
		mux := newMux(&mockDeps{ready: true})
		w := do(mux, http.MethodGet, "/healthz", "")

		Convey("Then /healthz should report ok", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			So(w.Body.String(), ShouldContainSubstring, `"models_ready":true`)
			So(w.Body.String(), ShouldNotContainSubstring, "reason")
		})
	})

	Convey("Given models that failed to load", t, func() {
		mux := newMux(&mockDeps{reason: "model load failed: leadership: missing"})
		w := do(mux, http.MethodGet, "/healthz", "")

		Convey("Then /healthz should report degraded with the reason", func() {
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["status"], ShouldEqual, "degraded")
			So(body["models_ready"], ShouldEqual, false)
			So(body["reason"], ShouldContainSubstring, "leadership")
		})

		Convey("And a POST should be refused", func() {
			So(do(mux, http.MethodPost, "/healthz", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestStatsMetricsDashboard(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux := newMux(&mockDeps{ready: true})

		Convey("When requesting /stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"predictionsServed":3`)
			So(do(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("When requesting /metrics after some traffic", func() {
			_ = do(mux, http.MethodGet, "/healthz", "")
			w := do(mux, http.MethodGet, "/metrics", "")

			Convey("Then the scrape should include HTTP metrics", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "insights_predict_http_requests_total")
			})
		})

		Convey("When requesting /dashboard", func() {
			w := do(mux, http.MethodGet, "/dashboard", "")

			Convey("Then the prediction form should be served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Body.String(), ShouldContainSubstring, "fetch(\"/predict\"")
				So(w.Body.String(), ShouldContainSubstring, "AbortController")
			})
		})
	})

	Convey("Given a nil mux", t, func() {
		So(func() { api.NewServer(&mockDeps{}).Register(context.Background(), nil) }, ShouldPanic)
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given the kind helpers", t, func() {
		err := api.WrapKind("api.predict", api.ErrBadRequest, errors.New("eof"))
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.predict: bad request: eof")
		So(api.NewKind("api.stats", api.ErrMethodNotAllowed).Error(), ShouldEqual, "api.stats: method not allowed")
		So(errors.Is(api.WrapKind("op", api.ErrBodyTooLarge, nil), api.ErrBodyTooLarge), ShouldBeTrue)
	})
}
