package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
			})

			Convey("Then collectors should carry the namespace and constant labels", func() {
				manager.predictions.WithLabelValues("leadership", "High").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "test_unit_predictions_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When zero values are passed to options", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "insights")
				So(manager.histogramBuckets, ShouldResemble, defaultLatencyBuckets)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording predictions", func() {
			before := testutil.ToFloat64(globalManager.predictions.WithLabelValues("attrition", "Low"))
			RecordPrediction("attrition", "Low")
			RecordPrediction("attrition", "Low")

			Convey("Then the counter should grow by two", func() {
				after := testutil.ToFloat64(globalManager.predictions.WithLabelValues("attrition", "Low"))
				So(after-before, ShouldEqual, 2.0)
			})
		})

		Convey("Then the package refresh interval should be the default", func() {
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})

		Convey("When toggling readiness", func() {
			UpdateModelsReady(true)
			So(testutil.ToFloat64(globalManager.modelsReady), ShouldEqual, 1.0)
			UpdateModelsReady(false)
			So(testutil.ToFloat64(globalManager.modelsReady), ShouldEqual, 0.0)
		})

		Convey("When recording the remaining series", func() {
			RecordPredictionError("encoding")
			RecordInferenceLatency("leadership", 0.2)
			RecordHTTPRequest("/predict", "POST", "200")
			RecordHTTPRequestDuration("/predict", "POST", "200", 1.5)
			RecordErrorByType("bad_request", "warning")
			RecordErrorByEndpoint("/predict", "POST", "bad_request")
			UpdateSystemMemoryUsage(1024)
			UpdateSystemGoroutineCount(8)
			RecordSystemGCPauseTime(0.3)

			Convey("Then the custom registry should expose them", func() {
				n, err := testutil.GatherAndCount(GetRegistry())
				So(err, ShouldBeNil)
				So(n, ShouldBeGreaterThan, 0)

				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				joined := strings.Join(names, ",")
				So(joined, ShouldContainSubstring, "insights_predict_prediction_errors_total")
				So(joined, ShouldContainSubstring, "insights_system_goroutines")
			})
		})
	})
}
