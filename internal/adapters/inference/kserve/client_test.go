package kserve_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/personnel-insights/internal/adapters/inference/kserve"
	"github.com/okian/personnel-insights/internal/domain/encoding"
	"github.com/okian/personnel-insights/internal/domain/personnel"
	. "github.com/smartystreets/goconvey/convey"
)

func vector() encoding.Vector {
	v, err := encoding.BuildAttritionVector(personnel.Record{
		PersonnelID: 1, Age: 30, YearsOfService: 5, Rank: "Flying Officer",
		Specialization: "Medical", PerformanceRating: 3, TrainingCoursesCompleted: 2,
		MissionSuccessRate: 80, MedicalFitnessScore: 70, PeerReviewScore: 3.2,
		CommandersAssessment: 3.1, AttritionRisk: "Low",
	})
	if err != nil {
		panic(err)
	}
	return v
}

func TestClientClassify(t *testing.T) {
	Convey("Given a KServe V2 server", t, func() {
		var got struct {
			Inputs []struct {
				Name     string    `json:"name"`
				Shape    []int     `json:"shape"`
				Datatype string    `json:"datatype"`
				Data     []float64 `json:"data"`
			} `json:"inputs"`
		}
		var path string
		reply := `{"model_name":"attrition","outputs":[{"name":"label","data":[2]}]}`
		status := http.StatusOK

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			if r.Method == http.MethodGet {
				w.WriteHeader(status)
				return
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))
		defer srv.Close()

		c := kserve.New(srv.URL+"/", "attrition", encoding.AttritionSchema, kserve.WithVersion("3"))
		defer func() { _ = c.Close(context.Background()) }()
		ctx := context.Background()

		Convey("When classifying a vector", func() {
			class, err := c.Classify(ctx, vector())

			Convey("Then it should send one FP64 row and read the class", func() {
				So(err, ShouldBeNil)
				So(class, ShouldEqual, 2)
				So(path, ShouldEqual, "/v2/models/attrition/versions/3/infer")
				So(len(got.Inputs), ShouldEqual, 1)
				So(got.Inputs[0].Name, ShouldEqual, "input0")
				So(got.Inputs[0].Datatype, ShouldEqual, "FP64")
				So(got.Inputs[0].Shape, ShouldResemble, []int{1, 12})
				So(got.Inputs[0].Data, ShouldResemble, vector().Values)
			})
		})

		Convey("When the server answers with an error status", func() {
			status = http.StatusInternalServerError
			reply = `model crashed`
			_, err := c.Classify(ctx, vector())

			Convey("Then the body should surface in the error", func() {
				So(errors.Is(err, kserve.ErrResponse), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "model crashed")
			})
		})

		Convey("When the server returns no outputs", func() {
			reply = `{"outputs":[]}`
			_, err := c.Classify(ctx, vector())
			So(errors.Is(err, kserve.ErrResponse), ShouldBeTrue)
		})

		Convey("When the server returns a fractional class", func() {
			reply = `{"outputs":[{"name":"label","data":[0.7]}]}`
			_, err := c.Classify(ctx, vector())
			So(errors.Is(err, kserve.ErrResponse), ShouldBeTrue)
		})

		Convey("When given a vector for another schema", func() {
			lv, _ := encoding.BuildLeadershipVector(personnel.Record{
				Rank: "Flying Officer", Specialization: "Medical", AttritionRisk: "Low",
			})
			_, err := c.Classify(ctx, lv)
			So(errors.Is(err, encoding.ErrSchemaDrift), ShouldBeTrue)
		})

		Convey("When probing readiness", func() {
			So(c.Ready(ctx), ShouldBeNil)
			So(path, ShouldEqual, "/v2/models/attrition/versions/3/ready")

			status = http.StatusServiceUnavailable
			So(errors.Is(c.Ready(ctx), kserve.ErrNotReady), ShouldBeTrue)
		})

		Convey("Then the name should be the remote model name", func() {
			So(c.Name(), ShouldEqual, "attrition")
		})
	})

	Convey("Given a server that expects another input name", t, func() {
		var name string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Inputs []struct {
					Name string `json:"name"`
				} `json:"inputs"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if len(req.Inputs) > 0 {
				name = req.Inputs[0].Name
			}
			_, _ = w.Write([]byte(`{"outputs":[{"name":"label","data":[1]}]}`))
		}))
		defer srv.Close()

		c := kserve.New(srv.URL, "attrition", encoding.AttritionSchema, kserve.WithInputName("features"))
		class, err := c.Classify(context.Background(), vector())

		Convey("Then the tensor should carry that name", func() {
			So(err, ShouldBeNil)
			So(class, ShouldEqual, 1)
			So(name, ShouldEqual, "features")
		})
	})

	Convey("Given a slow server and a custom HTTP client", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		c := kserve.New(srv.URL, "attrition", encoding.AttritionSchema,
			kserve.WithHTTPClient(&http.Client{}),
			kserve.WithTimeout(50*time.Millisecond),
		)

		Convey("When classifying", func() {
			start := time.Now()
			_, err := c.Classify(context.Background(), vector())

			Convey("Then the timeout should still cut the call short", func() {
				So(errors.Is(err, kserve.ErrRequest), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, time.Second)
			})
		})

		Convey("When probing readiness", func() {
			err := c.Ready(context.Background())
			So(errors.Is(err, kserve.ErrNotReady), ShouldBeTrue)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})

	Convey("Given an unreachable server", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := kserve.New(url, "leadership", encoding.AttritionSchema)
		_, err := c.Classify(context.Background(), vector())

		Convey("Then the call should fail as a request error", func() {
			So(errors.Is(err, kserve.ErrRequest), ShouldBeTrue)
		})
	})
}
