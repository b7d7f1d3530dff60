package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/personnel-insights/internal/client"
	"github.com/okian/personnel-insights/internal/domain/personnel"
	"github.com/okian/personnel-insights/pkg/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	app            = "predict-client"
	defaultURL     = "http://127.0.0.1:5000"
	defaultWorkers = 4
)

type rootOptions struct {
	url     string
	timeout time.Duration
	debug   bool
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.url, client.WithTimeout(o.timeout))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           app,
		Short:         app + " asks the prediction service for leadership potential and attrition risk",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger.SetOutput(cmd.ErrOrStderr())
			if err := logger.Init(); err != nil {
				return err
			}
			if opts.debug {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
	}
	root.PersistentFlags().StringVar(&opts.url, "url", defaultURL, "base URL of the prediction service")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "per-request timeout")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")

	root.AddCommand(newPredictCmd(opts), newBatchCmd(opts))
	return root
}

func newPredictCmd(opts *rootOptions) *cobra.Command {
	rec := personnel.Record{
		PersonnelID:              101,
		Age:                      35,
		YearsOfService:           12,
		Rank:                     "Flying Officer",
		Specialization:           "Pilot",
		PerformanceRating:        4,
		TrainingCoursesCompleted: 9,
		MissionSuccessRate:       98.5,
		MedicalFitnessScore:      96,
		PeerReviewScore:          4.7,
		CommandersAssessment:     4.8,
		AttritionRisk:            personnel.LabelLow,
	}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Analyze one personnel record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pred, err := opts.client().Predict(cmd.Context(), rec)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), describeError(err))
				return err
			}
			printPrediction(cmd.OutOrStdout(), pred)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&rec.PersonnelID, "personnel-id", rec.PersonnelID, "personnel id")
	f.IntVar(&rec.Age, "age", rec.Age, "age in years")
	f.IntVar(&rec.YearsOfService, "years-of-service", rec.YearsOfService, "years of service")
	f.StringVar(&rec.Rank, "rank", rec.Rank, "rank, e.g. \"Squadron Leader\"")
	f.StringVar(&rec.Specialization, "specialization", rec.Specialization, "specialization, e.g. Engineer")
	f.IntVar(&rec.PerformanceRating, "performance-rating", rec.PerformanceRating, "performance rating (1-5)")
	f.IntVar(&rec.TrainingCoursesCompleted, "training-courses", rec.TrainingCoursesCompleted, "training courses completed")
	f.Float64Var(&rec.MissionSuccessRate, "mission-success-rate", rec.MissionSuccessRate, "mission success rate (%)")
	f.Float64Var(&rec.MedicalFitnessScore, "medical-fitness", rec.MedicalFitnessScore, "medical fitness score")
	f.Float64Var(&rec.PeerReviewScore, "peer-review", rec.PeerReviewScore, "peer review score (1-5)")
	f.Float64Var(&rec.CommandersAssessment, "commanders-assessment", rec.CommandersAssessment, "commander's assessment (1-5)")
	f.StringVar(&rec.AttritionRisk, "attrition-risk", rec.AttritionRisk, "currently assessed attrition risk")
	return cmd
}

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var (
		file    string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every record in a YAML or JSON list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := loadRecords(file)
			if err != nil {
				return err
			}

			start := time.Now()
			results := opts.client().PredictMany(cmd.Context(), recs, workers)
			failed := printResults(cmd.OutOrStdout(), results)
			logger.Get().Info(cmd.Context(), "batch finished",
				logger.Int("records", len(recs)),
				logger.Int("failed", failed),
				logger.Duration("took", time.Since(start)),
			)
			if failed > 0 {
				return fmt.Errorf("%d of %d predictions failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON file holding a list of records")
	cmd.Flags().IntVarP(&workers, "workers", "w", defaultWorkers, "concurrent requests")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// loadRecords reads a list of records. JSON input is valid YAML, so one
// decoder covers both. Each entry is checked the way the service checks a
// request body, so a missing or null field fails here instead of reaching
// the models as zero.
func loadRecords(path string) ([]personnel.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	var entries []map[string]any
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s holds no records", path)
	}

	recs := make([]personnel.Record, 0, len(entries))
	for i, entry := range entries {
		raw, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", path, i+1, err)
		}
		rec, err := personnel.DecodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", path, i+1, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func printPrediction(w io.Writer, p personnel.Prediction) {
	fmt.Fprintln(w, "Analysis Complete!")
	fmt.Fprintf(w, "Predicted Leadership Potential: %s\n", p.LeadershipPotential)
	fmt.Fprintf(w, "Predicted Attrition Risk: %s\n", p.AttritionRisk)
}

func printResults(w io.Writer, results []client.Result) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "PersonnelID %d: %s\n", r.Record.PersonnelID, describeError(r.Err))
			continue
		}
		fmt.Fprintf(w, "PersonnelID %d: leadership=%s attrition=%s\n",
			r.Record.PersonnelID, r.Prediction.LeadershipPotential, r.Prediction.AttritionRisk)
	}
	return failed
}

func describeError(err error) string {
	var remote *client.RemoteError
	switch {
	case errors.Is(err, client.ErrConnectivity):
		return "Could not connect to the API. Make sure the prediction service is running. Error: " + err.Error()
	case errors.As(err, &remote):
		return "The service rejected the record: " + remote.Message
	default:
		return "An unexpected error occurred: " + err.Error()
	}
}
