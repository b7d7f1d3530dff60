// Package classifier defines the model collaborator contract and the
// in-process classifiers loaded from artifact files.
package classifier

import (
	"context"
	"errors"

	"github.com/okian/personnel-insights/internal/domain/encoding"
)

// Classifier maps one encoded feature row to a class index.
// Implementations are read-only after construction and safe for concurrent use.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, v encoding.Vector) (int, error)
}

// Set holds the two models a prediction needs.
type Set struct {
	Leadership Classifier
	Attrition  Classifier
}

// Ready reports whether both models are present.
func (s *Set) Ready() bool {
	return s != nil && s.Leadership != nil && s.Attrition != nil
}

// Close releases resources held by models that own any (e.g. remote clients).
func (s *Set) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, c := range []Classifier{s.Leadership, s.Attrition} {
		if closer, ok := c.(interface{ Close(context.Context) error }); ok {
			errs = append(errs, closer.Close(ctx))
		}
	}
	return errors.Join(errs...)
}

// checkVector rejects rows built for a different schema or of the wrong width.
func checkVector(schema *encoding.Schema, v encoding.Vector) error {
	if v.Schema != schema {
		return &driftError{want: schema, got: v.Schema}
	}
	return schema.Check(v.Values)
}

type driftError struct {
	want, got *encoding.Schema
}

func (e *driftError) Error() string {
	got := "<nil>"
	if e.got != nil {
		got = e.got.Model + "@" + e.got.Version
	}
	return "feature schema drift: model expects " + e.want.Model + "@" + e.want.Version + ", vector is " + got
}

func (e *driftError) Unwrap() error { return encoding.ErrSchemaDrift }
