package encoding

import (
	"fmt"
	"strings"

	"github.com/okian/personnel-insights/internal/domain/personnel"
)

// SchemaVersion identifies the column layout both models were trained with.
// Bump it whenever a column is added, removed, renamed or moved.
const SchemaVersion = "v1"

// Model names used by schemas, artifacts and metrics.
const (
	ModelLeadership = "leadership"
	ModelAttrition  = "attrition"
)

// ColumnSkillCluster is the attrition model's placeholder column.
const ColumnSkillCluster = "SkillCluster"

// Kind describes how a column value is produced.
type Kind int

const (
	KindInteger Kind = iota
	KindFloat
	KindCategorical
	KindConstant
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindCategorical:
		return "categorical"
	case KindConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// Column is one named, typed, positioned feature.
type Column struct {
	Name     string
	Kind     Kind
	Position int

	extract func(personnel.Record) (float64, error)
}

// Schema is the ordered feature contract of one model.
type Schema struct {
	Model   string
	Version string
	Columns []Column
}

// Vector is an encoded feature row bound to the schema that produced it.
type Vector struct {
	Schema *Schema
	Values []float64
}

// LeadershipSchema is the column layout of the leadership-potential model.
var LeadershipSchema = newSchema(ModelLeadership, append(sharedColumns(),
	categorical(personnel.FieldAttritionRisk, func(r personnel.Record) (int, error) {
		return EncodeAttritionRisk(r.AttritionRisk)
	}),
))

// AttritionSchema is the column layout of the attrition-risk model. Its last
// column is a constant skill cluster the form does not collect.
var AttritionSchema = newSchema(ModelAttrition, append(sharedColumns(),
	Column{Name: ColumnSkillCluster, Kind: KindConstant, extract: constant(0)},
))

// BuildLeadershipVector encodes rec for the leadership model.
func BuildLeadershipVector(rec personnel.Record) (Vector, error) {
	return LeadershipSchema.Build(rec)
}

// BuildAttritionVector encodes rec for the attrition model.
func BuildAttritionVector(rec personnel.Record) (Vector, error) {
	return AttritionSchema.Build(rec)
}

// Build encodes rec column by column. The first categorical miss is returned.
func (s *Schema) Build(rec personnel.Record) (Vector, error) {
	values := make([]float64, len(s.Columns))
	for i, col := range s.Columns {
		v, err := col.extract(rec)
		if err != nil {
			return Vector{}, err
		}
		values[i] = v
	}
	if err := s.Check(values); err != nil {
		return Vector{}, err
	}
	return Vector{Schema: s, Values: values}, nil
}

// Check verifies that values has exactly one entry per column.
func (s *Schema) Check(values []float64) error {
	if len(values) != len(s.Columns) {
		return fmt.Errorf("%w: %s schema %s expects %d columns, got %d",
			ErrSchemaDrift, s.Model, s.Version, len(s.Columns), len(values))
	}
	return nil
}

// Names returns the column names in position order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// Matches reports whether a model trained on version with the given columns
// can consume vectors of this schema.
func (s *Schema) Matches(version string, names []string) error {
	if version != s.Version {
		return fmt.Errorf("%w: %s model built for schema %q, encoder speaks %q",
			ErrSchemaDrift, s.Model, version, s.Version)
	}
	if len(names) != len(s.Columns) {
		return fmt.Errorf("%w: %s model expects %d columns, schema has %d",
			ErrSchemaDrift, s.Model, len(names), len(s.Columns))
	}
	for i, col := range s.Columns {
		if names[i] != col.Name {
			return fmt.Errorf("%w: %s column %d is %q in the model, %q in the schema",
				ErrSchemaDrift, s.Model, i, names[i], col.Name)
		}
	}
	return nil
}

// String renders the schema as "model@version[col,...]".
func (s *Schema) String() string {
	return fmt.Sprintf("%s@%s[%s]", s.Model, s.Version, strings.Join(s.Names(), ","))
}

func newSchema(model string, cols []Column) *Schema {
	for i := range cols {
		cols[i].Position = i
	}
	return &Schema{Model: model, Version: SchemaVersion, Columns: cols}
}

// sharedColumns returns the eleven leading columns both models share.
// A fresh slice is returned so each schema owns its backing array.
func sharedColumns() []Column {
	return []Column{
		integer(personnel.FieldPersonnelID, func(r personnel.Record) int { return r.PersonnelID }),
		integer(personnel.FieldAge, func(r personnel.Record) int { return r.Age }),
		integer(personnel.FieldYearsOfService, func(r personnel.Record) int { return r.YearsOfService }),
		categorical(personnel.FieldRank, func(r personnel.Record) (int, error) { return EncodeRank(r.Rank) }),
		categorical(personnel.FieldSpecialization, func(r personnel.Record) (int, error) {
			return EncodeSpecialization(r.Specialization)
		}),
		integer(personnel.FieldPerformanceRating, func(r personnel.Record) int { return r.PerformanceRating }),
		integer(personnel.FieldTrainingCoursesCompleted, func(r personnel.Record) int { return r.TrainingCoursesCompleted }),
		float(personnel.FieldMissionSuccessRate, func(r personnel.Record) float64 { return r.MissionSuccessRate }),
		float(personnel.FieldMedicalFitnessScore, func(r personnel.Record) float64 { return r.MedicalFitnessScore }),
		float(personnel.FieldPeerReviewScore, func(r personnel.Record) float64 { return r.PeerReviewScore }),
		float(personnel.FieldCommandersAssessment, func(r personnel.Record) float64 { return r.CommandersAssessment }),
	}
}

func integer(name string, get func(personnel.Record) int) Column {
	return Column{Name: name, Kind: KindInteger, extract: func(r personnel.Record) (float64, error) {
		return float64(get(r)), nil
	}}
}

func float(name string, get func(personnel.Record) float64) Column {
	return Column{Name: name, Kind: KindFloat, extract: func(r personnel.Record) (float64, error) {
		return get(r), nil
	}}
}

func categorical(name string, encode func(personnel.Record) (int, error)) Column {
	return Column{Name: name, Kind: KindCategorical, extract: func(r personnel.Record) (float64, error) {
		code, err := encode(r)
		if err != nil {
			return 0, err
		}
		return float64(code), nil
	}}
}

func constant(v float64) func(personnel.Record) (float64, error) {
	return func(personnel.Record) (float64, error) { return v, nil }
}
