package personnel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// maxExactInteger is the largest integer a float64 represents exactly.
const maxExactInteger = 1 << 53

// DecodeRecord parses one JSON object into a Record.
// Every field is required. Integer fields accept integral JSON numbers
// (35 and 35.0 are both fine, 35.5 is not). Unknown keys are ignored.
func DecodeRecord(data []byte) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if raw == nil {
		return Record{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedRecord)
	}

	d := &fieldDecoder{raw: raw}
	rec := Record{
		PersonnelID:              d.integer(FieldPersonnelID),
		Age:                      d.integer(FieldAge),
		YearsOfService:           d.integer(FieldYearsOfService),
		Rank:                     d.text(FieldRank),
		Specialization:           d.text(FieldSpecialization),
		PerformanceRating:        d.integer(FieldPerformanceRating),
		TrainingCoursesCompleted: d.integer(FieldTrainingCoursesCompleted),
		MissionSuccessRate:       d.number(FieldMissionSuccessRate),
		MedicalFitnessScore:      d.number(FieldMedicalFitnessScore),
		PeerReviewScore:          d.number(FieldPeerReviewScore),
		CommandersAssessment:     d.number(FieldCommandersAssessment),
		AttritionRisk:            d.text(FieldAttritionRisk),
	}
	if d.err != nil {
		return Record{}, d.err
	}
	return rec, nil
}

// fieldDecoder keeps the first error it sees; later lookups become no-ops.
type fieldDecoder struct {
	raw map[string]json.RawMessage
	err error
}

func (d *fieldDecoder) value(field string) (any, bool) {
	if d.err != nil {
		return nil, false
	}
	msg, ok := d.raw[field]
	if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
		d.err = &FieldError{Field: field, Kind: ErrMissingField}
		return nil, false
	}
	var v any
	if err := json.Unmarshal(msg, &v); err != nil {
		d.err = &FieldError{Field: field, Kind: ErrTypeMismatch}
		return nil, false
	}
	return v, true
}

func (d *fieldDecoder) number(field string) float64 {
	v, ok := d.value(field)
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		d.err = &FieldError{Field: field, Expected: "number", Kind: ErrTypeMismatch}
		return 0
	}
	return f
}

func (d *fieldDecoder) integer(field string) int {
	v, ok := d.value(field)
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > maxExactInteger {
		d.err = &FieldError{Field: field, Expected: "integer", Kind: ErrTypeMismatch}
		return 0
	}
	return int(f)
}

func (d *fieldDecoder) text(field string) string {
	v, ok := d.value(field)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.err = &FieldError{Field: field, Expected: "string", Kind: ErrTypeMismatch}
		return ""
	}
	return s
}
