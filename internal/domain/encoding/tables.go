// Package encoding translates personnel records into the numeric feature
// vectors the classifiers were trained on, and class indices back to labels.
//
// The tables below mirror the label encoders fitted on the training data.
// Case variants such as "Admin"/"admin" are distinct categories there and
// must stay distinct here.
package encoding

import "github.com/okian/personnel-insights/internal/domain/personnel"

var rankCodes = map[string]int{
	"Flight Lieutenant": 0,
	"Flying Officer":    1,
	"Group Captain":     2,
	"Squadron Leader":   3,
	"Wing Commander":    4,
}

var specializationCodes = map[string]int{
	"Admin":        0,
	"Data Analyst": 1,
	"Engineer":     2,
	"Ground Staff": 3,
	"Medical":      4,
	"Pilot":        5,
	"admin":        6,
	"pilot":        7,
}

var attritionRiskCodes = map[string]int{
	"High":   0,
	"Low":    1,
	"Medium": 2,
	"high":   3,
}

var leadershipLabels = map[int]string{
	0: personnel.LabelHigh,
	1: personnel.LabelLow,
	2: personnel.LabelMedium,
}

// Class 3 is the lowercase "high" the attrition model learned separately.
var attritionLabels = map[int]string{
	0: personnel.LabelHigh,
	1: personnel.LabelLow,
	2: personnel.LabelMedium,
	3: personnel.LabelHigh,
}

// EncodeRank returns the code of a rank title.
func EncodeRank(rank string) (int, error) {
	return lookup(rankCodes, personnel.FieldRank, rank)
}

// EncodeSpecialization returns the code of a specialization. Lookup is case-sensitive.
func EncodeSpecialization(spec string) (int, error) {
	return lookup(specializationCodes, personnel.FieldSpecialization, spec)
}

// EncodeAttritionRisk returns the code of an attrition risk label. Lookup is case-sensitive.
func EncodeAttritionRisk(label string) (int, error) {
	return lookup(attritionRiskCodes, personnel.FieldAttritionRisk, label)
}

// DecodeLeadership maps a leadership class index to its label, or Unknown.
func DecodeLeadership(class int) string {
	return reverse(leadershipLabels, class)
}

// DecodeAttrition maps an attrition class index to its label, or Unknown.
func DecodeAttrition(class int) string {
	return reverse(attritionLabels, class)
}

func lookup(table map[string]int, field, value string) (int, error) {
	code, ok := table[value]
	if !ok {
		return 0, personnel.NewUnknownCategory(field, value)
	}
	return code, nil
}

func reverse(table map[int]string, class int) string {
	if label, ok := table[class]; ok {
		return label
	}
	return personnel.LabelUnknown
}
