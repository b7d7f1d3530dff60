// Package personnel contains the request and response shapes of a single
// prediction call.
package personnel

// Field names as they appear on the wire. The same names are used for the
// model feature columns, so error messages and schemas stay in sync.
const (
	FieldPersonnelID              = "PersonnelID"
	FieldAge                      = "Age"
	FieldYearsOfService           = "YearsOfService"
	FieldRank                     = "Rank"
	FieldSpecialization           = "Specialization"
	FieldPerformanceRating        = "PerformanceRating"
	FieldTrainingCoursesCompleted = "TrainingCoursesCompleted"
	FieldMissionSuccessRate       = "MissionSuccessRate"
	FieldMedicalFitnessScore      = "MedicalFitnessScore"
	FieldPeerReviewScore          = "PeerReviewScore"
	FieldCommandersAssessment     = "CommandersAssessment"
	FieldAttritionRisk            = "AttritionRisk"
)

// Labels produced by the decoders.
const (
	LabelLow     = "Low"
	LabelMedium  = "Medium"
	LabelHigh    = "High"
	LabelUnknown = "Unknown"
)

// Record is one personnel entry submitted for inference.
type Record struct {
	PersonnelID              int     `json:"PersonnelID" yaml:"PersonnelID"`
	Age                      int     `json:"Age" yaml:"Age"`
	YearsOfService           int     `json:"YearsOfService" yaml:"YearsOfService"`
	Rank                     string  `json:"Rank" yaml:"Rank"`
	Specialization           string  `json:"Specialization" yaml:"Specialization"`
	PerformanceRating        int     `json:"PerformanceRating" yaml:"PerformanceRating"`
	TrainingCoursesCompleted int     `json:"TrainingCoursesCompleted" yaml:"TrainingCoursesCompleted"`
	MissionSuccessRate       float64 `json:"MissionSuccessRate" yaml:"MissionSuccessRate"`
	MedicalFitnessScore      float64 `json:"MedicalFitnessScore" yaml:"MedicalFitnessScore"`
	PeerReviewScore          float64 `json:"PeerReviewScore" yaml:"PeerReviewScore"`
	CommandersAssessment     float64 `json:"CommandersAssessment" yaml:"CommandersAssessment"`
	// AttritionRisk is the currently assessed risk. It feeds the leadership
	// model and is not the predicted attrition risk.
	AttritionRisk string `json:"AttritionRisk" yaml:"AttritionRisk"`
}

// Prediction is the decoded output of both models.
type Prediction struct {
	LeadershipPotential string `json:"leadership_potential"`
	AttritionRisk       string `json:"attrition_risk"`
}
