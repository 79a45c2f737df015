// internal/domain/training_type.go
package domain

// TrainingType is an entry of the catalog of session kinds a suggestion may target.
type TrainingType struct {
	Code   string `bson:"_id" json:"code"` // e.g. "easy_run", "intervals"
	Name   string `bson:"name" json:"name"`
	Active bool   `bson:"active" json:"active"` // Retired types stay for history but are not "known"
}

// DefaultTrainingTypes seeds a fresh store.
var DefaultTrainingTypes = []TrainingType{
	{Code: "easy_run", Name: "Easy run", Active: true},
	{Code: "long_run", Name: "Long run", Active: true},
	{Code: "tempo", Name: "Tempo run", Active: true},
	{Code: "intervals", Name: "Intervals", Active: true},
	{Code: "recovery", Name: "Recovery run", Active: true},
	{Code: "fartlek", Name: "Fartlek", Active: true},
	{Code: "hill_repeats", Name: "Hill repeats", Active: true},
	{Code: "race", Name: "Race", Active: true},
}
