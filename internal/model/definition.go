package model

import "gorm.io/datatypes"

type ContentKind string

const (
	KindAssessment ContentKind = "assessment"
	KindSurvey     ContentKind = "survey"
)

func (k ContentKind) Valid() bool {
	return k == KindAssessment || k == KindSurvey
}

// Definition is an assessment or survey: the stable identity owning a version history.
// swagger:model Definition
type Definition struct {
	UUIDBase
	Kind                  ContentKind                 `gorm:"size:20;index;not null" json:"kind"`
	Title                 string                      `gorm:"size:255;not null" json:"title"`
	Description           string                      `gorm:"type:text" json:"description"`
	Type                  string                      `gorm:"size:50" json:"type"`
	Difficulty            string                      `gorm:"size:20" json:"difficulty"`
	TargetLevels          datatypes.JSONSlice[string] `gorm:"type:json" json:"targetLevels"`
	EstimatedMinutes      int                         `gorm:"default:0" json:"estimatedMinutes"`
	CurrentQuestionsCount int                         `gorm:"default:0" json:"currentQuestionsCount"`
	LastVersionNumber     int                         `gorm:"default:0" json:"lastVersionNumber"`
}

func (Definition) TableName() string {
	return "definitions"
}
