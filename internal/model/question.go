package model

import (
	"slices"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionSingleChoice   QuestionType = "single-choice"
	QuestionFreeText       QuestionType = "free-text"
	QuestionCode           QuestionType = "code"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionSingleChoice, QuestionFreeText, QuestionCode:
		return true
	}
	return false
}

func (t QuestionType) IsChoice() bool {
	return t == QuestionMultipleChoice || t == QuestionSingleChoice
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Question is the full content snapshot stored inside a QuestionVersion.
type Question struct {
	ID            string       `json:"id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer []string     `json:"correctAnswer,omitempty"`
	Points        int          `json:"points"`
	Category      string       `json:"category"`
	Difficulty    Difficulty   `json:"difficulty"`
}

// Clone returns a copy that shares no slices with q.
func (q Question) Clone() Question {
	q.Options = slices.Clone(q.Options)
	q.CorrectAnswer = slices.Clone(q.CorrectAnswer)
	return q
}

type QuestionVersionStatus string

const (
	QuestionVersionCurrent    QuestionVersionStatus = "current"
	QuestionVersionSuperseded QuestionVersionStatus = "superseded"
)

// QuestionVersion is an immutable snapshot of one logical question. Edits append a new
// record that supersedes this one.
// swagger:model QuestionVersion
type QuestionVersion struct {
	UUIDBase
	DefinitionID  string                       `gorm:"type:varchar(36);index" json:"definitionId"`
	QuestionID    string                       `gorm:"type:varchar(36);not null;uniqueIndex:idx_question_version_number,priority:1" json:"questionId"`
	VersionNumber int                          `gorm:"not null;uniqueIndex:idx_question_version_number,priority:2" json:"versionNumber"`
	QuestionData  datatypes.JSONType[Question] `gorm:"type:json" json:"questionData"`
	Status        QuestionVersionStatus        `gorm:"size:20;default:'current'" json:"status"`
	ChangeLog     string                       `gorm:"type:text" json:"changeLog"`
	Supersedes    string                       `gorm:"type:varchar(36)" json:"supersedes,omitempty"`
	SupersededBy  string                       `gorm:"type:varchar(36);index" json:"supersededBy,omitempty"`
	CreatedBy     string                       `gorm:"size:100" json:"createdBy"`
}

func (QuestionVersion) TableName() string {
	return "question_versions"
}

func (q QuestionVersion) Number() int { return q.VersionNumber }

// Content returns a private copy of the question snapshot.
func (q QuestionVersion) Content() Question {
	return q.QuestionData.Data().Clone()
}

func (q QuestionVersion) Superseded() bool {
	return q.Status == QuestionVersionSuperseded || q.SupersededBy != ""
}
