package model

import "time"

type VersionStatus string

const (
	VersionDraft     VersionStatus = "draft"
	VersionPublished VersionStatus = "published"
	VersionArchived  VersionStatus = "archived"
)

// swagger:model Version
type Version struct {
	UUIDBase
	DefinitionID  string            `gorm:"type:varchar(36);not null;uniqueIndex:idx_definition_version_number,priority:1" json:"definitionId"`
	VersionNumber int               `gorm:"not null;uniqueIndex:idx_definition_version_number,priority:2" json:"versionNumber"`
	Description   string            `gorm:"type:text" json:"description"`
	Questions     []VersionQuestion `gorm:"foreignKey:VersionID;constraint:OnDelete:CASCADE" json:"questions"`
	QuestionCount int               `gorm:"default:0" json:"questionCount"`
	Status        VersionStatus     `gorm:"size:20;default:'draft'" json:"status"`
	CreatedBy     string            `gorm:"size:100" json:"createdBy"`
	PublishedAt   *time.Time        `json:"publishedAt,omitempty"`
}

func (Version) TableName() string {
	return "versions"
}

func (v Version) Number() int { return v.VersionNumber }

func (v Version) IsPublished() bool { return v.Status == VersionPublished }

// Editable reports whether the version's question list may still change.
func (v Version) Editable() bool { return v.Status == VersionDraft }

// SyncQuestionCount re-packs positions and restores questionCount == len(questions).
func (v *Version) SyncQuestionCount() {
	for i := range v.Questions {
		v.Questions[i].Position = i + 1
	}
	v.QuestionCount = len(v.Questions)
}

// BranchEntries returns fresh entry rows pointing at the same question versions,
// owned by no version yet.
func (v Version) BranchEntries() []VersionQuestion {
	entries := make([]VersionQuestion, 0, len(v.Questions))
	for _, q := range v.Questions {
		entries = append(entries, VersionQuestion{
			QuestionVersionID: q.QuestionVersionID,
			Position:          q.Position,
			QuestionVersion:   q.QuestionVersion,
		})
	}
	return entries
}

// VersionQuestion is one version's own entry in its ordered question list.
// swagger:model VersionQuestion
type VersionQuestion struct {
	UUIDBase
	VersionID         string           `gorm:"type:varchar(36);index;not null" json:"versionId"`
	QuestionVersionID string           `gorm:"type:varchar(36);index;not null" json:"questionVersionId"`
	Position          int              `gorm:"default:0" json:"position"`
	QuestionVersion   *QuestionVersion `gorm:"foreignKey:QuestionVersionID" json:"questionVersion,omitempty"`
}

func (VersionQuestion) TableName() string {
	return "version_questions"
}
