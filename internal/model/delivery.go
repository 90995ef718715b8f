package model

import (
	"time"

	"gorm.io/datatypes"
)

type DeliveryStatus string

const (
	DeliveryScheduled  DeliveryStatus = "scheduled"
	DeliveryInProgress DeliveryStatus = "in-progress"
	DeliveryCompleted  DeliveryStatus = "completed"
	DeliveryExpired    DeliveryStatus = "expired"
	DeliveryCancelled  DeliveryStatus = "cancelled"
)

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryScheduled, DeliveryInProgress, DeliveryCompleted, DeliveryExpired, DeliveryCancelled:
		return true
	}
	return false
}

// IsTerminal 终态的配信不可再编辑
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryCompleted || s == DeliveryExpired || s == DeliveryCancelled
}

type TargetType string

const (
	TargetUser    TargetType = "user"
	TargetGroup   TargetType = "group"
	TargetCompany TargetType = "company"
)

func (t TargetType) Valid() bool {
	return t == TargetUser || t == TargetGroup || t == TargetCompany
}

type Target struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id"`
	Name string     `json:"name"`
}

// Delivery distributes one version of a definition to a set of targets over a window.
// swagger:model Delivery
type Delivery struct {
	UUIDBase
	DefinitionID          string                      `gorm:"type:varchar(36);index;not null" json:"definitionId"`
	DefinitionKind        ContentKind                 `gorm:"size:20;index" json:"definitionKind"`
	DefinitionTitle       string                      `gorm:"size:255" json:"definitionTitle"`
	VersionID             string                      `gorm:"type:varchar(36);index" json:"versionId,omitempty"`
	DeliveryName          string                      `gorm:"size:255;not null" json:"deliveryName"`
	TargetDescription     string                      `gorm:"size:255" json:"targetDescription"`
	Targets               datatypes.JSONSlice[Target] `gorm:"type:json" json:"targets"`
	StartDate             time.Time                   `gorm:"index" json:"startDate"`
	EndDate               time.Time                   `gorm:"index" json:"endDate"`
	Status                DeliveryStatus              `gorm:"size:20;index;default:'scheduled'" json:"status"`
	CreatedBy             string                      `gorm:"size:100" json:"createdBy"`
	TotalParticipants     int                         `gorm:"default:0" json:"totalParticipants"`
	CompletedParticipants int                         `gorm:"default:0" json:"completedParticipants"`
	Revision              int                         `gorm:"default:1" json:"revision"`
}

func (Delivery) TableName() string {
	return "deliveries"
}

// DeliveryFilter narrows delivery listings on stored columns.
type DeliveryFilter struct {
	DefinitionID string
	Kind         ContentKind
}
