package service

import (
	"context"
	"time"

	"edu_admin_backend/internal/model"
)

// Repository contracts consumed by the services. internal/repository provides the gorm
// adapters and internal/repository/memory the in-memory adapter used by tests.
// Lookups return an error wrapping util.ErrNotFound when the record is missing.

type DefinitionRepository interface {
	CreateDefinition(ctx context.Context, d *model.Definition) error
	FindDefinition(ctx context.Context, id string) (*model.Definition, error)
	ListDefinitions(ctx context.Context, kind model.ContentKind, page, limit int) ([]model.Definition, int64, error)
	UpdateDefinition(ctx context.Context, d *model.Definition) error
	TouchDefinitions(ctx context.Context, ids []string, at time.Time) error
}

type VersionRepository interface {
	// CreateNextVersion assigns v the next version number of v.DefinitionID, seeds its
	// entries from the latest version when copyForward is set, persists it and bumps the
	// definition's updatedAt and high-water mark. All of it happens atomically.
	CreateNextVersion(ctx context.Context, v *model.Version, copyForward bool, at time.Time) error
	FindVersion(ctx context.Context, definitionID, versionID string) (*model.Version, error)
	ListVersions(ctx context.Context, definitionID string) ([]model.Version, error)
	UpdateVersionStatus(ctx context.Context, v *model.Version) error
	// AddVersionEntry stores qv and appends an entry for it to the draft version v.
	AddVersionEntry(ctx context.Context, v *model.Version, qv *model.QuestionVersion) error
	RemoveVersionEntry(ctx context.Context, v *model.Version, questionVersionID string) error
}

type QuestionRepository interface {
	FindQuestionVersion(ctx context.Context, id string) (*model.QuestionVersion, error)
	ListQuestionHistory(ctx context.Context, questionID string) ([]model.QuestionVersion, error)
	// SupersedeQuestionVersion stores next as the successor of oldID and repoints every
	// draft version entry that referenced oldID. It fails with util.ErrConflict when oldID
	// was already superseded. Returns the ids of the draft versions that changed.
	SupersedeQuestionVersion(ctx context.Context, oldID string, next *model.QuestionVersion) ([]string, error)
	// DefinitionsOfVersions maps version ids to their owning definition ids.
	DefinitionsOfVersions(ctx context.Context, versionIDs []string) ([]string, error)
}

type DeliveryRepository interface {
	CreateDelivery(ctx context.Context, d *model.Delivery) error
	FindDelivery(ctx context.Context, id string) (*model.Delivery, error)
	ListDeliveries(ctx context.Context, filter model.DeliveryFilter) ([]model.Delivery, error)
	// UpdateDelivery writes d only if the stored revision equals expectedRevision and
	// bumps d.Revision; util.ErrConflict otherwise.
	UpdateDelivery(ctx context.Context, d *model.Delivery, expectedRevision int) error
	DeleteDelivery(ctx context.Context, id string) error
}

type DirectoryRepository interface {
	FindGroup(ctx context.Context, id string) (*model.DirectoryGroup, error)
	FindCompany(ctx context.Context, id string) (*model.DirectoryCompany, error)
	FindUser(ctx context.Context, id string) (*model.DirectoryUser, error)
	SaveGroup(ctx context.Context, g *model.DirectoryGroup) error
	SaveCompany(ctx context.Context, c *model.DirectoryCompany) error
	SaveUser(ctx context.Context, u *model.DirectoryUser) error
}
