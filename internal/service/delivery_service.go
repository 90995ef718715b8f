package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"edu_admin_backend/internal/lifecycle"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/util"
	"edu_admin_backend/internal/versioning"
	"edu_admin_backend/pkg/logger"
	"edu_admin_backend/pkg/monitoring"
	"edu_admin_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type DeliveryService struct {
	Deliveries  DeliveryRepository
	Definitions DefinitionRepository
	Versions    VersionRepository
	Directory   *DirectoryService
	Policies    *Policies
	Storage     *StorageService
	Clock       func() time.Time
}

func NewDeliveryService(
	deliveries DeliveryRepository,
	defs DefinitionRepository,
	versions VersionRepository,
	directory *DirectoryService,
	policies *Policies,
	storage *StorageService,
) *DeliveryService {
	return &DeliveryService{
		Deliveries:  deliveries,
		Definitions: defs,
		Versions:    versions,
		Directory:   directory,
		Policies:    policies,
		Storage:     storage,
		Clock:       time.Now,
	}
}

type DeliveryRequest struct {
	DefinitionID      string         `json:"definitionId"`
	VersionID         string         `json:"versionId"`
	DeliveryName      string         `json:"deliveryName"`
	TargetDescription string         `json:"targetDescription"`
	Targets           []model.Target `json:"targets"`
	StartDate         *time.Time     `json:"startDate"`
	EndDate           *time.Time     `json:"endDate"`
}

func (r DeliveryRequest) validate() error {
	if strings.TrimSpace(r.DeliveryName) == "" {
		return util.NewValidationError("deliveryName", "must not be empty")
	}
	if r.StartDate == nil {
		return util.NewValidationError("startDate", "is required")
	}
	if r.EndDate == nil {
		return util.NewValidationError("endDate", "is required")
	}
	if r.EndDate.Before(*r.StartDate) {
		return util.NewValidationError("endDate", "must be on or after startDate")
	}
	return validateTargets(r.Targets)
}

func validateTargets(targets []model.Target) error {
	if len(targets) == 0 {
		return util.NewValidationError("targets", "at least one target is required")
	}
	for i, t := range targets {
		field := fmt.Sprintf("targets[%d]", i)
		if !t.Type.Valid() {
			return util.NewValidationError(field, "type must be user, group or company")
		}
		if strings.TrimSpace(t.ID) == "" {
			return util.NewValidationError(field, "id is required")
		}
	}
	return nil
}

// DeliveryUpdateRequest holds the fields of a delivery that stay editable after creation.
type DeliveryUpdateRequest struct {
	TargetDescription *string         `json:"targetDescription"`
	Targets           *[]model.Target `json:"targets"`
	EndDate           *time.Time      `json:"endDate"`
	Revision          *int            `json:"revision"`
}

// DeliveryView is a delivery as seen at a given instant. Status holds the derived status;
// StoredStatus is what was last persisted.
type DeliveryView struct {
	model.Delivery
	StoredStatus   model.DeliveryStatus `json:"storedStatus"`
	CompletionRate float64              `json:"completionRate"`
	IsNearExpiry   bool                 `json:"isNearExpiry"`
	DaysUntilEnd   int                  `json:"daysUntilEnd"`
	EvaluatedAt    time.Time            `json:"evaluatedAt"`
}

type DeliveryQuery struct {
	DefinitionID string
	Kind         model.ContentKind
	Status       model.DeliveryStatus
	Page         int
	Limit        int
}

func (s *DeliveryService) view(d *model.Delivery, now time.Time) DeliveryView {
	policy := s.Policies.Lifecycle(d.DefinitionKind)
	status := lifecycle.DeriveStatus(d, policy, now)
	progress := lifecycle.DeriveProgress(d, policy, now)
	monitoring.StatusDerivations.WithLabelValues(string(status)).Inc()

	v := DeliveryView{
		Delivery:       *d,
		StoredStatus:   d.Status,
		CompletionRate: progress.Percent,
		IsNearExpiry:   progress.IsNearExpiry,
		DaysUntilEnd:   lifecycle.DaysUntil(d.EndDate, now),
		EvaluatedAt:    now,
	}
	v.Status = status
	return v
}

func (s *DeliveryService) derived(d *model.Delivery, now time.Time) model.DeliveryStatus {
	return lifecycle.DeriveStatus(d, s.Policies.Lifecycle(d.DefinitionKind), now)
}

// CreateDelivery schedules a version of a definition for the given targets. The
// participant total is summed from the directory once and never recomputed.
func (s *DeliveryService) CreateDelivery(ctx context.Context, req DeliveryRequest, createdBy string) (*DeliveryView, error) {
	ctx, span := tracing.Tracer.Start(ctx, "DeliveryService.CreateDelivery")
	defer span.End()

	if err := req.validate(); err != nil {
		return nil, err
	}

	def, err := s.Definitions.FindDefinition(ctx, req.DefinitionID)
	if err != nil {
		return nil, err
	}
	versionID, err := s.bindVersion(ctx, def.ID, req.VersionID)
	if err != nil {
		return nil, err
	}

	targets := make([]model.Target, 0, len(req.Targets))
	total := 0
	for _, t := range req.Targets {
		resolved, n, err := s.Directory.ResolveTarget(ctx, t)
		if err != nil {
			return nil, err
		}
		targets = append(targets, resolved)
		total += n
	}

	now := s.Clock()
	d := &model.Delivery{
		DefinitionID:          def.ID,
		DefinitionKind:        def.Kind,
		DefinitionTitle:       def.Title,
		VersionID:             versionID,
		DeliveryName:          strings.TrimSpace(req.DeliveryName),
		TargetDescription:     req.TargetDescription,
		Targets:               targets,
		StartDate:             *req.StartDate,
		EndDate:               *req.EndDate,
		Status:                model.DeliveryScheduled,
		CreatedBy:             createdBy,
		TotalParticipants:     total,
		CompletedParticipants: 0,
		Revision:              1,
	}
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := s.Deliveries.CreateDelivery(ctx, d); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("delivery.id", d.ID))
	monitoring.DeliveriesCreated.WithLabelValues(string(def.Kind)).Inc()
	logger.Log.Info("delivery created",
		zap.String("deliveryId", d.ID),
		zap.String("definitionId", def.ID),
		zap.String("versionId", versionID),
		zap.Int("totalParticipants", total),
	)

	v := s.view(d, now)
	return &v, nil
}

// bindVersion picks the requested version, else the current one, else none.
func (s *DeliveryService) bindVersion(ctx context.Context, definitionID, versionID string) (string, error) {
	if versionID != "" {
		v, err := s.Versions.FindVersion(ctx, definitionID, versionID)
		if err != nil {
			return "", err
		}
		return v.ID, nil
	}
	versions, err := s.Versions.ListVersions(ctx, definitionID)
	if err != nil {
		return "", err
	}
	if cur, ok := versioning.Current(versions, model.Version.IsPublished); ok {
		return cur.ID, nil
	}
	return "", nil
}

func (s *DeliveryService) GetDelivery(ctx context.Context, id string, now time.Time) (*DeliveryView, error) {
	d, err := s.Deliveries.FindDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.view(d, now)
	return &v, nil
}

// ListDeliveries evaluates every matching delivery at now. The status filter applies to
// the derived status, so paging happens after derivation.
func (s *DeliveryService) ListDeliveries(ctx context.Context, q DeliveryQuery, now time.Time) ([]DeliveryView, int64, error) {
	if q.Kind != "" && !q.Kind.Valid() {
		return nil, 0, util.NewValidationError("kind", "must be assessment or survey")
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, util.NewValidationError("status", "must be scheduled, in-progress, completed, expired or cancelled")
	}

	deliveries, err := s.Deliveries.ListDeliveries(ctx, model.DeliveryFilter{DefinitionID: q.DefinitionID, Kind: q.Kind})
	if err != nil {
		return nil, 0, err
	}

	views := make([]DeliveryView, 0, len(deliveries))
	for i := range deliveries {
		v := s.view(&deliveries[i], now)
		if q.Status != "" && v.Status != q.Status {
			continue
		}
		views = append(views, v)
	}

	total := int64(len(views))
	if q.Limit <= 0 {
		return views, total, nil
	}
	start, end := util.PageWindow(q.Page, q.Limit, len(views))
	return views[start:end], total, nil
}

// UpdateDeliveryWindow edits the target label, the target list or the end date of a
// delivery that has not reached a terminal state.
func (s *DeliveryService) UpdateDeliveryWindow(ctx context.Context, id string, req DeliveryUpdateRequest) (*DeliveryView, error) {
	ctx, span := tracing.Tracer.Start(ctx, "DeliveryService.UpdateDeliveryWindow")
	defer span.End()
	span.SetAttributes(attribute.String("delivery.id", id))

	d, err := s.Deliveries.FindDelivery(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.Clock()
	if status := s.derived(d, now); status.IsTerminal() {
		return nil, fmt.Errorf("delivery %s is %s: %w", d.ID, status, util.ErrInvalidTransition)
	}

	expected := d.Revision
	if req.Revision != nil {
		expected = *req.Revision
		if expected != d.Revision {
			return nil, fmt.Errorf("delivery %s is at revision %d, not %d: %w", d.ID, d.Revision, expected, util.ErrConflict)
		}
	}

	if req.EndDate != nil {
		if req.EndDate.Before(d.StartDate) {
			return nil, util.NewValidationError("endDate", "must be on or after startDate")
		}
		d.EndDate = *req.EndDate
	}
	if req.TargetDescription != nil {
		d.TargetDescription = *req.TargetDescription
	}
	if req.Targets != nil {
		if err := validateTargets(*req.Targets); err != nil {
			return nil, err
		}
		targets := make([]model.Target, 0, len(*req.Targets))
		for _, t := range *req.Targets {
			resolved, _, err := s.Directory.ResolveTarget(ctx, t)
			if err != nil {
				return nil, err
			}
			targets = append(targets, resolved)
		}
		d.Targets = targets
	}
	d.UpdatedAt = now

	if err := s.Deliveries.UpdateDelivery(ctx, d, expected); err != nil {
		return nil, err
	}

	logger.Log.Info("delivery updated",
		zap.String("deliveryId", d.ID),
		zap.Time("endDate", d.EndDate),
		zap.Int("revision", d.Revision),
	)
	v := s.view(d, now)
	return &v, nil
}

func (s *DeliveryService) DeleteDelivery(ctx context.Context, id string) error {
	if err := s.Deliveries.DeleteDelivery(ctx, id); err != nil {
		return err
	}
	monitoring.DeliveriesDeleted.Inc()
	logger.Log.Info("delivery deleted", zap.String("deliveryId", id))
	return nil
}

func (s *DeliveryService) CancelDelivery(ctx context.Context, id string) (*DeliveryView, error) {
	d, err := s.Deliveries.FindDelivery(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.Clock()
	if status := s.derived(d, now); status.IsTerminal() {
		return nil, fmt.Errorf("delivery %s is %s: %w", d.ID, status, util.ErrInvalidTransition)
	}

	d.Status = model.DeliveryCancelled
	d.UpdatedAt = now
	if err := s.Deliveries.UpdateDelivery(ctx, d, d.Revision); err != nil {
		return nil, err
	}

	logger.Log.Info("delivery cancelled", zap.String("deliveryId", d.ID))
	v := s.view(d, now)
	return &v, nil
}

// RecordCompletion counts one more participant as done. Only running deliveries accept
// completions and the count never exceeds the participant total.
func (s *DeliveryService) RecordCompletion(ctx context.Context, id string) (*DeliveryView, error) {
	d, err := s.Deliveries.FindDelivery(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.Clock()
	status := s.derived(d, now)
	if status != model.DeliveryInProgress {
		return nil, fmt.Errorf("delivery %s is %s: %w", d.ID, status, util.ErrInvalidTransition)
	}

	d.Status = status
	d.CompletedParticipants = min(d.CompletedParticipants+1, d.TotalParticipants)
	d.UpdatedAt = now
	if err := s.Deliveries.UpdateDelivery(ctx, d, d.Revision); err != nil {
		return nil, err
	}

	v := s.view(d, now)
	return &v, nil
}

// SyncStatuses persists derived statuses that drifted from the stored ones. Reads never
// depend on it; it only keeps the stored column useful for external reporting.
func (s *DeliveryService) SyncStatuses(ctx context.Context, now time.Time) (int, error) {
	ctx, span := tracing.Tracer.Start(ctx, "DeliveryService.SyncStatuses")
	defer span.End()

	deliveries, err := s.Deliveries.ListDeliveries(ctx, model.DeliveryFilter{})
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range deliveries {
		d := &deliveries[i]
		status := s.derived(d, now)
		if status == d.Status {
			continue
		}
		d.Status = status
		d.UpdatedAt = now
		if err := s.Deliveries.UpdateDelivery(ctx, d, d.Revision); err != nil {
			if errors.Is(err, util.ErrConflict) || errors.Is(err, util.ErrNotFound) {
				logger.Log.Warn("status sync skipped delivery", zap.String("deliveryId", d.ID), zap.Error(err))
				continue
			}
			return updated, err
		}
		updated++
	}

	span.SetAttributes(attribute.Int("deliveries.updated", updated))
	if updated > 0 {
		logger.Log.Info("delivery statuses synced", zap.Int("updated", updated))
	}
	return updated, nil
}

// ExportReport writes the delivery view as JSON to report storage and returns its URL.
func (s *DeliveryService) ExportReport(ctx context.Context, id string, now time.Time) (string, error) {
	ctx, span := tracing.Tracer.Start(ctx, "DeliveryService.ExportReport")
	defer span.End()

	v, err := s.GetDelivery(ctx, id, now)
	if err != nil {
		return "", err
	}
	if s.Storage == nil {
		return "", errors.New("report storage is not configured")
	}

	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s/%s-%s.json", util.ReportPrefix, v.ID, now.UTC().Format("20060102T150405Z"))
	url, err := s.Storage.Upload(ctx, name, bytes.NewReader(body), int64(len(body)), util.MimeJSON)
	if err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}

	logger.Log.Info("delivery report exported", zap.String("deliveryId", v.ID), zap.String("url", url))
	return url, nil
}
