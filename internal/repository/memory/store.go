// Package memory is an in-process adapter for every service repository port. It keeps
// deep copies so callers can never mutate stored state through returned values.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"
	"edu_admin_backend/internal/versioning"

	"gorm.io/datatypes"
)

var (
	_ service.DefinitionRepository = (*Store)(nil)
	_ service.VersionRepository    = (*Store)(nil)
	_ service.QuestionRepository   = (*Store)(nil)
	_ service.DeliveryRepository   = (*Store)(nil)
	_ service.DirectoryRepository  = (*Store)(nil)
)

type Store struct {
	mu sync.Mutex

	definitions map[string]*model.Definition
	versions    map[string]*model.Version
	questions   map[string]*model.QuestionVersion
	deliveries  map[string]*model.Delivery

	groups    map[string]model.DirectoryGroup
	companies map[string]model.DirectoryCompany
	users     map[string]model.DirectoryUser

	// insertion sequence, used to order records created within the same instant
	seq   int
	order map[string]int
}

func New() *Store {
	return &Store{
		definitions: make(map[string]*model.Definition),
		versions:    make(map[string]*model.Version),
		questions:   make(map[string]*model.QuestionVersion),
		deliveries:  make(map[string]*model.Delivery),
		groups:      make(map[string]model.DirectoryGroup),
		companies:   make(map[string]model.DirectoryCompany),
		users:       make(map[string]model.DirectoryUser),
		order:       make(map[string]int),
	}
}

func missing(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, util.ErrNotFound)
}

func (s *Store) track(id string) {
	s.seq++
	s.order[id] = s.seq
}

// newestFirst orders by createdAt desc, then by insertion desc.
func (s *Store) newestFirst(aID string, aAt time.Time, bID string, bAt time.Time) int {
	if c := bAt.Compare(aAt); c != 0 {
		return c
	}
	return cmp.Compare(s.order[bID], s.order[aID])
}

func ensureID(b *model.UUIDBase) {
	if b.ID == "" {
		b.ID = model.GenerateUUID()
	}
}

func cloneDefinition(d *model.Definition) *model.Definition {
	c := *d
	c.TargetLevels = slices.Clone(d.TargetLevels)
	return &c
}

func cloneQuestionVersion(q *model.QuestionVersion) *model.QuestionVersion {
	c := *q
	c.QuestionData = datatypes.NewJSONType(q.Content())
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneDelivery(d *model.Delivery) *model.Delivery {
	c := *d
	c.Targets = slices.Clone(d.Targets)
	return &c
}

// Definitions

func (s *Store) CreateDefinition(ctx context.Context, d *model.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&d.UUIDBase)
	s.definitions[d.ID] = cloneDefinition(d)
	s.track(d.ID)
	return nil
}

func (s *Store) FindDefinition(ctx context.Context, id string) (*model.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.definitions[id]
	if !ok {
		return nil, missing("definition", id)
	}
	return cloneDefinition(d), nil
}

func (s *Store) ListDefinitions(ctx context.Context, kind model.ContentKind, page, limit int) ([]model.Definition, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []model.Definition
	for _, d := range s.definitions {
		if kind == "" || d.Kind == kind {
			all = append(all, *cloneDefinition(d))
		}
	}
	slices.SortFunc(all, func(a, b model.Definition) int {
		return s.newestFirst(a.ID, a.CreatedAt, b.ID, b.CreatedAt)
	})

	total := int64(len(all))
	start, end := util.PageWindow(page, limit, len(all))
	return all[start:end], total, nil
}

func (s *Store) UpdateDefinition(ctx context.Context, d *model.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.definitions[d.ID]
	if !ok {
		return missing("definition", d.ID)
	}
	c := cloneDefinition(d)
	c.Kind = stored.Kind
	c.LastVersionNumber = stored.LastVersionNumber
	c.CreatedAt = stored.CreatedAt
	s.definitions[d.ID] = c
	return nil
}

func (s *Store) TouchDefinitions(ctx context.Context, ids []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if d, ok := s.definitions[id]; ok {
			d.UpdatedAt = at
		}
	}
	return nil
}

// Versions

// versionView copies a stored version and attaches copies of the question versions its
// entries point at.
func (s *Store) versionView(v *model.Version, withEntries bool) model.Version {
	c := *v
	c.PublishedAt = cloneTime(v.PublishedAt)
	c.Questions = nil
	if !withEntries {
		return c
	}
	c.Questions = make([]model.VersionQuestion, len(v.Questions))
	for i, e := range v.Questions {
		e.QuestionVersion = nil
		if qv, ok := s.questions[e.QuestionVersionID]; ok {
			e.QuestionVersion = cloneQuestionVersion(qv)
		}
		c.Questions[i] = e
	}
	return c
}

func (s *Store) versionsOf(definitionID string) []model.Version {
	var out []model.Version
	for _, v := range s.versions {
		if v.DefinitionID == definitionID {
			out = append(out, s.versionView(v, false))
		}
	}
	return out
}

func (s *Store) CreateNextVersion(ctx context.Context, v *model.Version, copyForward bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.definitions[v.DefinitionID]
	if !ok {
		return missing("definition", v.DefinitionID)
	}

	existing := s.versionsOf(def.ID)
	ensureID(&v.UUIDBase)
	v.VersionNumber = versioning.Next(existing, def.LastVersionNumber)

	v.Questions = nil
	if latest, ok := versioning.Latest(existing); ok && copyForward {
		src := s.versionView(s.versions[latest.ID], true)
		v.Questions = src.BranchEntries()
	}
	for i := range v.Questions {
		v.Questions[i].ID = model.GenerateUUID()
		v.Questions[i].VersionID = v.ID
	}
	v.SyncQuestionCount()

	stored := *v
	stored.Questions = make([]model.VersionQuestion, len(v.Questions))
	for i, e := range v.Questions {
		e.QuestionVersion = nil
		stored.Questions[i] = e
	}
	s.versions[v.ID] = &stored
	s.track(v.ID)

	def.UpdatedAt = at
	def.LastVersionNumber = v.VersionNumber
	return nil
}

func (s *Store) FindVersion(ctx context.Context, definitionID, versionID string) (*model.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok || v.DefinitionID != definitionID {
		return nil, missing("version", versionID)
	}
	c := s.versionView(v, true)
	return &c, nil
}

func (s *Store) ListVersions(ctx context.Context, definitionID string) ([]model.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.versionsOf(definitionID)
	versioning.SortDesc(out)
	return out, nil
}

func (s *Store) UpdateVersionStatus(ctx context.Context, v *model.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.versions[v.ID]
	if !ok {
		return missing("version", v.ID)
	}
	stored.Status = v.Status
	stored.PublishedAt = cloneTime(v.PublishedAt)
	stored.UpdatedAt = v.UpdatedAt
	return nil
}

func (s *Store) AddVersionEntry(ctx context.Context, v *model.Version, qv *model.QuestionVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.versions[v.ID]
	if !ok {
		return missing("version", v.ID)
	}

	ensureID(&qv.UUIDBase)
	s.questions[qv.ID] = cloneQuestionVersion(qv)
	s.track(qv.ID)

	stored.Questions = append(stored.Questions, model.VersionQuestion{
		UUIDBase:          model.UUIDBase{ID: model.GenerateUUID(), CreatedAt: qv.CreatedAt, UpdatedAt: qv.CreatedAt},
		VersionID:         stored.ID,
		QuestionVersionID: qv.ID,
	})
	stored.SyncQuestionCount()
	stored.UpdatedAt = qv.CreatedAt

	*v = s.versionView(stored, true)
	return nil
}

func (s *Store) RemoveVersionEntry(ctx context.Context, v *model.Version, questionVersionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.versions[v.ID]
	if !ok {
		return missing("version", v.ID)
	}

	idx := slices.IndexFunc(stored.Questions, func(e model.VersionQuestion) bool {
		return e.QuestionVersionID == questionVersionID
	})
	if idx < 0 {
		return missing("version entry", questionVersionID)
	}
	stored.Questions = slices.Delete(stored.Questions, idx, idx+1)
	stored.SyncQuestionCount()

	*v = s.versionView(stored, true)
	return nil
}

// Question versions

func (s *Store) FindQuestionVersion(ctx context.Context, id string) (*model.QuestionVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qv, ok := s.questions[id]
	if !ok {
		return nil, missing("question version", id)
	}
	return cloneQuestionVersion(qv), nil
}

func (s *Store) ListQuestionHistory(ctx context.Context, questionID string) ([]model.QuestionVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.QuestionVersion
	for _, qv := range s.questions {
		if qv.QuestionID == questionID {
			out = append(out, *cloneQuestionVersion(qv))
		}
	}
	versioning.SortDesc(out)
	return out, nil
}

func (s *Store) SupersedeQuestionVersion(ctx context.Context, oldID string, next *model.QuestionVersion) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.questions[oldID]
	if !ok {
		return nil, missing("question version", oldID)
	}
	if old.Superseded() {
		return nil, fmt.Errorf("question version %s already superseded: %w", oldID, util.ErrConflict)
	}

	ensureID(&next.UUIDBase)
	s.questions[next.ID] = cloneQuestionVersion(next)
	s.track(next.ID)

	old.Status = model.QuestionVersionSuperseded
	old.SupersededBy = next.ID
	old.UpdatedAt = next.CreatedAt

	var drafts []string
	for id, v := range s.versions {
		if !v.Editable() {
			continue
		}
		changed := false
		for i := range v.Questions {
			if v.Questions[i].QuestionVersionID == oldID {
				v.Questions[i].QuestionVersionID = next.ID
				changed = true
			}
		}
		if changed {
			v.UpdatedAt = next.CreatedAt
			drafts = append(drafts, id)
		}
	}
	slices.Sort(drafts)
	return drafts, nil
}

func (s *Store) DefinitionsOfVersions(ctx context.Context, versionIDs []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, vid := range versionIDs {
		if v, ok := s.versions[vid]; ok && !slices.Contains(ids, v.DefinitionID) {
			ids = append(ids, v.DefinitionID)
		}
	}
	return ids, nil
}

// Deliveries

func (s *Store) CreateDelivery(ctx context.Context, d *model.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&d.UUIDBase)
	if d.Revision == 0 {
		d.Revision = 1
	}
	s.deliveries[d.ID] = cloneDelivery(d)
	s.track(d.ID)
	return nil
}

func (s *Store) FindDelivery(ctx context.Context, id string) (*model.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[id]
	if !ok {
		return nil, missing("delivery", id)
	}
	return cloneDelivery(d), nil
}

func (s *Store) ListDeliveries(ctx context.Context, filter model.DeliveryFilter) ([]model.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Delivery
	for _, d := range s.deliveries {
		if filter.DefinitionID != "" && d.DefinitionID != filter.DefinitionID {
			continue
		}
		if filter.Kind != "" && d.DefinitionKind != filter.Kind {
			continue
		}
		out = append(out, *cloneDelivery(d))
	}
	slices.SortFunc(out, func(a, b model.Delivery) int {
		return s.newestFirst(a.ID, a.CreatedAt, b.ID, b.CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateDelivery(ctx context.Context, d *model.Delivery, expectedRevision int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.deliveries[d.ID]
	if !ok {
		return missing("delivery", d.ID)
	}
	if stored.Revision != expectedRevision {
		return fmt.Errorf("delivery %s changed since revision %d: %w", d.ID, expectedRevision, util.ErrConflict)
	}

	stored.TargetDescription = d.TargetDescription
	stored.Targets = slices.Clone(d.Targets)
	stored.EndDate = d.EndDate
	stored.Status = d.Status
	stored.CompletedParticipants = d.CompletedParticipants
	stored.UpdatedAt = d.UpdatedAt
	stored.Revision = expectedRevision + 1

	d.Revision = stored.Revision
	return nil
}

func (s *Store) DeleteDelivery(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[id]; !ok {
		return missing("delivery", id)
	}
	delete(s.deliveries, id)
	return nil
}

// Directory

func (s *Store) FindGroup(ctx context.Context, id string) (*model.DirectoryGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, missing("group", id)
	}
	return &g, nil
}

func (s *Store) FindCompany(ctx context.Context, id string) (*model.DirectoryCompany, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, missing("company", id)
	}
	return &c, nil
}

func (s *Store) FindUser(ctx context.Context, id string) (*model.DirectoryUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, missing("user", id)
	}
	return &u, nil
}

func (s *Store) SaveGroup(ctx context.Context, g *model.DirectoryGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = *g
	return nil
}

func (s *Store) SaveCompany(ctx context.Context, c *model.DirectoryCompany) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[c.ID] = *c
	return nil
}

func (s *Store) SaveUser(ctx context.Context, u *model.DirectoryUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
	return nil
}
