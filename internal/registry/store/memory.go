package store

import (
	"context"
	"sync"

	"carbonregistry/internal/registry/models"
	id "carbonregistry/pkg/domain"
	"carbonregistry/pkg/platform/sentinel"
)

type collabKey struct {
	projectID id.ProjectID
	principal id.Principal
}

type historyKey struct {
	projectID id.ProjectID
	seq       uint64
}

// InMemory is the single-process ledger. One writer lock covers every Update
// call end to end, which reproduces the host-chain's serial execution model
// exactly: transactions never interleave, and staged writes become visible
// only on commit.
type InMemory struct {
	mu            sync.RWMutex
	state         models.RegistryState
	projects      map[id.ProjectID]models.Project
	tags          map[id.ProjectID][]string
	collaborators map[collabKey]models.Collaborator
	updates       map[historyKey]models.ProjectUpdate
	transfers     map[historyKey]models.OwnershipTransfer
}

// NewInMemory builds an empty ledger administered by admin.
func NewInMemory(admin id.Principal) *InMemory {
	return &InMemory{
		state:         models.RegistryState{Admin: admin},
		projects:      make(map[id.ProjectID]models.Project),
		tags:          make(map[id.ProjectID][]string),
		collaborators: make(map[collabKey]models.Collaborator),
		updates:       make(map[historyKey]models.ProjectUpdate),
		transfers:     make(map[historyKey]models.OwnershipTransfer),
	}
}

func (m *InMemory) Update(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		parent:         m,
		state:          m.state,
		stagedProjects: make(map[id.ProjectID]models.Project),
		stagedTags:     make(map[id.ProjectID][]string),
		stagedCollabs:  make(map[collabKey]models.Collaborator),
		deletedCollabs: make(map[collabKey]bool),
	}
	tx.state.Height++

	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (m *InMemory) FindProject(_ context.Context, projectID id.ProjectID) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.projects[projectID]; ok {
		return cloneProject(p), nil
	}
	return nil, sentinel.ErrNotFound
}

func (m *InMemory) FindTags(_ context.Context, projectID id.ProjectID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.projects[projectID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]string(nil), m.tags[projectID]...), nil
}

func (m *InMemory) FindCollaborator(_ context.Context, projectID id.ProjectID, principal id.Principal) (*models.Collaborator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.collaborators[collabKey{projectID, principal}]; ok {
		return cloneCollaborator(c), nil
	}
	return nil, sentinel.ErrNotFound
}

func (m *InMemory) FindUpdate(_ context.Context, projectID id.ProjectID, seq uint64) (*models.ProjectUpdate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.updates[historyKey{projectID, seq}]; ok {
		entry := u
		return &entry, nil
	}
	return nil, sentinel.ErrNotFound
}

func (m *InMemory) FindTransfer(_ context.Context, projectID id.ProjectID, seq uint64) (*models.OwnershipTransfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transfers[historyKey{projectID, seq}]; ok {
		entry := t
		return &entry, nil
	}
	return nil, sentinel.ErrNotFound
}

func (m *InMemory) State(_ context.Context) (models.RegistryState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, nil
}

// memTx stages every write; commit folds the stage into the parent maps. A
// callback error simply abandons the stage, so a multi-field mutation is
// never half-applied.
type memTx struct {
	parent          *InMemory
	state           models.RegistryState
	stagedProjects  map[id.ProjectID]models.Project
	stagedTags      map[id.ProjectID][]string
	stagedCollabs   map[collabKey]models.Collaborator
	deletedCollabs  map[collabKey]bool
	stagedUpdates   []models.ProjectUpdate
	stagedTransfers []models.OwnershipTransfer
}

func (t *memTx) State() *models.RegistryState { return &t.state }

func (t *memTx) Project(projectID id.ProjectID) (*models.Project, error) {
	if p, ok := t.stagedProjects[projectID]; ok {
		return cloneProject(p), nil
	}
	if p, ok := t.parent.projects[projectID]; ok {
		return cloneProject(p), nil
	}
	return nil, sentinel.ErrNotFound
}

func (t *memTx) SaveProject(project *models.Project) error {
	t.stagedProjects[project.ID] = *cloneProject(*project)
	return nil
}

func (t *memTx) InsertProject(project *models.Project, tags []string) error {
	t.stagedProjects[project.ID] = *cloneProject(*project)
	t.stagedTags[project.ID] = append([]string(nil), tags...)
	return nil
}

func (t *memTx) Collaborator(projectID id.ProjectID, principal id.Principal) (*models.Collaborator, error) {
	key := collabKey{projectID, principal}
	if t.deletedCollabs[key] {
		return nil, sentinel.ErrNotFound
	}
	if c, ok := t.stagedCollabs[key]; ok {
		return cloneCollaborator(c), nil
	}
	if c, ok := t.parent.collaborators[key]; ok {
		return cloneCollaborator(c), nil
	}
	return nil, sentinel.ErrNotFound
}

func (t *memTx) InsertCollaborator(collaborator *models.Collaborator) error {
	key := collabKey{collaborator.ProjectID, collaborator.Principal}
	if _, err := t.Collaborator(key.projectID, key.principal); err == nil {
		return sentinel.ErrConflict
	}
	delete(t.deletedCollabs, key)
	t.stagedCollabs[key] = *cloneCollaborator(*collaborator)
	return nil
}

func (t *memTx) DeleteCollaborator(projectID id.ProjectID, principal id.Principal) error {
	key := collabKey{projectID, principal}
	if _, err := t.Collaborator(projectID, principal); err != nil {
		return err
	}
	delete(t.stagedCollabs, key)
	t.deletedCollabs[key] = true
	return nil
}

func (t *memTx) AppendUpdate(update *models.ProjectUpdate) error {
	t.stagedUpdates = append(t.stagedUpdates, *update)
	return nil
}

func (t *memTx) AppendTransfer(transfer *models.OwnershipTransfer) error {
	t.stagedTransfers = append(t.stagedTransfers, *transfer)
	return nil
}

func (t *memTx) commit() {
	p := t.parent
	p.state = t.state
	for pid, project := range t.stagedProjects {
		p.projects[pid] = project
	}
	for pid, tags := range t.stagedTags {
		p.tags[pid] = tags
	}
	for key := range t.deletedCollabs {
		delete(p.collaborators, key)
	}
	for key, c := range t.stagedCollabs {
		p.collaborators[key] = c
	}
	for _, u := range t.stagedUpdates {
		p.updates[historyKey{u.ProjectID, u.Seq}] = u
	}
	for _, tr := range t.stagedTransfers {
		p.transfers[historyKey{tr.ProjectID, tr.Seq}] = tr
	}
}

func cloneProject(p models.Project) *models.Project {
	c := p
	c.DocumentHash = append([]byte(nil), p.DocumentHash...)
	return &c
}

func cloneCollaborator(c models.Collaborator) *models.Collaborator {
	out := c
	out.Permissions = append([]string(nil), c.Permissions...)
	return &out
}
