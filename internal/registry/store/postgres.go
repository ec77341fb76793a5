package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"carbonregistry/internal/registry/models"
	id "carbonregistry/pkg/domain"
	"carbonregistry/pkg/platform/sentinel"
)

// Schema is the ledger DDL. Applied by operators at deploy time and by the
// integration tests against throwaway containers.
const Schema = `
CREATE TABLE IF NOT EXISTS registry_state (
	singleton       BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	admin_principal TEXT NOT NULL,
	paused          BOOLEAN NOT NULL DEFAULT FALSE,
	project_counter BIGINT NOT NULL DEFAULT 0,
	height          BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS projects (
	id                 BIGINT PRIMARY KEY,
	owner_principal    TEXT NOT NULL,
	document_hash      BYTEA NOT NULL,
	title              TEXT NOT NULL,
	description        TEXT NOT NULL,
	location           TEXT NOT NULL,
	area_hectares      BIGINT NOT NULL,
	estimated_co2_tons BIGINT NOT NULL,
	registered_at      BIGINT NOT NULL,
	status             TEXT NOT NULL,
	visible            BOOLEAN NOT NULL,
	next_update_seq    BIGINT NOT NULL,
	next_transfer_seq  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS project_tags (
	project_id BIGINT NOT NULL REFERENCES projects (id),
	pos        INT NOT NULL,
	tag        TEXT NOT NULL,
	PRIMARY KEY (project_id, pos)
);

CREATE TABLE IF NOT EXISTS collaborators (
	project_id  BIGINT NOT NULL REFERENCES projects (id),
	principal   TEXT NOT NULL,
	role        TEXT NOT NULL,
	permissions JSONB NOT NULL,
	added_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (project_id, principal)
);

CREATE TABLE IF NOT EXISTS project_updates (
	project_id BIGINT NOT NULL REFERENCES projects (id),
	seq        BIGINT NOT NULL,
	updater    TEXT NOT NULL,
	note       TEXT NOT NULL,
	ts         TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (project_id, seq)
);

CREATE TABLE IF NOT EXISTS ownership_transfers (
	project_id     BIGINT NOT NULL REFERENCES projects (id),
	seq            BIGINT NOT NULL,
	from_principal TEXT NOT NULL,
	to_principal   TEXT NOT NULL,
	reason         TEXT NOT NULL,
	ts             TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (project_id, seq)
);
`

// Postgres is the durable ledger. Every Update call runs inside one
// serializable SQL transaction; the registry_state row is locked first, so
// mutating transactions serialize exactly like the in-memory ledger's single
// writer lock.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Init applies the schema and seeds the singleton state row. Seeding is
// idempotent; an existing admin principal is never overwritten.
func (p *Postgres) Init(ctx context.Context, admin id.Principal) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO registry_state (singleton, admin_principal)
		VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO NOTHING
	`, admin.String())
	if err != nil {
		return fmt.Errorf("seed registry state: %w", err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	var state models.RegistryState
	var admin string
	err = sqlTx.QueryRowContext(ctx, `
		SELECT admin_principal, paused, project_counter, height
		FROM registry_state
		WHERE singleton
		FOR UPDATE
	`).Scan(&admin, &state.Paused, &state.ProjectCounter, &state.Height)
	if err != nil {
		return fmt.Errorf("lock registry state: %w", err)
	}
	state.Admin = id.Principal(admin)
	state.Height++

	tx := &pgTx{ctx: ctx, tx: sqlTx, state: state}
	if err := fn(tx); err != nil {
		return err
	}

	_, err = sqlTx.ExecContext(ctx, `
		UPDATE registry_state
		SET admin_principal = $1, paused = $2, project_counter = $3, height = $4
		WHERE singleton
	`, tx.state.Admin.String(), tx.state.Paused, tx.state.ProjectCounter, tx.state.Height)
	if err != nil {
		return fmt.Errorf("flush registry state: %w", err)
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

const projectColumns = `
	id, owner_principal, document_hash, title, description, location,
	area_hectares, estimated_co2_tons, registered_at, status, visible,
	next_update_seq, next_transfer_seq
`

func (p *Postgres) FindProject(ctx context.Context, projectID id.ProjectID) (*models.Project, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, uint64(projectID))
	return scanProject(row)
}

func (p *Postgres) FindTags(ctx context.Context, projectID id.ProjectID) ([]string, error) {
	if _, err := p.FindProject(ctx, projectID); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT tag FROM project_tags WHERE project_id = $1 ORDER BY pos`, uint64(projectID))
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

func (p *Postgres) FindCollaborator(ctx context.Context, projectID id.ProjectID, principal id.Principal) (*models.Collaborator, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT project_id, principal, role, permissions, added_at
		FROM collaborators
		WHERE project_id = $1 AND principal = $2
	`, uint64(projectID), principal.String())
	return scanCollaborator(row)
}

func (p *Postgres) FindUpdate(ctx context.Context, projectID id.ProjectID, seq uint64) (*models.ProjectUpdate, error) {
	var u models.ProjectUpdate
	var pid uint64
	var updater string
	err := p.db.QueryRowContext(ctx, `
		SELECT project_id, seq, updater, note, ts
		FROM project_updates
		WHERE project_id = $1 AND seq = $2
	`, uint64(projectID), seq).Scan(&pid, &u.Seq, &updater, &u.Note, &u.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query project update: %w", err)
	}
	u.ProjectID = id.ProjectID(pid)
	u.Updater = id.Principal(updater)
	return &u, nil
}

func (p *Postgres) FindTransfer(ctx context.Context, projectID id.ProjectID, seq uint64) (*models.OwnershipTransfer, error) {
	var t models.OwnershipTransfer
	var pid uint64
	var from, to string
	err := p.db.QueryRowContext(ctx, `
		SELECT project_id, seq, from_principal, to_principal, reason, ts
		FROM ownership_transfers
		WHERE project_id = $1 AND seq = $2
	`, uint64(projectID), seq).Scan(&pid, &t.Seq, &from, &to, &t.Reason, &t.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query ownership transfer: %w", err)
	}
	t.ProjectID = id.ProjectID(pid)
	t.From = id.Principal(from)
	t.To = id.Principal(to)
	return &t, nil
}

func (p *Postgres) State(ctx context.Context) (models.RegistryState, error) {
	var state models.RegistryState
	var admin string
	err := p.db.QueryRowContext(ctx, `
		SELECT admin_principal, paused, project_counter, height
		FROM registry_state
		WHERE singleton
	`).Scan(&admin, &state.Paused, &state.ProjectCounter, &state.Height)
	if err != nil {
		return models.RegistryState{}, fmt.Errorf("query registry state: %w", err)
	}
	state.Admin = id.Principal(admin)
	return state, nil
}

// pgTx issues writes immediately inside the wrapping SQL transaction; the
// rollback in Update discards them when the callback fails.
type pgTx struct {
	ctx   context.Context
	tx    *sql.Tx
	state models.RegistryState
}

func (t *pgTx) State() *models.RegistryState { return &t.state }

func (t *pgTx) Project(projectID id.ProjectID) (*models.Project, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, uint64(projectID))
	return scanProject(row)
}

func (t *pgTx) SaveProject(project *models.Project) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE projects
		SET owner_principal = $2, title = $3, description = $4, location = $5,
		    status = $6, visible = $7, next_update_seq = $8, next_transfer_seq = $9
		WHERE id = $1
	`, uint64(project.ID), project.Owner.String(), project.Title, project.Description,
		project.Location, string(project.Status), project.Visible,
		project.NextUpdateSeq, project.NextTransferSeq)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

func (t *pgTx) InsertProject(project *models.Project, tags []string) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, uint64(project.ID), project.Owner.String(), project.DocumentHash,
		project.Title, project.Description, project.Location,
		project.AreaHectares, project.EstimatedCO2Tons, project.RegisteredAt,
		string(project.Status), project.Visible,
		project.NextUpdateSeq, project.NextTransferSeq)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	for pos, tag := range tags {
		_, err := t.tx.ExecContext(t.ctx, `
			INSERT INTO project_tags (project_id, pos, tag) VALUES ($1, $2, $3)
		`, uint64(project.ID), pos, tag)
		if err != nil {
			return fmt.Errorf("insert project tag: %w", err)
		}
	}
	return nil
}

func (t *pgTx) Collaborator(projectID id.ProjectID, principal id.Principal) (*models.Collaborator, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT project_id, principal, role, permissions, added_at
		FROM collaborators
		WHERE project_id = $1 AND principal = $2
		FOR UPDATE
	`, uint64(projectID), principal.String())
	return scanCollaborator(row)
}

func (t *pgTx) InsertCollaborator(collaborator *models.Collaborator) error {
	permissions, err := json.Marshal(collaborator.Permissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO collaborators (project_id, principal, role, permissions, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, principal) DO NOTHING
	`, uint64(collaborator.ProjectID), collaborator.Principal.String(),
		collaborator.Role, permissions, collaborator.AddedAt)
	if err != nil {
		return fmt.Errorf("insert collaborator: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("collaborator rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (t *pgTx) DeleteCollaborator(projectID id.ProjectID, principal id.Principal) error {
	res, err := t.tx.ExecContext(t.ctx, `
		DELETE FROM collaborators WHERE project_id = $1 AND principal = $2
	`, uint64(projectID), principal.String())
	if err != nil {
		return fmt.Errorf("delete collaborator: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("collaborator rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (t *pgTx) AppendUpdate(update *models.ProjectUpdate) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO project_updates (project_id, seq, updater, note, ts)
		VALUES ($1, $2, $3, $4, $5)
	`, uint64(update.ProjectID), update.Seq, update.Updater.String(), update.Note, update.Timestamp)
	if err != nil {
		return fmt.Errorf("insert project update: %w", err)
	}
	return nil
}

func (t *pgTx) AppendTransfer(transfer *models.OwnershipTransfer) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO ownership_transfers (project_id, seq, from_principal, to_principal, reason, ts)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uint64(transfer.ProjectID), transfer.Seq, transfer.From.String(),
		transfer.To.String(), transfer.Reason, transfer.Timestamp)
	if err != nil {
		return fmt.Errorf("insert ownership transfer: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var pid uint64
	var owner, status string
	err := row.Scan(&pid, &owner, &p.DocumentHash, &p.Title, &p.Description,
		&p.Location, &p.AreaHectares, &p.EstimatedCO2Tons, &p.RegisteredAt,
		&status, &p.Visible, &p.NextUpdateSeq, &p.NextTransferSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.ID = id.ProjectID(pid)
	p.Owner = id.Principal(owner)
	p.Status = models.ProjectStatus(status)
	return &p, nil
}

func scanCollaborator(row rowScanner) (*models.Collaborator, error) {
	var c models.Collaborator
	var pid uint64
	var principal string
	var permissions []byte
	err := row.Scan(&pid, &principal, &c.Role, &permissions, &c.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan collaborator: %w", err)
	}
	if err := json.Unmarshal(permissions, &c.Permissions); err != nil {
		return nil, fmt.Errorf("unmarshal permissions: %w", err)
	}
	c.ProjectID = id.ProjectID(pid)
	c.Principal = id.Principal(principal)
	return &c, nil
}
