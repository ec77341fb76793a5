//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"carbonregistry/internal/registry/models"
	"carbonregistry/internal/registry/service"
	"carbonregistry/internal/registry/store"
	id "carbonregistry/pkg/domain"
	dErrors "carbonregistry/pkg/domain-errors"
	"carbonregistry/pkg/platform/sentinel"
)

// PostgresLedgerSuite runs the service over the durable ledger. It covers the
// behavior the in-memory tests cannot: real transaction rollback, row locks,
// and JSONB round-trips.
type PostgresLedgerSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	db        *sql.DB
	ledger    *store.Postgres
	svc       *service.Service
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcpostgres.Run(s.ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("registry_test"),
		tcpostgres.WithUsername("registry"),
		tcpostgres.WithPassword("registry"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = sql.Open("pgx", dsn)
	s.Require().NoError(err)

	s.ledger = store.NewPostgres(s.db)
	s.Require().NoError(s.ledger.Init(s.ctx, "registry-admin"))
	s.svc = service.New(s.ledger)
}

func (s *PostgresLedgerSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresLedgerSuite) SetupTest() {
	_, err := s.db.ExecContext(s.ctx, `
		TRUNCATE ownership_transfers, project_updates, collaborators, project_tags, projects;
		UPDATE registry_state SET admin_principal = 'registry-admin', paused = FALSE, project_counter = 0, height = 0;
	`)
	s.Require().NoError(err)
}

func (s *PostgresLedgerSuite) register(owner id.Principal) id.ProjectID {
	s.T().Helper()
	projectID, err := s.svc.Register(s.ctx, owner, service.RegisterInput{
		DocumentHash:     make([]byte, 32),
		Title:            "Rio Verde Reserve",
		Description:      "Primary forest preservation",
		Location:         "Amazonas, Brazil",
		AreaHectares:     1200,
		EstimatedCO2Tons: 48000,
		Tags:             []string{"rainforest", "redd+"},
	})
	s.Require().NoError(err)
	return projectID
}

func (s *PostgresLedgerSuite) TestRegisterRoundTrip() {
	projectID := s.register("alice")
	s.Require().Equal(id.ProjectID(1), projectID)

	project, err := s.ledger.FindProject(s.ctx, projectID)
	s.Require().NoError(err)
	s.Require().Equal(id.Principal("alice"), project.Owner)
	s.Require().Equal(models.StatusPending, project.Status)
	s.Require().Len(project.DocumentHash, 32)

	tags, err := s.ledger.FindTags(s.ctx, projectID)
	s.Require().NoError(err)
	s.Require().Equal([]string{"rainforest", "redd+"}, tags)

	state, err := s.ledger.State(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(uint64(1), state.ProjectCounter)
	s.Require().Equal(uint64(1), state.Height)
}

func (s *PostgresLedgerSuite) TestFailedRegistrationRollsBackCounter() {
	_, err := s.svc.Register(s.ctx, "alice", service.RegisterInput{
		DocumentHash: make([]byte, 31),
		Title:        "T", Description: "D", Location: "L",
		AreaHectares: 10, EstimatedCO2Tons: 100,
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidHash))

	state, err := s.ledger.State(s.ctx)
	s.Require().NoError(err)
	s.Require().Zero(state.ProjectCounter)
	s.Require().Zero(state.Height)

	s.Require().Equal(id.ProjectID(1), s.register("alice"))
}

func (s *PostgresLedgerSuite) TestMetadataHistoryPersists() {
	projectID := s.register("alice")

	s.Require().NoError(s.svc.UpdateMetadata(s.ctx, "alice", projectID, "New", "D", "L", "survey"))

	entry, err := s.ledger.FindUpdate(s.ctx, projectID, 1)
	s.Require().NoError(err)
	s.Require().Equal(id.Principal("alice"), entry.Updater)
	s.Require().Equal("survey", entry.Note)
	s.Require().False(entry.Timestamp.IsZero())

	project, err := s.ledger.FindProject(s.ctx, projectID)
	s.Require().NoError(err)
	s.Require().Equal(uint64(2), project.NextUpdateSeq)
}

func (s *PostgresLedgerSuite) TestTransferProvenancePersists() {
	projectID := s.register("alice")

	s.Require().NoError(s.svc.TransferOwnership(s.ctx, "alice", projectID, "bob", "sold"))

	transfer, err := s.ledger.FindTransfer(s.ctx, projectID, 1)
	s.Require().NoError(err)
	s.Require().Equal(id.Principal("alice"), transfer.From)
	s.Require().Equal(id.Principal("bob"), transfer.To)

	project, err := s.ledger.FindProject(s.ctx, projectID)
	s.Require().NoError(err)
	s.Require().Equal(id.Principal("bob"), project.Owner)
}

func (s *PostgresLedgerSuite) TestCollaboratorJSONBRoundTrip() {
	projectID := s.register("alice")

	permissions := []string{models.PermissionUpdateStatus, "audit-read"}
	s.Require().NoError(s.svc.AddCollaborator(s.ctx, "alice", projectID, "carol", "verifier", permissions))

	collaborator, err := s.ledger.FindCollaborator(s.ctx, projectID, "carol")
	s.Require().NoError(err)
	s.Require().Equal(permissions, collaborator.Permissions)

	err = s.svc.AddCollaborator(s.ctx, "alice", projectID, "carol", "verifier", nil)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeDuplicateRegistration))

	s.Require().NoError(s.svc.RemoveCollaborator(s.ctx, "alice", projectID, "carol"))
	_, err = s.ledger.FindCollaborator(s.ctx, projectID, "carol")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresLedgerSuite) TestPauseStatePersists() {
	s.Require().NoError(s.svc.Pause(s.ctx, "registry-admin"))

	_, err := s.svc.Register(s.ctx, "alice", service.RegisterInput{
		DocumentHash: make([]byte, 32),
		Title:        "T", Description: "D", Location: "L",
		AreaHectares: 10, EstimatedCO2Tons: 100,
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodePaused))

	s.Require().NoError(s.svc.Unpause(s.ctx, "registry-admin"))
	s.Require().Equal(id.ProjectID(1), s.register("alice"))
}

func (s *PostgresLedgerSuite) TestCallbackErrorRollsBackWrites() {
	boom := dErrors.New(dErrors.CodeInternal, "forced failure")
	err := s.ledger.Update(s.ctx, func(tx store.Tx) error {
		project, perr := models.NewProject(1, "alice", make([]byte, 32), "T", "D", "L", 10, 100, 1)
		s.Require().NoError(perr)
		s.Require().NoError(tx.InsertProject(project, nil))
		return boom
	})
	s.Require().ErrorIs(err, boom)

	_, err = s.ledger.FindProject(s.ctx, 1)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
