package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carbonregistry/internal/registry/service"
	"carbonregistry/internal/registry/store"
	id "carbonregistry/pkg/domain"
	dErrors "carbonregistry/pkg/domain-errors"
)

type AdminSuite struct {
	suite.Suite
	ctx    context.Context
	ledger *store.InMemory
	svc    *service.Service
}

func TestAdminSuite(t *testing.T) {
	suite.Run(t, new(AdminSuite))
}

func (s *AdminSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = store.NewInMemory(admin)
	s.svc = service.New(s.ledger,
		service.WithClock(func() time.Time { return fixedNow }),
	)
}

func (s *AdminSuite) registerInput() service.RegisterInput {
	return service.RegisterInput{
		DocumentHash:     make([]byte, 32),
		Title:            "T",
		Description:      "D",
		Location:         "L",
		AreaHectares:     10,
		EstimatedCO2Tons: 100,
	}
}

func (s *AdminSuite) TestIsAdmin() {
	ok, err := s.svc.IsAdmin(s.ctx, admin)
	s.Require().NoError(err)
	s.Require().True(ok)

	ok, err = s.svc.IsAdmin(s.ctx, alice)
	s.Require().NoError(err)
	s.Require().False(ok)
}

func (s *AdminSuite) TestPauseAdminOnly() {
	err := s.svc.Pause(s.ctx, alice)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	state, err := s.svc.GetState(s.ctx)
	s.Require().NoError(err)
	s.Require().False(state.Paused)
}

func (s *AdminSuite) TestPauseBlocksRegistrationOnly() {
	projectID, err := s.svc.Register(s.ctx, alice, s.registerInput())
	s.Require().NoError(err)
	s.Require().Equal(id.ProjectID(1), projectID)

	s.Require().NoError(s.svc.Pause(s.ctx, admin))

	_, err = s.svc.Register(s.ctx, bob, s.registerInput())
	s.Require().True(dErrors.HasCode(err, dErrors.CodePaused))

	// Everything but intake stays live during the pause.
	s.Require().NoError(s.svc.UpdateMetadata(s.ctx, alice, projectID, "T2", "D", "L", ""))
	s.Require().NoError(s.svc.TransferOwnership(s.ctx, alice, projectID, bob, ""))
	s.Require().NoError(s.svc.UpdateStatus(s.ctx, bob, projectID, "active"))

	s.Require().NoError(s.svc.Unpause(s.ctx, admin))

	// The rejected registration consumed no id.
	projectID, err = s.svc.Register(s.ctx, bob, s.registerInput())
	s.Require().NoError(err)
	s.Require().Equal(id.ProjectID(2), projectID)
}

func (s *AdminSuite) TestPauseIdempotent() {
	s.Require().NoError(s.svc.Pause(s.ctx, admin))
	s.Require().NoError(s.svc.Pause(s.ctx, admin))

	state, err := s.svc.GetState(s.ctx)
	s.Require().NoError(err)
	s.Require().True(state.Paused)

	s.Require().NoError(s.svc.Unpause(s.ctx, admin))
	s.Require().NoError(s.svc.Unpause(s.ctx, admin))

	state, err = s.svc.GetState(s.ctx)
	s.Require().NoError(err)
	s.Require().False(state.Paused)
}

func (s *AdminSuite) TestTransferAdmin() {
	s.Require().NoError(s.svc.TransferAdmin(s.ctx, admin, alice))

	// The old admin is a regular principal now.
	err := s.svc.Pause(s.ctx, admin)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	s.Require().NoError(s.svc.Pause(s.ctx, alice))
}

func (s *AdminSuite) TestTransferAdminValidation() {
	err := s.svc.TransferAdmin(s.ctx, admin, "")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidParameter))

	err = s.svc.TransferAdmin(s.ctx, alice, bob)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	// Self-transfer is a harmless no-op, unlike project ownership.
	s.Require().NoError(s.svc.TransferAdmin(s.ctx, admin, admin))

	ok, err := s.svc.IsAdmin(s.ctx, admin)
	s.Require().NoError(err)
	s.Require().True(ok)
}
