//go:build integration

package cache_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"carbonregistry/internal/registry/cache"
	"carbonregistry/internal/registry/models"
	"carbonregistry/internal/registry/service"
	"carbonregistry/internal/registry/store"
	id "carbonregistry/pkg/domain"
)

type CacheSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcredis.RedisContainer
	rdb       *redis.Client
	svc       *service.Service
	cached    *cache.Cached
}

func TestCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcredis.Run(s.ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(url)
	s.Require().NoError(err)
	s.rdb = redis.NewClient(opts)
	s.Require().NoError(s.rdb.Ping(s.ctx).Err())
}

func (s *CacheSuite) TearDownSuite() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *CacheSuite) SetupTest() {
	s.Require().NoError(s.rdb.FlushAll(s.ctx).Err())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = service.New(store.NewInMemory("registry-admin"), service.WithLogger(logger))
	s.cached = cache.New(s.svc, s.rdb, time.Minute, logger)
}

func (s *CacheSuite) register(owner id.Principal) id.ProjectID {
	s.T().Helper()
	projectID, err := s.svc.Register(s.ctx, owner, service.RegisterInput{
		DocumentHash:     make([]byte, 32),
		Title:            "Rio Verde Reserve",
		Description:      "D",
		Location:         "L",
		AreaHectares:     10,
		EstimatedCO2Tons: 100,
	})
	s.Require().NoError(err)
	return projectID
}

func (s *CacheSuite) TestReadThroughPopulatesRedis() {
	projectID := s.register("alice")

	project, err := s.cached.GetProject(s.ctx, projectID)
	s.Require().NoError(err)
	s.Require().Equal("Rio Verde Reserve", project.Title)

	payload, err := s.rdb.Get(s.ctx, "registry:project:"+projectID.String()).Bytes()
	s.Require().NoError(err)
	var stored models.Project
	s.Require().NoError(json.Unmarshal(payload, &stored))
	s.Require().Equal("Rio Verde Reserve", stored.Title)
}

func (s *CacheSuite) TestSecondReadServedFromCache() {
	projectID := s.register("alice")

	_, err := s.cached.GetProject(s.ctx, projectID)
	s.Require().NoError(err)

	// Doctor the cached entry; a cache hit returns it verbatim.
	doctored, err := s.svc.GetProject(s.ctx, projectID)
	s.Require().NoError(err)
	doctored.Title = "cached-copy"
	payload, err := json.Marshal(doctored)
	s.Require().NoError(err)
	s.Require().NoError(s.rdb.Set(s.ctx, "registry:project:"+projectID.String(), payload, time.Minute).Err())

	project, err := s.cached.GetProject(s.ctx, projectID)
	s.Require().NoError(err)
	s.Require().Equal("cached-copy", project.Title)
}

func (s *CacheSuite) TestMutationInvalidates() {
	projectID := s.register("alice")

	_, err := s.cached.GetProject(s.ctx, projectID)
	s.Require().NoError(err)

	s.Require().NoError(s.cached.UpdateMetadata(s.ctx, "alice", projectID, "Renamed", "D", "L", ""))

	err = s.rdb.Get(s.ctx, "registry:project:"+projectID.String()).Err()
	s.Require().ErrorIs(err, redis.Nil)

	project, err := s.cached.GetProject(s.ctx, projectID)
	s.Require().NoError(err)
	s.Require().Equal("Renamed", project.Title)
}

func (s *CacheSuite) TestStatusAndVisibilityInvalidate() {
	projectID := s.register("alice")

	_, err := s.cached.GetProject(s.ctx, projectID)
	s.Require().NoError(err)

	s.Require().NoError(s.cached.UpdateStatus(s.ctx, "alice", projectID, models.StatusActive))
	project, err := s.cached.GetProject(s.ctx, projectID)
	s.Require().NoError(err)
	s.Require().Equal(models.StatusActive, project.Status)

	visible, err := s.cached.ToggleVisibility(s.ctx, "alice", projectID)
	s.Require().NoError(err)
	s.Require().False(visible)
	project, err = s.cached.GetProject(s.ctx, projectID)
	s.Require().NoError(err)
	s.Require().False(project.Visible)
}
