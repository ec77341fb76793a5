// Package cache decorates the registry service with a Redis read-through
// cache for the hottest read: project by id. Mutations pass through to the
// service and invalidate the cached record, so the TTL only bounds staleness
// across process boundaries, not after local writes.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"carbonregistry/internal/registry/models"
	"carbonregistry/internal/registry/service"
	id "carbonregistry/pkg/domain"
)

// Cached embeds the registry service and overrides the project read path.
type Cached struct {
	*service.Service
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(svc *service.Service, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{Service: svc, rdb: rdb, ttl: ttl, logger: logger}
}

func key(projectID id.ProjectID) string {
	return "registry:project:" + projectID.String()
}

// GetProject serves from Redis when possible. Cache failures degrade to the
// ledger read; they are logged, never surfaced.
func (c *Cached) GetProject(ctx context.Context, projectID id.ProjectID) (*models.Project, error) {
	payload, err := c.rdb.Get(ctx, key(projectID)).Bytes()
	if err == nil {
		var project models.Project
		if err := json.Unmarshal(payload, &project); err == nil {
			return &project, nil
		}
		// Unparseable entry: fall through and rewrite it.
	} else if err != redis.Nil {
		c.logger.WarnContext(ctx, "project cache read failed", "error", err)
	}

	project, err := c.Service.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(project); err == nil {
		if err := c.rdb.Set(ctx, key(projectID), payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "project cache write failed", "error", err)
		}
	}
	return project, nil
}

func (c *Cached) invalidate(ctx context.Context, projectID id.ProjectID) {
	if err := c.rdb.Del(ctx, key(projectID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "project cache invalidation failed",
			"project_id", projectID,
			"error", err,
		)
	}
}

func (c *Cached) UpdateMetadata(ctx context.Context, caller id.Principal, projectID id.ProjectID, title, description, location, note string) error {
	if err := c.Service.UpdateMetadata(ctx, caller, projectID, title, description, location, note); err != nil {
		return err
	}
	c.invalidate(ctx, projectID)
	return nil
}

func (c *Cached) TransferOwnership(ctx context.Context, caller id.Principal, projectID id.ProjectID, newOwner id.Principal, reason string) error {
	if err := c.Service.TransferOwnership(ctx, caller, projectID, newOwner, reason); err != nil {
		return err
	}
	c.invalidate(ctx, projectID)
	return nil
}

func (c *Cached) UpdateStatus(ctx context.Context, caller id.Principal, projectID id.ProjectID, newStatus models.ProjectStatus) error {
	if err := c.Service.UpdateStatus(ctx, caller, projectID, newStatus); err != nil {
		return err
	}
	c.invalidate(ctx, projectID)
	return nil
}

func (c *Cached) ToggleVisibility(ctx context.Context, caller id.Principal, projectID id.ProjectID) (bool, error) {
	visible, err := c.Service.ToggleVisibility(ctx, caller, projectID)
	if err != nil {
		return false, err
	}
	c.invalidate(ctx, projectID)
	return visible, nil
}
