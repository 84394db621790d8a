package cache

import (
	"context"
	"time"

	"github.com/advancehq/steward/internal/domain"
	"github.com/advancehq/steward/internal/infrastructure/logging"
)

// ConstituentRepositoryWithCache wraps a ConstituentRepository and serves
// the priority-ordered listing from the redis ranking, falling back to
// postgres on errors.
type ConstituentRepositoryWithCache struct {
	repo   domain.ConstituentRepository
	redis  *RedisClient
	logger *logging.Logger
}

// NewConstituentRepositoryWithCache creates a cached constituent repository.
// if redis is nil, all calls go directly to the underlying repository.
func NewConstituentRepositoryWithCache(
	repo domain.ConstituentRepository,
	redis *RedisClient,
	logger *logging.Logger,
) *ConstituentRepositoryWithCache {
	return &ConstituentRepositoryWithCache{
		repo:   repo,
		redis:  redis,
		logger: logger.WithComponent("priority_cache"),
	}
}

// FindByID delegates directly to the underlying repository.
// single entity lookups don't benefit much from caching here.
func (r *ConstituentRepositoryWithCache) FindByID(ctx context.Context, id domain.ConstituentID) (*domain.Constituent, error) {
	return r.repo.FindByID(ctx, id)
}

// FindByIDs delegates directly to the underlying repository.
func (r *ConstituentRepositoryWithCache) FindByIDs(ctx context.Context, ids []domain.ConstituentID) ([]*domain.Constituent, error) {
	return r.repo.FindByIDs(ctx, ids)
}

// ListByOrganization delegates directly to the underlying repository.
func (r *ConstituentRepositoryWithCache) ListByOrganization(ctx context.Context, organizationID domain.OrganizationID, limit, offset int) ([]*domain.Constituent, error) {
	return r.repo.ListByOrganization(ctx, organizationID, limit, offset)
}

// Save delegates directly to the underlying repository.
func (r *ConstituentRepositoryWithCache) Save(ctx context.Context, constituent *domain.Constituent) error {
	return r.repo.Save(ctx, constituent)
}

// UpdateScores delegates directly to the underlying repository.
// redis sync is handled by the use case, not here.
func (r *ConstituentRepositoryWithCache) UpdateScores(ctx context.Context, id domain.ConstituentID, priority, lapseRisk domain.Score, at time.Time) error {
	return r.repo.UpdateScores(ctx, id, priority, lapseRisk, at)
}

// ListByPriority returns an organization's constituents by stored priority.
// tries the redis ranking first, falls back to postgres on error.
func (r *ConstituentRepositoryWithCache) ListByPriority(ctx context.Context, organizationID domain.OrganizationID, limit, offset int) ([]*domain.Constituent, error) {
	// if redis is not configured, go straight to postgres
	if r.redis == nil {
		return r.repo.ListByPriority(ctx, organizationID, limit, offset)
	}

	memberIDs, err := r.redis.TopConstituents(ctx, organizationID.String(), int64(limit), int64(offset))
	if err != nil {
		// redis failed or empty - fall back to postgres
		r.logger.Debug("priority ranking cache miss, falling back to postgres",
			"organization_id", organizationID.String(),
			"limit", limit,
			"offset", offset,
			"reason", err.Error(),
		)
		return r.repo.ListByPriority(ctx, organizationID, limit, offset)
	}

	ids := make([]domain.ConstituentID, 0, len(memberIDs))
	for _, idStr := range memberIDs {
		id, err := domain.ParseConstituentID(idStr)
		if err != nil {
			// corrupted data in redis? log and skip
			r.logger.Warn("invalid constituent id in priority ranking",
				"id", idStr,
				"error", err.Error(),
			)
			continue
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		r.logger.Warn("all priority ranking entries invalid, falling back to postgres")
		return r.repo.ListByPriority(ctx, organizationID, limit, offset)
	}

	// FindByIDs preserves the order from redis (priority descending)
	constituents, err := r.repo.FindByIDs(ctx, ids)
	if err != nil {
		// postgres failed after redis success - this is a real error
		return nil, err
	}

	return constituents, nil
}
