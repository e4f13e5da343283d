package services

import (
	"context"
	"fmt"

	"review-workflow-api/config"
	"review-workflow-api/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"
)

const reviewersCacheKey = "reviewers"

// ReviewerDirectory lists the users that may be assigned as reviewers: active
// users whose role holds the review.handle permission.
type ReviewerDirectory struct {
	db       *gorm.DB
	workflow *config.WorkflowHolder
	cache    *expirable.LRU[string, []models.User]
}

func NewReviewerDirectory(db *gorm.DB, workflow *config.WorkflowHolder) *ReviewerDirectory {
	ttl := workflow.Get().Reviewers.CacheTTL
	return &ReviewerDirectory{
		db:       db,
		workflow: workflow,
		cache:    expirable.NewLRU[string, []models.User](1, nil, ttl),
	}
}

func (d *ReviewerDirectory) Reviewers(ctx context.Context) ([]models.User, error) {
	if users, ok := d.cache.Get(reviewersCacheKey); ok {
		return users, nil
	}

	query := d.db.WithContext(ctx).Where("delete_at IS NULL")
	if roles, restricted := d.workflow.Get().RolesFor(config.PermissionHandle); restricted {
		if len(roles) == 0 {
			return []models.User{}, nil
		}
		query = query.Where("role_id IN ?", roles)
	}

	users := []models.User{}
	if err := query.Order("user_fname ASC, user_lname ASC, user_id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load reviewers: %w", err)
	}
	d.cache.Add(reviewersCacheKey, users)
	return users, nil
}

// Purge drops cached results, e.g. after a config reload.
func (d *ReviewerDirectory) Purge() {
	d.cache.Purge()
}
