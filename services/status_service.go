package services

import (
	"context"
	"strings"

	"review-workflow-api/config"

	"gorm.io/gorm"
)

// StatusService answers "what is the review status of document X" for many
// documents of one content type and locale with a single query.
type StatusService struct {
	db       *gorm.DB
	workflow *config.WorkflowHolder
}

func NewStatusService(db *gorm.DB, workflow *config.WorkflowHolder) *StatusService {
	return &StatusService{db: db, workflow: workflow}
}

// StatusesFor maps every requested document id to the status of its most
// recent review, or nil when the document has none.
func (s *StatusService) StatusesFor(ctx context.Context, contentType, locale string, documentIDs []string) (map[string]*string, error) {
	contentType = strings.TrimSpace(contentType)
	locale = strings.TrimSpace(locale)
	if contentType == "" || locale == "" {
		return nil, validationError("content type and locale are required")
	}

	ids := dedupeTrimmed(documentIDs)
	if limit := s.workflow.Get().Batch.MaxDocumentIDs; limit > 0 && len(ids) > limit {
		return nil, validationError("at most %d document ids can be requested at once", limit)
	}

	result := make(map[string]*string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	statusBatchSize.Observe(float64(len(ids)))

	statuses, err := latestStatuses(s.db.WithContext(ctx), contentType, locale, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if status, ok := statuses[id]; ok {
			status := status
			result[id] = &status
			continue
		}
		result[id] = nil
	}
	return result, nil
}
