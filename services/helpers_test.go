package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"review-workflow-api/config"
	"review-workflow-api/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	requesterID = 1
	reviewerID  = 2
	outsiderID  = 3

	testContentType = "api::article.article"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	users := []models.User{
		{UserID: requesterID, UserFname: "Rita", UserLname: "Requester", Email: "rita@example.com", RoleID: 1},
		{UserID: reviewerID, UserFname: "Vic", UserLname: "Reviewer", Email: "vic@example.com", RoleID: 2},
		{UserID: outsiderID, UserFname: "Olly", UserLname: "Outsider", Email: "olly@example.com", RoleID: 3},
	}
	require.NoError(t, db.Create(&users).Error)
	return db
}

// testClock hands out strictly increasing timestamps.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type testEnv struct {
	db       *gorm.DB
	clock    *testClock
	events   *EventBus
	workflow *config.WorkflowHolder
	reviews  *ReviewService
	comments *FieldCommentService
	statuses *StatusService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	clock := newTestClock()
	events := NewEventBus()
	workflow := config.StaticWorkflow(config.DefaultWorkflow())

	reviews := NewReviewService(db, workflow, events)
	reviews.now = clock.Now
	comments := NewFieldCommentService(db, events)
	comments.now = clock.Now

	return &testEnv{
		db:       db,
		clock:    clock,
		events:   events,
		workflow: workflow,
		reviews:  reviews,
		comments: comments,
		statuses: NewStatusService(db, workflow),
	}
}

func (e *testEnv) assign(t *testing.T, documentID, locale, note string) *models.Review {
	t.Helper()
	review, err := e.reviews.Assign(context.Background(), AssignInput{
		ContentType: testContentType,
		DocumentID:  documentID,
		Locale:      locale,
		ReviewerID:  reviewerID,
		RequesterID: requesterID,
		Note:        note,
	})
	require.NoError(t, err)
	return review
}

func commentTypes(review *models.Review) []string {
	types := make([]string, 0, len(review.Comments))
	for _, c := range review.Comments {
		types = append(types, c.CommentType)
	}
	return types
}
