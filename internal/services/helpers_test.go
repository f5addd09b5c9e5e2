package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"querystack/internal/auth"
	"querystack/internal/database"
	"querystack/internal/events"
	"querystack/internal/models"
	"querystack/internal/repositories"
	"querystack/internal/services"
	"querystack/internal/validation"
)

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	return m.Called(ctx, e).Error(0)
}

// published returns the types of every event published so far.
func (m *MockPublisher) published() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method == "Publish" {
			types = append(types, call.Arguments.Get(1).(events.Event).Type)
		}
	}
	return types
}

type env struct {
	store     *repositories.GORMStore
	db        *gorm.DB
	deps      services.Deps
	publisher *MockPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	pool := database.New(database.Config{
		Driver:   "sqlite",
		DSN:      "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: gormlogger.Silent,
	}, zap.NewNop())
	t.Cleanup(func() { pool.Close() })

	db, err := pool.DB(context.Background())
	require.NoError(t, err)

	store := repositories.NewGORMStore(pool)
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	return &env{
		store: store,
		db:    db,
		deps: services.Deps{
			Store:     store,
			Gate:      validation.NewGate(auth.ContextOracle{}, store),
			Publisher: publisher,
			Logger:    zap.NewNop(),
			CacheTTL:  time.Minute,
		},
		publisher: publisher,
	}
}

func (e *env) user(t *testing.T, name string) (*models.User, context.Context) {
	t.Helper()
	u := &models.User{Name: name, Username: name, Email: name + "@example.com"}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u, auth.WithSession(context.Background(), &auth.Session{UserID: u.ID, Name: u.Name, Email: u.Email})
}

// failOn makes every statement of kind ("create", "update", "delete") on
// table fail until the test ends.
func (e *env) failOn(t *testing.T, kind, table string) {
	t.Helper()
	name := "test:fail_" + kind + "_" + table
	fail := func(db *gorm.DB) {
		if db.Statement.Table == table {
			db.AddError(errors.New("injected failure on " + table))
		}
	}
	var err error
	switch kind {
	case "create":
		err = e.db.Callback().Create().Before("gorm:create").Register(name, fail)
		t.Cleanup(func() { _ = e.db.Callback().Create().Remove(name) })
	case "update":
		err = e.db.Callback().Update().Before("gorm:update").Register(name, fail)
		t.Cleanup(func() { _ = e.db.Callback().Update().Remove(name) })
	case "delete":
		err = e.db.Callback().Delete().Before("gorm:delete").Register(name, fail)
		t.Cleanup(func() { _ = e.db.Callback().Delete().Remove(name) })
	}
	require.NoError(t, err)
}

func (e *env) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func (e *env) question(t *testing.T, id string) *models.Question {
	t.Helper()
	q, err := e.store.Questions().GetByID(context.Background(), id)
	require.NoError(t, err)
	return q
}

func (e *env) tag(t *testing.T, name string) *models.Tag {
	t.Helper()
	tag, err := e.store.Tags().FindByName(context.Background(), name)
	require.NoError(t, err)
	return tag
}

// assertTagCounts checks every tag's QuestionCount against its join rows.
func (e *env) assertTagCounts(t *testing.T) {
	t.Helper()
	var tags []models.Tag
	require.NoError(t, e.db.Find(&tags).Error)
	for _, tag := range tags {
		links := e.count(t, &models.TagQuestion{}, "tag_id = ?", tag.ID)
		require.EqualValues(t, links, tag.QuestionCount, "tag %q", tag.Name)
	}
}

// assertVoteCounts checks question and answer tallies against vote rows.
func (e *env) assertVoteCounts(t *testing.T) {
	t.Helper()
	var questions []models.Question
	require.NoError(t, e.db.Find(&questions).Error)
	for _, q := range questions {
		require.EqualValues(t, e.count(t, &models.Vote{}, "action_id = ? AND vote_type = ?", q.ID, models.Upvote), q.Upvotes)
		require.EqualValues(t, e.count(t, &models.Vote{}, "action_id = ? AND vote_type = ?", q.ID, models.Downvote), q.Downvotes)
		require.EqualValues(t, e.count(t, &models.Answer{}, "question_id = ?", q.ID), q.Answers)
	}
	var answers []models.Answer
	require.NoError(t, e.db.Find(&answers).Error)
	for _, a := range answers {
		require.EqualValues(t, e.count(t, &models.Vote{}, "action_id = ? AND vote_type = ?", a.ID, models.Upvote), a.Upvotes)
		require.EqualValues(t, e.count(t, &models.Vote{}, "action_id = ? AND vote_type = ?", a.ID, models.Downvote), a.Downvotes)
	}
}

const longContent = "I have tried flexbox, grid and absolute positioning without any luck so far."

func longAnswer() string {
	s := "Use a flex container with justify-content and align-items set to center. "
	for len(s) < 120 {
		s += "It works in every modern browser. "
	}
	return s
}
