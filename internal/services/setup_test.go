package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/habit-tracker-api/internal/cache"
	"github.com/yukikurage/habit-tracker-api/internal/database/databasetest"
	"github.com/yukikurage/habit-tracker-api/internal/models"
	"github.com/yukikurage/habit-tracker-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		StoreTimeout:         time.Second,
		EnforceNoFutureDates: true,
		Now:                  func() time.Time { return testNow },
	}
}

// recordingInvalidator counts invalidations per user.
type recordingInvalidator struct {
	mu    sync.Mutex
	calls map[string]int
}

func (r *recordingInvalidator) Invalidate(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[userID]++
}

func (r *recordingInvalidator) count(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[userID]
}

type serviceEnv struct {
	db        *gorm.DB
	habitRepo repository.HabitRepository
	views     *cache.ViewCache[[]models.Habit]
	habits    *HabitService
	entries   *EntryService
	auth      *AuthService
}

func newServiceEnv(t *testing.T, opts Options) *serviceEnv {
	t.Helper()

	db := databasetest.Open(t)
	habitRepo := repository.NewHabitRepository(db)
	views := cache.NewViewCache[[]models.Habit]()

	return &serviceEnv{
		db:        db,
		habitRepo: habitRepo,
		views:     views,
		habits:    NewHabitService(habitRepo, views, opts),
		entries:   NewEntryService(habitRepo, views, opts),
		auth:      NewAuthService(repository.NewUserRepository(db), BcryptHasher{Cost: bcrypt.MinCost}, opts),
	}
}

func (env *serviceEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()

	user, err := env.auth.Signup(context.Background(), SignupInput{Email: email, Password: "supersecret"})
	require.NoError(t, err)
	return user
}

func (env *serviceEnv) createHabit(t *testing.T, userID, name string) *models.Habit {
	t.Helper()

	habit, err := env.habits.Create(context.Background(), userID, HabitInput{
		Name:        name,
		Description: name + " daily",
	})
	require.NoError(t, err)
	return habit
}

// newMockDB returns a GORM handle backed by sqlmock, speaking the postgres dialect.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, mock
}

func dayOf(t time.Time) string {
	return t.Format(time.DateOnly)
}
