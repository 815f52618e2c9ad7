package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/habit-tracker-api/internal/cache"
	"github.com/yukikurage/habit-tracker-api/internal/constants"
	"github.com/yukikurage/habit-tracker-api/internal/models"
	"github.com/yukikurage/habit-tracker-api/internal/repository"
)

func TestHabitService_CreateAppliesDefaults(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	user := env.createUser(t, "defaults@example.com")

	habit, err := env.habits.Create(context.Background(), user.ID, HabitInput{
		Name:        "  Read  ",
		Description: " Ten pages ",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, habit.ID)
	assert.Equal(t, "Read", habit.Name)
	assert.Equal(t, "Ten pages", habit.Description)
	assert.Equal(t, constants.DefaultHabitColor, habit.Color)
	assert.Equal(t, constants.DefaultHabitIcon, habit.Icon)
	assert.False(t, habit.IsDeleted)
	assert.Nil(t, habit.DeletedAt)
}

func TestHabitService_CreateValidation(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	user := env.createUser(t, "invalid@example.com")

	tests := []struct {
		name  string
		input HabitInput
		field string
	}{
		{"empty name", HabitInput{Name: "   ", Description: "x"}, "name"},
		{"long name", HabitInput{Name: strings.Repeat("n", 51), Description: "x"}, "name"},
		{"empty description", HabitInput{Name: "Read"}, "description"},
		{"long description", HabitInput{Name: "Read", Description: strings.Repeat("d", 101)}, "description"},
		{"bad color", HabitInput{Name: "Read", Description: "x", Color: "#GGGGGG"}, "color"},
		{"short color", HabitInput{Name: "Read", Description: "x", Color: "#FFF"}, "color"},
		{"long icon", HabitInput{Name: "Read", Description: "x", Icon: "abc"}, "icon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.habits.Create(context.Background(), user.ID, tt.input)
			require.ErrorIs(t, err, ErrInvalidHabit)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Fields, tt.field)
		})
	}

	_, err := env.habits.Create(context.Background(), "", HabitInput{Name: "Read", Description: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHabitService_NameUniquePerUser(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	ctx := context.Background()

	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")
	env.createHabit(t, alice.ID, "Read")

	_, err := env.habits.Create(ctx, alice.ID, HabitInput{Name: "Read", Description: "again"})
	assert.ErrorIs(t, err, ErrHabitNameTaken)

	// Another user may use the same name.
	_, err = env.habits.Create(ctx, bob.ID, HabitInput{Name: "Read", Description: "mine"})
	assert.NoError(t, err)
}

func TestHabitService_Update(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	ctx := context.Background()

	user := env.createUser(t, "update@example.com")
	habit := env.createHabit(t, user.ID, "Read")
	env.createHabit(t, user.ID, "Run")

	updated, err := env.habits.Update(ctx, habit.ID, user.ID, HabitInput{
		Name:        "Read",
		Description: "Twenty pages",
		Color:       "#00AAFF",
		Icon:        "📚",
	})
	require.NoError(t, err)
	assert.Equal(t, "Twenty pages", updated.Description)
	assert.Equal(t, "#00AAFF", updated.Color)

	_, err = env.habits.Update(ctx, habit.ID, user.ID, HabitInput{Name: "Run", Description: "clash"})
	assert.ErrorIs(t, err, ErrHabitNameTaken)

	_, err = env.habits.Update(ctx, "", user.ID, HabitInput{Name: "Read", Description: "x"})
	assert.ErrorIs(t, err, ErrInvalidHabitID)

	other := env.createUser(t, "other@example.com")
	_, err = env.habits.Update(ctx, habit.ID, other.ID, HabitInput{Name: "Stolen", Description: "x"})
	assert.ErrorIs(t, err, ErrHabitNotFound)

	var stored models.Habit
	require.NoError(t, env.db.First(&stored, "id = ?", habit.ID).Error)
	assert.Equal(t, "Read", stored.Name)
	assert.Equal(t, "Twenty pages", stored.Description)
}

func TestHabitService_SoftDelete(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	ctx := context.Background()

	user := env.createUser(t, "delete@example.com")
	habit := env.createHabit(t, user.ID, "Read")
	for _, day := range []string{"2024-03-01T09:00:00Z", "2024-03-02T09:00:00Z"} {
		_, err := env.entries.Toggle(ctx, user.ID, ToggleInput{HabitID: habit.ID, Date: day})
		require.NoError(t, err)
	}

	other := env.createUser(t, "intruder@example.com")
	assert.ErrorIs(t, env.habits.SoftDelete(ctx, habit.ID, other.ID), ErrHabitNotFound)

	require.NoError(t, env.habits.SoftDelete(ctx, habit.ID, user.ID))
	assert.ErrorIs(t, env.habits.SoftDelete(ctx, habit.ID, user.ID), ErrHabitNotFound)

	var stored models.Habit
	require.NoError(t, env.db.First(&stored, "id = ?", habit.ID).Error)
	assert.True(t, stored.IsDeleted)
	require.NotNil(t, stored.DeletedAt)
	assert.True(t, stored.DeletedAt.Equal(testNow))

	count, err := env.habitRepo.CountEntries(ctx, habit.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	habits, err := env.habits.ListActive(ctx, user.ID, testNow)
	require.NoError(t, err)
	assert.Empty(t, habits)

	_, err = env.habits.Update(ctx, habit.ID, user.ID, HabitInput{Name: "Read", Description: "back"})
	assert.ErrorIs(t, err, ErrHabitNotFound)

	// The name is free once the habit is retired.
	env.createHabit(t, user.ID, "Read")
}

func TestHabitService_ListActive(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	ctx := context.Background()

	user := env.createUser(t, "list@example.com")
	read := env.createHabit(t, user.ID, "Read")
	env.createHabit(t, user.ID, "Run")

	for _, day := range []string{"2024-02-29T09:00:00Z", "2024-03-01T09:00:00Z", "2024-03-31T23:00:00Z"} {
		_, err := env.entries.Toggle(ctx, user.ID, ToggleInput{HabitID: read.ID, Date: day})
		require.NoError(t, err)
	}

	habits, err := env.habits.ListActive(ctx, user.ID, time.Date(2024, time.March, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, habits, 2)
	assert.Equal(t, "Read", habits[0].Name)
	require.Len(t, habits[0].Entries, 2)
	assert.Equal(t, "2024-03-01", dayOf(habits[0].Entries[0].Date))
	assert.Equal(t, "2024-03-31", dayOf(habits[0].Entries[1].Date))
	assert.Empty(t, habits[1].Entries)

	_, err = env.habits.ListActive(ctx, "", testNow)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHabitService_ListActiveServesCachedView(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	ctx := context.Background()

	user := env.createUser(t, "cached@example.com")
	env.createHabit(t, user.ID, "Read")

	first, err := env.habits.ListActive(ctx, user.ID, testNow)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A write that bypasses the services is invisible until invalidation.
	require.NoError(t, env.habitRepo.Create(ctx, &models.Habit{UserID: user.ID, Name: "Sneaky", Description: "x"}))

	cached, err := env.habits.ListActive(ctx, user.ID, testNow)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	env.views.Invalidate(user.ID)

	fresh, err := env.habits.ListActive(ctx, user.ID, testNow)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func TestHabitService_WritesInvalidateViews(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	ctx := context.Background()

	user := env.createUser(t, "writes@example.com")

	listNames := func() []string {
		habits, err := env.habits.ListActive(ctx, user.ID, testNow)
		require.NoError(t, err)
		names := make([]string, len(habits))
		for i, h := range habits {
			names[i] = h.Name
		}
		return names
	}

	assert.Empty(t, listNames())

	habit := env.createHabit(t, user.ID, "Read")
	assert.Equal(t, []string{"Read"}, listNames())

	_, err := env.habits.Update(ctx, habit.ID, user.ID, HabitInput{Name: "Read more", Description: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Read more"}, listNames())

	require.NoError(t, env.habits.SoftDelete(ctx, habit.ID, user.ID))
	assert.Empty(t, listNames())
}

func TestHabitService_StoreTimeoutIsRetryable(t *testing.T) {
	db, mock := newMockDB(t)
	opts := testOptions()
	opts.StoreTimeout = 20 * time.Millisecond
	habits := NewHabitService(repository.NewHabitRepository(db), cache.NewViewCache[[]models.Habit](), opts)

	mock.ExpectQuery(`SELECT \* FROM "habits"`).WillDelayFor(time.Second)

	_, err := habits.ListActive(context.Background(), "user-1", testNow)
	assert.ErrorIs(t, err, ErrStoreTimeout)
}

func TestHabitService_FieldLimitsFollowConstants(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	ctx := context.Background()
	user := env.createUser(t, "limits@example.com")

	_, err := env.habits.Create(ctx, user.ID, HabitInput{
		Name:        strings.Repeat("n", constants.MaxHabitNameLength),
		Description: strings.Repeat("d", constants.MaxHabitDescriptionLength),
		Icon:        strings.Repeat("✅", constants.MaxHabitIconLength),
	})
	require.NoError(t, err)

	_, err = env.habits.Create(ctx, user.ID, HabitInput{
		Name:        "Icons",
		Description: "x",
		Icon:        strings.Repeat("✅", constants.MaxHabitIconLength+1),
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "max", validationErr.Fields["icon"])
}

// orderRepo records the calls made inside a transaction.
type orderRepo struct {
	repository.HabitRepository
	calls *[]string
}

func (r orderRepo) Transaction(ctx context.Context, fn func(tx repository.HabitRepository) error) error {
	return r.HabitRepository.Transaction(ctx, func(tx repository.HabitRepository) error {
		return fn(orderRepo{HabitRepository: tx, calls: r.calls})
	})
}

func (r orderRepo) LockUser(ctx context.Context, userID string) error {
	*r.calls = append(*r.calls, "lock")
	return r.HabitRepository.LockUser(ctx, userID)
}

func (r orderRepo) FindActiveByName(ctx context.Context, userID, name, excludeID string) (*models.Habit, error) {
	*r.calls = append(*r.calls, "name")
	return r.HabitRepository.FindActiveByName(ctx, userID, name, excludeID)
}

func TestHabitService_LocksOwnerBeforeNameCheck(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	ctx := context.Background()
	user := env.createUser(t, "lock@example.com")

	var calls []string
	svc := NewHabitService(orderRepo{HabitRepository: env.habitRepo, calls: &calls}, nil, testOptions())

	habit, err := svc.Create(ctx, user.ID, HabitInput{Name: "Read", Description: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lock", "name"}, calls)

	calls = nil
	_, err = svc.Update(ctx, habit.ID, user.ID, HabitInput{Name: "Read more", Description: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lock", "name"}, calls)
}

func TestHabitService_CreateForMissingUser(t *testing.T) {
	env := newServiceEnv(t, testOptions())

	_, err := env.habits.Create(context.Background(), "no-such-user", HabitInput{Name: "Read", Description: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHabitService_DistantMonthsReadThrough(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	ctx := context.Background()

	user := env.createUser(t, "distant@example.com")
	env.createHabit(t, user.ID, "Read")

	january := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	first, err := env.habits.ListActive(ctx, user.ID, january)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, env.habitRepo.Create(ctx, &models.Habit{UserID: user.ID, Name: "Sneaky", Description: "x"}))

	again, err := env.habits.ListActive(ctx, user.ID, january)
	require.NoError(t, err)
	assert.Len(t, again, 2)

	_, _, ok := env.views.Get(user.ID, "2024-01")
	assert.False(t, ok)
}

func TestHabitService_AdjacentMonthsAreCached(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	ctx := context.Background()
	user := env.createUser(t, "adjacent@example.com")

	for _, month := range []time.Time{
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		testNow,
		time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC),
	} {
		_, err := env.habits.ListActive(ctx, user.ID, month)
		require.NoError(t, err)
	}

	for _, key := range []string{"2024-02", "2024-03", "2024-04"} {
		_, _, ok := env.views.Get(user.ID, key)
		assert.True(t, ok, key)
	}
}

func TestHabitService_WithoutViewCache(t *testing.T) {
	env := newServiceEnv(t, testOptions())
	ctx := context.Background()
	habits := NewHabitService(env.habitRepo, nil, testOptions())

	user := env.createUser(t, "nocache@example.com")
	_, err := habits.Create(ctx, user.ID, HabitInput{Name: "Read", Description: "x"})
	require.NoError(t, err)

	first, err := habits.ListActive(ctx, user.ID, testNow)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, env.habitRepo.Create(ctx, &models.Habit{UserID: user.ID, Name: "Sneaky", Description: "x"}))

	again, err := habits.ListActive(ctx, user.ID, testNow)
	require.NoError(t, err)
	assert.Len(t, again, 2)
}
