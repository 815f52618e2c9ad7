package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/habit-tracker-api/internal/cache"
	"github.com/yukikurage/habit-tracker-api/internal/constants"
	"github.com/yukikurage/habit-tracker-api/internal/database/databasetest"
	"github.com/yukikurage/habit-tracker-api/internal/dto"
	"github.com/yukikurage/habit-tracker-api/internal/models"
	"github.com/yukikurage/habit-tracker-api/internal/repository"
	"github.com/yukikurage/habit-tracker-api/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// fixedNow is "today" for every handler test.
var fixedNow = time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db           *gorm.DB
	router       *gin.Engine
	authService  *services.AuthService
	habitService *services.HabitService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := databasetest.Open(t)
	opts := services.Options{
		StoreTimeout:         time.Second,
		EnforceNoFutureDates: true,
		Now:                  func() time.Time { return fixedNow },
	}

	views := cache.NewViewCache[[]models.Habit]()
	habitRepo := repository.NewHabitRepository(db)
	authService := services.NewAuthService(repository.NewUserRepository(db), services.BcryptHasher{Cost: bcrypt.MinCost}, opts)
	habitService := services.NewHabitService(habitRepo, views, opts)
	entryService := services.NewEntryService(habitRepo, views, opts)

	habitHandler := NewHabitHandler(habitService, nil)
	habitHandler.now = func() time.Time { return fixedNow }
	entryHandler := NewEntryHandler(entryService)
	entryHandler.now = func() time.Time { return fixedNow }

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(r, NewAuthHandler(authService), habitHandler, entryHandler)

	return &testEnv{
		db:           db,
		router:       r,
		authService:  authService,
		habitService: habitService,
	}
}

func (env *testEnv) do(t *testing.T, method, path string, payload interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}

	req := httptest.NewRequest(method, path, &body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// login signs up email and returns the session cookies of a fresh login.
func (env *testEnv) login(t *testing.T, email string) ([]*http.Cookie, string) {
	t.Helper()

	w := env.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    email,
		"password": "supersecret",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var signup dto.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))

	w = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": "supersecret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")
	return cookies, signup.User.ID
}

func (env *testEnv) createHabit(t *testing.T, cookies []*http.Cookie, name string) dto.HabitDTO {
	t.Helper()

	w := env.do(t, http.MethodPost, "/api/habits", map[string]string{
		"name":        name,
		"description": name + " every day",
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.HabitMutationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Habit
}

type errorBody struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details"`
	Retryable bool              `json:"retryable"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
