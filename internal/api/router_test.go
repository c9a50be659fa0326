package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/whenworks/calendar-api/internal/api/handlers"
	"github.com/whenworks/calendar-api/internal/api/types"
	"github.com/whenworks/calendar-api/internal/models"
	"github.com/whenworks/calendar-api/internal/repository"
	"github.com/whenworks/calendar-api/internal/services"
	"github.com/whenworks/calendar-api/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("error", "json"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// each server gets its own client IP so the shared limiter state never
// throttles one test because of another
var ipCounter uint32

type testServer struct {
	handler http.Handler
	db      *gorm.DB
	ip      string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Event{}, &models.CalendarShare{}))

	usersRepo := repository.NewUserRepository(db)
	eventsRepo := repository.NewEventRepository(db)
	sharesRepo := repository.NewShareRepository(db)

	auth := services.NewAuthService(usersRepo, []byte("0123456789abcdef0123456789abcdef"), 30*time.Minute)
	userSvc := services.NewUserService(db, usersRepo, eventsRepo, sharesRepo, auth)
	eventSvc := services.NewEventService(eventsRepo)
	sharingSvc := services.NewSharingService(usersRepo, eventsRepo, sharesRepo)

	v := validator.New(validator.WithRequiredStructEnabled())

	handler := NewRouter(Dependencies{
		TokenResolver:  auth,
		AuthHandler:    handlers.NewAuthHandler(auth, userSvc, 30*time.Minute, v),
		UsersHandler:   handlers.NewUsersHandler(userSvc),
		EventsHandler:  handlers.NewEventsHandler(eventSvc, userSvc, v),
		SharingHandler: handlers.NewSharingHandler(sharingSvc, userSvc, v),
		HealthHandler:  handlers.NewHealthHandler(db),
	})

	n := atomic.AddUint32(&ipCounter, 1)
	return &testServer{
		handler: handler,
		db:      db,
		ip:      fmt.Sprintf("10.0.%d.%d", n/256, n%256),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("X-Forwarded-For", s.ip)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *types.APIError `json:"error"`
	Meta    *types.Meta     `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	env := decode(t, rec)
	require.True(t, env.Success, "expected success envelope, got %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, rec)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	return env.Error.Message
}

// register creates an account and logs it in, returning the new id and a
// bearer token.
func (s *testServer) register(t *testing.T, username string) (uint, string) {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@x.com",
		"password": "pw12345678",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var u models.User
	decodeData(t, rec, &u)

	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    username + "@x.com",
		"password": "pw12345678",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok types.TokenResponse
	decodeData(t, rec, &tok)
	require.Equal(t, "Bearer", tok.TokenType)
	return u.ID, tok.AccessToken
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	id, token := s.register(t, "alice")
	require.NotZero(t, id)

	rec := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice2",
		"email":    "alice@x.com",
		"password": "pw12345678",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Email already registered", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@x.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid credentials", errorMessage(t, rec))

	rec = s.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	decodeData(t, rec, &me)
	require.Equal(t, "alice", me.Username)
	require.Equal(t, id, me.ID)
}

func TestBearerChallenge(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/events/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = s.do(t, http.MethodGet, "/events/", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	require.Equal(t, "Could not validate credentials", errorMessage(t, rec))
}

func TestEventLifecycle(t *testing.T) {
	s := newTestServer(t)
	id, token := s.register(t, "alice")

	rec := s.do(t, http.MethodGet, "/events/", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "No events found", errorMessage(t, rec))

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	rec = s.do(t, http.MethodPost, "/events/", token, map[string]any{
		"title":      "Standup",
		"start_time": start,
		"end_time":   start.Add(15 * time.Minute),
		"location":   "Room 4",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Event
	decodeData(t, rec, &created)
	require.Equal(t, id, created.OwnerID)

	rec = s.do(t, http.MethodGet, "/events/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.Event
	decodeData(t, rec, &listed)
	require.Len(t, listed, 1)
	require.Equal(t, "Standup", listed[0].Title)

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/events/%d", created.ID), token, map[string]any{
		"title": "Daily standup",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Event
	decodeData(t, rec, &updated)
	require.Equal(t, "Daily standup", updated.Title)
	require.Equal(t, "Room 4", updated.Location)

	rec = s.do(t, http.MethodGet, "/events/calendar.ics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "SUMMARY:Daily standup")

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/events/%d", created.ID), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/events/", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventOwnershipAcrossAccounts(t *testing.T) {
	s := newTestServer(t)
	_, aliceTok := s.register(t, "alice")
	_, bobTok := s.register(t, "bob")

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	rec := s.do(t, http.MethodPost, "/events/", aliceTok, map[string]any{
		"title":      "Secret",
		"start_time": start,
		"end_time":   start.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Event
	decodeData(t, rec, &created)

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/events/%d", created.ID), bobTok, map[string]any{
		"title": "Hijacked",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Event not found", errorMessage(t, rec))

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/events/%d", created.ID), bobTok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSharingFlow(t *testing.T) {
	s := newTestServer(t)
	aliceID, aliceTok := s.register(t, "alice")
	bobID, bobTok := s.register(t, "bob")
	_, carlTok := s.register(t, "carl")

	start := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	rec := s.do(t, http.MethodPost, "/events/", aliceTok, map[string]any{
		"title":      "Review",
		"start_time": start,
		"end_time":   start.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// nothing shared yet
	rec = s.do(t, http.MethodGet, fmt.Sprintf("/shared/shared-with-me/%d/events", aliceID), bobTok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Calendar not shared with you", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/shared/share/%d", bobID), aliceTok, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/shared/", aliceTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recipients []models.User
	decodeData(t, rec, &recipients)
	require.Len(t, recipients, 1)
	require.Equal(t, "bob", recipients[0].Username)

	rec = s.do(t, http.MethodGet, "/shared/shared-with-me", bobTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sharers []models.User
	decodeData(t, rec, &sharers)
	require.Len(t, sharers, 1)
	require.Equal(t, "alice", sharers[0].Username)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/shared/shared-with-me/%d/events", aliceID), bobTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.Event
	decodeData(t, rec, &events)
	require.Len(t, events, 1)
	require.Equal(t, "Review", events[0].Title)

	// the created copy lands in the caller's calendar
	rec = s.do(t, http.MethodPost, fmt.Sprintf("/shared/share-with-me/%d/events", aliceID), bobTok, map[string]any{
		"title":      "Prep notes",
		"start_time": start,
		"end_time":   start.Add(30 * time.Minute),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var clone models.Event
	decodeData(t, rec, &clone)
	require.Equal(t, bobID, clone.OwnerID)

	// sharing is one-way; carl has no grant from alice
	rec = s.do(t, http.MethodPost, fmt.Sprintf("/shared/share-with-me/%d/events", aliceID), carlTok, map[string]any{
		"title":      "Intrusion",
		"start_time": start,
		"end_time":   start.Add(time.Hour),
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Calendar not shared with you", errorMessage(t, rec))

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/shared/unshare/%d", bobID), aliceTok, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/shared/shared-with-me/%d/events", aliceID), bobTok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Calendar not shared with you", errorMessage(t, rec))
}

func TestSelfShareRejected(t *testing.T) {
	s := newTestServer(t)
	aliceID, aliceTok := s.register(t, "alice")

	rec := s.do(t, http.MethodPost, fmt.Sprintf("/shared/share/%d", aliceID), aliceTok, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Cannot share a calendar with yourself", errorMessage(t, rec))
}

func TestUsersDirectory(t *testing.T) {
	s := newTestServer(t)
	_, aliceTok := s.register(t, "alice")
	bobID, _ := s.register(t, "bob")

	rec := s.do(t, http.MethodGet, "/users/", aliceTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []models.User
	decodeData(t, rec, &users)
	require.Len(t, users, 2)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/users/%d", bobID), aliceTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bob models.User
	decodeData(t, rec, &bob)
	require.Equal(t, "bob", bob.Username)

	rec = s.do(t, http.MethodGet, "/users/99999", aliceTok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "User not found", errorMessage(t, rec))
}

func TestDeleteAccountInvalidatesToken(t *testing.T) {
	s := newTestServer(t)
	_, aliceTok := s.register(t, "alice")

	rec := s.do(t, http.MethodDelete, "/auth/me", aliceTok, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// the token still parses but the subject is gone
	rec = s.do(t, http.MethodGet, "/auth/me", aliceTok, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestValidationRejectsBadPayloads(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "not-an-email",
		"password": "pw12345678",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@x.com",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))
	req.Header.Set("X-Forwarded-For", s.ip)
	rec2 := httptest.NewRecorder()
	s.handler.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusBadRequest, rec2.Code)
}
