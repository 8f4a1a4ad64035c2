package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/urlclip/internal/db/memorystorage"
	"github.com/patric-chuzhbe/urlclip/internal/logger"
	"github.com/patric-chuzhbe/urlclip/internal/models"
)

func TestMain(m *testing.M) {
	if err := logger.Init("debug"); err != nil {
		panic(err)
	}
	m.Run()
}

func newTestAuth(t *testing.T) (*Auth, *memorystorage.MemoryStorage) {
	t.Helper()

	storage, err := memorystorage.New()
	require.NoError(t, err)

	return New(storage, "test_session", []byte("test-signing-key"), time.Hour), storage
}

func TestRegisterAndLogin(t *testing.T) {
	theAuth, _ := newTestAuth(t)

	registered, err := theAuth.Register(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, registered.ID)

	loggedIn, err := theAuth.Login(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)
}

func TestRegisterStoresBcryptHash(t *testing.T) {
	theAuth, storage := newTestAuth(t)

	_, err := theAuth.Register(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)

	usr, err := storage.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", usr.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte("s3cret")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	theAuth, _ := newTestAuth(t)

	_, err := theAuth.Register(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = theAuth.Register(context.Background(), "alice@example.com", "another")
	require.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestLoginWrongPassword(t *testing.T) {
	theAuth, _ := newTestAuth(t)

	_, err := theAuth.Register(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = theAuth.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	theAuth, _ := newTestAuth(t)

	_, err := theAuth.Login(context.Background(), "nobody@example.com", "whatever")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestSessionCookieRoundtrip(t *testing.T) {
	theAuth, _ := newTestAuth(t)

	registered, err := theAuth.Register(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	require.NoError(t, theAuth.SetSessionCookie(recorder, registered.ID))

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "test_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	var gotUserID string
	handler := theAuth.AuthenticateUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	request.AddCookie(cookies[0])
	handler.ServeHTTP(httptest.NewRecorder(), request)

	assert.Equal(t, registered.ID, gotUserID)
}

func TestAuthenticateUserIgnoresForgedCookie(t *testing.T) {
	theAuth, _ := newTestAuth(t)

	var authenticated bool
	handler := theAuth.AuthenticateUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authenticated = UserIDFromContext(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	request.AddCookie(&http.Cookie{Name: "test_session", Value: "not.a.jwt"})
	handler.ServeHTTP(httptest.NewRecorder(), request)

	assert.False(t, authenticated)
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	theAuth, _ := newTestAuth(t)

	handler := theAuth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	request = request.WithContext(context.WithValue(request.Context(), UserIDKey, ""))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	result := recorder.Result()
	defer result.Body.Close()

	assert.Equal(t, http.StatusFound, result.StatusCode)
	assert.Equal(t, "/login", result.Header.Get("Location"))
}

func TestClearSessionCookie(t *testing.T) {
	theAuth, _ := newTestAuth(t)

	recorder := httptest.NewRecorder()
	theAuth.ClearSessionCookie(recorder)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
