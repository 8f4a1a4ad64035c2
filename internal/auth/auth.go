// Package auth provides registration and login over bcrypt password
// hashes, and middleware for JWT-cookie-based session handling in
// HTTP requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/urlclip/internal/logger"
	"github.com/patric-chuzhbe/urlclip/internal/models"
)

type userKeeper interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// Auth handles user registration, credential checks, and JWT session
// cookie management.
type Auth struct {
	// db is the interface to the user data storage.
	db userKeeper

	// authCookieName is the name of the cookie used to store the JWT.
	authCookieName string

	// authCookieSigningSecretKey is the key used to sign JWTs.
	authCookieSigningSecretKey []byte

	// sessionTTL bounds the lifetime of issued session tokens.
	sessionTTL time.Duration
}

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds a user-specific identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key used to store and retrieve the authenticated user's ID.
const UserIDKey ContextKey = "userID"

// New creates a new Auth handler with the given user data access layer,
// cookie name, JWT signing secret, and session lifetime.
func New(
	db userKeeper,
	authCookieName string,
	authCookieSigningSecretKey []byte,
	sessionTTL time.Duration,
) *Auth {
	return &Auth{
		db:                         db,
		authCookieName:             authCookieName,
		authCookieSigningSecretKey: authCookieSigningSecretKey,
		sessionTTL:                 sessionTTL,
	}
}

// Register hashes the password with bcrypt and creates a new user.
// A taken email surfaces as models.ErrDuplicateEmail with the user
// table unchanged.
func (a *Auth) Register(ctx context.Context, email, password string) (*models.User, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return a.db.CreateUser(ctx, email, string(passwordHash))
}

// Login verifies the credentials against the stored bcrypt hash.
// An unknown email and a wrong password both surface as
// models.ErrInvalidCredentials, so callers cannot distinguish them.
func (a *Auth) Login(ctx context.Context, email, password string) (*models.User, error) {
	usr, err := a.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return usr, nil
}

// SetSessionCookie issues a signed JWT for the user and sets it as the
// session cookie on the response.
func (a *Auth) SetSessionCookie(response http.ResponseWriter, userID string) error {
	JWTString, err := a.buildJWTString(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.sessionTTL)),
		},
		UserID: userID,
	})
	if err != nil {
		return err
	}

	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    JWTString,
			Path:     "/",
			HttpOnly: true,
			MaxAge:   int(a.sessionTTL.Seconds()),
		},
	)

	return nil
}

// ClearSessionCookie ends the session by expiring the session cookie.
func (a *Auth) ClearSessionCookie(response http.ResponseWriter) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		},
	)
}

// AuthenticateUser is an HTTP middleware that parses the session cookie,
// verifies the user still exists in storage, and stores the user ID in
// the request context. Requests without a valid session pass through
// with an empty user ID.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID := a.getUserIDFromSessionCookie(request)

		if userID != "" {
			usr, err := a.db.GetUserByID(request.Context(), userID)
			if err != nil {
				if !errors.Is(err, models.ErrUserNotFound) {
					logger.Log.Debugln("Error calling the `a.db.GetUserByID()`: ", zap.Error(err))
					response.WriteHeader(http.StatusInternalServerError)
					return
				}
				userID = ""
			} else {
				userID = usr.ID
			}
		}

		ctx := context.WithValue(request.Context(), UserIDKey, userID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// RequireAuth is an HTTP middleware for pages that need a logged-in
// user. Unauthenticated requests are redirected to the login page.
func (a *Auth) RequireAuth(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID, ok := request.Context().Value(UserIDKey).(string)
		if !ok || userID == "" {
			http.Redirect(response, request, "/login", http.StatusFound)
			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// UserIDFromContext extracts the authenticated user's ID from the
// request context. The second result is false for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)

	return userID, ok && userID != ""
}

func (a *Auth) getUserIDFromSessionCookie(request *http.Request) string {
	cookie, err := request.Cookie(a.authCookieName)
	if err != nil {
		return ""
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.authCookieSigningSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		return ""
	}

	return claims.UserID
}

func (a *Auth) buildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.authCookieSigningSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
