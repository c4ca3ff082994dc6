package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"

	"github.com/gatherly/backend/internal/models"
)

type contextKey string

const SessionKey contextKey = "session"

var (
	ErrMissingToken = errors.New("authorization header required")
	ErrMalformed    = errors.New("invalid authorization header format")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Authenticator verifies a bearer token and returns the session it carries.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
}

// FirebaseAuthenticator verifies Firebase ID tokens. Tokens minted before the
// user's refresh tokens were revoked are rejected.
type FirebaseAuthenticator struct {
	client *fbauth.Client
}

func NewFirebaseAuthenticator(client *fbauth.Client) *FirebaseAuthenticator {
	return &FirebaseAuthenticator{client: client}
}

func (a *FirebaseAuthenticator) Authenticate(ctx context.Context, raw string) (*models.Session, error) {
	if a.client == nil {
		return nil, ErrInvalidToken
	}
	tok, err := a.client.VerifyIDTokenAndCheckRevoked(ctx, raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sess := sessionFromClaims(tok.UID, tok.Claims)
	sess.IssuedAt = time.Unix(tok.IssuedAt, 0)
	return sess, nil
}

// JWTAuthenticator verifies HS256 tokens signed with a shared secret.
// It backs local development where no Firebase project is configured.
type JWTAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

func (a *JWTAuthenticator) Authenticate(_ context.Context, raw string) (*models.Session, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}
	sess := sessionFromClaims(userID, claims)
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		sess.IssuedAt = iat.Time
	}
	return sess, nil
}

// IssueToken signs an HS256 token for sess that JWTAuthenticator accepts.
func IssueToken(secret string, sess models.Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":        sess.UserID,
		"email":          sess.Email,
		"email_verified": sess.EmailVerified,
		"name":           sess.DisplayName,
		"picture":        sess.PhotoURL,
		"iat":            now.Unix(),
		"exp":            now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func sessionFromClaims(userID string, claims map[string]interface{}) *models.Session {
	sess := &models.Session{UserID: userID}
	sess.Email, _ = claims["email"].(string)
	sess.EmailVerified, _ = claims["email_verified"].(bool)
	sess.DisplayName, _ = claims["name"].(string)
	sess.PhotoURL, _ = claims["picture"].(string)
	return sess
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMalformed
	}
	return parts[1], nil
}

// RequireSession rejects requests without a valid bearer token.
func RequireSession(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse(capitalize(err.Error())))
				return
			}
			sess, err := auth.Authenticate(r.Context(), raw)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// OptionalSession attaches a session when a valid token is present. A missing
// or invalid token means an anonymous request.
func OptionalSession(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, err := bearerToken(r); err == nil {
				if sess, err := auth.Authenticate(r.Context(), raw); err == nil {
					r = r.WithContext(WithSession(r.Context(), sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// GetSession returns the request's session, or nil for anonymous requests.
func GetSession(ctx context.Context) *models.Session {
	sess, _ := ctx.Value(SessionKey).(*models.Session)
	return sess
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
