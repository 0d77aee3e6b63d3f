package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/repositories"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const principalContextKey contextKey = "principal"

var (
	ErrTokenMissing = errors.New("brak tokenu autoryzacji")
	ErrTokenInvalid = errors.New("nieprawidłowy lub wygasły token")
)

// Claims - полезная нагрузка JWT. Subject хранит id пользователя.
type Claims struct {
	Role     models.UserRole `json:"rola"`
	Category models.Category `json:"kategoria"`
	jwt.RegisteredClaims
}

func GenerateToken(user *models.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:     user.Role,
		Category: user.Category,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет подпись (только HS256) и срок действия.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (c *Claims) UserID() (int, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil || id <= 0 {
		return 0, ErrTokenInvalid
	}
	return id, nil
}

// UserLookup - источник актуальных данных пользователя (repositories.UserRepository).
type UserLookup interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

type Authenticator struct {
	secret []byte
	users  UserLookup
}

func NewAuthenticator(secret string, users UserLookup) *Authenticator {
	return &Authenticator{secret: []byte(secret), users: users}
}

// Authenticate принимает только заголовок Authorization: Bearer.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return a.handler(next, false)
}

// AuthenticateQuery дополнительно читает ?token=, браузерный WebSocket не умеет слать заголовки.
func (a *Authenticator) AuthenticateQuery(next http.Handler) http.Handler {
	return a.handler(next, true)
}

func (a *Authenticator) handler(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" && allowQuery {
			raw = r.URL.Query().Get("token")
		}
		if raw == "" {
			writeError(w, http.StatusUnauthorized, ErrTokenMissing.Error())
			return
		}

		principal, err := a.resolve(r.Context(), raw)
		if err != nil {
			if errors.Is(err, ErrTokenInvalid) {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			slog.ErrorContext(r.Context(), "authentication lookup failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "błąd serwera")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// resolve перечитывает пользователя: удаленный получает 401, роль и категория всегда актуальны.
func (a *Authenticator) resolve(ctx context.Context, raw string) (models.Principal, error) {
	claims, err := ParseToken(raw, a.secret)
	if err != nil {
		return models.Principal{}, err
	}
	id, err := claims.UserID()
	if err != nil {
		return models.Principal{}, err
	}
	user, err := a.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.Principal{}, ErrTokenInvalid
		}
		return models.Principal{}, err
	}
	return models.Principal{ID: user.ID, Role: user.Role, Category: user.Category, Email: user.Email}, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequireRoles пропускает только перечисленные роли. Ставится после Authenticate.
func RequireRoles(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, ErrTokenMissing.Error())
				return
			}
			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "brak uprawnień")
		})
	}
}

func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(models.Principal)
	return p, ok
}
