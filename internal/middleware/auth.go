package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fleamarket/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

var (
	errMissingHeader = errors.New("missing authorization header")
	errHeaderFormat  = errors.New("invalid authorization header format")
	errTokenExpired  = errors.New("token expired")
	errInvalidToken  = errors.New("invalid token")
	errInvalidClaims = errors.New("invalid token claims")
)

// authenticate validates the bearer token of r and returns a context
// carrying the user id and role
func authenticate(r *http.Request, jwtSecret string, logger *zap.Logger) (context.Context, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errMissingHeader
	}

	// Check for Bearer token format
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errHeaderFormat
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		logger.Debug("Token validation failed", zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errTokenExpired
		}
		return nil, errInvalidToken
	}

	if !token.Valid {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		logger.Error("Failed to extract claims from token")
		return nil, errInvalidClaims
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		logger.Error("Missing user_id in token claims")
		return nil, errInvalidClaims
	}
	if _, err := strconv.ParseInt(userID, 10, 64); err != nil {
		logger.Error("Non-numeric user_id in token claims", zap.String("user_id", userID))
		return nil, errInvalidClaims
	}

	role, ok := claims["role"].(string)
	if !ok {
		logger.Error("Missing role in token claims")
		return nil, errInvalidClaims
	}

	ctx := context.WithValue(r.Context(), UserIDKey, userID)
	ctx = context.WithValue(ctx, UserRoleKey, role)

	logger.Debug("User authenticated",
		zap.String("user_id", userID),
		zap.String("role", role),
	)
	return ctx, nil
}

// AuthMiddleware validates JWT tokens and extracts user claims
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := authenticate(r, jwtSecret, logger)
			if err != nil {
				RespondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware lets anonymous requests through. A request that
// does send a token must send a valid one.
func OptionalAuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := authenticate(r, jwtSecret, logger)
			if errors.Is(err, errMissingHeader) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				RespondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}

// GetPrincipal returns the authenticated actor of the request
func GetPrincipal(ctx context.Context) (domain.Principal, bool) {
	raw, ok := GetUserID(ctx)
	if !ok {
		return domain.Principal{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return domain.Principal{}, false
	}
	role, _ := GetUserRole(ctx)
	return domain.Principal{UserID: id, Role: role}, true
}

// ViewerID is the user id of the request, or 0 for anonymous visitors
func ViewerID(ctx context.Context) int64 {
	p, _ := GetPrincipal(ctx)
	return p.UserID
}
