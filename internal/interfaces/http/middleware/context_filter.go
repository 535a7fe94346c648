package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/expensetracker/backend/internal/infrastructure/auth"
	"github.com/expensetracker/backend/internal/infrastructure/logger"
	"github.com/expensetracker/backend/internal/infrastructure/reqctx"
	"github.com/expensetracker/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Header names read by the context filter
const (
	AuthHeaderKey         = "Authorization"
	BearerPrefix          = "Bearer "
	GatewayHeaderKey      = "X-Internal-Auth"
	InternalOperationsKey = "X-Internal-Operations"
)

type claimsKey struct{}

// TokenVerifier validates a bearer credential and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// ContextFilterConfig holds configuration for the context filter
type ContextFilterConfig struct {
	// Verifier is required
	Verifier TokenVerifier
	// Blacklist is optional; revoked token ids are rejected when set
	Blacklist auth.TokenBlacklist
	// GatewaySecret, when set, must match the X-Internal-Auth header
	GatewaySecret string
	// InternalOperationsKey, when set, lets callers presenting it skip claim extraction
	InternalOperationsKey string
	// PublicPaths are served without credentials. A trailing "/*" matches a prefix.
	PublicPaths []string
	Logger      *zap.Logger
}

// ContextFilter resolves the caller's identity from the request and binds it
// to the request context for the duration of the downstream handlers.
// The original request, and with it the empty context, is restored when the
// chain returns or panics.
func ContextFilter(cfg ContextFilterConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		original := c.Request
		defer func() { c.Request = original }()

		if cfg.GatewaySecret != "" && !secretMatches(c.GetHeader(GatewayHeaderKey), cfg.GatewaySecret) {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Request did not come through the gateway")
			return
		}

		ctx := c.Request.Context()
		if cfg.InternalOperationsKey != "" && secretMatches(c.GetHeader(InternalOperationsKey), cfg.InternalOperationsKey) {
			c.Request = c.Request.WithContext(reqctx.WithInternal(ctx))
			c.Next()
			return
		}

		public := isPublicPath(c.Request.URL.Path, cfg.PublicPaths)

		token, ok := bearerToken(c.GetHeader(AuthHeaderKey))
		if !ok {
			if public {
				c.Next()
				return
			}
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := authenticate(ctx, cfg, token)
		if err != nil {
			if public {
				log.Debug("Ignoring invalid credential on public path",
					zap.String("path", c.Request.URL.Path), zap.Error(err))
				c.Next()
				return
			}
			logger.L(ctx).Warn("Authentication failed",
				zap.String("path", c.Request.URL.Path), zap.Error(err))
			code, message := authErrorCode(err)
			abortWithError(c, http.StatusUnauthorized, code, message)
			return
		}

		principal, _ := claims.PrincipalID()
		ctx = reqctx.WithPrincipal(ctx, principal)
		if claims.Schema != "" {
			ctx = reqctx.WithTenant(ctx, claims.Schema)
		}
		ctx = context.WithValue(ctx, claimsKey{}, claims)
		annotateSpan(ctx)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func authenticate(ctx context.Context, cfg ContextFilterConfig, token string) (*auth.Claims, error) {
	claims, err := cfg.Verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	if _, err := claims.PrincipalID(); err != nil {
		return nil, auth.ErrMissingUserID
	}
	if cfg.Blacklist != nil && claims.ID != "" {
		revoked, err := cfg.Blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			// fail open when the blacklist is unreachable
			logger.L(ctx).Error("Failed to check token blacklist",
				zap.String("jti", claims.ID), zap.Error(err))
		} else if revoked {
			return nil, auth.ErrTokenBlacklisted
		}
	}
	return claims, nil
}

// ClaimsFromContext returns the verified claims bound by ContextFilter.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

// RequireInternal rejects requests that did not present the internal operations key.
func RequireInternal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !reqctx.IsInternal(c.Request.Context()) {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Internal operations key required")
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if len(header) < len(BearerPrefix) || !strings.EqualFold(header[:len(BearerPrefix)], BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(BearerPrefix):])
	return token, token != ""
}

func isPublicPath(path string, public []string) bool {
	for _, p := range public {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

func secretMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func authErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return dto.ErrCodeTokenRevoked, "Token has been revoked"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	requestID := logger.GetRequestID(c.Request.Context())
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, requestID))
}
