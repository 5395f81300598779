package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	ctxutil "3tcapital/ms_fiscal_receipts/internal/infrastructure/context"
	"3tcapital/ms_fiscal_receipts/internal/infrastructure/config"
	httperrors "3tcapital/ms_fiscal_receipts/internal/infrastructure/http"
)

// UserIDHeader carries the caller identity when authentication is disabled.
// It is honored only in that mode.
const UserIDHeader = "X-User-ID"

// ContextKeyToken exposes the verified JWT token via request context.
type ContextKeyToken struct{}

// JWTAuthenticator validates bearer tokens, either against a remote JWKS or
// with a shared HS256 secret, and stores the subject as the caller's user id.
type JWTAuthenticator struct {
	cfg        config.AuthSettings
	log        *slog.Logger
	keyfunc    jwt.Keyfunc
	methods    []string
	cancel     context.CancelFunc
	bypassPath map[string]struct{}
}

func NewJWTAuthenticator(cfg config.AuthSettings, log *slog.Logger) (*JWTAuthenticator, error) {
	auth := &JWTAuthenticator{
		cfg:        cfg,
		log:        log,
		bypassPath: make(map[string]struct{}),
	}

	for _, path := range cfg.BypassPaths {
		if path != "" {
			auth.bypassPath[path] = struct{}{}
		}
	}

	if !cfg.Enabled {
		return auth, nil
	}

	if cfg.JWKSetURI == "" {
		if cfg.Secret == "" {
			return nil, errors.New("a JWK set URI or a shared secret is required")
		}
		secret := []byte(cfg.Secret)
		auth.keyfunc = func(*jwt.Token) (any, error) { return secret, nil }
		auth.methods = []string{jwt.SigningMethodHS256.Alg()}
		return auth, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	override := keyfunc.Override{
		RefreshInterval: 6 * time.Hour,
		RefreshErrorHandlerFunc: func(url string) func(context.Context, error) {
			return func(c context.Context, err error) {
				log.Error("failed to refresh JWKS", "url", url, "error", err)
			}
		},
		HTTPTimeout: 10 * time.Second,
	}

	jwks, err := keyfunc.NewDefaultOverrideCtx(ctx, []string{cfg.JWKSetURI}, override)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("unable to load JWKS: %w", err)
	}
	auth.keyfunc = jwks.Keyfunc
	auth.methods = []string{
		jwt.SigningMethodRS256.Alg(),
		jwt.SigningMethodRS384.Alg(),
		jwt.SigningMethodRS512.Alg(),
		jwt.SigningMethodPS256.Alg(),
		jwt.SigningMethodES256.Alg(),
	}
	auth.cancel = cancel

	return auth, nil
}

// Middleware authenticates inbound requests. CORS preflights and bypass paths
// pass through untouched. With authentication disabled the optional
// X-User-ID header is trusted instead.
func (a *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	if !a.cfg.Enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := uuid.Parse(r.Header.Get(UserIDHeader)); err == nil {
				r = r.WithContext(ctxutil.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || a.shouldBypass(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			httperrors.WriteError(w, http.StatusUnauthorized, "Unauthorized", []string{"Missing or malformed bearer token"}, a.log)
			return
		}

		opts := []jwt.ParserOption{
			jwt.WithLeeway(a.cfg.ClockSkew),
			jwt.WithValidMethods(a.methods),
		}
		if a.cfg.IssuerURI != "" {
			opts = append(opts, jwt.WithIssuer(a.cfg.IssuerURI))
		}

		token, err := jwt.Parse(tokenString, a.keyfunc, opts...)
		if err != nil || !token.Valid {
			a.log.Warn("token validation failed", "error", err)
			httperrors.WriteError(w, http.StatusUnauthorized, "Unauthorized", []string{"Invalid or expired token"}, a.log)
			return
		}

		userID, err := subjectUserID(token)
		if err != nil {
			a.log.Warn("token subject is not a user id", "error", err)
			httperrors.WriteError(w, http.StatusUnauthorized, "Unauthorized", []string{"Token subject is not a valid user"}, a.log)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyToken{}, token)
		ctx = ctxutil.WithUserID(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Close stops background JWKS refreshers.
func (a *JWTAuthenticator) Close() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *JWTAuthenticator) shouldBypass(path string) bool {
	_, ok := a.bypassPath[path]
	return ok
}

func subjectUserID(token *jwt.Token) (uuid.UUID, error) {
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse subject %q: %w", subject, err)
	}
	if userID == uuid.Nil {
		return uuid.Nil, errors.New("subject is the nil uuid")
	}
	return userID, nil
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing Authorization header")
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid Authorization header format")
	}
	return parts[1], nil
}
