// Package auth issues, verifies and rotates the access/refresh token pair.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"vidtube/internal/config"
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/observability"
)

var (
	// ErrInvalidToken covers bad signatures, expiry, malformed claims and
	// tokens that reference a user who no longer exists.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenReuse is returned when a refresh token is not the one
	// currently stored for its user, i.e. it was already rotated or revoked.
	ErrTokenReuse = errors.New("refresh token reused")
)

const issueFailedMessage = "Something went wrong while generating access and refresh tokens"

// Store is the persistence the token service needs. It is satisfied by
// repository.UserRepository.
type Store interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetWithSecrets(ctx context.Context, id uint) (*models.User, error)
	SetRefreshToken(ctx context.Context, id uint, token string) error
	SwapRefreshToken(ctx context.Context, id uint, expected, next string) (bool, error)
}

// TokenConfig carries the signing keys and lifetimes.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
}

// NewTokenConfig extracts the token settings from the application config.
func NewTokenConfig(cfg *config.Config) TokenConfig {
	return TokenConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTTL(),
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTTL(),
		Issuer:        cfg.TokenIssuer,
		Audience:      cfg.TokenAudience,
	}
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// RefreshClaims is the payload of a refresh token.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *AccessClaims) UserID() (uint, error) { return parseSubject(c.Subject) }

// UserID parses the subject claim.
func (c *RefreshClaims) UserID() (uint, error) { return parseSubject(c.Subject) }

// TokenPair is what a successful login or rotation hands back.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type TokenService struct {
	cfg   TokenConfig
	store Store
	now   func() time.Time
}

func NewTokenService(cfg TokenConfig, store Store) *TokenService {
	return &TokenService{cfg: cfg, store: store, now: time.Now}
}

// WithClock returns a copy of s that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *s
	clone.now = now
	return &clone
}

func (s *TokenService) registered(userID uint, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    s.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}
	return claims
}

// IssueAccessToken signs a short-lived token carrying the user's identity.
func (s *TokenService) IssueAccessToken(user *models.User) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: s.registered(user.ID, s.cfg.AccessTTL),
		Email:            user.Email,
		Username:         user.Username,
		FullName:         user.FullName,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.AccessSecret))
}

// IssueRefreshToken signs a long-lived token carrying only the user's id.
func (s *TokenService) IssueRefreshToken(user *models.User) (string, error) {
	claims := RefreshClaims{RegisteredClaims: s.registered(user.ID, s.cfg.RefreshTTL)}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.RefreshSecret))
}

func (s *TokenService) sign(user *models.User) (*TokenPair, error) {
	access, err := s.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssuePair mints a fresh pair for userID and stores the refresh token,
// replacing whatever was stored before.
func (s *TokenService) IssuePair(ctx context.Context, userID uint) (pair *TokenPair, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.IssuePair", attribute.Int64("user.id", int64(userID)))
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.store.GetWithSecrets(ctx, userID)
	if err != nil {
		return nil, models.NewInternalErrorMessage(issueFailedMessage, err)
	}
	pair, err = s.sign(user)
	if err != nil {
		return nil, models.NewInternalErrorMessage(issueFailedMessage, err)
	}
	if err := s.store.SetRefreshToken(ctx, userID, pair.RefreshToken); err != nil {
		return nil, models.NewInternalErrorMessage(issueFailedMessage, err)
	}

	observability.TokensIssued.Inc()
	return pair, nil
}

func (s *TokenService) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}
	return opts
}

func (s *TokenService) parse(token, secret string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, s.parserOptions()...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}

// VerifyAccessToken checks signature, lifetime, issuer and audience.
func (s *TokenService) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, s.cfg.AccessSecret, claims); err != nil {
		return nil, err
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken checks a refresh token against the refresh secret.
func (s *TokenService) VerifyRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(token, s.cfg.RefreshSecret, claims); err != nil {
		return nil, err
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// Rotate exchanges a valid, current refresh token for a new pair. The
// stored token is replaced with a compare-and-swap, so of two concurrent
// rotations of the same token at most one succeeds.
func (s *TokenService) Rotate(ctx context.Context, incoming string) (pair *TokenPair, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.Rotate")
	defer func() {
		observability.EndSpan(span, err)
		observability.TokenRotations.WithLabelValues(rotationResult(err)).Inc()
	}()

	claims, err := s.VerifyRefreshToken(incoming)
	if err != nil {
		return nil, models.WrapUnauthorized("Invalid refresh token", err)
	}
	userID, _ := claims.UserID()
	span.SetAttributes(attribute.Int64("user.id", int64(userID)))

	user, err := s.store.GetWithSecrets(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.WrapUnauthorized("Invalid refresh token", ErrInvalidToken)
		}
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(incoming), []byte(user.RefreshToken)) != 1 {
		middleware.Logger.WarnContext(ctx, "refresh token reuse detected", "user_id", userID)
		return nil, models.WrapUnauthorized("Refresh token is expired or used", ErrTokenReuse)
	}

	pair, err = s.sign(user)
	if err != nil {
		return nil, models.NewInternalErrorMessage(issueFailedMessage, err)
	}

	swapped, err := s.store.SwapRefreshToken(ctx, userID, incoming, pair.RefreshToken)
	if err != nil {
		return nil, models.NewInternalErrorMessage(issueFailedMessage, err)
	}
	if !swapped {
		middleware.Logger.WarnContext(ctx, "concurrent refresh token rotation rejected", "user_id", userID)
		return nil, models.WrapUnauthorized("Refresh token is expired or used", ErrTokenReuse)
	}

	observability.TokensIssued.Inc()
	return pair, nil
}

// Authenticate resolves an access token to the user it was issued for.
func (s *TokenService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, models.NewUnauthorizedError("Unauthorized request")
	}
	claims, err := s.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, models.WrapUnauthorized("Invalid Access Token", err)
	}
	userID, _ := claims.UserID()

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.WrapUnauthorized("Invalid Access Token", ErrInvalidToken)
		}
		return nil, err
	}
	return user, nil
}

func parseSubject(sub string) (uint, error) {
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return uint(id), nil
}

func rotationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTokenReuse):
		return "reused"
	case errors.Is(err, ErrInvalidToken):
		return "invalid"
	default:
		return "error"
	}
}
