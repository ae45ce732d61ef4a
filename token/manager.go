package token

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-profile-uploader/internal/errors"
	"github.com/jrsteele09/go-profile-uploader/tenants"
	"github.com/jrsteele09/go-profile-uploader/users"
	"github.com/pkg/errors"
)

type RefreshToken struct {
	Token  string
	UserID string
	Iat    time.Time
}

// Claims is the verified content of an access token
type Claims struct {
	Subject   string       // user ID
	Role      tenants.Type // the tenant the user belongs to
	ID        string       // jti
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Manager struct {
	signer             Signer
	issuer             string
	refreshRepo        RefreshTokenRepo
	revokedCache       RevokedTokenCache
	accessTokenExpiry  time.Duration
	refreshTokenLength int
	nowFunc            func() time.Time
}

type ManagerOption func(*Manager)

func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = expiry
	}
}

func WithRefreshTokenLength(n int) ManagerOption {
	return func(m *Manager) {
		m.refreshTokenLength = n
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func New(repo RefreshTokenRepo, signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		refreshRepo:  repo,
		signer:       signer,
		revokedCache: NewInMemoryRevokedTokenCache(),
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = time.Hour
	}
	if m.refreshTokenLength == 0 {
		m.refreshTokenLength = 32
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

func (c *Manager) CreateAccessToken(user *users.User) (string, error) {
	now := c.nowFunc()
	claims := jwt.MapClaims{
		"iss":  c.issuer,
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(c.accessTokenExpiry).Unix(),
		"jti":  uuid.New().String(), // Unique token ID for revocation
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "Manager.CreateAccessToken")
	}
	return signed, nil
}

// CreateRefreshToken issues an opaque token, replacing any the user already holds
func (c *Manager) CreateRefreshToken(userID string) (string, error) {
	if existingToken, err := c.refreshRepo.GetByUserID(userID); err == nil && existingToken != nil {
		if err := c.refreshRepo.Delete(existingToken.Token); err != nil {
			return "", errors.Wrap(err, "Manager.CreateRefreshToken Delete")
		}
	}

	tokenBytes := make([]byte, c.refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "Manager.CreateRefreshToken rand.Read")
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := c.refreshRepo.Upsert(&RefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    c.nowFunc(),
	}); err != nil {
		return "", errors.Wrap(err, "Manager.CreateRefreshToken Upsert")
	}

	return tokenStr, nil
}

// Validate verifies the signature and lifetime of rawToken and that it has not been revoked
func (c *Manager) Validate(rawToken string) (*Claims, error) {
	claims, err := c.parse(rawToken)
	if err != nil {
		return nil, err
	}
	if c.revokedCache.IsRevoked(claims.ID) {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "token revoked")
	}
	return claims, nil
}

// RevokeAccessToken revokes an access token by its JTI
func (c *Manager) RevokeAccessToken(rawToken string) error {
	claims, err := c.parse(rawToken)
	if err != nil {
		return err
	}
	return c.revokedCache.Add(claims.ID, claims.ExpiresAt)
}

// InvalidateRefreshToken drops the refresh token held by userID, if any
func (c *Manager) InvalidateRefreshToken(userID string) error {
	existing, err := c.refreshRepo.GetByUserID(userID)
	if errors.Is(err, apperrors.ErrNotFound) || existing == nil {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "Manager.InvalidateRefreshToken GetByUserID")
	}
	return errors.Wrap(c.refreshRepo.Delete(existing.Token), "Manager.InvalidateRefreshToken Delete")
}

// CleanupRevokedTokens removes expired tokens from the revocation cache
func (c *Manager) CleanupRevokedTokens() {
	c.revokedCache.Cleanup(c.nowFunc())
}

func (c *Manager) parse(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.Parse(rawToken, c.signer.GetVerificationKey)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, apperrors.ErrTokenExpired
	}
	if err != nil || !token.Valid {
		return nil, errors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "error extracting claims from token")
	}

	sub, _ := mapClaims["sub"].(string)
	role, _ := mapClaims["role"].(string)
	jti, _ := mapClaims["jti"].(string)
	iat, _ := mapClaims["iat"].(float64)
	exp, _ := mapClaims["exp"].(float64)
	if sub == "" || jti == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "token missing sub or jti claim")
	}

	return &Claims{
		Subject:   sub,
		Role:      tenants.Type(role),
		ID:        jti,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
