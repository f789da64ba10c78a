package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campuslink/studentportal-backend/internal/models"
	"github.com/campuslink/studentportal-backend/internal/storage"
)

const (
	// AccessTokenTTL is the lifetime of an access token.
	AccessTokenTTL = 10 * time.Minute
	// RefreshTokenTTL is the lifetime of a refresh token.
	RefreshTokenTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims are the JWT claims carried by both token types.
type Claims struct {
	RegisterNumber string `json:"register_number"`
	Name           string `json:"name"`
	TokenType      string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is one issued access/refresh credential pair.
type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// TokenService mints, refreshes and revokes signed session tokens. Refresh
// tokens are single-use: redeeming one puts its JTI on the deny-list and
// issues a new pair.
type TokenService struct {
	store  storage.Store
	secret []byte
}

// NewTokenService creates a new token issuer signing with the given secret.
func NewTokenService(store storage.Store, secret []byte) *TokenService {
	return &TokenService{store: store, secret: secret}
}

// IssuePair mints a fresh access/refresh pair for the student.
func (s *TokenService) IssuePair(student *models.Student) (*TokenPair, error) {
	access, err := s.sign(student, tokenTypeAccess, AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(student, tokenTypeRefresh, RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) sign(student *models.Student, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisterNumber: student.RegisterNumber,
		Name:           student.Name,
		TokenType:      tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) parse(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.TokenType != wantType || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
	}
	return claims, nil
}

// ParseAccess validates an access token and returns its claims.
func (s *TokenService) ParseAccess(tokenString string) (*Claims, error) {
	return s.parse(tokenString, tokenTypeAccess)
}

// Refresh redeems a refresh token for a new pair. The old token's JTI goes on
// the deny-list first; the unique insert there is the serialization point, so
// two concurrent redemptions of the same token yield exactly one new pair and
// one ErrTokenRevoked.
func (s *TokenService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	revoked, err := s.store.IsTokenRevoked(claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	err = s.store.RevokeToken(&models.RevokedToken{
		JTI:            claims.ID,
		RegisterNumber: claims.RegisterNumber,
		ExpiresAt:      claims.ExpiresAt.Time,
	})
	if errors.Is(err, storage.ErrAlreadyRevoked) {
		return nil, ErrTokenRevoked
	}
	if err != nil {
		return nil, err
	}

	student, err := s.store.GetStudentByRegisterNumber(claims.RegisterNumber)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown student", ErrInvalidToken)
	}
	if err != nil {
		return nil, err
	}

	return s.IssuePair(student)
}

// Revoke puts a refresh token on the deny-list (logout). Revoking a token
// that was already rotated or revoked fails with ErrTokenRevoked.
func (s *TokenService) Revoke(refreshToken string) error {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return err
	}

	err = s.store.RevokeToken(&models.RevokedToken{
		JTI:            claims.ID,
		RegisterNumber: claims.RegisterNumber,
		ExpiresAt:      claims.ExpiresAt.Time,
	})
	if errors.Is(err, storage.ErrAlreadyRevoked) {
		return ErrTokenRevoked
	}
	return err
}
