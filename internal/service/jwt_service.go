package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// JWTService emite y valida tokens de acceso para la superficie
// administrativa (limpieza de historial, patrones).
type JWTService struct {
	secret       []byte
	accessTTL    time.Duration
	issuer       string
	adminKeyHash []byte
}

// Claims son los claims del token administrativo.
type Claims struct {
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid    = errors.New("jwt invalid")
	ErrJWTExpired    = errors.New("jwt expired")
	ErrAdminKeyWrong = errors.New("admin key mismatch")
	ErrAdminKeyUnset = errors.New("admin key not configured")
)

func NewJWTService(secret, adminKeyHash string, accessTTL time.Duration) *JWTService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &JWTService{
		secret:       []byte(secret),
		accessTTL:    accessTTL,
		issuer:       "resilience-llm",
		adminKeyHash: []byte(adminKeyHash),
	}
}

// VerifyAdminKey compara la clave de operador contra el hash bcrypt
// configurado y, si coincide, emite un token de acceso.
func (s *JWTService) VerifyAdminKey(key string) (string, error) {
	if len(s.adminKeyHash) == 0 {
		return "", ErrAdminKeyUnset
	}
	if err := bcrypt.CompareHashAndPassword(s.adminKeyHash, []byte(strings.TrimSpace(key))); err != nil {
		return "", ErrAdminKeyWrong
	}
	return s.GenerateAccessToken("operator")
}

// GenerateAccessToken firma un token de acceso de vida corta.
func (s *JWTService) GenerateAccessToken(role string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrJWTInvalid
	}
	now := time.Now().UTC()
	claims := Claims{
		Role:      role,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   role,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseAccessToken valida firma, emisor y expiracion del token.
func (s *JWTService) ParseAccessToken(tokenString string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrJWTInvalid
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrJWTInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	if !token.Valid || claims.TokenType != "access" || claims.Issuer != s.issuer {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

// AccessTTL expone la vida util del token para la respuesta de /auth/token.
func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}
