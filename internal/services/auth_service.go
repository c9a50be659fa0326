package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/whenworks/calendar-api/internal/models"
	"github.com/whenworks/calendar-api/internal/repository"
	appErr "github.com/whenworks/calendar-api/pkg/errors"
	"github.com/whenworks/calendar-api/pkg/logger"
	"go.uber.org/zap"
)

// AuthService owns credentials: password hashing/verification and bearer
// tokens carrying the username as subject.
type AuthService interface {
	HashPassword(plain string) (string, error)
	VerifyPassword(plain, digest string) bool
	// IssueToken signs an HS256 token with sub=username. A non-positive ttl
	// falls back to the configured default.
	IssueToken(username string, ttl time.Duration) (string, error)
	// ResolveToken returns the username a valid token was issued for.
	ResolveToken(token string) (string, error)

	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

type authService struct {
	users      repository.UserRepository
	hmacSecret []byte
	tokenTTL   time.Duration
}

func NewAuthService(users repository.UserRepository, secret []byte, tokenTTL time.Duration) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	return &authService{users: users, hmacSecret: secret, tokenTTL: tokenTTL}
}

var _ AuthService = (*authService)(nil)

func (s *authService) HashPassword(plain string) (string, error) {
	ph, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", appErr.Wrap(err, appErr.CodeInternal, "hash password failed")
	}
	return string(ph), nil
}

func (s *authService) VerifyPassword(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

func (s *authService) IssueToken(username string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.tokenTTL
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString(s.hmacSecret)
	if err != nil {
		return "", appErr.Wrap(err, appErr.CodeInternal, "sign token failed")
	}
	return signed, nil
}

func (s *authService) ResolveToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.hmacSecret, nil
	})
	if err != nil || !token.Valid {
		return "", appErr.New(appErr.CodeUnauthorized, "Could not validate credentials")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", appErr.New(appErr.CodeUnauthorized, "Could not validate credentials")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", appErr.New(appErr.CodeUnauthorized, "Could not validate credentials")
	}
	return sub, nil
}

// Register creates an account after checking uniqueness, email first. The
// unique indexes remain the backstop when two registrations race.
func (s *authService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	taken, err := s.users.EmailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, appErr.New(appErr.CodeConflict, "Email already registered")
	}

	taken, err = s.users.UsernameTaken(ctx, username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, appErr.New(appErr.CodeConflict, "Username already taken")
	}

	digest, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Name:           username,
		Username:       username,
		Email:          email,
		HashedPassword: digest,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if appErr.IsCode(err, appErr.CodeConflict) {
			return nil, appErr.New(appErr.CodeConflict, "Email already registered")
		}
		return nil, err
	}

	logger.L().Info("user registered", zap.Uint("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Login authenticates by email and returns a fresh bearer token. Unknown
// email and wrong password produce the same error so callers cannot probe
// which accounts exist.
func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var u models.User
	if err := s.users.GetByEmail(ctx, email, &u); err != nil {
		return "", nil, appErr.New(appErr.CodeUnauthorized, "Invalid credentials")
	}
	if !s.VerifyPassword(password, u.HashedPassword) {
		return "", nil, appErr.New(appErr.CodeUnauthorized, "Invalid credentials")
	}

	token, err := s.IssueToken(u.Username, 0)
	if err != nil {
		return "", nil, err
	}

	logger.L().Info("user logged in", zap.Uint("user_id", u.ID))
	return token, &u, nil
}
