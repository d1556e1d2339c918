package security

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uggybe/storage-buddy-bot/internal/users"
	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

// authTimeout bounds the allow-list check and the user upsert. A slow
// store surfaces as a failed sign-in rather than a hung request.
const authTimeout = 10 * time.Second

var (
	jwtSecret     []byte
	jwtSecretOnce sync.Once
)

func secret() []byte {
	jwtSecretOnce.Do(func() {
		s := os.Getenv("JWT_SECRET")
		if s == "" {
			_ = godotenv.Load()
			s = os.Getenv("JWT_SECRET")
		}
		if s == "" {
			log.Fatal("JWT_SECRET environment variable is not set")
		}
		jwtSecret = []byte(s)
	})
	return jwtSecret
}

// DeriveCredential maps an external identity to a stable application
// credential. The same external identity always derives the same value.
func DeriveCredential(externalID string) string {
	mac := hmac.New(sha256.New, secret())
	mac.Write([]byte(externalID))
	return hex.EncodeToString(mac.Sum(nil))
}

type TelegramLogin struct {
	ExternalID  string
	DisplayName string
}

type Recorder interface {
	Append(entry models.Transaction) error
}

// Gate resolves a Telegram identity to an AppUser, enforcing the
// allow-list before anything else.
type Gate struct {
	users users.UserRepository
	audit Recorder
	log   *zap.Logger
}

func NewGate(userRepo users.UserRepository, audit Recorder, log *zap.Logger) *Gate {
	return &Gate{users: userRepo, audit: audit, log: log}
}

func (g *Gate) Authenticate(ctx context.Context, login TelegramLogin) (*models.AppUser, error) {
	externalID := strings.TrimSpace(login.ExternalID)
	name := strings.TrimSpace(login.DisplayName)
	if externalID == "" {
		return nil, apperrors.NewValidationError("external_id", "must not be blank")
	}
	if name == "" {
		return nil, apperrors.NewValidationError("display_name", "must not be blank")
	}

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	allowed, err := g.users.IsAllowed(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, &apperrors.AccessDeniedError{Identity: externalID}
	}

	credential := DeriveCredential(externalID)

	user, err := g.users.GetByExternalID(ctx, externalID)
	if err != nil {
		var notFound *apperrors.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		return g.provision(ctx, externalID, name, credential)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.CredentialHash), []byte(credential)); err != nil {
		return nil, &apperrors.AccessDeniedError{Identity: externalID}
	}

	if user.Name != name {
		if err := g.users.UpdateName(ctx, user.ID, name); err != nil {
			return nil, err
		}

		if err := g.audit.Append(models.Transaction{
			UserID:   &user.ID,
			UserName: name,
			Action:   models.ActionNameChanged,
			Details: map[string]interface{}{
				"old": user.Name,
				"new": name,
			},
		}); err != nil {
			g.log.Error("failed to record name change", zap.Int("user_id", user.ID), zap.Error(err))
		}

		user.Name = name
	}

	return user, nil
}

func (g *Gate) provision(ctx context.Context, externalID, name, credential string) (*models.AppUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := g.users.CreateUser(ctx, externalID, name, hash)
	if err != nil {
		return nil, err
	}

	g.log.Info("provisioned app user", zap.Int("user_id", user.ID))
	return user, nil
}

func GenerateJWT(userID int, name string) (string, error) {
	claims := jwt.MapClaims{
		"userID": userID,
		"name":   name,
		"exp":    time.Now().Add(time.Hour * 120).Unix(), // 5 days
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}
