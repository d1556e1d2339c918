package security

import (
	"context"
	"os"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

func TestMain(m *testing.M) {
	// Must be set before the first lazy secret() read.
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) IsAllowed(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*models.AppUser, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppUser), args.Error(1)
}

func (m *MockUserRepository) CreateUser(ctx context.Context, externalID, name string, credentialHash []byte) (*models.AppUser, error) {
	args := m.Called(ctx, externalID, name, credentialHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppUser), args.Error(1)
}

func (m *MockUserRepository) UpdateName(ctx context.Context, id int, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *MockUserRepository) GetUser(id int) (*models.AppUser, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppUser), args.Error(1)
}

func (m *MockUserRepository) GetUsers() ([]models.AppUser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AppUser), args.Error(1)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Append(entry models.Transaction) error {
	args := m.Called(entry)
	return args.Error(0)
}

func newTestGate() (*Gate, *MockUserRepository, *MockRecorder) {
	repo := new(MockUserRepository)
	audit := new(MockRecorder)
	return NewGate(repo, audit, zap.NewNop()), repo, audit
}

func TestDeriveCredentialIsStable(t *testing.T) {
	first := DeriveCredential("123456")
	second := DeriveCredential("123456")
	other := DeriveCredential("654321")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64) // hex-encoded SHA-256
}

func TestAuthenticateRejectsUnlistedIdentity(t *testing.T) {
	gate, repo, audit := newTestGate()

	repo.On("IsAllowed", mock.Anything, "999").Return(false, nil).Once()

	_, err := gate.Authenticate(context.Background(), TelegramLogin{ExternalID: "999", DisplayName: "Mallory"})

	var denied *apperrors.AccessDeniedError
	assert.ErrorAs(t, err, &denied)
	assert.Equal(t, "999", denied.Identity)
	repo.AssertNotCalled(t, "GetByExternalID", mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Append", mock.Anything)
}

func TestAuthenticateRejectsBlankIdentity(t *testing.T) {
	gate, repo, _ := newTestGate()

	_, err := gate.Authenticate(context.Background(), TelegramLogin{ExternalID: "  ", DisplayName: "Anna"})

	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
	repo.AssertNotCalled(t, "IsAllowed", mock.Anything, mock.Anything)
}

func TestAuthenticateProvisionsFirstSignIn(t *testing.T) {
	gate, repo, audit := newTestGate()

	repo.On("IsAllowed", mock.Anything, "123456").Return(true, nil).Once()
	repo.On("GetByExternalID", mock.Anything, "123456").
		Return(nil, &apperrors.NotFoundError{Resource: "user"}).Once()
	repo.On("CreateUser", mock.Anything, "123456", "Anna", mock.MatchedBy(func(hash []byte) bool {
		return bcrypt.CompareHashAndPassword(hash, []byte(DeriveCredential("123456"))) == nil
	})).Return(&models.AppUser{ID: 1, ExternalID: "123456", Name: "Anna"}, nil).Once()

	user, err := gate.Authenticate(context.Background(), TelegramLogin{ExternalID: "123456", DisplayName: "Anna"})

	assert.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	repo.AssertExpectations(t)
	audit.AssertNotCalled(t, "Append", mock.Anything)
}

func TestAuthenticateExistingUser(t *testing.T) {
	gate, repo, audit := newTestGate()

	hash, err := bcrypt.GenerateFromPassword([]byte(DeriveCredential("123456")), bcrypt.MinCost)
	assert.NoError(t, err)

	repo.On("IsAllowed", mock.Anything, "123456").Return(true, nil).Once()
	repo.On("GetByExternalID", mock.Anything, "123456").
		Return(&models.AppUser{ID: 1, ExternalID: "123456", Name: "Anna", CredentialHash: string(hash)}, nil).Once()

	user, err := gate.Authenticate(context.Background(), TelegramLogin{ExternalID: "123456", DisplayName: "Anna"})

	assert.NoError(t, err)
	assert.Equal(t, "Anna", user.Name)
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Append", mock.Anything)
}

func TestAuthenticateRejectsCredentialMismatch(t *testing.T) {
	gate, repo, _ := newTestGate()

	hash, err := bcrypt.GenerateFromPassword([]byte("stale-credential"), bcrypt.MinCost)
	assert.NoError(t, err)

	repo.On("IsAllowed", mock.Anything, "123456").Return(true, nil).Once()
	repo.On("GetByExternalID", mock.Anything, "123456").
		Return(&models.AppUser{ID: 1, ExternalID: "123456", Name: "Anna", CredentialHash: string(hash)}, nil).Once()

	_, err = gate.Authenticate(context.Background(), TelegramLogin{ExternalID: "123456", DisplayName: "Anna"})

	var denied *apperrors.AccessDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestAuthenticateRecordsNameChange(t *testing.T) {
	gate, repo, audit := newTestGate()

	hash, err := bcrypt.GenerateFromPassword([]byte(DeriveCredential("123456")), bcrypt.MinCost)
	assert.NoError(t, err)

	repo.On("IsAllowed", mock.Anything, "123456").Return(true, nil).Once()
	repo.On("GetByExternalID", mock.Anything, "123456").
		Return(&models.AppUser{ID: 1, ExternalID: "123456", Name: "Anna", CredentialHash: string(hash)}, nil).Once()
	repo.On("UpdateName", mock.Anything, 1, "Anna K").Return(nil).Once()
	audit.On("Append", mock.MatchedBy(func(entry models.Transaction) bool {
		return entry.Action == models.ActionNameChanged &&
			entry.Details["old"] == "Anna" &&
			entry.Details["new"] == "Anna K"
	})).Return(nil).Once()

	user, err := gate.Authenticate(context.Background(), TelegramLogin{ExternalID: "123456", DisplayName: "Anna K"})

	assert.NoError(t, err)
	assert.Equal(t, "Anna K", user.Name)
	repo.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestGenerateJWTRoundTrip(t *testing.T) {
	signed, err := GenerateJWT(7, "Anna")
	assert.NoError(t, err)

	token, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.NoError(t, err)
	assert.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(7), claims["userID"])
	assert.Equal(t, "Anna", claims["name"])
}
