package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail    *models.User
	findByEmailErr error
	createErr      error
	created        *models.User
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil || m.userByEmail.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "user-new"
	m.created = user
	return nil
}

type auditRecorder struct {
	logs []*models.AuditLog
	err  error
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return a.err
}

func newTestAuthService(repo *mockAuthRepo, audit *auditRecorder) *AuthService {
	return NewAuthService(repo, audit, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "campus-events-test",
	})
}

func hashedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: "user-1", Name: "Ana", Email: "ana@campus.edu", PasswordHash: string(hash), Role: models.RoleStudent}
}

func TestAuthServiceRegisterDefaultsToStudent(t *testing.T) {
	repo := &mockAuthRepo{}
	audit := &auditRecorder{}
	svc := newTestAuthService(repo, audit)

	res, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     " Ana ",
		Email:    "ANA@Campus.edu",
		Password: "secret1",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "ana@campus.edu", repo.created.Email)
	assert.Equal(t, "Ana", repo.created.Name)
	assert.Equal(t, models.RoleStudent, repo.created.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("secret1")))
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionUserRegister, audit.logs[0].Action)
}

func TestAuthServiceRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "existing", Email: "ana@campus.edu"}}
	svc := newTestAuthService(repo, &auditRecorder{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Ana", Email: "ana@campus.edu", Password: "secret1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "User already exists", appErr.Message)
	assert.Nil(t, repo.created)
}

func TestAuthServiceRegisterValidatesPayload(t *testing.T) {
	svc := newTestAuthService(&mockAuthRepo{}, &auditRecorder{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Ana", Email: "ana@campus.edu", Password: "123"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Register(context.Background(), models.RegisterRequest{Name: "Ana", Email: "ana@campus.edu", Password: "secret1", Role: models.RoleAdmin})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAuthServiceLogin(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: hashedUser(t, "secret1")}
	audit := &auditRecorder{}
	svc := newTestAuthService(repo, audit)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@campus.edu", Password: "secret1", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", res.User.ID)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLogin, audit.logs[0].Action)
	assert.Equal(t, "10.0.0.1", audit.logs[0].IPAddress)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: hashedUser(t, "secret1")}
	svc := newTestAuthService(repo, &auditRecorder{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@campus.edu", Password: "wrong"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@campus.edu", Password: "secret1"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginAuditFailureIsNotFatal(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: hashedUser(t, "secret1")}
	svc := newTestAuthService(repo, &auditRecorder{err: errors.New("audit down")})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@campus.edu", Password: "secret1"})
	assert.NoError(t, err)
}

func TestAuthServiceValidateTokenRejectsForeignTokens(t *testing.T) {
	svc := newTestAuthService(&mockAuthRepo{}, nil)

	claims := &models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "campus-events-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	expired := *claims
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &expired).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(stale)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestProvisionAdmin(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newTestAuthService(repo, &auditRecorder{})

	user, err := svc.ProvisionAdmin(context.Background(), models.RegisterRequest{
		Name:     " Registrar ",
		Email:    "Registrar@Campus.test",
		Password: "changeme1",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, "registrar@campus.test", user.Email)
	assert.Equal(t, "Registrar", user.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("changeme1")))

	_, err = svc.ProvisionAdmin(context.Background(), models.RegisterRequest{Name: "x", Email: "bad", Password: "changeme1"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
