package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateProfileImage(ctx context.Context, id, path string) error
}

type fileStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

var allowedImageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
}

// UserServiceParams groups the dependencies of UserService.
type UserServiceParams struct {
	Repo           userRepository
	Audit          auditWriter
	Storage        fileStore
	Validator      *validator.Validate
	Logger         *zap.Logger
	MaxUploadBytes int64
	URLPrefix      string
}

// UserService handles user listing and self-service profile management.
type UserService struct {
	repo      userRepository
	audit     auditWriter
	storage   fileStore
	validator *validator.Validate
	logger    *zap.Logger
	maxUpload int64
	urlPrefix string
}

// NewUserService creates an instance of UserService.
func NewUserService(params UserServiceParams) *UserService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.MaxUploadBytes <= 0 {
		params.MaxUploadBytes = 2 * 1024 * 1024
	}
	if params.URLPrefix == "" {
		params.URLPrefix = "/uploads"
	}
	return &UserService{
		repo:      params.Repo,
		audit:     params.Audit,
		storage:   params.Storage,
		validator: params.Validator,
		logger:    params.Logger,
		maxUpload: params.MaxUploadBytes,
		urlPrefix: strings.TrimRight(params.URLPrefix, "/"),
	}
}

// List returns users with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid role filter")
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetProfile returns a user by ID.
func (s *UserService) GetProfile(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	return user, nil
}

// UpdateProfile applies the provided profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req models.ProfileUpdateRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	before, _ := json.Marshal(user)

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty")
		}
		user.Name = name
	}
	user.Phone = optionalText(req.Phone, user.Phone)
	user.Bio = optionalText(req.Bio, user.Bio)
	user.Department = optionalText(req.Department, user.Department)

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	after, _ := json.Marshal(user)
	s.recordAudit(ctx, user.ID, before, after)
	return user, nil
}

// UploadProfileImage stores a new avatar and replaces the previous one.
func (s *UserService) UploadProfileImage(ctx context.Context, id, filename string, size int64, content io.Reader) (*models.User, error) {
	if s.storage == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "file storage is not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedImageExtensions[ext]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Only image files are allowed")
	}
	if size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "image file is empty")
	}
	if size > s.maxUpload {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("image exceeds %d bytes", s.maxUpload))
	}

	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	rel, err := s.storage.SaveStream(path.Join("profiles", fmt.Sprintf("%s-%s%s", id, uuid.NewString(), ext)), io.LimitReader(content, s.maxUpload))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}
	public := s.urlPrefix + "/" + rel
	if err := s.repo.UpdateProfileImage(ctx, id, public); err != nil {
		_ = s.storage.Delete(rel)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile image")
	}

	if user.ProfileImage != nil && strings.HasPrefix(*user.ProfileImage, s.urlPrefix+"/") {
		old := strings.TrimPrefix(*user.ProfileImage, s.urlPrefix+"/")
		if err := s.storage.Delete(old); err != nil {
			s.logger.Warn("failed to remove previous profile image", zap.String("path", old), zap.Error(err))
		}
	}
	user.ProfileImage = &public
	return user, nil
}

func (s *UserService) recordAudit(ctx context.Context, userID string, before, after []byte) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionProfileUpdate,
		Resource:   "user",
		ResourceID: &userID,
		OldValues:  before,
		NewValues:  after,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", models.AuditActionProfileUpdate), zap.Error(err))
	}
}

// optionalText applies a nullable text patch. An explicit empty string clears the field.
func optionalText(patch, current *string) *string {
	if patch == nil {
		return current
	}
	trimmed := strings.TrimSpace(*patch)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
