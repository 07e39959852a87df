// Package service holds the application's use cases.
package service

import (
	"context"
	"strings"

	"vidtube/internal/auth"
	"vidtube/internal/media"
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/observability"
	"vidtube/internal/repository"
)

// TokenIssuer is the part of auth.TokenService sessions depend on.
type TokenIssuer interface {
	IssuePair(ctx context.Context, userID uint) (*auth.TokenPair, error)
	Rotate(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
}

type SessionService struct {
	users    repository.UserRepository
	tokens   TokenIssuer
	uploader media.Uploader
}

func NewSessionService(users repository.UserRepository, tokens TokenIssuer, uploader media.Uploader) *SessionService {
	return &SessionService{users: users, tokens: tokens, uploader: uploader}
}

type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *media.File
	CoverImage *media.File
}

type LoginInput struct {
	Email    string
	Username string
	Password string
}

type ChangePasswordInput struct {
	CurrPassword string
	NewPassword  string
}

type UpdateAccountInput struct {
	FullName string
	Email    string
}

// LoginResult is a signed-in user together with a fresh token pair.
type LoginResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Register creates an account. Media is uploaded before the user row is
// written; a failed upload leaves no user behind.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	defer func() { observability.RecordAuthEvent("register", err) }()

	fullName := strings.TrimSpace(in.FullName)
	email := models.NormalizeIdentifier(in.Email)
	username := models.NormalizeIdentifier(in.Username)
	if fullName == "" || email == "" || username == "" || strings.TrimSpace(in.Password) == "" {
		return nil, models.NewValidationError("All fields are required")
	}

	existing, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User with email or username already exists")
	}

	if in.Avatar == nil {
		return nil, models.NewValidationError("Avatar is required")
	}
	avatarURL, err := s.uploader.Upload(ctx, media.FolderAvatars, in.Avatar)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "avatar upload failed", "error", err)
		return nil, models.NewValidationError("Avatar is required")
	}

	var coverURL string
	if in.CoverImage != nil {
		coverURL, err = s.uploader.Upload(ctx, media.FolderCoverImages, in.CoverImage)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "cover image upload failed", "error", err)
			return nil, models.NewValidationError("Error while uploading cover image")
		}
	}

	created := &models.User{
		FullName:   fullName,
		Email:      email,
		Username:   username,
		Avatar:     avatarURL,
		CoverImage: coverURL,
	}
	if err := created.SetPassword(in.Password); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.users.Create(ctx, created); err != nil {
		return nil, err
	}

	user, err = s.users.GetByID(ctx, created.ID)
	if err != nil {
		return nil, models.NewInternalErrorMessage("Something went wrong while registering the user", err)
	}
	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and starts a session.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (result *LoginResult, err error) {
	defer func() { observability.RecordAuthEvent("login", err) }()

	username := models.NormalizeIdentifier(in.Username)
	email := models.NormalizeIdentifier(in.Email)
	if username == "" && email == "" {
		return nil, models.NewValidationError("Email or username is required")
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundMessage("User does not exist")
	}
	if !user.CheckPassword(in.Password) {
		middleware.Logger.WarnContext(ctx, "login failed: bad credentials", "user_id", user.ID)
		return nil, models.NewUnauthorizedError("Invalid user credentials")
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		User:         user.Sanitized(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout revokes the stored refresh token. Repeating it is harmless.
func (s *SessionService) Logout(ctx context.Context, userID uint) (err error) {
	defer func() { observability.RecordAuthEvent("logout", err) }()
	return s.users.ClearRefreshToken(ctx, userID)
}

// RefreshAccessToken rotates the refresh token. Every failure is reported
// as unauthorized.
func (s *SessionService) RefreshAccessToken(ctx context.Context, incoming string) (pair *auth.TokenPair, err error) {
	defer func() { observability.RecordAuthEvent("refresh", err) }()

	if strings.TrimSpace(incoming) == "" {
		return nil, models.NewUnauthorizedError("Unauthorized request")
	}
	pair, err = s.tokens.Rotate(ctx, incoming)
	if err != nil {
		if models.IsCode(err, models.CodeUnauthorized) {
			return nil, err
		}
		return nil, models.WrapUnauthorized("Invalid refresh token", err)
	}
	return pair, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *SessionService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) (err error) {
	defer func() { observability.RecordAuthEvent("change_password", err) }()

	if strings.TrimSpace(in.NewPassword) == "" {
		return models.NewValidationError("New password is required")
	}
	user, err := s.users.GetWithSecrets(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(in.CurrPassword) {
		return models.NewValidationError("Invalid current password")
	}
	if err := user.SetPassword(in.NewPassword); err != nil {
		return models.NewInternalError(err)
	}
	return s.users.UpdatePassword(ctx, userID, user.Password)
}

func (s *SessionService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateAccount changes the full name and email.
func (s *SessionService) UpdateAccount(ctx context.Context, userID uint, in UpdateAccountInput) (*models.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := models.NormalizeIdentifier(in.Email)
	if fullName == "" || email == "" {
		return nil, models.NewValidationError("All fields are required")
	}
	return s.users.UpdateAccount(ctx, userID, fullName, email)
}

// UpdateAvatar uploads f and points the user's avatar at it.
func (s *SessionService) UpdateAvatar(ctx context.Context, userID uint, f *media.File) (*models.User, error) {
	if f == nil {
		return nil, models.NewValidationError("Avatar file is required")
	}
	url, err := s.uploader.Upload(ctx, media.FolderAvatars, f)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "avatar upload failed", "error", err)
		return nil, models.NewValidationError("Error while uploading avatar")
	}
	return s.users.UpdateAvatar(ctx, userID, url)
}

// UpdateCoverImage uploads f and points the user's cover image at it.
func (s *SessionService) UpdateCoverImage(ctx context.Context, userID uint, f *media.File) (*models.User, error) {
	if f == nil {
		return nil, models.NewValidationError("Cover image file is required")
	}
	url, err := s.uploader.Upload(ctx, media.FolderCoverImages, f)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cover image upload failed", "error", err)
		return nil, models.NewValidationError("Error while uploading cover image")
	}
	return s.users.UpdateCoverImage(ctx, userID, url)
}
