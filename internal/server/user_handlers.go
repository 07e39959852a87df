package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"vidtube/internal/models"
	"vidtube/internal/service"
)

// Register handles POST /api/v1/users/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		FullName string `json:"fullName" form:"fullName"`
		Email    string `json:"email" form:"email"`
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	avatar, err := s.formFile(c, "avatar")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	cover, err := s.formFile(c, "coverImage")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	user, err := s.sessions.Register(c.UserContext(), service.RegisterInput{
		FullName:   req.FullName,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(
		models.NewAPIResponse(fiber.StatusCreated, user, "User registered successfully"))
}

// Login handles POST /api/v1/users/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" form:"email"`
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	result, err := s.sessions.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	s.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return c.JSON(models.NewAPIResponse(fiber.StatusOK, result, "User logged in successfully"))
}

// Logout handles POST /api/v1/users/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessions.Logout(c.UserContext(), currentUserID(c)); err != nil {
		return models.RespondWithError(c, err)
	}

	s.clearAuthCookies(c)
	return c.JSON(models.NewAPIResponse(fiber.StatusOK, fiber.Map{}, "User logged out"))
}

// RefreshToken handles POST /api/v1/users/refresh-token. The token comes
// from the refreshToken cookie or the request body.
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	incoming := c.Cookies(refreshTokenCookie)
	if incoming == "" && len(c.Body()) > 0 {
		var req struct {
			RefreshToken string `json:"refreshToken" form:"refreshToken"`
		}
		if err := c.BodyParser(&req); err == nil {
			incoming = strings.TrimSpace(req.RefreshToken)
		}
	}

	pair, err := s.sessions.RefreshAccessToken(c.UserContext(), incoming)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	s.setAuthCookies(c, pair.AccessToken, pair.RefreshToken)
	return c.JSON(models.NewAPIResponse(fiber.StatusOK, pair, "Access token refreshed"))
}

// ChangePassword handles POST /api/v1/users/change-password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrPassword string `json:"currPassword" form:"currPassword"`
		NewPassword  string `json:"newPassword" form:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	err := s.sessions.ChangePassword(c.UserContext(), currentUserID(c), service.ChangePasswordInput{
		CurrPassword: req.CurrPassword,
		NewPassword:  req.NewPassword,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(models.NewAPIResponse(fiber.StatusOK, fiber.Map{}, "Password changed successfully"))
}

// GetCurrentUser handles GET /api/v1/users/me
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	user, err := s.sessions.CurrentUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(models.NewAPIResponse(fiber.StatusOK, user, "Current user fetched successfully"))
}

// UpdateAccount handles PATCH /api/v1/users/account
func (s *Server) UpdateAccount(c *fiber.Ctx) error {
	var req struct {
		FullName string `json:"fullName" form:"fullName"`
		Email    string `json:"email" form:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.sessions.UpdateAccount(c.UserContext(), currentUserID(c), service.UpdateAccountInput{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(models.NewAPIResponse(fiber.StatusOK, user, "Account details updated successfully"))
}

// UpdateAvatar handles PATCH /api/v1/users/avatar
func (s *Server) UpdateAvatar(c *fiber.Ctx) error {
	file, err := s.formFile(c, "avatar")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	user, err := s.sessions.UpdateAvatar(c.UserContext(), currentUserID(c), file)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(models.NewAPIResponse(fiber.StatusOK, user, "Avatar updated successfully"))
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image
func (s *Server) UpdateCoverImage(c *fiber.Ctx) error {
	file, err := s.formFile(c, "coverImage")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	user, err := s.sessions.UpdateCoverImage(c.UserContext(), currentUserID(c), file)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(models.NewAPIResponse(fiber.StatusOK, user, "Cover image updated successfully"))
}

// GetChannelProfile handles GET /api/v1/users/channel/:username
func (s *Server) GetChannelProfile(c *fiber.Ctx) error {
	profile, err := s.graph.GetChannelProfile(c.UserContext(), c.Params("username"), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(models.NewAPIResponse(fiber.StatusOK, profile, "User channel fetched successfully"))
}

// GetWatchHistory handles GET /api/v1/users/history
func (s *Server) GetWatchHistory(c *fiber.Ctx) error {
	videos, err := s.graph.GetWatchHistory(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(models.NewAPIResponse(fiber.StatusOK, videos, "Watch history fetched successfully"))
}
