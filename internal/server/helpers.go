package server

import (
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	"vidtube/internal/media"
	"vidtube/internal/middleware"
	"vidtube/internal/models"
)

const refreshTokenCookie = "refreshToken"

// currentUserID returns the user set by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

func (s *Server) cookie(name, value string, ttl time.Duration) *fiber.Cookie {
	sameSite := s.config.CookieSameSite
	if sameSite == "" {
		sameSite = fiber.CookieSameSiteLaxMode
	}
	ck := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: sameSite,
	}
	if ttl > 0 {
		ck.Expires = time.Now().Add(ttl)
	} else {
		ck.Expires = time.Unix(0, 0)
	}
	return ck
}

func (s *Server) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(s.cookie(middleware.AccessTokenCookie, accessToken, s.config.AccessTTL()))
	c.Cookie(s.cookie(refreshTokenCookie, refreshToken, s.config.RefreshTTL()))
}

func (s *Server) clearAuthCookies(c *fiber.Ctx) {
	c.Cookie(s.cookie(middleware.AccessTokenCookie, "", 0))
	c.Cookie(s.cookie(refreshTokenCookie, "", 0))
}

// formFile reads an optional multipart file field into memory. A missing
// field yields nil.
func (s *Server) formFile(c *fiber.Ctx, field string) (*media.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	return s.readFile(headers[0])
}

func (s *Server) readFile(h *multipart.FileHeader) (*media.File, error) {
	if max := s.maxUploadBytes(); h.Size > max {
		return nil, models.NewValidationError("File is too large")
	}
	f, err := h.Open()
	if err != nil {
		return nil, models.NewValidationError("Could not read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewValidationError("Could not read uploaded file")
	}
	return &media.File{
		Name:        h.Filename,
		ContentType: h.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

func (s *Server) maxUploadBytes() int64 {
	mb := s.config.MaxUploadSizeMB
	if mb <= 0 {
		mb = 10
	}
	return int64(mb) * 1024 * 1024
}
