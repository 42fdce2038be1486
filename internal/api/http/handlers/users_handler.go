package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// UsersHandler exposes account and profile endpoints.
type UsersHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService}
}

// Register handles POST /users.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if _, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		return err
	}
	return respond(c, http.StatusAccepted, "user created, check your email to confirm the account", nil)
}

// ConfirmAccount handles POST /users/confirm-account.
func (h *UsersHandler) ConfirmAccount(c *fiber.Ctx) error {
	var req dto.ConfirmAccountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.ConfirmAccount(c.UserContext(), req.Token); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "account confirmed", nil)
}

// Login handles POST /users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, token, _, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "login successful", fiber.Map{
		"user":  dto.NewUserResponse(user),
		"token": token,
	})
}

// SessionUser handles GET /users/session/session-user.
func (h *UsersHandler) SessionUser(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	user, err := h.auth.SessionUser(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "session user", fiber.Map{"user": dto.NewUserResponse(user)})
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "users", fiber.Map{"users": dto.NewUserResponses(users)})
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "user", fiber.Map{"user": dto.NewUserResponse(user)})
}

// Update handles PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), actor, c.Params("id"), service.UserUpdateInput{
		Name:     req.Name,
		LastName: req.LastName,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "user updated", fiber.Map{"user": dto.NewUserResponse(user)})
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "user deleted", nil)
}

// UploadAvatar handles PUT /users/:id/avatar with a multipart "avatar" file.
func (h *UsersHandler) UploadAvatar(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("avatar")
	if err != nil {
		return apperrors.NewValidationError("avatar file is required", map[string]any{"field": "avatar"})
	}
	if header.Size > storage.MaxAvatarBytes {
		return apperrors.NewValidationError(storage.ErrImageTooLarge.Error(), map[string]any{"field": "avatar"})
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	user, err := h.users.UploadAvatar(c.UserContext(), actor, c.Params("id"), storage.AvatarUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "avatar updated", fiber.Map{"user": dto.NewUserResponse(user)})
}
