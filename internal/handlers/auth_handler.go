package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"atrium/internal/services"
	"atrium/internal/utils/logger"
)

var authLog = logger.New("auth_handler")

// AuthAction discriminates the request variants of the single auth endpoint.
type AuthAction string

const (
	ActionLogin          AuthAction = "login"
	ActionChangePassword AuthAction = "change_password"
	ActionCreateUser     AuthAction = "create_user"
	ActionUpdateUser     AuthAction = "update_user"
	ActionResetPassword  AuthAction = "reset_password"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	UserID          string `json:"user_id" validate:"required"`
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type updateUserRequest struct {
	UserID string `json:"user_id" validate:"required"`
	services.UpdateUserRequest
}

type resetPasswordRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Handle is the single action-discriminated entry point of the admin
// user/auth manager. Every variant is matched explicitly; an unknown action
// is a client error, never a silent no-op.
func (h *AuthHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read request body"})
	}

	var envelope struct {
		Action AuthAction `json:"action"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
	}

	switch envelope.Action {
	case ActionLogin:
		return h.login(c, body)
	case ActionChangePassword:
		return h.changePassword(c, body)
	case ActionCreateUser:
		return h.createUser(c, body)
	case ActionUpdateUser:
		return h.updateUser(c, body)
	case ActionResetPassword:
		return h.resetPassword(c, body)
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown action"})
	}
}

func (h *AuthHandler) login(c echo.Context, body []byte) error {
	var req loginRequest
	if err := h.decode(c, body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    result.User,
		"token":   result.Token,
	})
}

func (h *AuthHandler) changePassword(c echo.Context, body []byte) error {
	var req changePasswordRequest
	if err := h.decode(c, body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.auth.ChangePassword(c.Request().Context(), req.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password changed successfully",
	})
}

func (h *AuthHandler) createUser(c echo.Context, body []byte) error {
	var req services.CreateUserRequest
	if err := h.decode(c, body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	user, err := h.auth.CreateUser(c.Request().Context(), &req)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

func (h *AuthHandler) updateUser(c echo.Context, body []byte) error {
	var req updateUserRequest
	if err := h.decode(c, body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	user, err := h.auth.UpdateUser(c.Request().Context(), req.UserID, &req.UpdateUserRequest)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

func (h *AuthHandler) resetPassword(c echo.Context, body []byte) error {
	var req resetPasswordRequest
	if err := h.decode(c, body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req.UserID, req.NewPassword); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password reset successfully",
	})
}

// decode unmarshals and validates one action payload. The caller turns a
// non-nil error into the 400 response.
func (h *AuthHandler) decode(c echo.Context, body []byte, req interface{}) error {
	if err := json.Unmarshal(body, req); err != nil {
		return errors.New("invalid JSON body")
	}
	return c.Validate(req)
}

// fail maps service errors onto status codes. The invalid credentials
// payload is identical for every failure cause on purpose.
func (h *AuthHandler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"error":   "Invalid credentials",
		})
	case errors.Is(err, services.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"success": false,
			"error":   "User not found",
		})
	case errors.Is(err, services.ErrUsernameTaken):
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"success": false,
			"error":   "Username already exists",
		})
	case errors.Is(err, services.ErrPasswordTooShort):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   services.ErrPasswordTooShort.Error(),
		})
	default:
		authLog.Error("auth request failed", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Internal server error",
		})
	}
}
