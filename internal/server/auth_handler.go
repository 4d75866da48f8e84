package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/buyside/internal/types"
)

// DemoRole is the role every stub login receives.
const DemoRole = "Admin"

// demoNamespace scopes the deterministic demo user IDs.
var demoNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://buyside.local/users"))

// AuthHandler handles the stub login.
type AuthHandler struct {
	jwtService *JWTService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(jwtService *JWTService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		validator:  validator.New(),
		logger:     logger,
	}
}

// DemoUser returns the user a stub login resolves to. The same username always
// maps to the same ID.
func DemoUser(username string) *types.User {
	username = strings.TrimSpace(username)
	return &types.User{
		ID:   uuid.NewSHA1(demoNamespace, []byte(strings.ToLower(username))),
		Name: username,
		Role: DemoRole,
	}
}

// Login accepts any non-empty username and returns a signed token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	user := DemoUser(req.Username)
	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, types.LoginResponse{User: user, Token: token})
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return "validation error"
}
