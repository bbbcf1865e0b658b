package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"calcapi/internal/auth"
	"calcapi/internal/model"
	"calcapi/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// PasswordField is the password shared by the registration and login forms.
// Strength rules run in the registration flow, not here.
type PasswordField struct {
	Password string `json:"password" form:"password" validate:"max=128"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Username  string `json:"username" validate:"required,min=3,max=50,excludes=@"`
	PasswordField
}

// ToInput converts the request to the registration flow input.
func (r RegisterRequest) ToInput() service.RegisterInput {
	return service.RegisterInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Username:  r.Username,
		Password:  r.Password,
	}
}

// LoginRequest represents a JSON login. Username accepts a username or an email.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=50"`
	PasswordField
}

// TokenRequest is the OAuth2 password-grant form.
type TokenRequest struct {
	GrantType string `form:"grant_type" validate:"omitempty,eq=password"`
	LoginRequest
	Scope string `form:"scope"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginResponse represents a successful JSON login.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	User         *model.User `json:"user"`
}

// TokenResponse is the OAuth2 token endpoint response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), req.ToInput())
	if err != nil {
		return respondError(err)
	}

	return c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary Login with username or email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Authenticate(c.Request().Context(), service.Credentials{
		Identifier: req.Username,
		Password:   req.Password,
	})
	if err != nil {
		return challenge(c, err)
	}

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		TokenType:    result.Tokens.TokenType,
		User:         result.User,
	})
}

// Token godoc
// @Summary OAuth2 password grant
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string false "Must be 'password' when present"
// @Param username formData string true "Username or email"
// @Param password formData string true "Password"
// @Param scope formData string false "Ignored"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/token [post]
func (h *AuthHandler) Token(c echo.Context) error {
	var req TokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Authenticate(c.Request().Context(), service.Credentials{
		Identifier: req.Username,
		Password:   req.Password,
	})
	if err != nil {
		return challenge(c, err)
	}

	return c.JSON(http.StatusOK, TokenResponse{
		AccessToken: result.Tokens.AccessToken,
		TokenType:   auth.TokenTypeBearer,
	})
}

// Refresh godoc
// @Summary Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} auth.TokenPair
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return challenge(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}
