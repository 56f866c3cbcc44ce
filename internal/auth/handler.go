package auth

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/sweeply-app/sweeply/internal/apperrors"
	"github.com/sweeply-app/sweeply/internal/config"
	"github.com/sweeply-app/sweeply/internal/users"
)

// Handler owns the identity endpoints: signup, login, token refresh and the
// password reset flow. Everything it needs arrives through the constructor.
type Handler struct {
	users  *users.Store
	tokens *RefreshTokenStore
	cfg    *config.Config
}

func NewHandler(userStore *users.Store, tokenStore *RefreshTokenStore, cfg *config.Config) *Handler {
	return &Handler{users: userStore, tokens: tokenStore, cfg: cfg}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=7,max=100"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Signup creates a user and logs them in.
func (h *Handler) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperrors.ValidationFailed(err.Error())
	}

	hashed, err := HashPassword(req.Password, h.cfg.BcryptCost)
	if err != nil {
		return apperrors.Internal(err)
	}

	u := &users.User{Username: req.Username, Email: req.Email, Password: hashed}
	if err := h.users.Create(c.Request().Context(), u); err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("username or email already taken")
		}
		return apperrors.Internal(err)
	}

	pair, err := h.issueTokenPair(c, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pair)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and issues a token pair.
func (h *Handler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperrors.ValidationFailed(err.Error())
	}

	u, err := h.users.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return apperrors.Unauthorized("invalid credentials")
		}
		return apperrors.Internal(err)
	}
	if !u.IsActive {
		return apperrors.Forbidden("account suspended")
	}
	if !CheckPassword(u.Password, req.Password) {
		return apperrors.Unauthorized("invalid credentials")
	}

	pair, err := h.issueTokenPair(c, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates a refresh token into a new pair.
func (h *Handler) Refresh(c echo.Context) error {
	req := new(RefreshRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperrors.ValidationFailed(err.Error())
	}

	ctx := c.Request().Context()
	userID, err := h.tokens.Consume(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenInvalid) {
			return apperrors.Unauthorized("refresh token invalid or expired")
		}
		return apperrors.Internal(err)
	}

	u, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.Unauthorized("refresh token invalid or expired")
	}

	pair, err := h.issueTokenPair(c, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c echo.Context) error {
	actor, ok := c.Get("user").(*users.User)
	if !ok || actor == nil {
		return apperrors.Unauthorized("authentication required")
	}

	u, err := h.users.GetByID(c.Request().Context(), actor.ID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return apperrors.NotFound("user not found")
		}
		return apperrors.Internal(err)
	}
	return c.JSON(http.StatusOK, u)
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword issues a short-lived reset token. The response is identical
// whether or not the email exists, to avoid user enumeration. Without a mail
// provider the token is returned only in development.
func (h *Handler) ForgotPassword(c echo.Context) error {
	req := new(ForgotPasswordRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperrors.ValidationFailed(err.Error())
	}

	resp := echo.Map{"message": "if the email exists, a reset token has been issued"}

	u, err := h.users.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return c.JSON(http.StatusOK, resp)
	}

	token, err := IssuePasswordResetToken(u.ID, h.cfg.JWTSecret, h.cfg.AccessTokenTTL)
	if err != nil {
		return c.JSON(http.StatusOK, resp)
	}
	if !h.cfg.IsProduction() {
		resp["reset_token"] = token
	}
	return c.JSON(http.StatusOK, resp)
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=7,max=100"`
}

// ResetPassword sets a new password and revokes outstanding refresh tokens.
func (h *Handler) ResetPassword(c echo.Context) error {
	req := new(ResetPasswordRequest)
	if err := c.Bind(req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperrors.ValidationFailed(err.Error())
	}

	claims, err := ParsePasswordResetToken(req.Token, h.cfg.JWTSecret)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired reset token")
	}

	hashed, err := HashPassword(req.NewPassword, h.cfg.BcryptCost)
	if err != nil {
		return apperrors.Internal(err)
	}

	ctx := c.Request().Context()
	if err := h.users.UpdatePassword(ctx, claims.UserID, hashed); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return apperrors.NotFound("user not found")
		}
		return apperrors.Internal(err)
	}
	if err := h.tokens.RevokeAll(ctx, claims.UserID); err != nil {
		return apperrors.Internal(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

func (h *Handler) issueTokenPair(c echo.Context, u *users.User) (*TokenPairResponse, error) {
	access, err := IssueAccessToken(u, h.cfg.JWTSecret, h.cfg.AccessTokenTTL)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	refresh, err := h.tokens.Issue(c.Request().Context(), u.ID, h.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &TokenPairResponse{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
