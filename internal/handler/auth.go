package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/config"
	"github.com/qrmuseum/museum-api/internal/middleware"
	"github.com/qrmuseum/museum-api/internal/model"
	"github.com/qrmuseum/museum-api/internal/repository"
	"github.com/qrmuseum/museum-api/internal/storage"
	"github.com/qrmuseum/museum-api/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Visitors *repository.VisitorRepo
	Store    storage.Store
	Log      *zap.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo,
	v *repository.VisitorRepo, st storage.Store, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Visitors: v, Store: st, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username        string `json:"username" validate:"required,min=3,max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	FirstName       string `json:"first_name" validate:"required,max=150"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}
type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Role      string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func partOf(u model.User) userPart {
	return userPart{ID: u.ID, Username: u.Username, Email: u.Email, FirstName: u.FirstName, Role: u.Role}
}

// issue mints an access/refresh pair for u. When replaces is the hash of
// the presented refresh token it is revoked in the same transaction that
// stores the new one.
func (h *AuthHandler) issue(ctx context.Context, u model.User, replaces string) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	hash := utils.HashRefreshRaw(refresh.Raw)
	if replaces != "" {
		err = h.Tokens.Rotate(ctx, u.ID, replaces, hash, refresh.Exp)
	} else {
		err = h.Tokens.StoreRefresh(ctx, u.ID, hash, refresh.Exp)
	}
	if err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    partOf(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// Register: create a visitor account (with its profile) and return tokens.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if taken, err := h.Users.UsernameTaken(ctx, req.Username); err != nil {
		return serverError(c, h.Log, "query failed", err)
	} else if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
	}
	if taken, err := h.Users.EmailTaken(ctx, req.Email); err != nil {
		return serverError(c, h.Log, "query failed", err)
	} else if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	}

	uid, err := h.Users.Create(ctx, repository.NewUser{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: strings.TrimSpace(req.FirstName),
		Password:  req.Password,
		Role:      model.RoleVisitor,
	}, h.Cfg.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrUsernameExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case err != nil:
		return serverError(c, h.Log, "create user failed", err)
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "load user failed", err)
	}
	resp, err := h.issue(ctx, u, "")
	if err != nil {
		return serverError(c, h.Log, "issue tokens failed", err)
	}
	h.Log.Info("user registered", zap.Uint64("user_id", uid), zap.String("username", u.Username))
	return c.JSON(http.StatusCreated, resp)
}

// Login: verify username/password and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.BurnPasswordCheck(req.Password)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return serverError(c, h.Log, "query failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	}
	if utils.NeedsRehash(u.PasswordHash, h.Cfg.BcryptCost) {
		if err := h.Users.SetPassword(ctx, u.ID, req.Password, h.Cfg.BcryptCost); err != nil {
			h.Log.Warn("password rehash failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		}
	}

	resp, err := h.issue(ctx, u, "")
	if err != nil {
		return serverError(c, h.Log, "issue tokens failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return refreshError(c, h.Log, err)
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return serverError(c, h.Log, "load user failed", err)
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	}
	resp, err := h.issue(ctx, u, hash)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshInvalid) {
			return refreshError(c, h.Log, err)
		}
		return serverError(c, h.Log, "issue tokens failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return refreshError(c, h.Log, err)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return serverError(c, h.Log, "load user failed", err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return serverError(c, h.Log, "issue access failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes one session when a refresh_token is posted, or every
// session of the caller when only a bearer access token is supplied.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	if raw, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer "); ok {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimSpace(raw)); err == nil {
			uid, _ = claims.UserID()
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return refreshError(c, h.Log, err)
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return serverError(c, h.Log, "logout failed", err)
		}
		return c.NoContent(http.StatusNoContent)
	}
	if uid != 0 {
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return serverError(c, h.Log, "logout failed", err)
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

func refreshError(c echo.Context, log *zap.Logger, err error) error {
	if errors.Is(err, repository.ErrRefreshInvalid) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	return serverError(c, log, "refresh lookup failed", err)
}

// Me returns the caller's account and game profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return serverError(c, h.Log, "load user failed", err)
	}
	profile, err := h.Visitors.Ensure(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "load profile failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": uid,
		"role":    middleware.Role(c),
		"user":    partOf(u),
		"profile": toVisitor(h.Store, profile),
	})
}
