package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/sport-event-booking/internal/config"
	"github.com/iliyamo/sport-event-booking/internal/model"
	"github.com/iliyamo/sport-event-booking/internal/repository"
	"github.com/iliyamo/sport-event-booking/internal/session"
	"github.com/iliyamo/sport-event-booking/internal/utils"
)

// AuthHandler bundles dependencies for registration, login and logout.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *session.Store
	Log      *zap.SugaredLogger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s *session.Store, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Gender   string `json:"gender"` // M | F | MIXTE
	PMR      bool   `json:"pmr"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	PMR    bool   `json:"pmr"`
	Gender string `json:"gender"`
}

// Register creates a user account.  The route is wrapped with the
// ForbidAuthenticated guard, so only anonymous sessions reach it.  New
// accounts always get the USER role; admins are provisioned directly in
// the database.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}
	gender := strings.ToUpper(strings.TrimSpace(req.Gender))
	if gender != model.GenderMale && gender != model.GenderFemale {
		gender = model.GenderMixed
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	_, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, gender, req.PMR, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		h.Log.Errorw("register: create user failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/register", nil, "something went wrong", "error")
	}
	return flash(c, http.StatusCreated, "/login", nil, "account created, please sign in", "success")
}

// Login verifies credentials and attaches the principal to the current
// session.  The session (and with it any tokens issued while anonymous)
// survives the transition, but the cookie is reissued.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		h.Log.Errorw("login: query failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/login", nil, "something went wrong", "error")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	sess := currentSession(c)
	sess.SetPrincipal(&session.Principal{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		PMR:    u.PMR,
		Gender: u.Gender,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"user":     userPart{Name: u.Name, Email: u.Email, Role: u.Role, PMR: u.PMR, Gender: u.Gender},
		"redirect": "/",
		"message":  "welcome back",
		"kind":     "success",
	})
}

// Logout destroys the whole session: principal, secure-reference tokens
// and CSRF tokens all disappear together.  The cookie is expired so the
// browser drops it too.
func (h *AuthHandler) Logout(c echo.Context) error {
	sess := currentSession(c)
	if sess != nil {
		h.Sessions.Destroy(sess.ID)
	}
	c.SetCookie(&http.Cookie{
		Name:     utils.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return flash(c, http.StatusOK, "/login", nil, "signed out", "success")
}

// Me returns the authenticated principal.  Protected by RequireAuth.
func (h *AuthHandler) Me(c echo.Context) error {
	p := currentPrincipal(c)
	if p == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, userPart{Name: p.Name, Email: p.Email, Role: p.Role, PMR: p.PMR, Gender: p.Gender})
}
