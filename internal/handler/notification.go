package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/sport-event-booking/internal/authz"
	"github.com/iliyamo/sport-event-booking/internal/repository"
	"github.com/iliyamo/sport-event-booking/internal/token"
)

// NotificationHandler serves the in-app notification feed and the site
// feedback form.  The feed is polled; there is no push channel.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
	Feedback      *repository.FeedbackRepo
	Log           *zap.SugaredLogger
}

func NewNotificationHandler(n *repository.NotificationRepo, f *repository.FeedbackRepo, log *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{Notifications: n, Feedback: f, Log: log}
}

// notificationItem is one feed entry with its mark-read form.
type notificationItem struct {
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	Ref       string    `json:"ref"`
	ReadCSRF  string    `json:"read_csrf"`
}

// List handles GET /v1/notifications: the caller's feed newest first,
// plus the unread count for the badge.
func (h *NotificationHandler) List(c echo.Context) error {
	sess := currentSession(c)
	p := currentPrincipal(c)
	if p == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	notifs, err := h.Notifications.ListForUser(ctx, p.UserID)
	if err != nil {
		h.Log.Errorw("list notifications failed", "user_id", p.UserID, "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	unread, err := h.Notifications.CountUnread(ctx, p.UserID)
	if err != nil {
		h.Log.Errorw("count unread failed", "user_id", p.UserID, "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	items := make([]notificationItem, 0, len(notifs))
	for _, n := range notifs {
		ref, csrf, err := issueForm(sess, token.KindNotification, n.ID, "read_notification")
		if err != nil {
			return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
		}
		items = append(items, notificationItem{
			Content: n.Content, Read: n.Read, CreatedAt: n.CreatedAt, Ref: ref, ReadCSRF: csrf,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": items, "unread": unread})
}

// MarkRead handles POST /v1/notifications/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	var req mutateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess := currentSession(c)
	notifID, err := authz.Authorize(sess, authz.Request{
		FormName: formName("read_notification", req.Ref),
		CSRF:     req.CSRF,
		Ref:      req.Ref,
		Want:     token.KindNotification,
	})
	if err != nil {
		return authzFlash(c, err)
	}
	p := currentPrincipal(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, notifID, p.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return flash(c, http.StatusNotFound, "/notifications", nil, "notification not found", "error")
		}
		h.Log.Errorw("mark read failed", "notification_id", notifID, "err", err)
		return flash(c, http.StatusInternalServerError, "/notifications", nil, "something went wrong", "error")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "marked as read", "kind": "success"})
}

// FeedbackForm handles GET /v1/feedback/new: issues the anti-forgery
// token for the feedback form.
func (h *NotificationHandler) FeedbackForm(c echo.Context) error {
	sess := currentSession(c)
	csrf, err := sess.CSRF.Issue("submit_feedback")
	if err != nil {
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	return c.JSON(http.StatusOK, echo.Map{"csrf": csrf})
}

type feedbackReq struct {
	CSRF    string `json:"csrf"`
	Content string `json:"content"`
}

// SubmitFeedback handles POST /v1/feedback.
func (h *NotificationHandler) SubmitFeedback(c echo.Context) error {
	var req feedbackReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess := currentSession(c)
	if err := authz.AuthorizeForm(sess, "submit_feedback", req.CSRF); err != nil {
		return authzFlash(c, err)
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "feedback cannot be empty", "kind": "error"})
	}
	p := currentPrincipal(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, err := h.Feedback.Create(ctx, p.UserID, req.Content); err != nil {
		h.Log.Errorw("submit feedback failed", "user_id", p.UserID, "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	return flash(c, http.StatusCreated, "/", nil, "thanks for your feedback", "success")
}
