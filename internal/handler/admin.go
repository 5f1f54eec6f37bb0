package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/sport-event-booking/internal/authz"
	"github.com/iliyamo/sport-event-booking/internal/model"
	"github.com/iliyamo/sport-event-booking/internal/queue"
	"github.com/iliyamo/sport-event-booking/internal/repository"
	"github.com/iliyamo/sport-event-booking/internal/token"
)

// AdminHandler covers the moderation views: the pending-event queue,
// the user roster and the feedback list.  All routes are behind the
// RequireAdmin guard, and each mutation still revalidates the admin role
// through the authorizer.
type AdminHandler struct {
	Events   *repository.EventRepo
	Users    *repository.UserRepo
	Feedback *repository.FeedbackRepo
	Publish  func(kind string, e *model.Event, actorID uint64, recipients []uint64)
	Log      *zap.SugaredLogger
}

func NewAdminHandler(e *repository.EventRepo, u *repository.UserRepo, f *repository.FeedbackRepo, eh *EventHandler, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{Events: e, Users: u, Feedback: f, Publish: eh.publish, Log: log}
}

// pendingItem is one moderation-queue row with its approve and refuse
// form tokens.
type pendingItem struct {
	repository.EventDetail
	OwnerName string            `json:"owner_name"`
	Ref       string            `json:"ref"`
	Forms     map[string]string `json:"forms"`
}

// ListPending handles GET /v1/admin/events: every pending event, each
// with its approve and refuse forms pre-issued.
func (h *AdminHandler) ListPending(c echo.Context) error {
	sess := currentSession(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	details, err := h.Events.List(ctx, repository.Filter{Status: model.EventPending})
	if err != nil {
		h.Log.Errorw("admin: list pending failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/admin", nil, "something went wrong", "error")
	}
	items := make([]pendingItem, 0, len(details))
	for _, d := range details {
		owner, err := h.Users.GetByID(ctx, d.OwnerID)
		if err != nil {
			h.Log.Errorw("admin: owner lookup failed", "owner_id", d.OwnerID, "err", err)
			return flash(c, http.StatusInternalServerError, "/admin", nil, "something went wrong", "error")
		}
		ref, err := sess.Vault.Issue(token.KindEvent, d.ID)
		if err != nil {
			return flash(c, http.StatusInternalServerError, "/admin", nil, "something went wrong", "error")
		}
		forms := make(map[string]string, 2)
		for _, action := range []string{"approve_event", "refuse_event"} {
			csrf, err := sess.CSRF.Issue(formName(action, ref))
			if err != nil {
				return flash(c, http.StatusInternalServerError, "/admin", nil, "something went wrong", "error")
			}
			forms[action] = csrf
		}
		items = append(items, pendingItem{EventDetail: d, OwnerName: owner.Name, Ref: ref, Forms: forms})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": items})
}

// moderate applies one moderation decision and notifies the owner.
func (h *AdminHandler) moderate(c echo.Context, action, status, lifecycle, message string) error {
	var req mutateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess := currentSession(c)
	eventID, err := authz.AuthorizeAdmin(sess, authz.Request{
		FormName: formName(action, req.Ref),
		CSRF:     req.CSRF,
		Ref:      req.Ref,
		Want:     token.KindEvent,
	})
	if err != nil {
		return authzFlash(c, err)
	}
	p := currentPrincipal(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return flash(c, http.StatusNotFound, "/admin", nil, "event not found", "error")
		}
		h.Log.Errorw("moderate: lookup failed", "event_id", eventID, "err", err)
		return flash(c, http.StatusInternalServerError, "/admin", nil, "something went wrong", "error")
	}
	if err := h.Events.SetStatus(ctx, eventID, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Already moderated; the queue the admin acted from was stale.
			return flash(c, http.StatusConflict, "/admin", nil, "this event has already been moderated", "error")
		}
		h.Log.Errorw("moderate: set status failed", "event_id", eventID, "status", status, "err", err)
		return flash(c, http.StatusInternalServerError, "/admin", nil, "something went wrong", "error")
	}
	h.Publish(lifecycle, e, p.UserID, []uint64{e.OwnerID})
	return flash(c, http.StatusOK, "/admin", nil, message, "success")
}

// Approve handles POST /v1/admin/events/approve.
func (h *AdminHandler) Approve(c echo.Context) error {
	return h.moderate(c, "approve_event", model.EventApproved, queue.LifecycleApproved, "event approved")
}

// Refuse handles POST /v1/admin/events/refuse.
func (h *AdminHandler) Refuse(c echo.Context) error {
	return h.moderate(c, "refuse_event", model.EventRefused, queue.LifecycleRefused, "event refused")
}

// userItem is one roster row; admin accounts carry no delete form.
type userItem struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	PMR        bool      `json:"pmr"`
	Gender     string    `json:"gender"`
	CreatedAt  time.Time `json:"created_at"`
	Ref        string    `json:"ref,omitempty"`
	DeleteCSRF string    `json:"delete_csrf,omitempty"`
}

// ListUsers handles GET /v1/admin/users.  Non-admin rows carry the
// reference and form token of their delete action.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	sess := currentSession(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		h.Log.Errorw("admin: list users failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/admin", nil, "something went wrong", "error")
	}
	items := make([]userItem, 0, len(users))
	for _, u := range users {
		item := userItem{Name: u.Name, Email: u.Email, Role: u.Role, PMR: u.PMR, Gender: u.Gender, CreatedAt: u.CreatedAt}
		if !u.IsAdmin() {
			ref, csrf, err := issueForm(sess, token.KindUser, u.ID, "delete_user")
			if err != nil {
				return flash(c, http.StatusInternalServerError, "/admin", nil, "something went wrong", "error")
			}
			item.Ref, item.DeleteCSRF = ref, csrf
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": items})
}

// DeleteUser handles POST /v1/admin/users/delete.  The cascade removes
// the user's events, reservations, feedback and notifications with them.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	var req mutateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess := currentSession(c)
	userID, err := authz.AuthorizeAdmin(sess, authz.Request{
		FormName: formName("delete_user", req.Ref),
		CSRF:     req.CSRF,
		Ref:      req.Ref,
		Want:     token.KindUser,
	})
	if err != nil {
		return authzFlash(c, err)
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.DeleteByID(ctx, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return flash(c, http.StatusForbidden, "/admin", nil, "admin accounts cannot be deleted", "error")
		case errors.Is(err, sql.ErrNoRows):
			return flash(c, http.StatusNotFound, "/admin", nil, "user not found", "error")
		default:
			h.Log.Errorw("admin: delete user failed", "user_id", userID, "err", err)
			return flash(c, http.StatusInternalServerError, "/admin", nil, "something went wrong", "error")
		}
	}
	return flash(c, http.StatusOK, "/admin", nil, "user deleted", "success")
}

// feedbackItem is one feedback row with its delete form.
type feedbackItem struct {
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	Ref        string    `json:"ref"`
	DeleteCSRF string    `json:"delete_csrf"`
}

// ListFeedback handles GET /v1/admin/feedback.
func (h *AdminHandler) ListFeedback(c echo.Context) error {
	sess := currentSession(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	entries, err := h.Feedback.ListAll(ctx)
	if err != nil {
		h.Log.Errorw("admin: list feedback failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/admin", nil, "something went wrong", "error")
	}
	items := make([]feedbackItem, 0, len(entries))
	for _, f := range entries {
		ref, csrf, err := issueForm(sess, token.KindFeedback, f.ID, "delete_feedback")
		if err != nil {
			return flash(c, http.StatusInternalServerError, "/admin", nil, "something went wrong", "error")
		}
		items = append(items, feedbackItem{Content: f.Content, CreatedAt: f.CreatedAt, Ref: ref, DeleteCSRF: csrf})
	}
	return c.JSON(http.StatusOK, echo.Map{"feedback": items})
}

// DeleteFeedback handles POST /v1/admin/feedback/delete.
func (h *AdminHandler) DeleteFeedback(c echo.Context) error {
	var req mutateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess := currentSession(c)
	feedbackID, err := authz.AuthorizeAdmin(sess, authz.Request{
		FormName: formName("delete_feedback", req.Ref),
		CSRF:     req.CSRF,
		Ref:      req.Ref,
		Want:     token.KindFeedback,
	})
	if err != nil {
		return authzFlash(c, err)
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Feedback.DeleteByID(ctx, feedbackID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return flash(c, http.StatusNotFound, "/admin", nil, "feedback not found", "error")
		}
		h.Log.Errorw("admin: delete feedback failed", "feedback_id", feedbackID, "err", err)
		return flash(c, http.StatusInternalServerError, "/admin", nil, "something went wrong", "error")
	}
	return flash(c, http.StatusOK, "/admin", nil, "feedback deleted", "success")
}
