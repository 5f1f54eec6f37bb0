package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/sport-event-booking/internal/authz"
	"github.com/iliyamo/sport-event-booking/internal/repository"
	"github.com/iliyamo/sport-event-booking/internal/token"
)

// ReservationHandler covers booking a spot, releasing it and listing the
// caller's reservations.
type ReservationHandler struct {
	Reservations *repository.ReservationRepo
	Log          *zap.SugaredLogger
}

func NewReservationHandler(r *repository.ReservationRepo, log *zap.SugaredLogger) *ReservationHandler {
	return &ReservationHandler{Reservations: r, Log: log}
}

// mutateReq is the body of every reference-carrying form submission: the
// opaque reference plus the anti-forgery token of that specific form.
type mutateReq struct {
	Ref  string `json:"ref"`
	CSRF string `json:"csrf"`
}

// Reserve handles POST /v1/reservations.  The body carries the secure
// reference of the event and the CSRF token issued for its reserve form.
// A duplicate booking is reported in place, without navigating away, so
// the user sees what happened on the page they acted from.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	var req mutateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess := currentSession(c)
	eventID, err := authz.Authorize(sess, authz.Request{
		FormName: formName("reserve", req.Ref),
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

	if err := h.Reservations.Reserve(ctx, eventID, p.UserID); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyReserved):
			return c.JSON(http.StatusConflict, echo.Map{"message": "you already have a spot on this event", "kind": "error"})
		case errors.Is(err, repository.ErrEventFull):
			return c.JSON(http.StatusConflict, echo.Map{"message": "this event is full", "kind": "error"})
		case errors.Is(err, repository.ErrEventNotOpen), errors.Is(err, repository.ErrEventNotFound):
			return flash(c, http.StatusConflict, "/", nil, "this event is not open for reservations", "error")
		default:
			h.Log.Errorw("reserve failed", "event_id", eventID, "user_id", p.UserID, "err", err)
			return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
		}
	}
	return flash(c, http.StatusCreated, "/reservations", nil, "spot reserved", "success")
}

// Cancel handles POST /v1/reservations/cancel.  Releasing a spot that is
// already gone fails visibly so the client learns its page was stale.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	var req mutateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess := currentSession(c)
	eventID, err := authz.Authorize(sess, authz.Request{
		FormName: formName("cancel_reservation", req.Ref),
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

	if err := h.Reservations.Cancel(ctx, eventID, p.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return flash(c, http.StatusConflict, "/reservations", nil, "this reservation no longer exists", "error")
		}
		h.Log.Errorw("cancel reservation failed", "event_id", eventID, "user_id", p.UserID, "err", err)
		return flash(c, http.StatusInternalServerError, "/reservations", nil, "something went wrong", "error")
	}
	return flash(c, http.StatusOK, "/reservations", nil, "reservation cancelled", "success")
}

// bookingItem decorates one reservation row with the reference and the
// cancel form token for that event.
type bookingItem struct {
	repository.BookingDetail
	Ref        string `json:"ref"`
	CancelCSRF string `json:"cancel_csrf"`
}

// MyReservations handles GET /v1/reservations.  Each row carries a fresh
// secure reference and the CSRF token of its cancel form.
func (h *ReservationHandler) MyReservations(c echo.Context) error {
	sess := currentSession(c)
	p := currentPrincipal(c)
	if p == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	details, err := h.Reservations.ListForUser(ctx, p.UserID)
	if err != nil {
		h.Log.Errorw("list reservations failed", "user_id", p.UserID, "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	items := make([]bookingItem, 0, len(details))
	for _, d := range details {
		ref, csrf, err := issueForm(sess, token.KindEvent, d.EventID, "cancel_reservation")
		if err != nil {
			h.Log.Errorw("issue cancel form failed", "err", err)
			return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
		}
		items = append(items, bookingItem{BookingDetail: d, Ref: ref, CancelCSRF: csrf})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}
