package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/sport-event-booking/internal/authz"
	"github.com/iliyamo/sport-event-booking/internal/model"
	"github.com/iliyamo/sport-event-booking/internal/queue"
	"github.com/iliyamo/sport-event-booking/internal/repository"
	queue_publisher "github.com/iliyamo/sport-event-booking/internal/service"
	"github.com/iliyamo/sport-event-booking/internal/token"
)

// publishTimeout bounds the broker round trip made after a mutation has
// already committed.
const publishTimeout = 3 * time.Second

// EventHandler covers the organizer side: creating, editing and
// cancelling events.  Every mutation that commits fans a lifecycle
// message out through the broker; a failed publish is logged and
// swallowed because the database change already happened.
type EventHandler struct {
	Events       *repository.EventRepo
	Reservations *repository.ReservationRepo
	Users        *repository.UserRepo
	Catalog      *repository.CatalogRepo
	Log          *zap.SugaredLogger
}

func NewEventHandler(e *repository.EventRepo, r *repository.ReservationRepo, u *repository.UserRepo, cat *repository.CatalogRepo, log *zap.SugaredLogger) *EventHandler {
	return &EventHandler{Events: e, Reservations: r, Users: u, Catalog: cat, Log: log}
}

type eventForm struct {
	Ref             string `json:"ref,omitempty"`
	CSRF            string `json:"csrf"`
	Name            string `json:"name"`
	Date            string `json:"date"` // RFC 3339
	Description     string `json:"description"`
	LocationID      uint64 `json:"location_id"`
	SportID         uint64 `json:"sport_id"`
	PMRAccessible   bool   `json:"pmr_accessible"`
	PriceCents      uint32 `json:"price_cents"`
	MaxParticipants uint32 `json:"max_participants"`
}

// parseEventForm validates the shared fields of the create and update
// forms against the catalogs.
func (h *EventHandler) parseEventForm(ctx context.Context, req eventForm) (*model.Event, string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, "event name is required", nil
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return nil, "invalid date, want RFC 3339", nil
	}
	if date.Before(time.Now()) {
		return nil, "event date must be in the future", nil
	}
	if _, err := h.Catalog.GetLocation(ctx, req.LocationID); err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return nil, "unknown venue", nil
		}
		return nil, "", err
	}
	if _, err := h.Catalog.GetSport(ctx, req.SportID); err != nil {
		if errors.Is(err, repository.ErrSportNotFound) {
			return nil, "unknown sport", nil
		}
		return nil, "", err
	}
	return &model.Event{
		Name:            req.Name,
		Date:            date,
		Description:     strings.TrimSpace(req.Description),
		LocationID:      req.LocationID,
		SportID:         req.SportID,
		PMRAccessible:   req.PMRAccessible,
		PriceCents:      req.PriceCents,
		MaxParticipants: req.MaxParticipants,
	}, "", nil
}

// publish fans a lifecycle message out on its own context so a slow
// broker cannot hold the response.
func (h *EventHandler) publish(kind string, e *model.Event, actorID uint64, recipients []uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := queue_publisher.PublishEventLifecycle(ctx, queue.EventLifecycleEvent{
		Kind:         kind,
		EventID:      e.ID,
		EventName:    e.Name,
		ActorID:      actorID,
		RecipientIDs: recipients,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		h.Log.Warnw("lifecycle publish failed", "kind", kind, "event_id", e.ID, "err", err)
	}
}

// NewEventForm handles GET /v1/events/new: it issues the anti-forgery
// token of the creation form, the one mutating form with no entity
// behind it yet.
func (h *EventHandler) NewEventForm(c echo.Context) error {
	sess := currentSession(c)
	csrf, err := sess.CSRF.Issue("create_event")
	if err != nil {
		h.Log.Errorw("issue create form failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	return c.JSON(http.StatusOK, echo.Map{"csrf": csrf})
}

// CreateEvent handles POST /v1/events.  The event lands in pending
// status and every admin is notified so it shows up in the moderation
// queue.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req eventForm
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess := currentSession(c)
	if err := authz.AuthorizeForm(sess, "create_event", req.CSRF); err != nil {
		return authzFlash(c, err)
	}
	p := currentPrincipal(c)

	ctx, cancel := reqContext(c)
	defer cancel()

	e, msg, err := h.parseEventForm(ctx, req)
	if err != nil {
		h.Log.Errorw("create event: catalog lookup failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg, "kind": "error"})
	}
	e.OwnerID = p.UserID
	if err := h.Events.Create(ctx, e); err != nil {
		h.Log.Errorw("create event failed", "user_id", p.UserID, "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}

	admins, err := h.Users.AdminIDs(ctx)
	if err != nil {
		h.Log.Warnw("create event: admin lookup failed", "err", err)
	} else {
		h.publish(queue.LifecycleCreated, e, p.UserID, admins)
	}
	return flash(c, http.StatusCreated, "/events?mine=true", nil, "event submitted for approval", "success")
}

// NewLocationForm handles GET /v1/locations/new: the anti-forgery token
// for registering a venue.
func (h *EventHandler) NewLocationForm(c echo.Context) error {
	sess := currentSession(c)
	csrf, err := sess.CSRF.Issue("create_location")
	if err != nil {
		h.Log.Errorw("issue location form failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	return c.JSON(http.StatusOK, echo.Map{"csrf": csrf})
}

type locationForm struct {
	CSRF    string `json:"csrf"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
}

// CreateLocation handles POST /v1/locations.  Organizers register the
// venue first, then pick it when creating the event.
func (h *EventHandler) CreateLocation(c echo.Context) error {
	var req locationForm
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess := currentSession(c)
	if err := authz.AuthorizeForm(sess, "create_location", req.CSRF); err != nil {
		return authzFlash(c, err)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" || req.City == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "venue name and city are required", "kind": "error"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	loc := model.Location{Name: req.Name, City: req.City, Address: req.Address}
	if err := h.Catalog.CreateLocation(ctx, &loc); err != nil {
		h.Log.Errorw("create location failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"location": echo.Map{"id": loc.ID, "name": loc.Name, "city": loc.City, "address": loc.Address},
		"message":  "venue registered",
		"kind":     "success",
	})
}

// UpdateEvent handles POST /v1/events/update.  Ownership is rechecked at
// the storage layer; the reference only proves the caller was shown this
// event.  Participants are notified of the change.
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	var req eventForm
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess := currentSession(c)
	eventID, err := authz.Authorize(sess, authz.Request{
		FormName: formName("update_event", req.Ref),
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

	e, msg, err := h.parseEventForm(ctx, req)
	if err != nil {
		h.Log.Errorw("update event: catalog lookup failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg, "kind": "error"})
	}
	e.ID = eventID
	if err := h.Events.UpdateByOwner(ctx, e, p.UserID); err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return flash(c, http.StatusForbidden, "/", nil, "not authorized", "error")
		case errors.Is(err, sql.ErrNoRows):
			return flash(c, http.StatusNotFound, "/", nil, "event not found", "error")
		default:
			h.Log.Errorw("update event failed", "event_id", eventID, "err", err)
			return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
		}
	}

	participants, err := h.Reservations.ParticipantIDs(ctx, eventID)
	if err != nil {
		h.Log.Warnw("update event: participant lookup failed", "event_id", eventID, "err", err)
	} else {
		h.publish(queue.LifecycleUpdated, e, p.UserID, participants)
	}
	return flash(c, http.StatusOK, "/events?mine=true", nil, "event updated", "success")
}

// DeleteEvent handles POST /v1/events/delete.  Reservations go with the
// event; the participant list is captured before the delete so the
// cancellation notice can still reach everyone who held a spot.
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	var req mutateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sess := currentSession(c)
	eventID, err := authz.Authorize(sess, authz.Request{
		FormName: formName("delete_event", req.Ref),
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
			return flash(c, http.StatusNotFound, "/", nil, "event not found", "error")
		}
		h.Log.Errorw("delete event: lookup failed", "event_id", eventID, "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	participants, err := h.Reservations.ParticipantIDs(ctx, eventID)
	if err != nil {
		h.Log.Warnw("delete event: participant lookup failed", "event_id", eventID, "err", err)
		participants = nil
	}

	if err := h.Events.DeleteByIDAndOwner(ctx, eventID, p.UserID); err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return flash(c, http.StatusForbidden, "/", nil, "not authorized", "error")
		case errors.Is(err, sql.ErrNoRows):
			return flash(c, http.StatusNotFound, "/", nil, "event not found", "error")
		default:
			h.Log.Errorw("delete event failed", "event_id", eventID, "err", err)
			return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
		}
	}
	if len(participants) > 0 {
		h.publish(queue.LifecycleCancelled, e, p.UserID, participants)
	}
	return flash(c, http.StatusOK, "/events?mine=true", nil, "event cancelled", "success")
}
