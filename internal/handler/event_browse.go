package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/sport-event-booking/internal/model"
	"github.com/iliyamo/sport-event-booking/internal/repository"
	"github.com/iliyamo/sport-event-booking/internal/token"
)

// BrowseHandler serves the event discovery pages: filtered listings,
// event detail and the sport/venue catalogs.  Listings substitute a
// secure reference token for every internal event ID and pre-issue the
// CSRF tokens of the action forms the caller is allowed to submit, the
// same way a server-rendered page would embed them.
type BrowseHandler struct {
	Events  *repository.EventRepo
	Catalog *repository.CatalogRepo
	Log     *zap.SugaredLogger
}

func NewBrowseHandler(e *repository.EventRepo, cat *repository.CatalogRepo, log *zap.SugaredLogger) *BrowseHandler {
	return &BrowseHandler{Events: e, Catalog: cat, Log: log}
}

// eventItem is one listing entry: the joined detail plus the opaque
// reference and the action forms available to the current caller.
type eventItem struct {
	repository.EventDetail
	Ref   string            `json:"ref"`
	Mine  bool              `json:"mine"`
	Forms map[string]string `json:"forms,omitempty"`
}

// buildItem issues the reference and per-action CSRF tokens for one
// event according to who is asking.
func (h *BrowseHandler) buildItem(c echo.Context, d repository.EventDetail) (eventItem, error) {
	sess := currentSession(c)
	p := currentPrincipal(c)

	ref, err := sess.Vault.Issue(token.KindEvent, d.ID)
	if err != nil {
		return eventItem{}, err
	}
	item := eventItem{EventDetail: d, Ref: ref}
	if p == nil {
		return item, nil
	}
	item.Mine = p.UserID == d.OwnerID
	item.Forms = make(map[string]string)
	if item.Mine {
		for _, action := range []string{"update_event", "delete_event"} {
			csrf, err := sess.CSRF.Issue(formName(action, ref))
			if err != nil {
				return eventItem{}, err
			}
			item.Forms[action] = csrf
		}
	} else if d.Status == model.EventApproved {
		for _, action := range []string{"reserve", "cancel_reservation"} {
			csrf, err := sess.CSRF.Issue(formName(action, ref))
			if err != nil {
				return eventItem{}, err
			}
			item.Forms[action] = csrf
		}
	}
	return item, nil
}

// ListEvents handles GET /v1/events.  Query parameters: city, sport
// (catalog ID), date (YYYY-MM-DD), pmr (true/false), mine (true lists the
// caller's own events in every status).  Everyone else only sees
// approved events; gender-restricted sports are filtered against the
// principal's category, and PMR users only see accessible events.
func (h *BrowseHandler) ListEvents(c echo.Context) error {
	p := currentPrincipal(c)

	f := repository.Filter{
		City:   strings.TrimSpace(c.QueryParam("city")),
		Status: model.EventApproved,
	}
	if v := c.QueryParam("sport"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			f.SportID = id
		}
	}
	if v := c.QueryParam("date"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			f.Date = d
		} else {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
		}
	}
	f.PMROnly = c.QueryParam("pmr") == "true"
	if p != nil {
		f.Gender = p.Gender
		if p.PMR {
			f.PMROnly = true
		}
		if c.QueryParam("mine") == "true" {
			f.OwnerID = p.UserID
			f.Status = "" // owners see their pending and refused events too
		}
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	details, err := h.Events.List(ctx, f)
	if err != nil {
		h.Log.Errorw("browse: list events failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	items := make([]eventItem, 0, len(details))
	for _, d := range details {
		item, err := h.buildItem(c, d)
		if err != nil {
			h.Log.Errorw("browse: issue tokens failed", "err", err)
			return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": items})
}

// GetEvent handles GET /v1/events/:ref.  The path parameter is a secure
// reference issued by a previous listing; resolving it consumes it, and
// the response carries a fresh reference plus the caller's action forms.
// Unknown or foreign references read as an expired session.
func (h *BrowseHandler) GetEvent(c echo.Context) error {
	sess := currentSession(c)
	id, err := sess.Vault.Resolve(c.Param("ref"), token.KindEvent)
	if err != nil {
		return authzFlash(c, err)
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	d, err := h.Events.GetDetail(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return flash(c, http.StatusNotFound, "/", nil, "event not found", "error")
		}
		h.Log.Errorw("browse: get event failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	// Pending and refused events are only visible to their owner.
	p := currentPrincipal(c)
	if d.Status != model.EventApproved && (p == nil || p.UserID != d.OwnerID) {
		return flash(c, http.StatusNotFound, "/", nil, "event not found", "error")
	}
	item, err := h.buildItem(c, *d)
	if err != nil {
		h.Log.Errorw("browse: issue tokens failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	return c.JSON(http.StatusOK, echo.Map{"event": item})
}

// ListSports handles GET /v1/sports, filtered by the caller's gender
// category when authenticated.
func (h *BrowseHandler) ListSports(c echo.Context) error {
	gender := ""
	if p := currentPrincipal(c); p != nil {
		gender = p.Gender
	}
	ctx, cancel := reqContext(c)
	defer cancel()
	sports, err := h.Catalog.ListSports(ctx, gender)
	if err != nil {
		h.Log.Errorw("browse: list sports failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	type sportPart struct {
		ID     uint64 `json:"id"`
		Name   string `json:"name"`
		Gender string `json:"gender"`
	}
	out := make([]sportPart, 0, len(sports))
	for _, s := range sports {
		out = append(out, sportPart{ID: s.ID, Name: s.Name, Gender: s.Gender})
	}
	return c.JSON(http.StatusOK, echo.Map{"sports": out})
}

// ListLocations handles GET /v1/locations.
func (h *BrowseHandler) ListLocations(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()
	locs, err := h.Catalog.ListLocations(ctx)
	if err != nil {
		h.Log.Errorw("browse: list locations failed", "err", err)
		return flash(c, http.StatusInternalServerError, "/", nil, "something went wrong", "error")
	}
	type locPart struct {
		ID      uint64 `json:"id"`
		Name    string `json:"name"`
		City    string `json:"city"`
		Address string `json:"address"`
	}
	out := make([]locPart, 0, len(locs))
	for _, l := range locs {
		out = append(out, locPart{ID: l.ID, Name: l.Name, City: l.City, Address: l.Address})
	}
	return c.JSON(http.StatusOK, echo.Map{"locations": out})
}
