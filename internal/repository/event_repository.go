package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/sport-event-booking/internal/model"
)

// EventRepo encapsulates all database queries against `evenements`.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the provided DB handle.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Create inserts a new event.  Status always starts as pending; the
// client has no say in it.  On success the event's ID is populated.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO evenements
               (nom, date_evenement, description, id_lieu, id_sport, pmr_accessible, prix_cents, id_utilisateur, max_participants, statut)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.Name, e.Date, e.Description, e.LocationID, e.SportID,
		e.PMRAccessible, e.PriceCents, e.OwnerID, e.MaxParticipants, model.EventPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	e.Status = model.EventPending
	return nil
}

// GetByID fetches an event by its ID regardless of owner.  It returns
// ErrEventNotFound if no row is found.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	const q = `SELECT id_evenement, nom, date_evenement, description, id_lieu, id_sport,
                      pmr_accessible, prix_cents, id_utilisateur, max_participants, statut
               FROM evenements WHERE id_evenement = ?`
	var e model.Event
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.Name, &e.Date, &e.Description, &e.LocationID, &e.SportID,
		&e.PMRAccessible, &e.PriceCents, &e.OwnerID, &e.MaxParticipants, &e.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// UpdateByOwner rewrites the mutable fields of an event after verifying
// ownership inside a transaction.  The owner column itself is never
// touched.  Returns sql.ErrNoRows when the event does not exist and
// ErrForbidden when it belongs to someone else.
func (r *EventRepo) UpdateByOwner(ctx context.Context, e *model.Event, ownerID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	var dbOwnerID uint64
	if err = tx.QueryRowContext(ctx,
		`SELECT id_utilisateur FROM evenements WHERE id_evenement = ?`, e.ID).Scan(&dbOwnerID); err != nil {
		return err
	}
	if dbOwnerID != ownerID {
		err = ErrForbidden
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE evenements
         SET nom = ?, date_evenement = ?, description = ?, id_lieu = ?, id_sport = ?,
             pmr_accessible = ?, prix_cents = ?, max_participants = ?
         WHERE id_evenement = ?`,
		e.Name, e.Date, e.Description, e.LocationID, e.SportID,
		e.PMRAccessible, e.PriceCents, e.MaxParticipants, e.ID)
	return err
}

// DeleteByIDAndOwner removes an event and its reservations provided it
// belongs to the specified owner.  Participants are deleted before the
// event row so an interrupted run can only leave an event with no
// reservations, which a retry cleans up.  If the event does not exist,
// sql.ErrNoRows is returned; if it is owned by a different user,
// ErrForbidden is returned and nothing is touched.
func (r *EventRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()
	var dbOwnerID uint64
	if err = tx.QueryRowContext(ctx,
		`SELECT id_utilisateur FROM evenements WHERE id_evenement = ?`, id).Scan(&dbOwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return err
	}
	if dbOwnerID != ownerID {
		err = ErrForbidden
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM participants_evenement WHERE id_evenement = ?`, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM evenements WHERE id_evenement = ?`, id)
	return err
}

// SetStatus applies an admin moderation decision.  Only pending events
// can move; repeating a decision on an already-moderated event reports
// sql.ErrNoRows so the admin UI learns its view was stale.
func (r *EventRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	if status != model.EventApproved && status != model.EventRefused {
		return errors.New("invalid status transition: " + status)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE evenements SET statut = ? WHERE id_evenement = ? AND statut = ?`,
		status, id, model.EventPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// EventDetail is one row of the browse listing, joined with venue and
// sport and carrying the current participant count.  The internal event
// ID is deliberately excluded from the JSON shape; handlers substitute a
// secure reference token.
type EventDetail struct {
	ID               uint64    `json:"-"`
	OwnerID          uint64    `json:"-"`
	Name             string    `json:"name"`
	Date             time.Time `json:"date"`
	Description      string    `json:"description"`
	City             string    `json:"city"`
	LocationName     string    `json:"location"`
	SportName        string    `json:"sport"`
	PMRAccessible    bool      `json:"pmr_accessible"`
	PriceCents       uint32    `json:"price_cents"`
	MaxParticipants  uint32    `json:"max_participants"`
	ParticipantCount int       `json:"participant_count"`
	Status           string    `json:"status"`
}

// Filter narrows the browse listing.  Zero values mean "no constraint".
// Gender restricts sports to the given category plus MIXED; Status limits
// to one moderation status; OwnerID limits to one creator's events.
type Filter struct {
	City    string
	SportID uint64
	Date    time.Time
	PMROnly bool
	Gender  string
	Status  string
	OwnerID uint64
}

// List returns events matching the filter ordered by date ascending.  The
// WHERE clause is assembled dynamically from the populated filter fields;
// every value goes through a placeholder.
func (r *EventRepo) List(ctx context.Context, f Filter) ([]EventDetail, error) {
	q := `SELECT e.id_evenement, e.id_utilisateur, e.nom, e.date_evenement, e.description,
                 l.ville, l.nom, s.nom, e.pmr_accessible, e.prix_cents, e.max_participants, e.statut,
                 (SELECT COUNT(*) FROM participants_evenement p WHERE p.id_evenement = e.id_evenement)
          FROM evenements e
          JOIN lieux l ON l.id_lieu = e.id_lieu
          JOIN sports s ON s.id_sport = e.id_sport`
	conds := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)
	if f.City != "" {
		conds = append(conds, "l.ville = ?")
		args = append(args, f.City)
	}
	if f.SportID != 0 {
		conds = append(conds, "e.id_sport = ?")
		args = append(args, f.SportID)
	}
	if !f.Date.IsZero() {
		conds = append(conds, "DATE(e.date_evenement) = DATE(?)")
		args = append(args, f.Date)
	}
	if f.PMROnly {
		conds = append(conds, "e.pmr_accessible = 1")
	}
	if f.Gender != "" && f.Gender != model.GenderMixed {
		conds = append(conds, "s.sexe IN (?, ?)")
		args = append(args, f.Gender, model.GenderMixed)
	}
	if f.Status != "" {
		conds = append(conds, "e.statut = ?")
		args = append(args, f.Status)
	}
	if f.OwnerID != 0 {
		conds = append(conds, "e.id_utilisateur = ?")
		args = append(args, f.OwnerID)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY e.date_evenement"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]EventDetail, 0)
	for rows.Next() {
		var d EventDetail
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Name, &d.Date, &d.Description,
			&d.City, &d.LocationName, &d.SportName, &d.PMRAccessible,
			&d.PriceCents, &d.MaxParticipants, &d.Status, &d.ParticipantCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDetail returns the joined detail row for a single event, or
// ErrEventNotFound.
func (r *EventRepo) GetDetail(ctx context.Context, id uint64) (*EventDetail, error) {
	const q = `SELECT e.id_evenement, e.id_utilisateur, e.nom, e.date_evenement, e.description,
                      l.ville, l.nom, s.nom, e.pmr_accessible, e.prix_cents, e.max_participants, e.statut,
                      (SELECT COUNT(*) FROM participants_evenement p WHERE p.id_evenement = e.id_evenement)
               FROM evenements e
               JOIN lieux l ON l.id_lieu = e.id_lieu
               JOIN sports s ON s.id_sport = e.id_sport
               WHERE e.id_evenement = ?`
	var d EventDetail
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.OwnerID, &d.Name, &d.Date,
		&d.Description, &d.City, &d.LocationName, &d.SportName, &d.PMRAccessible,
		&d.PriceCents, &d.MaxParticipants, &d.Status, &d.ParticipantCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &d, nil
}
