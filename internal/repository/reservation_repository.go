package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/sport-event-booking/internal/model"
)

// ReservationRepo owns every mutation touching `participants_evenement`.
// The booking invariants live here: a unique key over
// (id_evenement, id_utilisateur) makes double booking impossible even
// under concurrent requests, and the capacity check shares a transaction
// with the insert so two racing requests cannot both pass it.
type ReservationRepo struct {
	db               *sql.DB
	capacityEnforced bool
}

// NewReservationRepo returns a ReservationRepo bound to the given
// database.  capacityEnforced selects whether max_participants gates
// reservations; when false the column is advisory and only displayed.
func NewReservationRepo(db *sql.DB, capacityEnforced bool) *ReservationRepo {
	return &ReservationRepo{db: db, capacityEnforced: capacityEnforced}
}

// Reserve books a spot for userID on eventID.  The event row is locked
// for the duration of the transaction so the capacity check and the
// insert act as one step.  Outcomes:
//   - ErrEventNotFound when the event does not exist
//   - ErrEventNotOpen when the event is not admin-approved
//   - ErrEventFull when capacity enforcement is on and the event is full
//   - ErrAlreadyReserved when the (event, user) pair already exists
func (r *ReservationRepo) Reserve(ctx context.Context, eventID, userID uint64) error {
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

	var maxParticipants uint32
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT max_participants, statut FROM evenements WHERE id_evenement = ? FOR UPDATE`,
		eventID).Scan(&maxParticipants, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			err = ErrEventNotFound
		}
		return err
	}
	if status != model.EventApproved {
		err = ErrEventNotOpen
		return err
	}
	if r.capacityEnforced && maxParticipants > 0 {
		var count uint32
		if err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM participants_evenement WHERE id_evenement = ?`,
			eventID).Scan(&count); err != nil {
			return err
		}
		if count >= maxParticipants {
			err = ErrEventFull
			return err
		}
	}
	// The unique key on (id_evenement, id_utilisateur) closes the
	// check-then-insert race: the second of two concurrent inserts fails
	// with a duplicate-key error regardless of what it observed above.
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO participants_evenement (id_evenement, id_utilisateur) VALUES (?, ?)`,
		eventID, userID); err != nil {
		if isDuplicateKey(err) {
			err = ErrAlreadyReserved
		}
		return err
	}
	return nil
}

// Cancel releases userID's spot on eventID.  Deleting zero rows is
// reported as sql.ErrNoRows: a second cancellation is a visible no-op
// failure rather than a silent success, so the client learns its view of
// the reservation was stale.
func (r *ReservationRepo) Cancel(ctx context.Context, eventID, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM participants_evenement WHERE id_evenement = ? AND id_utilisateur = ?`,
		eventID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountParticipants returns the number of spots taken on an event.
func (r *ReservationRepo) CountParticipants(ctx context.Context, eventID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants_evenement WHERE id_evenement = ?`,
		eventID).Scan(&n)
	return n, err
}

// Get fetches userID's reservation on eventID, or sql.ErrNoRows when the
// user holds no spot.
func (r *ReservationRepo) Get(ctx context.Context, eventID, userID uint64) (model.Reservation, error) {
	var res model.Reservation
	err := r.db.QueryRowContext(ctx,
		`SELECT id_evenement, id_utilisateur, created_at
         FROM participants_evenement WHERE id_evenement = ? AND id_utilisateur = ? LIMIT 1`,
		eventID, userID).Scan(&res.EventID, &res.UserID, &res.CreatedAt)
	return res, err
}

// ParticipantIDs returns the user IDs booked on an event, used to fan
// out lifecycle notifications.
func (r *ReservationRepo) ParticipantIDs(ctx context.Context, eventID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id_utilisateur FROM participants_evenement WHERE id_evenement = ? ORDER BY id_utilisateur`,
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// BookingDetail is one row of a user's reservation list, joined with the
// event, venue and sport for display.
type BookingDetail struct {
	EventID          uint64    `json:"-"`
	EventName        string    `json:"event_name"`
	EventDate        time.Time `json:"event_date"`
	City             string    `json:"city"`
	LocationName     string    `json:"location"`
	SportName        string    `json:"sport"`
	PriceCents       uint32    `json:"price_cents"`
	ParticipantCount int       `json:"participant_count"`
	MaxParticipants  uint32    `json:"max_participants"`
	ReservedAt       time.Time `json:"reserved_at"`
}

// ListForUser returns the user's reservations ordered by event date
// ascending, each with its current participant count.
func (r *ReservationRepo) ListForUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT e.id_evenement, e.nom, e.date_evenement, l.ville, l.nom, s.nom,
                      e.prix_cents, e.max_participants, p.created_at,
                      (SELECT COUNT(*) FROM participants_evenement pc WHERE pc.id_evenement = e.id_evenement)
               FROM participants_evenement p
               JOIN evenements e ON e.id_evenement = p.id_evenement
               JOIN lieux l ON l.id_lieu = e.id_lieu
               JOIN sports s ON s.id_sport = e.id_sport
               WHERE p.id_utilisateur = ?
               ORDER BY e.date_evenement`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(&d.EventID, &d.EventName, &d.EventDate, &d.City, &d.LocationName,
			&d.SportName, &d.PriceCents, &d.MaxParticipants, &d.ReservedAt, &d.ParticipantCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
