package model

import "time"

// Reservation records a user's spot on an event.  The identity of a
// reservation is the (EventID, UserID) pair; the `participants_evenement`
// table carries a unique key over both columns so a user can never hold
// two spots on the same event.
//
// Fields:
//
//	EventID   – event being booked.
//	UserID    – user holding the spot.
//	CreatedAt – when the spot was taken.
type Reservation struct {
	EventID   uint64    // participants_evenement.id_evenement
	UserID    uint64    // participants_evenement.id_utilisateur
	CreatedAt time.Time // participants_evenement.created_at
}
