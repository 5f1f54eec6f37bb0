package model

import "time"

// Moderation statuses stored in `evenements.statut`.  Every event starts
// as pending and an admin moves it to approved or refused.  Only approved
// events are visible to users other than the owner.
const (
	EventPending  = "EN_ATTENTE"
	EventApproved = "VALIDE"
	EventRefused  = "REFUSE"
)

// Event represents a sporting event as stored in the `evenements` table.
// The owner is immutable after creation; only the owner may modify or
// delete the event, and status transitions are admin-driven.
//
// Fields:
//
//	ID              – primary key identifier.
//	Name            – event title.
//	Date            – when the event takes place.
//	Description     – free-form description shown on the detail page.
//	LocationID      – venue reference into the `lieux` table.
//	SportID         – sport reference into the `sports` table.
//	PMRAccessible   – whether the venue is accessible to reduced-mobility users.
//	PriceCents      – stored participation fee; displayed only, never charged.
//	OwnerID         – user who created the event; immutable.
//	MaxParticipants – declared capacity of the event.
//	Status          – moderation status (pending, approved, refused).
type Event struct {
	ID              uint64    // evenements.id_evenement
	Name            string    // evenements.nom
	Date            time.Time // evenements.date_evenement
	Description     string    // evenements.description
	LocationID      uint64    // evenements.id_lieu
	SportID         uint64    // evenements.id_sport
	PMRAccessible   bool      // evenements.pmr_accessible
	PriceCents      uint32    // evenements.prix_cents
	OwnerID         uint64    // evenements.id_utilisateur
	MaxParticipants uint32    // evenements.max_participants
	Status          string    // evenements.statut
}
