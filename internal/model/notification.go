package model

import "time"

// Notification is an additive log entry telling a user about an event
// lifecycle change (creation, modification, cancellation, approval,
// refusal).  Rows are never deleted; the read flag is the only mutable
// field.  Delivery is by polling.
//
// Fields:
//
//	ID          – primary key identifier.
//	RecipientID – user the notice is addressed to.
//	SourceID    – user whose action produced the notice.
//	EventID     – event the notice refers to.
//	Content     – rendered message text.
//	Read        – whether the recipient has seen the notice.
//	CreatedAt   – when the notice was produced.
type Notification struct {
	ID          uint64    // notifications.id_notification
	RecipientID uint64    // notifications.id_destinataire
	SourceID    uint64    // notifications.id_emetteur
	EventID     uint64    // notifications.id_evenement
	Content     string    // notifications.contenu
	Read        bool      // notifications.lu
	CreatedAt   time.Time // notifications.date_creation
}
