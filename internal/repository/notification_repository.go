package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/sport-event-booking/internal/model"
)

// NotificationRepo persists the additive notification log.  Rows are only
// ever inserted and marked read, never deleted.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create appends one notification row.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO notifications (id_destinataire, id_emetteur, id_evenement, contenu, lu)
		 VALUES (?, ?, ?, ?, 0)`,
		n.RecipientID, n.SourceID, n.EventID, n.Content)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListForUser returns the recipient's notifications newest first.  This
// is the polling endpoint's data source.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Notification, error) {
	const q = `SELECT id_notification, id_destinataire, id_emetteur, id_evenement, contenu, lu, date_creation
	           FROM notifications WHERE id_destinataire = ? ORDER BY date_creation DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.SourceID, &n.EventID,
			&n.Content, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnread returns the number of unread notifications for a user.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE id_destinataire = ? AND lu = 0`,
		userID).Scan(&n)
	return n, err
}

// MarkRead flips the read flag on one notification, scoped to the
// recipient so users cannot mark someone else's notices.  Returns
// sql.ErrNoRows when nothing matched.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET lu = 1 WHERE id_notification = ? AND id_destinataire = ?`,
		id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
