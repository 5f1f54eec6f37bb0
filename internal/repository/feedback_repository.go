package repository

import (
	"context"
	"database/sql"
	"time"
)

// Feedback mirrors the `avis` table: free-form site feedback left by
// users and moderated by admins.
type Feedback struct {
	ID        uint64    // avis.id_avis
	UserID    uint64    // avis.id_utilisateur
	Content   string    // avis.contenu
	CreatedAt time.Time // avis.date_creation
}

// FeedbackRepo persists and moderates feedback entries.
type FeedbackRepo struct{ DB *sql.DB }

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{DB: db} }

// Create stores a feedback entry for the given user.
func (r *FeedbackRepo) Create(ctx context.Context, userID uint64, content string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO avis (id_utilisateur, contenu) VALUES (?, ?)`, userID, content)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListAll returns every feedback entry newest first, for the admin view.
func (r *FeedbackRepo) ListAll(ctx context.Context) ([]Feedback, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id_avis, id_utilisateur, contenu, date_creation FROM avis ORDER BY date_creation DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Feedback, 0)
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Content, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteByID removes one feedback entry.  Returns sql.ErrNoRows when the
// entry does not exist.
func (r *FeedbackRepo) DeleteByID(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM avis WHERE id_avis = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
