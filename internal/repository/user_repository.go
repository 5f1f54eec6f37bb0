package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/sport-event-booking/internal/model"
	"github.com/iliyamo/sport-event-booking/internal/utils"
)

// UserRepo encapsulates all database queries against `utilisateurs`.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID.  The password is hashed with
// bcrypt before it touches the database.  Duplicate emails are reported
// as ErrEmailExists via the MySQL duplicate-key error code.
func (r *UserRepo) Create(ctx context.Context, name, email, password, gender string, pmr bool, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO utilisateurs (nom, email, mot_de_passe, role, pmr, sexe) VALUES (?,?,?,?,?,?)",
		name, email, hash, model.RoleUser, pmr, gender)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id_utilisateur, nom, email, mot_de_passe, role, pmr, sexe, created_at FROM utilisateurs WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.PMR, &u.Gender, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id_utilisateur, nom, email, mot_de_passe, role, pmr, sexe, created_at FROM utilisateurs WHERE id_utilisateur=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.PMR, &u.Gender, &u.CreatedAt)
	return u, err
}

// ListAll returns every user ordered by id, for the admin moderation
// view.  Password hashes are not selected.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id_utilisateur, nom, email, role, pmr, sexe, created_at FROM utilisateurs ORDER BY id_utilisateur`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PMR, &u.Gender, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// AdminIDs returns the IDs of every admin account, used to address
// moderation notices.
func (r *UserRepo) AdminIDs(ctx context.Context) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id_utilisateur FROM utilisateurs WHERE role = ?`, model.RoleAdmin)
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

// DeleteByID removes a user and everything hanging off them: their
// reservations, the reservations on events they own, those events, their
// feedback and their notifications.  Children go first so a failed run
// never leaves rows pointing at a missing user.  Admin accounts cannot be
// deleted this way.
func (r *UserRepo) DeleteByID(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
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
	var role string
	if err = tx.QueryRowContext(ctx,
		`SELECT role FROM utilisateurs WHERE id_utilisateur = ?`, id).Scan(&role); err != nil {
		return err
	}
	if role == model.RoleAdmin {
		err = ErrForbidden
		return err
	}
	// Spots held by other users on this user's events
	if _, err = tx.ExecContext(ctx,
		`DELETE p FROM participants_evenement p
		 JOIN evenements e ON e.id_evenement = p.id_evenement
		 WHERE e.id_utilisateur = ?`, id); err != nil {
		return err
	}
	// This user's own spots on other events
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM participants_evenement WHERE id_utilisateur = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM evenements WHERE id_utilisateur = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM avis WHERE id_utilisateur = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM notifications WHERE id_destinataire = ? OR id_emetteur = ?`, id, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM utilisateurs WHERE id_utilisateur = ?`, id)
	return err
}

// isDuplicateKey reports whether err is the MySQL duplicate-entry error
// (code 1062), which the unique keys translate into business conflicts.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
