package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/sport-event-booking/internal/model"
)

// ErrLocationNotFound is returned when a venue lookup misses.
var ErrLocationNotFound = errors.New("location not found")

// ErrSportNotFound is returned when a sport lookup misses.
var ErrSportNotFound = errors.New("sport not found")

// CatalogRepo serves the reference tables events hang off: sports and
// venues.  Both are small and read-mostly.
type CatalogRepo struct{ DB *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{DB: db} }

// ListSports returns the sports visible to the given gender category.
// MIXED sports are visible to everyone; an empty gender means no filter
// (anonymous browsing).
func (r *CatalogRepo) ListSports(ctx context.Context, gender string) ([]model.Sport, error) {
	q := `SELECT id_sport, nom, sexe FROM sports`
	var args []interface{}
	if gender != "" && gender != model.GenderMixed {
		q += ` WHERE sexe IN (?, ?)`
		args = append(args, gender, model.GenderMixed)
	}
	q += ` ORDER BY nom`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Sport, 0)
	for rows.Next() {
		var s model.Sport
		if err := rows.Scan(&s.ID, &s.Name, &s.Gender); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSport fetches one sport by ID.
func (r *CatalogRepo) GetSport(ctx context.Context, id uint64) (model.Sport, error) {
	var s model.Sport
	err := r.DB.QueryRowContext(ctx,
		`SELECT id_sport, nom, sexe FROM sports WHERE id_sport = ?`, id).
		Scan(&s.ID, &s.Name, &s.Gender)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrSportNotFound
	}
	return s, err
}

// ListLocations returns all venues ordered by city then name.
func (r *CatalogRepo) ListLocations(ctx context.Context) ([]model.Location, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id_lieu, nom, ville, adresse FROM lieux ORDER BY ville, nom`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Location, 0)
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.City, &l.Address); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetLocation fetches one venue by ID.
func (r *CatalogRepo) GetLocation(ctx context.Context, id uint64) (model.Location, error) {
	var l model.Location
	err := r.DB.QueryRowContext(ctx,
		`SELECT id_lieu, nom, ville, adresse FROM lieux WHERE id_lieu = ?`, id).
		Scan(&l.ID, &l.Name, &l.City, &l.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrLocationNotFound
	}
	return l, err
}

// CreateLocation inserts a venue.  Event creation offers this so an owner
// can register a new venue together with the event.
func (r *CatalogRepo) CreateLocation(ctx context.Context, l *model.Location) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO lieux (nom, ville, adresse) VALUES (?, ?, ?)`,
		l.Name, l.City, l.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}
