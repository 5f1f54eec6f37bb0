package model

import "time"

// Role values stored in the `utilisateurs.role` column.  Admin accounts
// can moderate events, users and feedback; regular accounts can browse,
// create and book events.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Gender categories stored in `utilisateurs.sexe`.  Sports may restrict
// visibility to one category (e.g. women-only leagues); MIXED sports are
// visible to everyone.
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderMixed  = "MIXTE"
)

// User represents a row in the `utilisateurs` table.  The json tags are
// omitted because these structs are used internally by the repository
// layer; handlers define separate response types with appropriate tags.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name shown on events and reservations.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	Role         – USER or ADMIN.
//	PMR          – reduced-mobility flag; filters events by accessibility.
//	Gender       – gender category used for sport visibility filtering.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // utilisateurs.id_utilisateur
	Name         string    // utilisateurs.nom
	Email        string    // utilisateurs.email
	PasswordHash string    // utilisateurs.mot_de_passe
	Role         string    // utilisateurs.role
	PMR          bool      // utilisateurs.pmr
	Gender       string    // utilisateurs.sexe
	CreatedAt    time.Time // utilisateurs.created_at
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
