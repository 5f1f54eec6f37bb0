package model

// Sport is a row in the `sports` table.  The gender category restricts
// which users see events for this sport; MIXED sports are visible to all.
type Sport struct {
	ID     uint64 // sports.id_sport
	Name   string // sports.nom
	Gender string // sports.sexe
}

// Location is a venue row in the `lieux` table.
type Location struct {
	ID      uint64 // lieux.id_lieu
	Name    string // lieux.nom
	City    string // lieux.ville
	Address string // lieux.adresse
}
