package entity

import "time"

// Instrument representa un instrumento de medición (balanza, surtidor, contador...)
// perteneciente a una única empresa.
type Instrument struct {
	ID           string
	CompanyID    string
	Type         string
	Make         string
	Model        string
	SerialNumber string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
