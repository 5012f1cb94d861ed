package entities

import "time"

// ArbitraryData is one entry of the local key-value area.
type ArbitraryData struct {
	ID    string `gorm:"primaryKey"`
	Value []byte
}

// ApplicationDocument is a JobRecord stored as a JSON document by the applications server.
type ApplicationDocument struct {
	ID          string `gorm:"primaryKey"`
	Status      string `gorm:"index"`
	CompanyName string
	LastUpdated string `gorm:"index"`
	Document    []byte
	CreatedAt   time.Time
}
