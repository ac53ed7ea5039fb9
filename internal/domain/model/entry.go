// Package model contains domain models passed between layers.
package model

import "time"

// Entry is one stored registration.
type Entry struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
	Email     string `json:"email"`
	Number    int64  `json:"number"` // entrant's guess, always >= 1
	Winner    bool   `json:"winner"` // written only by winner selection
}

// Registration is a validated submission that has not been stored yet.
type Registration struct {
	FirstName string
	Surname   string
	Email     string
	Number    int64
}

// ExportJob is a background export request flowing through the export queue.
type ExportJob struct {
	ID         string
	EnqueuedAt time.Time
}
