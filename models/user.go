package models

import "time"

type User struct {
	UserID   int64     `json:"user_id"`
	JoinDate time.Time `json:"join_date"`
}

// Stats counts registrations over trailing windows.
type Stats struct {
	Total int `json:"total"`
	Day   int `json:"day"`
	Week  int `json:"week"`
	Month int `json:"month"`
}

// ClaimEntry is one issued claim code, keyed by the user it was issued to.
type ClaimEntry struct {
	UserID int64  `json:"user_id"`
	Code   string `json:"code"`
}

// Export is the full database dump sent to the administrator.
type Export struct {
	Users      []User             `json:"users"`
	Referrals  map[string][]int64 `json:"referrals"`
	ClaimCodes []ClaimEntry       `json:"claim_codes"`
}
