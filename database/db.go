package database

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/Akamalshaikh/telegram-bot/models"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const timeLayout = "2006-01-02 15:04:05"

type Database struct {
	db *sql.DB
}

func New(dbFile string) (*Database, error) {
	db, err := sql.Open("sqlite", dbFile)
	if err != nil {
		return nil, err
	}

	// Serialize access at the connection level; the write volume is tiny and
	// the services add their own per-key exclusion on top.
	db.SetMaxOpenConns(1)

	database := &Database{db: db}
	if err := database.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return database, nil
}

func (d *Database) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			join_date DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS referrals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			referrer_id INTEGER NOT NULL,
			referred_id INTEGER NOT NULL UNIQUE,
			date_added DATETIME,
			FOREIGN KEY (referrer_id) REFERENCES users (user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS claim_codes (
			user_id INTEGER PRIMARY KEY,
			code TEXT NOT NULL,
			issued_at DATETIME
		)`,
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// AddUser inserts userID if absent and reports whether it was newly added.
func (d *Database) AddUser(userID int64) (bool, error) {
	joinDate := time.Now().Format(timeLayout)

	res, err := d.db.Exec(`INSERT OR IGNORE INTO users (user_id, join_date) VALUES (?, ?)`,
		userID, joinDate)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (d *Database) HasUser(userID int64) (bool, error) {
	var found int64
	err := d.db.QueryRow(`SELECT user_id FROM users WHERE user_id = ?`, userID).Scan(&found)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *Database) GetAllUserIDs() ([]int64, error) {
	rows, err := d.db.Query(`SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, userID)
	}

	return userIDs, rows.Err()
}

// AddReferral appends referredID to referrerID's list. The UNIQUE constraint
// on referred_id backs up the ledger's one-referrer-ever rule.
func (d *Database) AddReferral(referrerID, referredID int64) error {
	dateAdded := time.Now().Format(timeLayout)
	_, err := d.db.Exec(`INSERT INTO referrals (referrer_id, referred_id, date_added) VALUES (?, ?, ?)`,
		referrerID, referredID, dateAdded)
	return err
}

// GetReferrals returns referrerID's referred users in insertion order.
func (d *Database) GetReferrals(referrerID int64) ([]int64, error) {
	rows, err := d.db.Query(`SELECT referred_id FROM referrals WHERE referrer_id = ? ORDER BY id`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var referred []int64
	for rows.Next() {
		var referredID int64
		if err := rows.Scan(&referredID); err != nil {
			return nil, err
		}
		referred = append(referred, referredID)
	}

	return referred, rows.Err()
}

func (d *Database) CountReferrals(referrerID int64) (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM referrals WHERE referrer_id = ?`, referrerID).Scan(&count)
	return count, err
}

// ReferrerOf reports which referrer, if any, has already been credited for
// referredID.
func (d *Database) ReferrerOf(referredID int64) (int64, bool, error) {
	var referrerID int64
	err := d.db.QueryRow(`SELECT referrer_id FROM referrals WHERE referred_id = ?`, referredID).Scan(&referrerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return referrerID, true, nil
}

func (d *Database) ClearReferrals(referrerID int64) error {
	_, err := d.db.Exec(`DELETE FROM referrals WHERE referrer_id = ?`, referrerID)
	return err
}

// RedeemPoints stores the claim code and clears the user's referrals in one
// transaction, so a crash can never leave a code issued with points intact or
// the other way around.
func (d *Database) RedeemPoints(userID int64, code string) error {
	issuedAt := time.Now().Format(timeLayout)

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO claim_codes (user_id, code, issued_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET code = excluded.code, issued_at = excluded.issued_at`,
		userID, code, issuedAt)
	if err != nil {
		return err
	}

	if _, err = tx.Exec(`DELETE FROM referrals WHERE referrer_id = ?`, userID); err != nil {
		return err
	}

	return tx.Commit()
}

// StoreClaimCode upserts userID's code; only the latest code is retained.
func (d *Database) StoreClaimCode(userID int64, code string) error {
	issuedAt := time.Now().Format(timeLayout)
	_, err := d.db.Exec(`INSERT INTO claim_codes (user_id, code, issued_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET code = excluded.code, issued_at = excluded.issued_at`,
		userID, code, issuedAt)
	return err
}

func (d *Database) GetClaimCodes() ([]models.ClaimEntry, error) {
	rows, err := d.db.Query(`SELECT user_id, code FROM claim_codes ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ClaimEntry
	for rows.Next() {
		var entry models.ClaimEntry
		if err := rows.Scan(&entry.UserID, &entry.Code); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (d *Database) GetStats() (*models.Stats, error) {
	var stats models.Stats

	if err := d.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&stats.Total); err != nil {
		return nil, err
	}

	now := time.Now()
	windows := []struct {
		since string
		dest  *int
	}{
		{now.Add(-24 * time.Hour).Format(timeLayout), &stats.Day},
		{now.Add(-7 * 24 * time.Hour).Format(timeLayout), &stats.Week},
		{now.Add(-30 * 24 * time.Hour).Format(timeLayout), &stats.Month},
	}

	for _, w := range windows {
		if err := d.db.QueryRow(`SELECT COUNT(*) FROM users WHERE join_date >= ?`, w.since).Scan(w.dest); err != nil {
			return nil, err
		}
	}

	return &stats, nil
}

// ExportAll dumps every table for the administrator.
func (d *Database) ExportAll() (*models.Export, error) {
	export := &models.Export{
		Referrals: make(map[string][]int64),
	}

	rows, err := d.db.Query(`SELECT user_id, join_date FROM users ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var user models.User
		var joinDate string
		if err := rows.Scan(&user.UserID, &joinDate); err != nil {
			return nil, err
		}
		user.JoinDate, _ = time.Parse(timeLayout, joinDate)
		export.Users = append(export.Users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refRows, err := d.db.Query(`SELECT referrer_id, referred_id FROM referrals ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer refRows.Close()

	for refRows.Next() {
		var referrerID, referredID int64
		if err := refRows.Scan(&referrerID, &referredID); err != nil {
			return nil, err
		}
		key := strconv.FormatInt(referrerID, 10)
		export.Referrals[key] = append(export.Referrals[key], referredID)
	}
	if err := refRows.Err(); err != nil {
		return nil, err
	}

	export.ClaimCodes, err = d.GetClaimCodes()
	if err != nil {
		return nil, err
	}

	return export, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
