package store

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"
)

// adminHash is a pre-computed bcrypt hash so a fresh database always has
// a usable admin account without hashing at startup.
const (
	adminUsername = "admin"
	adminHash     = "$2a$12$19maystnYax8yuWvlmeBGezL3nd0P3DA/cPe7y2Vy.lCZadJjXDQm"
)

type seedBook struct {
	title, author string
	copies        int32
	priceCents    int64
	sold          int32
}

var seedBooks = []seedBook{
	{"To Kill a Mockingbird", "Harper Lee", 120, 2500, 580},
	{"1984", "George Orwell", 150, 2200, 720},
	{"The Great Gatsby", "F. Scott Fitzgerald", 100, 2000, 650},
	{"Pride and Prejudice", "Jane Austen", 200, 1800, 540},
	{"The Catcher in the Rye", "J. D. Salinger", 180, 2400, 430},
	{"The Hobbit", "J. R. R. Tolkien", 250, 3000, 900},
	{"Sapiens: A Brief History of Humankind", "Yuval Noah Harari", 300, 3500, 670},
	{"Atomic Habits", "James Clear", 500, 2800, 1100},
	{"The Alchemist", "Paulo Coelho", 400, 2300, 850},
}

// Seed creates the admin account and the initial catalog. Both inserts are
// skipped when rows already exist, so calling it on every start is safe.
func Seed(ctx context.Context, db *sql.DB) error {
	if err := seedAdmin(ctx, db); err != nil {
		return err
	}
	return seedCatalog(ctx, db)
}

func seedAdmin(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE username=?`, adminUsername).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO users(username, password, first_name, last_name, is_admin)
VALUES(?,?,?,?,1)`, adminUsername, adminHash, "Admin", "Admin")
	if err == nil {
		log.Info().Msg("admin account created")
	}
	return err
}

func seedCatalog(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM books`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO books(title, author, physical_copies, price_cents, sold_copies)
VALUES(?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range seedBooks {
		if _, err := stmt.ExecContext(ctx, b.title, b.author, b.copies, b.priceCents, b.sold); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info().Int("books", len(seedBooks)).Msg("catalog seeded")
	return nil
}
