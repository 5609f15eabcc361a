package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// GuestRepo stores anonymous booking identities.  Guests are looked
// up or created per booking attempt by email; emails are not unique
// across time, so FindByEmail returns the oldest match, mirroring the
// find-first semantics the flows were built against.
type GuestRepo struct {
	db *sql.DB
}

// NewGuestRepo returns a new GuestRepo bound to the given database.
func NewGuestRepo(db *sql.DB) *GuestRepo { return &GuestRepo{db: db} }

// FindByEmail returns the first guest with the given email.
// ErrGuestNotFound is returned when none exists.
func (r *GuestRepo) FindByEmail(ctx context.Context, email string) (model.Guest, error) {
	const q = `SELECT id, email, verification_code, created_at
	           FROM guests WHERE email = ? ORDER BY id ASC LIMIT 1`
	var g model.Guest
	err := r.db.QueryRowContext(ctx, q, email).Scan(
		&g.ID, &g.Email, &g.VerificationCode, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Guest{}, ErrGuestNotFound
	}
	return g, err
}

// GetByID returns a guest by primary key.  ErrGuestNotFound is
// returned when none exists.
func (r *GuestRepo) GetByID(ctx context.Context, id uint64) (model.Guest, error) {
	const q = `SELECT id, email, verification_code, created_at FROM guests WHERE id = ?`
	var g model.Guest
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&g.ID, &g.Email, &g.VerificationCode, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Guest{}, ErrGuestNotFound
	}
	return g, err
}

// Create inserts a new guest with the supplied verification code and
// returns the stored row.
func (r *GuestRepo) Create(ctx context.Context, email, verificationCode string) (model.Guest, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO guests (email, verification_code) VALUES (?, ?)`,
		email, verificationCode)
	if err != nil {
		return model.Guest{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Guest{}, err
	}
	return r.GetByID(ctx, uint64(id))
}
