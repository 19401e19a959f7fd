package account

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const accountCols = `id, username, email, password_hash, verified, verification_code, created_at`

func (r *repoPG) Create(ctx context.Context, a *Account) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO account (id, username, email, password_hash, verified, verification_code)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		a.ID, a.Username, a.Email, a.PasswordHash, a.Verified, a.VerificationCode,
	).Scan(&a.CreatedAt)
}

func (r *repoPG) GetByUsername(ctx context.Context, username string) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `SELECT `+accountCols+` FROM account WHERE username = $1`, username).
		Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Verified, &a.VerificationCode, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) MarkVerified(ctx context.Context, username string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE account SET verified = TRUE, verification_code = '' WHERE username = $1`, username)
	return err
}
