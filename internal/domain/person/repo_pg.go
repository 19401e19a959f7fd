package person

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const personCols = `id, name, surname, sex, birth_date, phone, role, specialty, created_at`

func (r *repoPG) Create(ctx context.Context, p *Person) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO person (name, surname, sex, birth_date, phone, role, specialty)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`,
		p.Name, p.Surname, p.Sex, p.BirthDate, p.Phone, p.Role, p.Specialty,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Person, error) {
	return scanPerson(r.pool.QueryRow(ctx, `SELECT `+personCols+` FROM person WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Person, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM person`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+personCols+` FROM person ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectPersons(rows, total)
}

func (r *repoPG) ListByRole(ctx context.Context, role string, limit, offset int) ([]*Person, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM person WHERE role = $1`, role).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+personCols+` FROM person WHERE role = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		role, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectPersons(rows, total)
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM person WHERE id = $1`, id)
	return err
}

func scanPerson(row pgx.Row) (*Person, error) {
	var p Person
	err := row.Scan(&p.ID, &p.Name, &p.Surname, &p.Sex, &p.BirthDate, &p.Phone, &p.Role, &p.Specialty, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPersons(rows pgx.Rows, total int) ([]*Person, int, error) {
	var persons []*Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Surname, &p.Sex, &p.BirthDate, &p.Phone, &p.Role, &p.Specialty, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		persons = append(persons, &p)
	}
	return persons, total, nil
}
