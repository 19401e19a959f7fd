package labtest

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

const testCols = `id, name, requested_date, delivery_date, status, observations, rating,
	category_id, client_id, staff_id, created_at`

func (r *repoPG) Create(ctx context.Context, t *LabTest) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO lab_test (name, requested_date, delivery_date, status, observations, rating,
			category_id, client_id, staff_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at`,
		t.Name, t.RequestedDate, t.DeliveryDate, t.Status, t.Observations, t.Rating,
		t.CategoryID, t.ClientID, t.StaffID,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*LabTest, error) {
	return scanTest(r.pool.QueryRow(ctx, `SELECT `+testCols+` FROM lab_test WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*LabTest, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lab_test`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+testCols+` FROM lab_test ORDER BY requested_date DESC, id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectTests(rows, total)
}

func (r *repoPG) ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]*LabTest, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lab_test WHERE client_id = $1`, clientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+testCols+` FROM lab_test WHERE client_id = $1 ORDER BY requested_date DESC, id LIMIT $2 OFFSET $3`,
		clientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectTests(rows, total)
}

func (r *repoPG) GetResults(ctx context.Context, testID int64) ([]*Result, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, test_id, result, date, observations, interpretation, details, image_path
		FROM result WHERE test_id = $1 ORDER BY id`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		var res Result
		if err := rows.Scan(&res.ID, &res.TestID, &res.Result, &res.Date,
			&res.Observations, &res.Interpretation, &res.Details, &res.ImagePath); err != nil {
			return nil, err
		}
		results = append(results, &res)
	}
	return results, nil
}

func scanTest(row pgx.Row) (*LabTest, error) {
	var t LabTest
	err := row.Scan(&t.ID, &t.Name, &t.RequestedDate, &t.DeliveryDate, &t.Status,
		&t.Observations, &t.Rating, &t.CategoryID, &t.ClientID, &t.StaffID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTests(rows pgx.Rows, total int) ([]*LabTest, int, error) {
	var tests []*LabTest
	for rows.Next() {
		var t LabTest
		if err := rows.Scan(&t.ID, &t.Name, &t.RequestedDate, &t.DeliveryDate, &t.Status,
			&t.Observations, &t.Rating, &t.CategoryID, &t.ClientID, &t.StaffID, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		tests = append(tests, &t)
	}
	return tests, total, nil
}
