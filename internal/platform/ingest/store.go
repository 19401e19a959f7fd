package ingest

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinilab/clinilab/internal/domain/labtest"
	"github.com/clinilab/clinilab/internal/domain/person"
	"github.com/clinilab/clinilab/internal/platform/db"
)

// TestBatch is everything one test upload produces: fabricated placeholder
// persons (explicit ids), the tests themselves, and one result per test,
// index-aligned. Persisted atomically.
type TestBatch struct {
	Persons []*person.Person
	Tests   []*labtest.LabTest
	Results []*labtest.Result
}

type Store interface {
	PersonIDs(ctx context.Context) (map[int64]bool, error)
	CategoryIDs(ctx context.Context) (map[int64]bool, error)
	SavePersons(ctx context.Context, persons []*person.Person) (int, error)
	SaveTestBatch(ctx context.Context, batch *TestBatch) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) PersonIDs(ctx context.Context) (map[int64]bool, error) {
	return s.idSet(ctx, `SELECT id FROM person`)
}

func (s *pgStore) CategoryIDs(ctx context.Context) (map[int64]bool, error) {
	return s.idSet(ctx, `SELECT id FROM category`)
}

func (s *pgStore) idSet(ctx context.Context, sql string) (map[int64]bool, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// SavePersons writes a validated person batch in one transaction via
// CopyFrom; ids are store-assigned.
func (s *pgStore) SavePersons(ctx context.Context, persons []*person.Person) (int, error) {
	var n int64
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		rows := make([][]interface{}, len(persons))
		for i, p := range persons {
			rows[i] = []interface{}{p.Name, p.Surname, p.Sex, p.BirthDate, p.Phone, p.Role, p.Specialty}
		}
		var err error
		n, err = tx.CopyFrom(ctx, pgx.Identifier{"person"},
			[]string{"name", "surname", "sex", "birth_date", "phone", "role", "specialty"},
			pgx.CopyFromRows(rows))
		return err
	})
	return int(n), err
}

// SaveTestBatch persists placeholders, tests and results in one
// transaction. Test ids come back from the insert and are stamped onto
// the aligned results before those are copied in.
func (s *pgStore) SaveTestBatch(ctx context.Context, b *TestBatch) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if len(b.Persons) > 0 {
			rows := make([][]interface{}, len(b.Persons))
			for i, p := range b.Persons {
				rows[i] = []interface{}{p.ID, p.Name, p.Surname, p.Sex, p.BirthDate, p.Phone, p.Role, p.Specialty}
			}
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{"person"},
				[]string{"id", "name", "surname", "sex", "birth_date", "phone", "role", "specialty"},
				pgx.CopyFromRows(rows)); err != nil {
				return err
			}
		}

		batch := &pgx.Batch{}
		for _, t := range b.Tests {
			batch.Queue(`
				INSERT INTO lab_test (name, requested_date, delivery_date, status, observations, rating,
					category_id, client_id, staff_id)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
				RETURNING id`,
				t.Name, t.RequestedDate, t.DeliveryDate, t.Status, t.Observations, t.Rating,
				t.CategoryID, t.ClientID, t.StaffID)
		}
		br := tx.SendBatch(ctx, batch)
		for _, t := range b.Tests {
			if err := br.QueryRow().Scan(&t.ID); err != nil {
				br.Close()
				return err
			}
		}
		if err := br.Close(); err != nil {
			return err
		}

		resultRows := make([][]interface{}, len(b.Results))
		for i, res := range b.Results {
			res.TestID = b.Tests[i].ID
			resultRows[i] = []interface{}{res.TestID, res.Result, res.Date, res.Observations,
				res.Interpretation, res.Details, res.ImagePath}
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"result"},
			[]string{"test_id", "result", "date", "observations", "interpretation", "details", "image_path"},
			pgx.CopyFromRows(resultRows))
		return err
	})
}
