package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) CountByCategory(ctx context.Context) ([]NamedCount, error) {
	return r.namedCounts(ctx, `
		SELECT c.name, COUNT(t.id)
		FROM lab_test t
		JOIN category c ON c.id = t.category_id
		GROUP BY c.name
		ORDER BY COUNT(t.id) DESC`)
}

func (r *repoPG) AvgRating(ctx context.Context) (*float64, error) {
	var avg *float64
	err := r.pool.QueryRow(ctx, `SELECT AVG(rating) FROM lab_test`).Scan(&avg)
	return avg, err
}

func (r *repoPG) AvgRatingBySex(ctx context.Context) (map[string]float64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.sex, AVG(t.rating)
		FROM lab_test t
		JOIN person p ON p.id = t.client_id
		GROUP BY p.sex`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var sex string
		var avg float64
		if err := rows.Scan(&sex, &avg); err != nil {
			return nil, err
		}
		out[sex] = avg
	}
	return out, rows.Err()
}

func (r *repoPG) CountByRating(ctx context.Context) ([]ValueCount, error) {
	return r.valueCounts(ctx, `
		SELECT rating, COUNT(*) FROM lab_test GROUP BY rating ORDER BY rating`)
}

func (r *repoPG) StaffStats(ctx context.Context) ([]StaffStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.surname, COUNT(t.id),
			AVG(t.delivery_date - t.requested_date), AVG(t.rating)
		FROM person p
		LEFT JOIN lab_test t ON t.staff_id = p.id
		WHERE p.role = 'staff'
		GROUP BY p.id, p.name, p.surname
		ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []StaffStat
	for rows.Next() {
		var s StaffStat
		if err := rows.Scan(&s.ID, &s.Name, &s.Surname, &s.TestCount,
			&s.AvgTurnaroundDays, &s.AvgRating); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *repoPG) AvgTurnaroundByName(ctx context.Context) ([]NamedAvg, error) {
	return r.namedAvgs(ctx, `
		SELECT name, AVG(delivery_date - requested_date)
		FROM lab_test
		GROUP BY name
		ORDER BY name`)
}

func (r *repoPG) CountByMonth(ctx context.Context, year int) ([]ValueCount, error) {
	return r.valueCounts(ctx, `
		SELECT EXTRACT(MONTH FROM requested_date)::int, COUNT(*)
		FROM lab_test
		WHERE EXTRACT(YEAR FROM requested_date) = $1
		GROUP BY 1
		ORDER BY 1`, year)
}

func (r *repoPG) CountByDay(ctx context.Context, from, to time.Time) ([]DayCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT requested_date, COUNT(*)
		FROM lab_test
		WHERE requested_date BETWEEN $1 AND $2
		GROUP BY requested_date
		ORDER BY requested_date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (r *repoPG) CountByDayAndName(ctx context.Context, from, to time.Time) ([]NameDayCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, requested_date, COUNT(*)
		FROM lab_test
		WHERE requested_date BETWEEN $1 AND $2
		GROUP BY name, requested_date
		ORDER BY requested_date, name`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NameDayCount
	for rows.Next() {
		var ndc NameDayCount
		if err := rows.Scan(&ndc.Name, &ndc.Day, &ndc.Count); err != nil {
			return nil, err
		}
		out = append(out, ndc)
	}
	return out, rows.Err()
}

func (r *repoPG) DistinctTestNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT name FROM lab_test ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *repoPG) CountByTestName(ctx context.Context) ([]NamedCount, error) {
	// MIN(id) keeps the store's insertion order so top/bottom ties are
	// broken deterministically.
	return r.namedCounts(ctx, `
		SELECT name, COUNT(*) FROM lab_test GROUP BY name ORDER BY MIN(id)`)
}

func (r *repoPG) CountByStaffSex(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.sex, COUNT(t.id)
		FROM lab_test t
		JOIN person p ON p.id = t.staff_id
		WHERE p.role = 'staff'
		GROUP BY p.sex`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var sex string
		var count int
		if err := rows.Scan(&sex, &count); err != nil {
			return nil, err
		}
		out[sex] = count
	}
	return out, rows.Err()
}

func (r *repoPG) CountByClientSex(ctx context.Context) ([]NamedCount, error) {
	return r.namedCounts(ctx, `
		SELECT p.sex, COUNT(t.id)
		FROM lab_test t
		JOIN person p ON p.id = t.client_id
		WHERE p.role = 'client'
		GROUP BY p.sex
		ORDER BY p.sex`)
}

func (r *repoPG) CountByClientAge(ctx context.Context, year int) ([]ValueCount, error) {
	return r.valueCounts(ctx, `
		SELECT $1 - EXTRACT(YEAR FROM p.birth_date)::int AS age, COUNT(t.id)
		FROM lab_test t
		JOIN person p ON p.id = t.client_id
		WHERE p.role = 'client' AND p.birth_date IS NOT NULL
		GROUP BY age
		ORDER BY age`, year)
}

func (r *repoPG) CountByClientAgeAndName(ctx context.Context, year int) ([]AgeNameCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT $1 - EXTRACT(YEAR FROM p.birth_date)::int AS age, t.name, COUNT(t.id)
		FROM lab_test t
		JOIN person p ON p.id = t.client_id
		WHERE p.role = 'client' AND p.birth_date IS NOT NULL
		GROUP BY age, t.name
		ORDER BY age, t.name`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AgeNameCount
	for rows.Next() {
		var anc AgeNameCount
		if err := rows.Scan(&anc.Age, &anc.Name, &anc.Count); err != nil {
			return nil, err
		}
		out = append(out, anc)
	}
	return out, rows.Err()
}

// GroupCount and GroupAvg interpolate identifiers into SQL; both are
// only ever called with values resolved from the static field maps in
// gateway.go, never with caller input.

func (r *repoPG) GroupCount(ctx context.Context, table, column string) ([]NamedCount, error) {
	sql := fmt.Sprintf(
		`SELECT COALESCE(%s::text, ''), COUNT(*) FROM %s GROUP BY %s ORDER BY %s`,
		column, table, column, column)
	return r.namedCounts(ctx, sql)
}

func (r *repoPG) GroupAvg(ctx context.Context, table, column string) ([]NamedAvg, error) {
	sql := fmt.Sprintf(
		`SELECT COALESCE(%s::text, ''), AVG(%s) FROM %s GROUP BY %s ORDER BY %s`,
		column, column, table, column, column)
	return r.namedAvgs(ctx, sql)
}

func (r *repoPG) namedCounts(ctx context.Context, sql string, args ...interface{}) ([]NamedCount, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NamedCount
	for rows.Next() {
		var nc NamedCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}

func (r *repoPG) namedAvgs(ctx context.Context, sql string, args ...interface{}) ([]NamedAvg, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NamedAvg
	for rows.Next() {
		var na NamedAvg
		if err := rows.Scan(&na.Name, &na.Avg); err != nil {
			return nil, err
		}
		out = append(out, na)
	}
	return out, rows.Err()
}

func (r *repoPG) valueCounts(ctx context.Context, sql string, args ...interface{}) ([]ValueCount, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ValueCount
	for rows.Next() {
		var vc ValueCount
		if err := rows.Scan(&vc.Value, &vc.Count); err != nil {
			return nil, err
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}
