package reporting

import (
	"context"
	"time"
)

// Raw aggregate rows as they come back from the store; the service
// shapes them into series.

type NamedCount struct {
	Name  string
	Count int
}

type NamedAvg struct {
	Name string
	Avg  float64
}

type ValueCount struct {
	Value int
	Count int
}

type DayCount struct {
	Day   time.Time
	Count int
}

type NameDayCount struct {
	Name  string
	Day   time.Time
	Count int
}

type AgeNameCount struct {
	Age   int
	Name  string
	Count int
}

// StaffStat aggregates one staff member's workload. Average fields are
// nil when the member has no tests.
type StaffStat struct {
	ID                int64
	Name              string
	Surname           string
	TestCount         int
	AvgTurnaroundDays *float64
	AvgRating         *float64
}

type Repository interface {
	CountByCategory(ctx context.Context) ([]NamedCount, error)
	AvgRating(ctx context.Context) (*float64, error)
	AvgRatingBySex(ctx context.Context) (map[string]float64, error)
	CountByRating(ctx context.Context) ([]ValueCount, error)
	StaffStats(ctx context.Context) ([]StaffStat, error)
	AvgTurnaroundByName(ctx context.Context) ([]NamedAvg, error)
	CountByMonth(ctx context.Context, year int) ([]ValueCount, error)
	CountByDay(ctx context.Context, from, to time.Time) ([]DayCount, error)
	CountByDayAndName(ctx context.Context, from, to time.Time) ([]NameDayCount, error)
	DistinctTestNames(ctx context.Context) ([]string, error)
	CountByTestName(ctx context.Context) ([]NamedCount, error)
	CountByStaffSex(ctx context.Context) (map[string]int, error)
	CountByClientSex(ctx context.Context) ([]NamedCount, error)
	CountByClientAge(ctx context.Context, year int) ([]ValueCount, error)
	CountByClientAgeAndName(ctx context.Context, year int) ([]AgeNameCount, error)

	// GroupCount groups the given table by the given column and counts,
	// ordered by the column's native value. Both identifiers must come
	// from an allow-list; the repository never sees caller input.
	GroupCount(ctx context.Context, table, column string) ([]NamedCount, error)
	// GroupAvg groups the given table by the given numeric column and
	// averages it, under the same identifier contract.
	GroupAvg(ctx context.Context, table, column string) ([]NamedAvg, error)
}
