package reporting

import (
	"context"
	"fmt"
	"sort"
)

// Field allow-lists: the only identifiers the group-by queries will
// ever interpolate. Caller input is resolved through these maps and
// never reaches SQL directly.

var testFieldColumns = map[string]string{
	"id":             "id",
	"name":           "name",
	"requested_date": "requested_date",
	"delivery_date":  "delivery_date",
	"status":         "status",
	"observations":   "observations",
	"rating":         "rating",
	"category":       "category_id",
	"client":         "client_id",
	"staff":          "staff_id",
}

var personFieldColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"surname":    "surname",
	"sex":        "sex",
	"birth_date": "birth_date",
	"phone":      "phone",
	"role":       "role",
	"specialty":  "specialty",
}

// numericPersonFields are the person fields an average is defined over.
var numericPersonFields = map[string]bool{
	"id": true,
}

var entityTables = map[string]struct {
	table  string
	fields map[string]string
}{
	"test":   {"lab_test", testFieldColumns},
	"person": {"person", personFieldColumns},
}

// GroupByField groups the given entity by a named field and counts
// occurrences of each distinct value, ordered by the field value.
// Unknown entities or fields are rejected with a named error before any
// query runs.
func (s *Service) GroupByField(ctx context.Context, entity, field string) (*Series, error) {
	e, ok := entityTables[entity]
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", entity)
	}
	column, ok := e.fields[field]
	if !ok {
		return nil, fmt.Errorf("field %q does not exist on %s", field, entity)
	}

	counts, err := s.repo.GroupCount(ctx, e.table, column)
	if err != nil {
		return nil, err
	}
	out := emptySeries()
	for _, nc := range counts {
		out.Labels = append(out.Labels, nc.Name)
		out.Data = append(out.Data, float64(nc.Count))
	}
	return out, nil
}

// AdHocQuery groups persons by a named field and aggregates. The "sum"
// operation counts grouped rows rather than summing them; the name is
// kept for interface compatibility. "avg" is only defined over numeric
// fields and is rejected at validation otherwise.
func (s *Service) AdHocQuery(ctx context.Context, field, operation, order string) (*Series, error) {
	if order != "asc" && order != "desc" {
		return nil, fmt.Errorf("invalid order %q, want asc or desc", order)
	}
	column, ok := personFieldColumns[field]
	if !ok {
		return nil, fmt.Errorf("field %q does not exist on person", field)
	}

	type entry struct {
		label string
		total float64
	}
	var entries []entry

	switch operation {
	case "sum":
		counts, err := s.repo.GroupCount(ctx, "person", column)
		if err != nil {
			return nil, err
		}
		for _, nc := range counts {
			entries = append(entries, entry{nc.Name, float64(nc.Count)})
		}
	case "avg":
		if !numericPersonFields[field] {
			return nil, fmt.Errorf("cannot average non-numeric field %q", field)
		}
		avgs, err := s.repo.GroupAvg(ctx, "person", column)
		if err != nil {
			return nil, err
		}
		for _, na := range avgs {
			entries = append(entries, entry{na.Name, na.Avg})
		}
	default:
		return nil, fmt.Errorf("invalid operation %q, want sum or avg", operation)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if order == "asc" {
			return entries[i].total < entries[j].total
		}
		return entries[i].total > entries[j].total
	})

	out := emptySeries()
	for _, e := range entries {
		out.Labels = append(out.Labels, e.label)
		out.Data = append(out.Data, e.total)
	}
	return out, nil
}
