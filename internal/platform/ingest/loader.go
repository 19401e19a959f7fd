// Package ingest implements CSV bulk loading of persons and tests.
// Uploads are parsed and validated in full before anything is persisted;
// a failure anywhere in the file leaves the store untouched.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinilab/clinilab/internal/domain/labtest"
	"github.com/clinilab/clinilab/internal/domain/person"
	"github.com/clinilab/clinilab/internal/platform/synth"
)

// dateLayout is the upload date format, MM/DD/YYYY.
const dateLayout = "01/02/2006"

// noObservations is the upload sentinel for an absent observation.
const noObservations = "N/a"

// Fabricated placeholder id ranges. Placeholder ids may collide with ids
// a future upload's serial sequence would assign; a known limitation of
// the fabrication scheme, not silently corrected here.
const (
	clientIDMin = 1000
	clientIDMax = 3000
	staffIDMin  = 1000
	staffIDMax  = 2000
)

type Options struct {
	// FabricateMissing controls what happens when a test row references
	// a person the store does not have: insert a placeholder (default)
	// or reject the upload with a report naming every missing id.
	FabricateMissing bool
}

// Loader is shared by all upload requests; the id rng is guarded so
// concurrent loads do not race on it. Everything else per load is local.
type Loader struct {
	store Store
	gen   *synth.Generator
	mu    sync.Mutex
	rng   *rand.Rand
	log   zerolog.Logger
	opts  Options
}

func NewLoader(store Store, gen *synth.Generator, src rand.Source, log zerolog.Logger, opts Options) *Loader {
	return &Loader{
		store: store,
		gen:   gen,
		rng:   rand.New(src),
		log:   log,
		opts:  opts,
	}
}

type header map[string]int

func readHeader(r *csv.Reader, required []string) (header, error) {
	record, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := make(header, len(record))
	for i, name := range record {
		h[strings.TrimSpace(name)] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}
	return h, nil
}

func (h header) get(record []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// LoadPersons ingests a person CSV. Every row is validated before the
// whole set is written as one batch; any incoming id column is dropped
// and specialty is always discarded.
func (l *Loader) LoadPersons(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	h, err := readHeader(cr, []string{"nombre", "apellidos", "gender", "fnac", "telefono", "rol"})
	if err != nil {
		return 0, err
	}

	var persons []*person.Person
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", row, err)
		}

		rawDate := h.get(record, "fnac")
		born, err := time.Parse(dateLayout, rawDate)
		if err != nil {
			return 0, fmt.Errorf("row %d: malformed date %q, want MM/DD/YYYY", row, rawDate)
		}

		persons = append(persons, &person.Person{
			Name:      h.get(record, "nombre"),
			Surname:   h.get(record, "apellidos"),
			Sex:       person.NormalizeSex(h.get(record, "gender")),
			BirthDate: &born,
			Phone:     person.NormalizePhone(h.get(record, "telefono")),
			Role:      person.NormalizeRole(h.get(record, "rol")),
		})
	}

	if len(persons) == 0 {
		return 0, nil
	}
	n, err := l.store.SavePersons(ctx, persons)
	if err != nil {
		return 0, fmt.Errorf("save persons: %w", err)
	}
	l.log.Info().Int("count", n).Msg("person batch loaded")
	return n, nil
}

type testRow struct {
	name         string
	date         time.Time
	status       string
	observations string
	rating       int
	categoryID   int64
	clientID     int64
	staffID      int64
}

// LoadTests ingests a test CSV in two passes: parse and validate every
// row first, resolving references against preloaded id caches; then
// either fabricate placeholder persons for the missing references or
// reject the whole upload, per Options. Each test gets a synthesized
// delivery date and result. Persistence is a single transaction.
func (l *Loader) LoadTests(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	h, err := readHeader(cr, []string{"nombre", "fecha", "estado", "observaciones",
		"calificacion", "categoria_id", "cliente_id", "personal_id"})
	if err != nil {
		return 0, err
	}

	categories, err := l.store.CategoryIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load category cache: %w", err)
	}
	persons, err := l.store.PersonIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load person cache: %w", err)
	}

	// Pass 1: parse and validate everything, collecting missing person
	// references instead of failing on the first one.
	var (
		parsed         []testRow
		missingClients = map[int64]bool{}
		missingStaff   = map[int64]bool{}
	)
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", row, err)
		}

		rawDate := h.get(record, "fecha")
		requested, err := time.Parse(dateLayout, rawDate)
		if err != nil {
			return 0, fmt.Errorf("row %d: malformed date %q, want MM/DD/YYYY", row, rawDate)
		}

		rating, err := parseIntField(h.get(record, "calificacion"), "calificacion", row)
		if err != nil {
			return 0, err
		}
		categoryID, err := parseIDField(h.get(record, "categoria_id"), "categoria_id", row)
		if err != nil {
			return 0, err
		}
		clientID, err := parseIDField(h.get(record, "cliente_id"), "cliente_id", row)
		if err != nil {
			return 0, err
		}
		staffID, err := parseIDField(h.get(record, "personal_id"), "personal_id", row)
		if err != nil {
			return 0, err
		}

		if !categories[categoryID] {
			return 0, fmt.Errorf("row %d: unknown category id %d", row, categoryID)
		}
		if !persons[clientID] {
			missingClients[clientID] = true
		}
		if !persons[staffID] {
			missingStaff[staffID] = true
		}

		parsed = append(parsed, testRow{
			name:         h.get(record, "nombre"),
			date:         requested,
			status:       h.get(record, "estado"),
			observations: h.get(record, "observaciones"),
			rating:       rating,
			categoryID:   categoryID,
			clientID:     clientID,
			staffID:      staffID,
		})
	}

	if len(parsed) == 0 {
		return 0, nil
	}

	// Pass 2: resolve the missing references.
	if (len(missingClients) > 0 || len(missingStaff) > 0) && !l.opts.FabricateMissing {
		return 0, fmt.Errorf("missing person references: clients %v, staff %v",
			sortedIDs(missingClients), sortedIDs(missingStaff))
	}

	taken := make(map[int64]bool, len(persons))
	for id := range persons {
		taken[id] = true
	}
	placeholders := map[int64]*person.Person{}
	var fabricated []*person.Person
	for _, id := range sortedIDs(missingClients) {
		p := l.fabricate("Client", clientIDMin, clientIDMax, person.RoleClient, taken)
		placeholders[id] = p
		fabricated = append(fabricated, p)
		l.log.Warn().Int64("missing_id", id).Int64("placeholder_id", p.ID).
			Str("role", p.Role).Msg("fabricated placeholder person")
	}
	for _, id := range sortedIDs(missingStaff) {
		if _, ok := placeholders[id]; ok {
			continue
		}
		p := l.fabricate("Staff", staffIDMin, staffIDMax, person.RoleStaff, taken)
		placeholders[id] = p
		fabricated = append(fabricated, p)
		l.log.Warn().Int64("missing_id", id).Int64("placeholder_id", p.ID).
			Str("role", p.Role).Msg("fabricated placeholder person")
	}

	resolve := func(id int64) int64 {
		if p, ok := placeholders[id]; ok {
			return p.ID
		}
		return id
	}

	batch := &TestBatch{Persons: fabricated}
	for _, row := range parsed {
		delay := l.gen.DeliveryDelay(row.name)
		delivery := row.date.AddDate(0, 0, delay)

		var obs *string
		if row.observations != noObservations && row.observations != "" {
			o := row.observations
			obs = &o
		}

		outcome := l.gen.GenerateOutcome(row.name)

		batch.Tests = append(batch.Tests, &labtest.LabTest{
			Name:          row.name,
			RequestedDate: row.date,
			DeliveryDate:  delivery,
			Status:        row.status,
			Observations:  obs,
			Rating:        row.rating,
			CategoryID:    row.categoryID,
			ClientID:      resolve(row.clientID),
			StaffID:       resolve(row.staffID),
		})
		batch.Results = append(batch.Results, &labtest.Result{
			Result:         outcome.Result,
			Date:           delivery,
			Observations:   noObservations,
			Interpretation: outcome.Interpretation,
			Details:        outcome.Details,
		})
	}

	if err := l.store.SaveTestBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("save test batch: %w", err)
	}
	l.log.Info().Int("tests", len(batch.Tests)).Int("fabricated_persons", len(fabricated)).
		Msg("test batch loaded")
	return len(batch.Tests), nil
}

// fabricate builds a placeholder person with a random unused id in
// [min,max] and a generated display name.
func (l *Loader) fabricate(prefix string, min, max int64, role string, taken map[int64]bool) *person.Person {
	id := l.randID(min, max)
	for taken[id] {
		id = l.randID(min, max)
	}
	taken[id] = true
	return &person.Person{
		ID:   id,
		Name: fmt.Sprintf("%s-%d", prefix, id),
		Sex:  person.SexMasculine,
		Role: role,
	}
}

func (l *Loader) randID(min, max int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return min + l.rng.Int63n(max-min+1)
}

func parseIntField(raw, col string, row int) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("row %d: non-numeric %s %q", row, col, raw)
	}
	return n, nil
}

func parseIDField(raw, col string, row int) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: non-numeric %s %q", row, col, raw)
	}
	return n, nil
}

func sortedIDs(set map[int64]bool) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
