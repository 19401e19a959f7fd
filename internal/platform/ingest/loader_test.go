package ingest

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinilab/clinilab/internal/domain/person"
	"github.com/clinilab/clinilab/internal/platform/synth"
)

type fakeStore struct {
	personIDs   map[int64]bool
	categoryIDs map[int64]bool

	savedPersons []*person.Person
	savedBatch   *TestBatch
	saveErr      error
}

func (f *fakeStore) PersonIDs(ctx context.Context) (map[int64]bool, error) {
	return f.personIDs, nil
}

func (f *fakeStore) CategoryIDs(ctx context.Context) (map[int64]bool, error) {
	return f.categoryIDs, nil
}

func (f *fakeStore) SavePersons(ctx context.Context, persons []*person.Person) (int, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.savedPersons = persons
	return len(persons), nil
}

func (f *fakeStore) SaveTestBatch(ctx context.Context, batch *TestBatch) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedBatch = batch
	return nil
}

func newTestLoader(store Store, opts Options) *Loader {
	gen := synth.NewGenerator(rand.NewSource(7))
	return NewLoader(store, gen, rand.NewSource(7), zerolog.Nop(), opts)
}

const personCSV = `id,nombre,apellidos,gender,fnac,telefono,rol,especialidad
1,Ana,García,female,05/12/1990,612-345-678,client,
2,Luis,Pérez,male,01/30/1985,(91) 123 45 67 89,staff,cardiology
3,Sam,Ruiz,other,11/02/2000,987654321099,client,
`

func TestLoadPersons(t *testing.T) {
	store := &fakeStore{}
	l := newTestLoader(store, Options{FabricateMissing: true})

	n, err := l.LoadPersons(context.Background(), strings.NewReader(personCSV))
	if err != nil {
		t.Fatalf("LoadPersons: %v", err)
	}
	if n != 3 {
		t.Fatalf("loaded %d persons, want 3", n)
	}

	p := store.savedPersons[0]
	if p.ID != 0 {
		t.Error("incoming id should be dropped")
	}
	if p.Sex != person.SexFeminine {
		t.Errorf("sex = %q, want feminine", p.Sex)
	}
	if p.Phone != "61234567" {
		t.Errorf("phone = %q, want 61234567", p.Phone)
	}
	if p.BirthDate == nil || p.BirthDate.Format("2006-01-02") != "1990-05-12" {
		t.Errorf("birth date = %v, want 1990-05-12", p.BirthDate)
	}

	// staff row keeps its role but loses its specialty
	if store.savedPersons[1].Role != person.RoleStaff {
		t.Errorf("role = %q, want staff", store.savedPersons[1].Role)
	}
	if store.savedPersons[1].Specialty != nil {
		t.Error("specialty should always be discarded")
	}

	// unknown gender defaults to masculine, long phone is truncated
	if store.savedPersons[2].Sex != person.SexMasculine {
		t.Errorf("sex = %q, want masculine default", store.savedPersons[2].Sex)
	}
	if len(store.savedPersons[2].Phone) != person.PhoneMaxDigits {
		t.Errorf("phone %q not truncated to %d digits", store.savedPersons[2].Phone, person.PhoneMaxDigits)
	}
}

func TestLoadPersons_MalformedDate(t *testing.T) {
	store := &fakeStore{}
	l := newTestLoader(store, Options{})

	csv := "nombre,apellidos,gender,fnac,telefono,rol\nAna,García,female,1990-05-12,612345678,client\n"
	_, err := l.LoadPersons(context.Background(), strings.NewReader(csv))
	if err == nil {
		t.Fatal("expected malformed date error")
	}
	if !strings.Contains(err.Error(), "malformed date") {
		t.Errorf("error = %q, want malformed date message", err)
	}
	if store.savedPersons != nil {
		t.Error("nothing should be persisted on failure")
	}
}

func TestLoadPersons_MissingColumn(t *testing.T) {
	l := newTestLoader(&fakeStore{}, Options{})
	csv := "nombre,apellidos,gender,telefono,rol\nAna,García,female,612345678,client\n"
	_, err := l.LoadPersons(context.Background(), strings.NewReader(csv))
	if err == nil || !strings.Contains(err.Error(), `missing required column "fnac"`) {
		t.Errorf("error = %v, want missing column message", err)
	}
}

const testCSVHeader = "nombre,fecha,estado,observaciones,calificacion,categoria_id,cliente_id,personal_id\n"

func TestLoadTests_CovidRowWithMissingClient(t *testing.T) {
	store := &fakeStore{
		personIDs:   map[int64]bool{2: true},
		categoryIDs: map[int64]bool{1: true},
	}
	l := newTestLoader(store, Options{FabricateMissing: true})

	csv := testCSVHeader + "COVID Rapid,01/01/2024,delivered,N/a,8,1,9999,2\n"
	n, err := l.LoadTests(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadTests: %v", err)
	}
	if n != 1 {
		t.Fatalf("loaded %d tests, want 1", n)
	}

	b := store.savedBatch
	if len(b.Persons) != 1 {
		t.Fatalf("fabricated %d persons, want 1", len(b.Persons))
	}
	ph := b.Persons[0]
	if ph.ID < 1000 || ph.ID > 3000 {
		t.Errorf("placeholder id %d outside [1000,3000]", ph.ID)
	}
	if !strings.HasPrefix(ph.Name, "Client-") {
		t.Errorf("placeholder name = %q", ph.Name)
	}
	if ph.Role != person.RoleClient {
		t.Errorf("placeholder role = %q", ph.Role)
	}

	lt := b.Tests[0]
	requested, _ := time.Parse("2006-01-02", "2024-01-01")
	if !lt.RequestedDate.Equal(requested) {
		t.Errorf("requested date = %v", lt.RequestedDate)
	}
	delay := lt.TurnaroundDays()
	if delay < 1 || delay > 2 {
		t.Errorf("covid delay = %d days, want [1,2]", delay)
	}
	if lt.ClientID != ph.ID {
		t.Errorf("client id = %d, want placeholder %d", lt.ClientID, ph.ID)
	}
	if lt.StaffID != 2 {
		t.Errorf("staff id = %d, want 2", lt.StaffID)
	}
	if lt.Observations != nil {
		t.Error(`observations "N/a" should map to NULL`)
	}

	res := b.Results[0]
	if res.Result != "Negativo" && res.Result != "Positivo" {
		t.Errorf("result = %q, want covid outcome", res.Result)
	}
	if !res.Date.Equal(lt.DeliveryDate) {
		t.Errorf("result date = %v, want delivery date %v", res.Date, lt.DeliveryDate)
	}
	if res.Observations != "N/a" {
		t.Errorf("result observations = %q, want N/a", res.Observations)
	}
}

func TestLoadTests_ReusesPlaceholderForRepeatedMissingID(t *testing.T) {
	store := &fakeStore{
		personIDs:   map[int64]bool{2: true},
		categoryIDs: map[int64]bool{1: true},
	}
	l := newTestLoader(store, Options{FabricateMissing: true})

	csv := testCSVHeader +
		"COVID A,01/01/2024,delivered,N/a,8,1,9999,2\n" +
		"COVID B,01/02/2024,delivered,N/a,7,1,9999,2\n"
	if _, err := l.LoadTests(context.Background(), strings.NewReader(csv)); err != nil {
		t.Fatalf("LoadTests: %v", err)
	}

	b := store.savedBatch
	if len(b.Persons) != 1 {
		t.Fatalf("fabricated %d persons, want 1 shared placeholder", len(b.Persons))
	}
	if b.Tests[0].ClientID != b.Tests[1].ClientID {
		t.Error("rows referencing the same missing id should share a placeholder")
	}
}

func TestLoadTests_RejectWhenFabricationDisabled(t *testing.T) {
	store := &fakeStore{
		personIDs:   map[int64]bool{},
		categoryIDs: map[int64]bool{1: true},
	}
	l := newTestLoader(store, Options{FabricateMissing: false})

	csv := testCSVHeader + "COVID Rapid,01/01/2024,delivered,N/a,8,1,9999,77\n"
	_, err := l.LoadTests(context.Background(), strings.NewReader(csv))
	if err == nil {
		t.Fatal("expected missing reference error")
	}
	if !strings.Contains(err.Error(), "9999") || !strings.Contains(err.Error(), "77") {
		t.Errorf("error = %q, want both missing ids named", err)
	}
	if store.savedBatch != nil {
		t.Error("nothing should be persisted on rejection")
	}
}

func TestLoadTests_UnknownCategory(t *testing.T) {
	store := &fakeStore{
		personIDs:   map[int64]bool{2: true},
		categoryIDs: map[int64]bool{},
	}
	l := newTestLoader(store, Options{FabricateMissing: true})

	csv := testCSVHeader + "COVID Rapid,01/01/2024,delivered,N/a,8,1,2,2\n"
	_, err := l.LoadTests(context.Background(), strings.NewReader(csv))
	if err == nil || !strings.Contains(err.Error(), "unknown category id 1") {
		t.Errorf("error = %v, want unknown category message", err)
	}
}

func TestLoadTests_NonNumericRating(t *testing.T) {
	store := &fakeStore{
		personIDs:   map[int64]bool{2: true},
		categoryIDs: map[int64]bool{1: true},
	}
	l := newTestLoader(store, Options{FabricateMissing: true})

	csv := testCSVHeader + "COVID Rapid,01/01/2024,delivered,N/a,high,1,2,2\n"
	_, err := l.LoadTests(context.Background(), strings.NewReader(csv))
	if err == nil || !strings.Contains(err.Error(), "calificacion") {
		t.Errorf("error = %v, want non-numeric calificacion message", err)
	}
}

func TestLoadTests_ObservationsKept(t *testing.T) {
	store := &fakeStore{
		personIDs:   map[int64]bool{2: true, 3: true},
		categoryIDs: map[int64]bool{1: true},
	}
	l := newTestLoader(store, Options{FabricateMissing: true})

	csv := testCSVHeader + "Allergy Panel,03/15/2024,pending,fasting required,6,1,2,3\n"
	if _, err := l.LoadTests(context.Background(), strings.NewReader(csv)); err != nil {
		t.Fatalf("LoadTests: %v", err)
	}

	lt := store.savedBatch.Tests[0]
	if lt.Observations == nil || *lt.Observations != "fasting required" {
		t.Errorf("observations = %v, want kept", lt.Observations)
	}
	delay := lt.TurnaroundDays()
	if delay < 3 || delay > 7 {
		t.Errorf("allergy delay = %d, want [3,7]", delay)
	}
}

// lockedStore is a Store safe for concurrent saves, so the race
// detector only watches the loader itself.
type lockedStore struct {
	mu      sync.Mutex
	batches []*TestBatch
}

func (s *lockedStore) PersonIDs(ctx context.Context) (map[int64]bool, error) {
	return map[int64]bool{2: true}, nil
}

func (s *lockedStore) CategoryIDs(ctx context.Context) (map[int64]bool, error) {
	return map[int64]bool{1: true}, nil
}

func (s *lockedStore) SavePersons(ctx context.Context, persons []*person.Person) (int, error) {
	return len(persons), nil
}

func (s *lockedStore) SaveTestBatch(ctx context.Context, batch *TestBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, batch)
	return nil
}

// One loader serves every upload request, so simultaneous uploads must
// not trip the race detector on its id and outcome generators.
func TestLoadTests_ConcurrentUploads(t *testing.T) {
	store := &lockedStore{}
	l := newTestLoader(store, Options{FabricateMissing: true})

	csv := testCSVHeader +
		"COVID Rapid,01/01/2024,delivered,N/a,8,1,9999,2\n" +
		"Blood Count,01/02/2024,pending,N/a,7,1,8888,2\n"

	const uploads = 8
	var wg sync.WaitGroup
	errs := make([]error, uploads)
	counts := make([]int, uploads)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i], errs[i] = l.LoadTests(context.Background(), strings.NewReader(csv))
		}(i)
	}
	wg.Wait()

	for i := 0; i < uploads; i++ {
		if errs[i] != nil {
			t.Fatalf("upload %d: %v", i, errs[i])
		}
		if counts[i] != 2 {
			t.Errorf("upload %d loaded %d tests, want 2", i, counts[i])
		}
	}
	if len(store.batches) != uploads {
		t.Fatalf("saved %d batches, want %d", len(store.batches), uploads)
	}
	for _, b := range store.batches {
		for _, ph := range b.Persons {
			if ph.ID < 1000 || ph.ID > 3000 {
				t.Errorf("placeholder id %d outside [1000,3000]", ph.ID)
			}
		}
	}
}
