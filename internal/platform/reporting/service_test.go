package reporting

import (
	"context"
	"testing"
	"time"
)

type fakeRepo struct {
	countByCategory     []NamedCount
	avgRating           *float64
	avgRatingBySex      map[string]float64
	countByRating       []ValueCount
	staffStats          []StaffStat
	avgTurnaroundByName []NamedAvg
	countByMonth        []ValueCount
	countByDay          []DayCount
	countByDayAndName   []NameDayCount
	distinctTestNames   []string
	countByTestName     []NamedCount
	countByStaffSex     map[string]int
	countByClientSex    []NamedCount
	countByClientAge    []ValueCount
	countByAgeAndName   []AgeNameCount
	groupCount          []NamedCount
	groupAvg            []NamedAvg

	groupCountTable  string
	groupCountColumn string
}

func (f *fakeRepo) CountByCategory(ctx context.Context) ([]NamedCount, error) {
	return f.countByCategory, nil
}
func (f *fakeRepo) AvgRating(ctx context.Context) (*float64, error) { return f.avgRating, nil }
func (f *fakeRepo) AvgRatingBySex(ctx context.Context) (map[string]float64, error) {
	return f.avgRatingBySex, nil
}
func (f *fakeRepo) CountByRating(ctx context.Context) ([]ValueCount, error) {
	return f.countByRating, nil
}
func (f *fakeRepo) StaffStats(ctx context.Context) ([]StaffStat, error) { return f.staffStats, nil }
func (f *fakeRepo) AvgTurnaroundByName(ctx context.Context) ([]NamedAvg, error) {
	return f.avgTurnaroundByName, nil
}
func (f *fakeRepo) CountByMonth(ctx context.Context, year int) ([]ValueCount, error) {
	return f.countByMonth, nil
}
func (f *fakeRepo) CountByDay(ctx context.Context, from, to time.Time) ([]DayCount, error) {
	return f.countByDay, nil
}
func (f *fakeRepo) CountByDayAndName(ctx context.Context, from, to time.Time) ([]NameDayCount, error) {
	return f.countByDayAndName, nil
}
func (f *fakeRepo) DistinctTestNames(ctx context.Context) ([]string, error) {
	return f.distinctTestNames, nil
}
func (f *fakeRepo) CountByTestName(ctx context.Context) ([]NamedCount, error) {
	return f.countByTestName, nil
}
func (f *fakeRepo) CountByStaffSex(ctx context.Context) (map[string]int, error) {
	return f.countByStaffSex, nil
}
func (f *fakeRepo) CountByClientSex(ctx context.Context) ([]NamedCount, error) {
	return f.countByClientSex, nil
}
func (f *fakeRepo) CountByClientAge(ctx context.Context, year int) ([]ValueCount, error) {
	return f.countByClientAge, nil
}
func (f *fakeRepo) CountByClientAgeAndName(ctx context.Context, year int) ([]AgeNameCount, error) {
	return f.countByAgeAndName, nil
}
func (f *fakeRepo) GroupCount(ctx context.Context, table, column string) ([]NamedCount, error) {
	f.groupCountTable, f.groupCountColumn = table, column
	return f.groupCount, nil
}
func (f *fakeRepo) GroupAvg(ctx context.Context, table, column string) ([]NamedAvg, error) {
	return f.groupAvg, nil
}

func newTestService(repo *fakeRepo) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time {
		return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	}
	return svc
}

func fptr(v float64) *float64 { return &v }

func TestSatisfactionIndex(t *testing.T) {
	svc := newTestService(&fakeRepo{avgRating: fptr(7.456)})
	got, err := svc.SatisfactionIndex(context.Background())
	if err != nil {
		t.Fatalf("SatisfactionIndex: %v", err)
	}
	if got != 7.46 {
		t.Errorf("index = %v, want 7.46", got)
	}
}

func TestSatisfactionIndex_EmptyStoreIsZero(t *testing.T) {
	svc := newTestService(&fakeRepo{})
	got, err := svc.SatisfactionIndex(context.Background())
	if err != nil {
		t.Fatalf("SatisfactionIndex: %v", err)
	}
	if got != 0 {
		t.Errorf("index = %v, want 0 on empty store", got)
	}
}

func TestSatisfactionBySex_ZeroFills(t *testing.T) {
	svc := newTestService(&fakeRepo{avgRatingBySex: map[string]float64{"feminine": 8.125}})
	got, err := svc.SatisfactionBySex(context.Background())
	if err != nil {
		t.Fatalf("SatisfactionBySex: %v", err)
	}
	if got["feminine"] != 8.13 {
		t.Errorf("feminine = %v, want 8.13", got["feminine"])
	}
	if got["masculine"] != 0 {
		t.Errorf("masculine = %v, want 0", got["masculine"])
	}
}

func TestMonthlyVolume_TwelveEntriesZeroFilled(t *testing.T) {
	svc := newTestService(&fakeRepo{countByMonth: []ValueCount{
		{Value: 3, Count: 4},
		{Value: 6, Count: 9},
	}})
	series, err := svc.MonthlyVolume(context.Background())
	if err != nil {
		t.Fatalf("MonthlyVolume: %v", err)
	}
	if len(series.Labels) != 12 || len(series.Data) != 12 {
		t.Fatalf("got %d entries, want 12", len(series.Labels))
	}
	if series.Labels[0] != "January" || series.Labels[11] != "December" {
		t.Errorf("label order wrong: %v", series.Labels)
	}
	var sum float64
	for _, v := range series.Data {
		sum += v
	}
	if sum != 13 {
		t.Errorf("series sum = %v, want 13", sum)
	}
	if series.Data[2] != 4 || series.Data[5] != 9 {
		t.Errorf("march/june = %v/%v, want 4/9", series.Data[2], series.Data[5])
	}
	if series.Data[0] != 0 {
		t.Errorf("january = %v, want zero-filled", series.Data[0])
	}
}

func TestWeeklyVolume_SevenDayWindow(t *testing.T) {
	day := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeRepo{countByDay: []DayCount{{Day: day, Count: 3}}})

	series, err := svc.WeeklyVolume(context.Background())
	if err != nil {
		t.Fatalf("WeeklyVolume: %v", err)
	}
	if len(series.Labels) != 7 {
		t.Fatalf("got %d entries, want 7", len(series.Labels))
	}
	// now is pinned to 2024-06-15: window is [2024-06-09, 2024-06-15]
	if series.Labels[0] != "2024-06-09" {
		t.Errorf("first label = %q, want 2024-06-09", series.Labels[0])
	}
	if series.Labels[6] != "2024-06-15" {
		t.Errorf("last label = %q, want 2024-06-15", series.Labels[6])
	}
	if series.Data[3] != 3 {
		t.Errorf("2024-06-12 = %v, want 3", series.Data[3])
	}
	if series.Data[0] != 0 {
		t.Errorf("empty day = %v, want 0", series.Data[0])
	}
}

func TestWeeklyVolumeByTestName_IncludesNamesOutsideWindow(t *testing.T) {
	day := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeRepo{
		distinctTestNames: []string{"COVID Rapid", "Hepatitis B"},
		countByDayAndName: []NameDayCount{{Name: "COVID Rapid", Day: day, Count: 2}},
	})

	ms, err := svc.WeeklyVolumeByTestName(context.Background())
	if err != nil {
		t.Fatalf("WeeklyVolumeByTestName: %v", err)
	}
	if len(ms.Datasets) != 2 {
		t.Fatalf("got %d datasets, want one per distinct name", len(ms.Datasets))
	}
	var hep *Dataset
	for i := range ms.Datasets {
		if ms.Datasets[i].Label == "Hepatitis B" {
			hep = &ms.Datasets[i]
		}
	}
	if hep == nil {
		t.Fatal("expected a dataset for the name with no rows in the window")
	}
	for _, v := range hep.Data {
		if v != 0 {
			t.Errorf("zero-fill broken: %v", hep.Data)
			break
		}
	}
}

func TestShareByTestName_SumsTo100(t *testing.T) {
	svc := newTestService(&fakeRepo{countByTestName: []NamedCount{
		{Name: "A", Count: 2}, {Name: "B", Count: 6}, {Name: "C", Count: 2},
	}})
	series, err := svc.ShareByTestName(context.Background())
	if err != nil {
		t.Fatalf("ShareByTestName: %v", err)
	}
	var sum float64
	for _, v := range series.Data {
		sum += v
	}
	if sum < 99.99 || sum > 100.01 {
		t.Errorf("shares sum to %v, want 100", sum)
	}
}

func TestShareByTestName_EmptyStoreAllZero(t *testing.T) {
	svc := newTestService(&fakeRepo{})
	series, err := svc.ShareByTestName(context.Background())
	if err != nil {
		t.Fatalf("ShareByTestName: %v", err)
	}
	if len(series.Data) != 0 {
		t.Errorf("expected empty series, got %v", series.Data)
	}
}

func TestStaffTestShare_ZeroTotal(t *testing.T) {
	svc := newTestService(&fakeRepo{staffStats: []StaffStat{
		{ID: 1, Name: "Luis", Surname: "Pérez"},
		{ID: 2, Name: "Eva", Surname: "Ruiz"},
	}})
	series, err := svc.StaffTestShare(context.Background())
	if err != nil {
		t.Fatalf("StaffTestShare: %v", err)
	}
	for _, v := range series.Data {
		if v != 0 {
			t.Errorf("share = %v, want all zero when no tests", series.Data)
			break
		}
	}
}

func TestStaffAvgTurnaround_DiscardsFraction(t *testing.T) {
	svc := newTestService(&fakeRepo{staffStats: []StaffStat{
		{ID: 1, Name: "Luis", AvgTurnaroundDays: fptr(3.9)},
		{ID: 2, Name: "Eva"},
	}})
	series, err := svc.StaffAvgTurnaround(context.Background())
	if err != nil {
		t.Fatalf("StaffAvgTurnaround: %v", err)
	}
	if series.Data[0] != 3 {
		t.Errorf("turnaround = %v, want 3 (fraction discarded)", series.Data[0])
	}
	if series.Data[1] != 0 {
		t.Errorf("no-test staff turnaround = %v, want 0", series.Data[1])
	}
}

func TestStaffAvgRating_Labels(t *testing.T) {
	svc := newTestService(&fakeRepo{staffStats: []StaffStat{
		{ID: 1, Name: "Luis", Surname: "Pérez", AvgRating: fptr(7.5)},
	}})
	series, err := svc.StaffAvgRating(context.Background())
	if err != nil {
		t.Fatalf("StaffAvgRating: %v", err)
	}
	if series.Labels[0] != "Luis Pérez" {
		t.Errorf("label = %q, want full name", series.Labels[0])
	}
}

func TestTestsByAge_ZeroFillsObservedRange(t *testing.T) {
	svc := newTestService(&fakeRepo{countByClientAge: []ValueCount{
		{Value: 30, Count: 2},
		{Value: 33, Count: 1},
	}})
	series, err := svc.TestsByAge(context.Background())
	if err != nil {
		t.Fatalf("TestsByAge: %v", err)
	}
	want := []string{"30", "31", "32", "33"}
	if len(series.Labels) != len(want) {
		t.Fatalf("labels = %v, want %v", series.Labels, want)
	}
	for i, l := range want {
		if series.Labels[i] != l {
			t.Errorf("label[%d] = %q, want %q", i, series.Labels[i], l)
		}
	}
	if series.Data[1] != 0 || series.Data[2] != 0 {
		t.Errorf("gap ages not zero-filled: %v", series.Data)
	}
}

func TestTopAndBottomTests(t *testing.T) {
	repo := &fakeRepo{countByTestName: []NamedCount{
		{Name: "A", Count: 5}, {Name: "B", Count: 1}, {Name: "C", Count: 9},
		{Name: "D", Count: 1}, {Name: "E", Count: 3}, {Name: "F", Count: 7},
	}}
	svc := newTestService(repo)

	top, err := svc.TopTests(context.Background())
	if err != nil {
		t.Fatalf("TopTests: %v", err)
	}
	if len(top) != 5 {
		t.Fatalf("top size = %d, want 5", len(top))
	}
	if top[0].Label != "C" || top[1].Label != "F" {
		t.Errorf("top order wrong: %v", top)
	}

	bottom, err := svc.BottomTests(context.Background())
	if err != nil {
		t.Fatalf("BottomTests: %v", err)
	}
	// B and D tie at 1; store order keeps B first
	if bottom[0].Label != "B" || bottom[1].Label != "D" {
		t.Errorf("tie order wrong: %v", bottom)
	}
}

func TestVolumeByStaffSex_ZeroFills(t *testing.T) {
	svc := newTestService(&fakeRepo{countByStaffSex: map[string]int{"feminine": 4}})
	got, err := svc.VolumeByStaffSex(context.Background())
	if err != nil {
		t.Fatalf("VolumeByStaffSex: %v", err)
	}
	if got["feminine"] != 4 || got["masculine"] != 0 {
		t.Errorf("got %v, want feminine=4 masculine=0", got)
	}
}

func TestTurnaroundByTestName_WholeDays(t *testing.T) {
	svc := newTestService(&fakeRepo{avgTurnaroundByName: []NamedAvg{
		{Name: "Allergy Panel", Avg: 4.75},
	}})
	series, err := svc.TurnaroundByTestName(context.Background())
	if err != nil {
		t.Fatalf("TurnaroundByTestName: %v", err)
	}
	if series.Data[0] != 4 {
		t.Errorf("turnaround = %v, want 4", series.Data[0])
	}
}
