package reporting

import (
	"context"
	"sort"
	"strconv"
	"time"
)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

const rankingSize = 5

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CategoryShare counts tests per category name, most requested first.
func (s *Service) CategoryShare(ctx context.Context) (*Series, error) {
	counts, err := s.repo.CountByCategory(ctx)
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

// SatisfactionIndex is the overall average rating rounded to two
// decimals; an empty store yields 0, never an error.
func (s *Service) SatisfactionIndex(ctx context.Context) (float64, error) {
	avg, err := s.repo.AvgRating(ctx)
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return round2(*avg), nil
}

// SatisfactionBySex splits the average rating by client sex; both sexes
// are always present, 0 when absent.
func (s *Service) SatisfactionBySex(ctx context.Context) (map[string]float64, error) {
	bySex, err := s.repo.AvgRatingBySex(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]float64{"masculine": 0, "feminine": 0}
	for sex, avg := range bySex {
		out[sex] = round2(avg)
	}
	return out, nil
}

// RatingDistribution counts tests per rating value, rating ascending.
func (s *Service) RatingDistribution(ctx context.Context) (*Series, error) {
	counts, err := s.repo.CountByRating(ctx)
	if err != nil {
		return nil, err
	}
	out := emptySeries()
	for _, vc := range counts {
		out.Labels = append(out.Labels, strconv.Itoa(vc.Value))
		out.Data = append(out.Data, float64(vc.Count))
	}
	return out, nil
}

// StaffTestCounts counts tests handled per staff member.
func (s *Service) StaffTestCounts(ctx context.Context) (*Series, error) {
	stats, err := s.repo.StaffStats(ctx)
	if err != nil {
		return nil, err
	}
	out := emptySeries()
	for _, st := range stats {
		out.Labels = append(out.Labels, st.Name)
		out.Data = append(out.Data, float64(st.TestCount))
	}
	return out, nil
}

// StaffTestShare expresses each staff member's workload as a percent of
// the total; all zeros when there are no tests.
func (s *Service) StaffTestShare(ctx context.Context) (*Series, error) {
	stats, err := s.repo.StaffStats(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, st := range stats {
		total += st.TestCount
	}
	out := emptySeries()
	for _, st := range stats {
		share := 0.0
		if total > 0 {
			share = float64(st.TestCount) / float64(total) * 100
		}
		out.Labels = append(out.Labels, st.Name)
		out.Data = append(out.Data, share)
	}
	return out, nil
}

// StaffAvgTurnaround reports each staff member's average turnaround in
// whole days, fractional remainder discarded; 0 without tests.
func (s *Service) StaffAvgTurnaround(ctx context.Context) (*Series, error) {
	stats, err := s.repo.StaffStats(ctx)
	if err != nil {
		return nil, err
	}
	out := emptySeries()
	for _, st := range stats {
		days := 0
		if st.AvgTurnaroundDays != nil {
			days = int(*st.AvgTurnaroundDays)
		}
		out.Labels = append(out.Labels, st.Name)
		out.Data = append(out.Data, float64(days))
	}
	return out, nil
}

// StaffAvgRating reports each staff member's average rating under a
// "name surname" label; 0 without tests.
func (s *Service) StaffAvgRating(ctx context.Context) (*Series, error) {
	stats, err := s.repo.StaffStats(ctx)
	if err != nil {
		return nil, err
	}
	out := emptySeries()
	for _, st := range stats {
		avg := 0.0
		if st.AvgRating != nil {
			avg = *st.AvgRating
		}
		out.Labels = append(out.Labels, st.Name+" "+st.Surname)
		out.Data = append(out.Data, avg)
	}
	return out, nil
}

// TurnaroundByTestName reports average turnaround in whole days per test
// name, name ascending.
func (s *Service) TurnaroundByTestName(ctx context.Context) (*Series, error) {
	avgs, err := s.repo.AvgTurnaroundByName(ctx)
	if err != nil {
		return nil, err
	}
	out := emptySeries()
	for _, na := range avgs {
		out.Labels = append(out.Labels, na.Name)
		out.Data = append(out.Data, float64(int(na.Avg)))
	}
	return out, nil
}

// MonthlyVolume counts this year's tests per month: always 12 entries,
// January through December, zero-filled.
func (s *Service) MonthlyVolume(ctx context.Context) (*Series, error) {
	counts, err := s.repo.CountByMonth(ctx, s.now().Year())
	if err != nil {
		return nil, err
	}
	byMonth := make(map[int]int, len(counts))
	for _, vc := range counts {
		byMonth[vc.Value] = vc.Count
	}
	out := &Series{Labels: make([]string, 12), Data: make([]float64, 12)}
	for m := 1; m <= 12; m++ {
		out.Labels[m-1] = monthNames[m-1]
		out.Data[m-1] = float64(byMonth[m])
	}
	return out, nil
}

// weekWindow is the trailing 7 calendar days inclusive of today.
func (s *Service) weekWindow() []time.Time {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := make([]time.Time, 7)
	for i := 0; i < 7; i++ {
		days[i] = today.AddDate(0, 0, i-6)
	}
	return days
}

// WeeklyVolume counts tests per day over the trailing week: always 7
// entries with YYYY-MM-DD labels, zero-filled.
func (s *Service) WeeklyVolume(ctx context.Context) (*Series, error) {
	days := s.weekWindow()
	counts, err := s.repo.CountByDay(ctx, days[0], days[6])
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]int, len(counts))
	for _, dc := range counts {
		byDay[dc.Day.Format("2006-01-02")] = dc.Count
	}
	out := &Series{Labels: make([]string, 7), Data: make([]float64, 7)}
	for i, day := range days {
		label := day.Format("2006-01-02")
		out.Labels[i] = label
		out.Data[i] = float64(byDay[label])
	}
	return out, nil
}

// WeeklyVolumeByTestName is WeeklyVolume split into one dataset per
// distinct test name observed anywhere in the store, not just in the
// window.
func (s *Service) WeeklyVolumeByTestName(ctx context.Context) (*MultiSeries, error) {
	days := s.weekWindow()
	names, err := s.repo.DistinctTestNames(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByDayAndName(ctx, days[0], days[6])
	if err != nil {
		return nil, err
	}

	byNameDay := make(map[string]map[string]int)
	for _, ndc := range counts {
		day := ndc.Day.Format("2006-01-02")
		if byNameDay[ndc.Name] == nil {
			byNameDay[ndc.Name] = make(map[string]int)
		}
		byNameDay[ndc.Name][day] = ndc.Count
	}

	out := &MultiSeries{Labels: make([]string, 7), Datasets: []Dataset{}}
	for i, day := range days {
		out.Labels[i] = day.Format("2006-01-02")
	}
	for _, name := range names {
		ds := Dataset{Label: name, Data: make([]float64, 7)}
		for i, label := range out.Labels {
			ds.Data[i] = float64(byNameDay[name][label])
		}
		out.Datasets = append(out.Datasets, ds)
	}
	return out, nil
}

// ShareByTestName expresses each test name's volume as a percent of the
// total; all zeros when the store is empty.
func (s *Service) ShareByTestName(ctx context.Context) (*Series, error) {
	counts, err := s.repo.CountByTestName(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, nc := range counts {
		total += nc.Count
	}
	out := emptySeries()
	for _, nc := range counts {
		share := 0.0
		if total > 0 {
			share = float64(nc.Count) / float64(total) * 100
		}
		out.Labels = append(out.Labels, nc.Name)
		out.Data = append(out.Data, share)
	}
	return out, nil
}

// VolumeByStaffSex counts tests by the handling staff member's sex;
// both sexes always present, zero-filled.
func (s *Service) VolumeByStaffSex(ctx context.Context) (map[string]int, error) {
	bySex, err := s.repo.CountByStaffSex(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]int{"masculine": 0, "feminine": 0}
	for sex, count := range bySex {
		out[sex] = count
	}
	return out, nil
}

// TestsByClientSex counts tests by the requesting client's sex, labels
// as observed in the store.
func (s *Service) TestsByClientSex(ctx context.Context) (*Series, error) {
	counts, err := s.repo.CountByClientSex(ctx)
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

// TestsByAge counts tests per client age (current year minus birth
// year), zero-filled across the full observed age range.
func (s *Service) TestsByAge(ctx context.Context) (*Series, error) {
	counts, err := s.repo.CountByClientAge(ctx, s.now().Year())
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return emptySeries(), nil
	}
	byAge := make(map[int]int, len(counts))
	minAge, maxAge := counts[0].Value, counts[0].Value
	for _, vc := range counts {
		byAge[vc.Value] = vc.Count
		if vc.Value < minAge {
			minAge = vc.Value
		}
		if vc.Value > maxAge {
			maxAge = vc.Value
		}
	}
	out := emptySeries()
	for age := minAge; age <= maxAge; age++ {
		out.Labels = append(out.Labels, strconv.Itoa(age))
		out.Data = append(out.Data, float64(byAge[age]))
	}
	return out, nil
}

// TestsByAgeAndName cross-tabulates test counts by client age and test
// name: one dataset per name over the observed ages.
func (s *Service) TestsByAgeAndName(ctx context.Context) (*MultiSeries, error) {
	counts, err := s.repo.CountByClientAgeAndName(ctx, s.now().Year())
	if err != nil {
		return nil, err
	}

	ageSet := map[int]bool{}
	nameSet := map[string]bool{}
	byNameAge := make(map[string]map[int]int)
	for _, anc := range counts {
		ageSet[anc.Age] = true
		nameSet[anc.Name] = true
		if byNameAge[anc.Name] == nil {
			byNameAge[anc.Name] = make(map[int]int)
		}
		byNameAge[anc.Name][anc.Age] = anc.Count
	}

	ages := make([]int, 0, len(ageSet))
	for age := range ageSet {
		ages = append(ages, age)
	}
	sort.Ints(ages)
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &MultiSeries{Labels: []string{}, Datasets: []Dataset{}}
	for _, age := range ages {
		out.Labels = append(out.Labels, strconv.Itoa(age))
	}
	for _, name := range names {
		ds := Dataset{Label: name, Data: make([]float64, len(ages))}
		for i, age := range ages {
			ds.Data[i] = float64(byNameAge[name][age])
		}
		out.Datasets = append(out.Datasets, ds)
	}
	return out, nil
}

// TopTests ranks the five most requested test names; ties keep the
// store's stable order.
func (s *Service) TopTests(ctx context.Context) ([]NamedValue, error) {
	return s.rankTests(ctx, true)
}

// BottomTests ranks the five least requested test names.
func (s *Service) BottomTests(ctx context.Context) ([]NamedValue, error) {
	return s.rankTests(ctx, false)
}

func (s *Service) rankTests(ctx context.Context, top bool) ([]NamedValue, error) {
	counts, err := s.repo.CountByTestName(ctx)
	if err != nil {
		return nil, err
	}
	// counts arrive in stable store order; a stable sort keeps that
	// order among ties.
	sort.SliceStable(counts, func(i, j int) bool {
		if top {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Count < counts[j].Count
	})
	if len(counts) > rankingSize {
		counts = counts[:rankingSize]
	}
	out := []NamedValue{}
	for _, nc := range counts {
		out = append(out, NamedValue{Label: nc.Name, Value: float64(nc.Count)})
	}
	return out, nil
}
