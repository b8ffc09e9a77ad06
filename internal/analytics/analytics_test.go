package analytics

import (
	"testing"
	"time"

	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/test"
)

var now = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

func job(id string, st domain.Stage, changedDaysAgo int) domain.Job {
	at := now.Add(-time.Duration(changedDaysAgo) * 24 * time.Hour)
	return domain.NewJob(id, domain.JobInput{Company: id, Status: st, WorkType: domain.WorkRemote}, at)
}

func ptr(t time.Time) *time.Time { return &t }

func TestDaysSince(t *testing.T) {
	t.Parallel()
	test.AssertEquals(t, DaysSince(nil, now), 0)
	test.AssertEquals(t, DaysSince(ptr(now.Add(-47*time.Hour)), now), 1)
	test.AssertEquals(t, DaysSince(ptr(now.Add(-48*time.Hour)), now), 2)
	test.AssertEquals(t, DaysSince(ptr(now.Add(72*time.Hour)), now), 0)
}

func TestFunnelMath(t *testing.T) {
	t.Parallel()
	var jobs []domain.Job
	for i, st := range []domain.Stage{"wishlist", "wishlist", "applied", "hr_interview", "offered", "rejected"} {
		jobs = append(jobs, job(string(rune('a'+i)), st, 1))
	}
	f := ComputeFunnel(jobs, domain.DefaultStages)
	test.AssertEquals(t, f.Total, 6)
	test.AssertEquals(t, f.Applied, 4)
	test.AssertEquals(t, f.Interviewed, 2)
	test.AssertEquals(t, f.Offered, 1)
	test.AssertEquals(t, f.Rejected, 1)
	test.AssertEquals(t, f.OfferRate, 25.0)
	test.AssertEquals(t, f.InterviewRate, 50.0)
	test.AssertEquals(t, f.RejectionRate, 25.0)

	steps := f.Steps()
	test.AssertEquals(t, steps[1].Percent, 66.7)
}

func TestFunnelWithNothingApplied(t *testing.T) {
	t.Parallel()
	f := ComputeFunnel([]domain.Job{job("a", "wishlist", 0)}, domain.DefaultStages)
	test.AssertEquals(t, f.Applied, 0)
	test.AssertEquals(t, f.OfferRate, 0.0)
	test.AssertEquals(t, f.InterviewRate, 0.0)
	f = ComputeFunnel(nil, domain.DefaultStages)
	test.AssertEquals(t, f.Steps()[0].Percent, 0.0)
}

func TestFunnelSplitRejection(t *testing.T) {
	t.Parallel()
	jobs := []domain.Job{
		job("a", "rejected_company", 1),
		job("b", "rejected_applicant", 1),
		job("c", "applied", 1),
	}
	f := ComputeFunnel(jobs, domain.SplitRejectionStages)
	test.AssertEquals(t, f.Rejected, 2)
	test.AssertEquals(t, f.RejectionRate, 66.7)
}

func TestStatusBreakdownListsEveryStage(t *testing.T) {
	t.Parallel()
	out := StatusBreakdown([]domain.Job{job("a", "applied", 0), job("b", "applied", 0), job("c", "offered", 0), job("d", "wishlist", 0)}, domain.DefaultStages)
	test.AssertEquals(t, len(out), domain.DefaultStages.Len())
	test.AssertEquals(t, out[1].Stage, domain.Stage("applied"))
	test.AssertEquals(t, out[1].Count, 2)
	test.AssertEquals(t, out[1].Percent, 50.0)
	test.AssertEquals(t, out[2].Count, 0)
}

func TestWorkTypes(t *testing.T) {
	t.Parallel()
	a, b, c := job("a", "applied", 0), job("b", "applied", 0), job("c", "applied", 0)
	b.WorkType = domain.WorkHybrid
	c.WorkType = domain.WorkOnsite
	out := WorkTypes([]domain.Job{a, b, c, job("d", "applied", 0)})
	test.AssertEquals(t, out[0].WorkType, domain.WorkRemote)
	test.AssertEquals(t, out[0].Count, 2)
	test.AssertEquals(t, out[0].Percent, 50.0)
	test.AssertEquals(t, out[2].Percent, 25.0)
}

func TestStaleDetection(t *testing.T) {
	t.Parallel()
	tech := job("a", "technical_interview", 20)
	offer := job("b", "offered", 20)
	fresh := job("c", "technical_interview", 13)
	test.Assert(t, IsStale(tech, domain.DefaultStages, now, 14), "technical interview after 20 days should be stale")
	test.Assert(t, !IsStale(offer, domain.DefaultStages, now, 14), "offered is never stale")
	test.Assert(t, !IsStale(fresh, domain.DefaultStages, now, 14), "13 days is not stale yet")

	split := job("d", "rejected_applicant", 30)
	test.Assert(t, !IsStale(split, domain.SplitRejectionStages, now, 14), "rejection variants are terminal")

	older := job("e", "applied", 40)
	out := StaleJobs([]domain.Job{tech, offer, fresh, older}, domain.DefaultStages, now, 14)
	test.AssertEquals(t, len(out), 2)
	test.AssertEquals(t, out[0].ID, "e")
}

func TestAverageDays(t *testing.T) {
	t.Parallel()
	a := job("a", "applied", 10)
	b := job("b", "applied", 3)
	c := job("c", "offered", 5)
	c.DateApplied = nil
	test.AssertEquals(t, AveragePipelineDays([]domain.Job{a, b, c}, now), 7)
	test.AssertEquals(t, AveragePipelineDays([]domain.Job{c}, now), 0)

	per := AverageDaysPerStage([]domain.Job{a, b, c}, domain.DefaultStages, now)
	test.AssertEquals(t, per[1].AvgDays, 7)
	test.AssertEquals(t, per[1].Count, 2)
	test.AssertEquals(t, per[5].AvgDays, 5)
	test.AssertEquals(t, per[0].AvgDays, 0)
}

func TestMostActiveWeek(t *testing.T) {
	t.Parallel()
	// 2026-03-01 is a Sunday.
	mk := func(id string, d time.Time) domain.Job {
		j := job(id, "applied", 0)
		j.DateApplied = &d
		return j
	}
	jobs := []domain.Job{
		mk("a", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)),
		mk("b", time.Date(2026, 3, 7, 23, 0, 0, 0, time.UTC)),
		mk("c", time.Date(2026, 3, 8, 1, 0, 0, 0, time.UTC)),
		mk("d", time.Date(2026, 2, 25, 1, 0, 0, 0, time.UTC)),
		mk("e", time.Date(2026, 2, 23, 1, 0, 0, 0, time.UTC)),
	}
	w, ok := MostActiveWeek(jobs)
	test.Assert(t, ok, "expected a week")
	test.AssertEquals(t, w.Count, 2)
	test.Assert(t, w.Start.Equal(time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)), "ties should go to the earliest week, got "+w.Start.String())

	_, ok = MostActiveWeek(nil)
	test.Assert(t, !ok, "empty collection has no week")
}

func TestJobFit(t *testing.T) {
	t.Parallel()
	mk := func(v int) domain.Job {
		j := job("x", "applied", 0)
		j.JobFitPercentage = &v
		return j
	}
	st, ok := JobFit([]domain.Job{mk(80), mk(60), job("none", "applied", 0), mk(75), mk(90)})
	test.Assert(t, ok, "expected stats")
	test.AssertEquals(t, st.Count, 4)
	test.AssertEquals(t, st.Min, 60)
	test.AssertEquals(t, st.Max, 90)
	test.AssertEquals(t, st.Avg, 76)
	test.AssertEquals(t, st.Median, 77.5)

	st, _ = JobFit([]domain.Job{mk(10), mk(30), mk(20)})
	test.AssertEquals(t, st.Median, 20.0)

	_, ok = JobFit([]domain.Job{job("none", "applied", 0)})
	test.Assert(t, !ok, "no fit values")
}

func TestComputeDashboard(t *testing.T) {
	t.Parallel()
	rej := job("r", "rejected", 3)
	rej.Salary = "Rp 15jt - 20jt"
	usd := job("u", "rejected", 3)
	usd.Salary = "$80k - $120k"
	stale := job("s", "applied", 30)
	d := Compute([]domain.Job{rej, usd, stale}, domain.DefaultStages, now, 0)
	test.AssertEquals(t, d.Lost.IDR, 20e6)
	test.AssertEquals(t, d.Lost.USD, 120000.0)
	test.AssertDeepEquals(t, d.LostLabels, []string{"Rp 20Jt", "$120.0K"})
	test.AssertEquals(t, len(d.Stale), 1)
	test.AssertEquals(t, d.Stale[0].Days, 30)
	test.AssertEquals(t, d.Salaries.IDR.Count, 1)
	test.Assert(t, d.JobFit == nil, "no fit data")
	test.Assert(t, d.BusiestWeek != nil, "applied dates default to creation")
}
