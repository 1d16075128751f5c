package pipeline

import (
	"sync"
	"time"

	"teetimes-backend/internal/components/telemetry"
	"teetimes-backend/internal/teetime"
)

// RunStatistics accumulates what one run did. It is safe for concurrent use
// while the run is in progress and is read-only once Run returns.
type RunStatistics struct {
	StartedAt time.Time
	Duration  time.Duration
	Dates     []string

	CoursesScraped     int
	CoursesFailed      int
	// CoursesInterrupted were cancelled before their date loop finished.
	CoursesInterrupted int
	UnitsFailed        int
	UnitsSkipped       int
	TotalTeeTimes      int

	PerCourse map[string]int
	PerDate   map[string]int
	PerSource map[string]int

	mutex sync.Mutex
}

func newRunStatistics(startedAt time.Time, dates []string) *RunStatistics {
	return &RunStatistics{
		StartedAt: startedAt,
		Dates:     dates,
		PerCourse: map[string]int{},
		PerDate:   map[string]int{},
		PerSource: map[string]int{},
	}
}

func (s *RunStatistics) courseStarted(courseID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.PerCourse[courseID]; !ok {
		s.PerCourse[courseID] = 0
	}
}

func (s *RunStatistics) courseDone(failed bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if failed {
		s.CoursesFailed++
		return
	}
	s.CoursesScraped++
}

func (s *RunStatistics) courseInterrupted() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.CoursesInterrupted++
}

func (s *RunStatistics) unitDone(key teetime.Key, written int, failed, skipped bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if failed {
		s.UnitsFailed++
	}
	if skipped {
		s.UnitsSkipped++
	}
	s.TotalTeeTimes += written
	s.PerCourse[key.CourseID] += written
	s.PerDate[key.Date] += written
	s.PerSource[key.Source] += written
}

func (s *RunStatistics) finish(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Duration = now.Sub(s.StartedAt)
}

// Report emits the run totals as counts.
func (s *RunStatistics) Report(tel telemetry.API) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	tel.ReportCount("run.courses_scraped", int64(s.CoursesScraped))
	tel.ReportCount("run.courses_failed", int64(s.CoursesFailed))
	tel.ReportCount("run.courses_interrupted", int64(s.CoursesInterrupted))
	tel.ReportCount("run.units_failed", int64(s.UnitsFailed))
	tel.ReportCount("run.tee_times", int64(s.TotalTeeTimes))
}
