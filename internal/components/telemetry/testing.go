package telemetry

import (
	"fmt"
	"sync"
	"testing"
)

// TestingAPI routes reports to the test log and remembers which ids were
// reported as broken or warnings.
type TestingAPI struct {
	t testing.TB

	mutex    sync.Mutex
	broken   []string
	warnings []string
	counts   map[string]int64
}

func NewTestingAPI(t testing.TB) *TestingAPI {
	return &TestingAPI{t: t, counts: map[string]int64{}}
}

func (a *TestingAPI) ReportBroken(id string, params ...any) {
	a.mutex.Lock()
	a.broken = append(a.broken, id)
	a.mutex.Unlock()
	a.t.Log(fmt.Sprintf("BROKEN %s", id), params)
}

func (a *TestingAPI) ReportWarning(id string, params ...any) {
	a.mutex.Lock()
	a.warnings = append(a.warnings, id)
	a.mutex.Unlock()
	a.t.Log(fmt.Sprintf("WARN %s", id), params)
}

func (a *TestingAPI) ReportDebug(msg string, params ...any) {
	a.t.Log(fmt.Sprintf("DEBUG %s", msg), params)
}

func (a *TestingAPI) ReportCount(id string, count int64) {
	a.mutex.Lock()
	a.counts[id] = count
	a.mutex.Unlock()
}

// Broken returns the ids reported with ReportBroken so far.
func (a *TestingAPI) Broken() []string {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return append([]string(nil), a.broken...)
}

func (a *TestingAPI) Warnings() []string {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return append([]string(nil), a.warnings...)
}

func (a *TestingAPI) Count(id string) int64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.counts[id]
}
