package observability

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// Metrics provides in-memory request and error counters. Counters are keyed
// by route label, not raw path: account-specific segments are collapsed so
// usernames do not blow up counter cardinality.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	totalDuration map[string]time.Duration
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		totalDuration: make(map[string]time.Duration),
	}
}

// RecordRequest counts a completed request under its route label.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := requestKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.totalDuration[key] += duration
}

// RecordError counts a failed request under its route label and error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := routeLabel(path) + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RequestCount reports how many requests were recorded for the label the
// given path collapses to.
func (m *Metrics) RequestCount(path, method string, status int) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount[requestKey(path, method, status)]
}

// ErrorCount reports recorded errors for a route label and code.
func (m *Metrics) ErrorCount(path, method, code string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorCount[routeLabel(path)+"|"+method+"|"+code]
}

func requestKey(path, method string, status int) string {
	return routeLabel(path) + "|" + method + "|" + strconv.Itoa(status)
}

// routeLabel maps a request path onto its route pattern. Only the user
// endpoints carry a variable segment.
func routeLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) >= 3 && segments[0] == "api" && segments[1] == "users" && segments[2] != "mem" {
		segments[2] = ":username"
	}
	return "/" + strings.Join(segments, "/")
}
