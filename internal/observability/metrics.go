package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/spec-kit/member-auth/internal/auth"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	authCount    map[auth.TokenKind]int64
}

// Snapshot is a copy of the counters at a point in time.
type Snapshot struct {
	Requests       map[string]int64 `json:"requests"`
	Errors         map[string]int64 `json:"errors"`
	Authentication map[string]int64 `json:"authentication"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		authCount:    make(map[auth.TokenKind]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordAuthentication counts requests by the token kind that authenticated them.
func (m *Metrics) RecordAuthentication(kind auth.TokenKind) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authCount[kind]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Requests:       map[string]int64{},
		Errors:         map[string]int64{},
		Authentication: map[string]int64{},
	}
	if m == nil {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.requestCount {
		s.Requests[k] = v
	}
	for k, v := range m.errorCount {
		s.Errors[k] = v
	}
	for k, v := range m.authCount {
		s.Authentication[k.String()] = v
	}
	return s
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
