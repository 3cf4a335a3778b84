package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/member-auth/internal/auth"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/members/:id", "DELETE", 200, 5*time.Millisecond)
	m.RecordRequest("/api/members/:id", "DELETE", 200, 3*time.Millisecond)
	m.RecordError("/api/members/:id", "DELETE", "FORBIDDEN")
	m.RecordAuthentication(auth.TokenKindAccess)
	m.RecordAuthentication(auth.TokenKindNone)
	m.RecordAuthentication(auth.TokenKindNone)

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.Requests["/api/members/:id|DELETE|200"])
	assert.Equal(t, int64(1), s.Errors["/api/members/:id|DELETE|FORBIDDEN"])
	assert.Equal(t, map[string]int64{"access": 1, "none": 2}, s.Authentication)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordAuthentication(auth.TokenKindRefresh)
	assert.Empty(t, m.Snapshot().Requests)
}
