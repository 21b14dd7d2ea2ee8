package service

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"radmon-server/internal/allowlist"
	"radmon-server/internal/modules/readings/types"
)

type mockRepo struct {
	inserted   []types.Reading
	insertErr  error
	rows       []types.Reading
	listErr    error
	lastFilter types.DateRange
	lastLimit  int
}

func (m *mockRepo) Insert(r types.Reading) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.inserted = append(m.inserted, r)
	return int64(len(m.inserted)), nil
}

func (m *mockRepo) List(filter types.DateRange, limit int) ([]types.Reading, error) {
	m.lastFilter = filter
	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.rows, nil
}

func allowAll(t *testing.T) *allowlist.Authorizer {
	t.Helper()
	a := allowlist.New("", nil)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func newTestService(t *testing.T, repo *mockRepo, auth *allowlist.Authorizer, now time.Time) *Service {
	t.Helper()
	s := NewService(repo, auth)
	s.now = func() time.Time { return now }
	return s
}

func TestIngest_DefaultsAbsentFields(t *testing.T) {
	repo := &mockRepo{}
	now := time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)
	s := newTestService(t, repo, allowAll(t), now)

	outcome, err := s.Ingest(url.Values{"CPM": {"18"}}, "203.0.113.9")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if outcome != Accepted {
		t.Fatalf("outcome = %v, want Accepted", outcome)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d rows, want 1", len(repo.inserted))
	}

	got := repo.inserted[0]
	if got.DeviceID != "UNKNOWN" {
		t.Errorf("DeviceID = %q, want UNKNOWN", got.DeviceID)
	}
	if got.CPM != "18" || got.ACPM != "0" || got.USV != "0.0" || got.Dose != "0" {
		t.Errorf("telemetry = (%q, %q, %q, %q), want (18, 0, 0.0, 0)",
			got.CPM, got.ACPM, got.USV, got.Dose)
	}
	if !got.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want receipt instant %v", got.Timestamp, now)
	}
	if got.ClientIP != "203.0.113.9" {
		t.Errorf("ClientIP = %q", got.ClientIP)
	}
	if got.RawData != `{"CPM":"18"}` {
		t.Errorf("RawData = %q, want {\"CPM\":\"18\"}", got.RawData)
	}
}

func TestIngest_DeviceAliasPriority(t *testing.T) {
	tests := []struct {
		name   string
		params url.Values
		want   string
	}{
		{"ID wins over aid", url.Values{"ID": {"primary"}, "aid": {"secondary"}}, "primary"},
		{"empty ID falls through to gid", url.Values{"ID": {""}, "gid": {"fallback"}}, "fallback"},
		{"gid alone", url.Values{"gid": {"solo"}}, "solo"},
		{"nothing present", url.Values{"CPM": {"1"}}, "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			s := newTestService(t, repo, allowAll(t), time.Now())
			if _, err := s.Ingest(tt.params, "UNKNOWN"); err != nil {
				t.Fatalf("Ingest: %v", err)
			}
			if repo.inserted[0].DeviceID != tt.want {
				t.Errorf("DeviceID = %q, want %q", repo.inserted[0].DeviceID, tt.want)
			}
		})
	}
}

func TestIngest_USVAliasSpellings(t *testing.T) {
	for _, key := range []string{"USV", "uSV", "uSv", "usv"} {
		repo := &mockRepo{}
		s := newTestService(t, repo, allowAll(t), time.Now())
		if _, err := s.Ingest(url.Values{"CPM": {"1"}, key: {"0.25"}}, "UNKNOWN"); err != nil {
			t.Fatalf("Ingest with %s: %v", key, err)
		}
		if repo.inserted[0].USV != "0.25" {
			t.Errorf("USV via %s = %q, want 0.25", key, repo.inserted[0].USV)
		}
	}
}

func TestIngest_RawDataIsEmptyObjectForBareParams(t *testing.T) {
	repo := &mockRepo{}
	s := newTestService(t, repo, allowAll(t), time.Now())

	if _, err := s.Ingest(url.Values{}, "UNKNOWN"); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if repo.inserted[0].RawData != "{}" {
		t.Errorf("RawData = %q, want {}", repo.inserted[0].RawData)
	}
}

func TestIngest_AllowListGate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devices.txt")
	if err := os.WriteFile(path, []byte("# permitted devices\nABC123\n"), 0o644); err != nil {
		t.Fatalf("write allow-list: %v", err)
	}
	auth := allowlist.New(path, nil)
	t.Cleanup(func() { _ = auth.Close() })

	t.Run("case-insensitive match accepted", func(t *testing.T) {
		repo := &mockRepo{}
		s := newTestService(t, repo, auth, time.Now())
		outcome, err := s.Ingest(url.Values{"ID": {"abc123"}, "CPM": {"18"}}, "UNKNOWN")
		if err != nil {
			t.Fatalf("Ingest: %v", err)
		}
		if outcome != Accepted {
			t.Errorf("outcome = %v, want Accepted", outcome)
		}
		if len(repo.inserted) != 1 {
			t.Errorf("inserted %d rows, want 1", len(repo.inserted))
		}
	})

	t.Run("unlisted device writes nothing", func(t *testing.T) {
		repo := &mockRepo{}
		s := newTestService(t, repo, auth, time.Now())
		outcome, err := s.Ingest(url.Values{"ID": {"xyz999"}, "CPM": {"9000"}}, "UNKNOWN")
		if err != nil {
			t.Fatalf("Ingest: %v", err)
		}
		if outcome != Forbidden {
			t.Errorf("outcome = %v, want Forbidden", outcome)
		}
		if len(repo.inserted) != 0 {
			t.Errorf("inserted %d rows, want 0", len(repo.inserted))
		}
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name         string
		forwardedFor string
		realIP       string
		remoteAddr   string
		want         string
	}{
		{"forwarded first token wins", "203.0.113.9, 10.0.0.1", "198.51.100.2", "192.0.2.1:4444", "203.0.113.9"},
		{"bad forwarded falls to real ip", "not-an-ip", "198.51.100.2", "192.0.2.1:4444", "198.51.100.2"},
		{"remote addr host used last", "", "", "192.0.2.1:4444", "192.0.2.1"},
		{"remote addr without port", "", "", "192.0.2.1", "192.0.2.1"},
		{"ipv6 remote addr", "", "", "[2001:db8::1]:4444", "2001:db8::1"},
		{"nothing validates", "garbage", "also-garbage", "unix-socket", "UNKNOWN"},
		{"all empty", "", "", "", "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClientIP(tt.forwardedFor, tt.realIP, tt.remoteAddr)
			if got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
