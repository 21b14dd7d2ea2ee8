// Package service implements the ingestion-and-query engine: request
// classification, parameter normalization, the device allow-list gate,
// date-range filtering and chart aggregation.
package service

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"radmon-server/internal/allowlist"
	"radmon-server/internal/modules/readings/repository"
	"radmon-server/internal/modules/readings/types"
)

// Outcome is the result of one ingestion attempt.
type Outcome int

const (
	Accepted Outcome = iota
	Forbidden
)

// Alias lists are tried in order; the first present non-empty value wins.
var (
	deviceAliases = []string{"ID", "id", "AID", "aid", "GID", "gid"}
	cpmAliases    = []string{"CPM", "cpm"}
	acpmAliases   = []string{"ACPM", "acpm"}
	usvAliases    = []string{"USV", "uSV", "uSv", "usv"}
	doseAliases   = []string{"dose", "DOSE"}
)

type Service struct {
	repo repository.ReadingRepository
	auth *allowlist.Authorizer

	// now is swapped out by tests.
	now func() time.Time
}

func NewService(repo repository.ReadingRepository, auth *allowlist.Authorizer) *Service {
	return &Service{repo: repo, auth: auth, now: time.Now}
}

// Ingest normalizes one write request and persists it. Telemetry fields keep
// whatever text the device sent; absent fields get their documented defaults.
// The timestamp is the receipt instant, never device-supplied time. Exactly
// one row is written for an Accepted outcome, none otherwise.
func (s *Service) Ingest(params url.Values, clientIP string) (Outcome, error) {
	deviceID := firstOf(params, deviceAliases, "UNKNOWN")

	allowed, err := s.auth.IsAllowed(deviceID)
	if err != nil {
		return Forbidden, fmt.Errorf("allow-list check: %w", err)
	}
	if !allowed {
		return Forbidden, nil
	}

	reading := types.Reading{
		Timestamp: s.now().UTC(),
		DeviceID:  deviceID,
		CPM:       firstOf(params, cpmAliases, "0"),
		ACPM:      firstOf(params, acpmAliases, "0"),
		USV:       firstOf(params, usvAliases, "0.0"),
		Dose:      firstOf(params, doseAliases, "0"),
		RawData:   serializeParams(params),
		ClientIP:  clientIP,
	}

	if _, err := s.repo.Insert(reading); err != nil {
		return Forbidden, err
	}
	return Accepted, nil
}

func firstOf(params url.Values, aliases []string, fallback string) string {
	for _, k := range aliases {
		if vs, ok := params[k]; ok && len(vs) > 0 && vs[0] != "" {
			return vs[0]
		}
	}
	return fallback
}

// serializeParams snapshots the full parameter map for audit/replay. First
// value per key; always a valid JSON object, {} for a bare request.
func serializeParams(params url.Values) string {
	snapshot := make(map[string]string, len(params))
	for k, vs := range params {
		if len(vs) > 0 {
			snapshot[k] = vs[0]
		} else {
			snapshot[k] = ""
		}
	}
	b, err := json.Marshal(snapshot)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ClientIP picks the best-effort originating address: first comma-separated
// token of the forwarded header, then the client-IP header, then the direct
// connection address. First candidate that parses as an IP wins.
func ClientIP(forwardedFor, realIP, remoteAddr string) string {
	var candidates []string
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		candidates = append(candidates, first)
	}
	if realIP != "" {
		candidates = append(candidates, realIP)
	}
	if remoteAddr != "" {
		host := remoteAddr
		if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
			host = h
		}
		candidates = append(candidates, host)
	}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if net.ParseIP(c) != nil {
			return c
		}
	}
	return "UNKNOWN"
}
