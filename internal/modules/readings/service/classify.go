package service

import (
	"net/url"
	"strings"
)

// RequestKind is what a request wants from the engine, decided before any
// storage access.
type RequestKind int

const (
	KindView RequestKind = iota
	KindWrite
	KindExport
)

// writeKeys is a literal enumerated set of key spellings, matching the
// devices in the field exactly. Other casings such as "Cpm" or "Id" do not
// classify as writes.
var writeKeys = []string{"CPM", "cpm", "ID", "id", "AID", "aid", "GID", "gid"}

// Classify decides whether a request is a telemetry write, an export, or a
// dashboard view. Pure function of the parameter map.
func Classify(params url.Values) RequestKind {
	for _, k := range writeKeys {
		if _, ok := params[k]; ok {
			return KindWrite
		}
	}
	switch strings.ToLower(strings.TrimSpace(params.Get("export"))) {
	case "csv", "xlsx":
		return KindExport
	}
	return KindView
}
