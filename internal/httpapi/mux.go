package httpapi

import (
	"database/sql"
	"net/http"

	"radmon-server/internal/metrics"
)

func NewMux(db *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}
