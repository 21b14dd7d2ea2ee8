package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"radmon-server/internal/metrics"
	"radmon-server/internal/modules/readings/export"
	"radmon-server/internal/modules/readings/service"
	"radmon-server/internal/modules/readings/types"
	"radmon-server/internal/modules/readings/views"
	"radmon-server/internal/utils"
)

func (c *readingsControllerImpl) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	params := r.URL.Query()
	switch service.Classify(params) {
	case service.KindWrite:
		c.handleIngest(w, r, params)
	case service.KindExport:
		c.handleExport(w, r, params)
	default:
		c.handleDashboard(w, r, params)
	}
}

func (c *readingsControllerImpl) handleIngest(w http.ResponseWriter, r *http.Request, params url.Values) {
	clientIP := service.ClientIP(
		r.Header.Get("X-Forwarded-For"),
		r.Header.Get("X-Real-Ip"),
		r.RemoteAddr,
	)

	outcome, err := c.service.Ingest(params, clientIP)
	if err != nil {
		slog.Error("ingest failed", "client_ip", clientIP, "error", err)
		utils.WriteText(w, http.StatusInternalServerError, "ERROR")
		return
	}
	if outcome == service.Forbidden {
		// Expected outcome for unknown devices, not an error.
		slog.Info("device rejected by allow-list", "client_ip", clientIP)
		metrics.ReadingsRejected.Inc()
		utils.WriteText(w, http.StatusForbidden, "FORBIDDEN")
		return
	}
	metrics.ReadingsIngested.Inc()
	utils.WriteText(w, http.StatusOK, "OK")
}

func (c *readingsControllerImpl) handleExport(w http.ResponseWriter, r *http.Request, params url.Values) {
	format, ok := export.ParseFormat(params.Get("export"))
	if !ok {
		// Classifier guarantees a recognized selector; keep a guard anyway.
		utils.WriteError(w, http.StatusBadRequest, "unknown export format")
		return
	}
	filter := service.ParseDateRange(params.Get("f_timestamp_from"), params.Get("f_timestamp_to"))

	// Export is uncapped, unlike the dashboard table.
	rows, err := c.repository.List(filter, 0)
	if err != nil {
		slog.Error("export: list readings failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", format.Filename(time.Now())))
	if err := export.Write(w, format, rows); err != nil {
		slog.Error("export: write failed", "format", format, "error", err)
		return
	}
	metrics.Exports.WithLabelValues(string(format)).Inc()
}

func (c *readingsControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request, params url.Values) {
	filter := service.ParseDateRange(params.Get("f_timestamp_from"), params.Get("f_timestamp_to"))
	bucket := types.ParseBucket(params.Get("bucket"))

	series, err := c.service.Aggregate(filter, bucket)
	if err != nil {
		slog.Error("dashboard: aggregate failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to aggregate readings")
		return
	}
	rows, err := c.repository.List(filter, viewRowLimit)
	if err != nil {
		slog.Error("dashboard: list readings failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}

	seriesJSON, err := json.Marshal(series)
	if err != nil {
		slog.Error("dashboard: encode series failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}

	data := views.DashboardData{
		Theme:      parseTheme(params.Get("theme")),
		Buckets:    bucketOptions(bucket),
		From:       formatBound(filter.From),
		To:         formatBound(filter.To),
		SeriesJSON: template.JS(seriesJSON),
		Rows:       viewRows(rows),
		RowLimit:   viewRowLimit,
	}

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, data); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("dashboard: write response failed", "error", err)
	}
}
