// Package api exposes the ops surface: health, metrics and a manual
// pipeline trigger. There is no tenant-facing HTTP API here.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/lantenhq/reminderd/internal/pipeline"
)

// Trigger runs the pipeline on demand. Implemented by
// scheduler.Scheduler so manual and scheduled runs share one lock.
type Trigger interface {
	RunNow(ctx context.Context) (*pipeline.Report, error)
	LastReport() *pipeline.Report
}

// Handler serves the ops endpoints.
type Handler struct {
	logger  *zap.Logger
	trigger Trigger
}

// NewHandler creates an ops handler.
func NewHandler(logger *zap.Logger, trigger Trigger) *Handler {
	return &Handler{
		logger:  logger,
		trigger: trigger,
	}
}

// TriggerRun starts a pipeline run and returns its report. Intended
// for operators replaying a missed day; the sent-log keeps the replay
// from double-notifying tenants.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("manual reminder run requested",
		zap.String("remote_addr", r.RemoteAddr),
	)

	report, err := h.trigger.RunNow(r.Context())
	if err != nil {
		h.logger.Error("manual reminder run failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// LastReport returns the most recent run's report.
func (h *Handler) LastReport(w http.ResponseWriter, r *http.Request) {
	report := h.trigger.LastReport()
	if report == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no completed runs"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
