package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/ReportPipe/internal/models"
)

// fallbackBody is sent when a payload cannot be encoded. It is a literal so
// the error path never depends on the encoder.
var fallbackBody = []byte(`{"status":"error","message":"Internal server error"}`)

// writeJSON encodes payload before touching the headers so an encoding
// failure still produces a well-formed 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("api.writeJSON: failed to encode payload", "error", err)
		body, status = fallbackBody, http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("api.writeJSON: failed to write body", "error", err)
	}
}

// writeAck answers a state-changing request with the ok envelope.
func writeAck(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, models.SuccessWithMessage(message, nil))
}

// writeError answers with the error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.Error(message))
}

// writeStoreError maps a report store failure to a status. Unknown report
// IDs are the caller's fault; anything else is logged and hidden behind
// failMessage.
func writeStoreError(w http.ResponseWriter, op string, err error, failMessage string) {
	if errors.Is(err, models.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	slog.Error("api: report store failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, failMessage)
}
