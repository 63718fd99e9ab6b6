package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Freeeeeet/booking_engine/internal/model"
)

const (
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidDate        = "invalid_date"
	codeInvalidStart       = "invalid_start"
	codeInvalidDuration    = "invalid_duration"
	codeTooShort           = "too_short"
	codeTooLong            = "too_long"
	codeOutsideHours       = "outside_operating_hours"
	codeInsufficientLead   = "insufficient_lead_time"
	codeClosedDay          = "closed_day"
	codeNoWindow           = "no_window"
	codeSlotTaken          = "slot_taken"
	codeNotPending         = "not_pending"
	codeNotCancellable     = "not_cancellable"
	codeForbidden          = "forbidden"
	codeNotFound           = "not_found"
	codeStorage            = "storage_unavailable"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{Error: msg, Code: code})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeEngineError maps engine error kinds onto HTTP statuses: 400 for
// validation, 409 for concurrency conflicts, 503 for storage trouble.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrTooShort):
		writeError(w, http.StatusBadRequest, codeTooShort, err.Error())
	case errors.Is(err, model.ErrTooLong):
		writeError(w, http.StatusBadRequest, codeTooLong, err.Error())
	case errors.Is(err, model.ErrOutsideOperatingHours):
		writeError(w, http.StatusBadRequest, codeOutsideHours, err.Error())
	case errors.Is(err, model.ErrInsufficientLeadTime):
		writeError(w, http.StatusBadRequest, codeInsufficientLead, err.Error())
	case errors.Is(err, model.ErrClosedDay):
		writeError(w, http.StatusBadRequest, codeClosedDay, err.Error())
	case errors.Is(err, model.ErrNoWindow):
		writeError(w, http.StatusConflict, codeNoWindow, err.Error())
	case errors.Is(err, model.ErrSlotTaken):
		writeError(w, http.StatusConflict, codeSlotTaken, err.Error())
	case errors.Is(err, model.ErrNotPending):
		writeError(w, http.StatusConflict, codeNotPending, err.Error())
	case errors.Is(err, model.ErrNotCancellable):
		writeError(w, http.StatusConflict, codeNotCancellable, err.Error())
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, model.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeStorage, "storage unavailable, retry with backoff")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
