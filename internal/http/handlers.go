package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/idpbridge/internal/bridge"
	"github.com/dropDatabas3/idpbridge/internal/observability/logger"
)

var errPayloadTooLarge = bridge.NewError(bridge.KindInput, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")

type bridgeHandler struct {
	d       *bridge.Dispatcher
	maxBody int64
}

// envelope: POST /v1/bridge, body = {op, payload}.
func (h *bridgeHandler) envelope(w http.ResponseWriter, r *http.Request) {
	raw, berr := h.readBody(w, r)
	if berr != nil {
		writeResponse(w, bridge.Failure(berr))
		return
	}
	req, perr := bridge.ParseRequest(raw)
	if perr != nil {
		logger.From(r.Context()).Debug("bad json", logger.Err(perr.Err))
		writeResponse(w, bridge.Failure(perr))
		return
	}
	writeResponse(w, h.d.Handle(r.Context(), req))
}

// operation: POST /v1/bridge/{op}, body = payload.
func (h *bridgeHandler) operation(w http.ResponseWriter, r *http.Request) {
	raw, berr := h.readBody(w, r)
	if berr != nil {
		writeResponse(w, bridge.Failure(berr))
		return
	}
	var payload any
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			writeResponse(w, bridge.Failure(bridge.ErrBadJSON.WithCause(err)))
			return
		}
	}
	op := bridge.OperationName(chi.URLParam(r, "op"))
	writeResponse(w, h.d.Handle(r.Context(), bridge.NewRequest(op, payload)))
}

func (h *bridgeHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, *bridge.Error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errPayloadTooLarge.WithCause(err)
		}
		return nil, bridge.ErrBadJSON.WithCause(err)
	}
	return raw, nil
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// writeResponse escribe el sobre con el status HTTP de su hint. Las
// respuestas pueden llevar tokens: nunca se cachean.
func writeResponse(w http.ResponseWriter, resp bridge.Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(resp.Status())
	_ = json.NewEncoder(w).Encode(resp)
}
