package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/donasaurs/p2p-market/internal/market"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainErr maps the domain error taxonomy onto HTTP statuses;
// anything unclassified is a 500.
func writeDomainErr(w http.ResponseWriter, log *zap.Logger, err error) {
	var de *market.Error
	if errors.As(err, &de) {
		writeErr(w, statusFor(de.Kind), de.Message)
		return
	}
	log.Error("request failed", zap.Error(err))
	writeErr(w, http.StatusInternalServerError, "internal server error")
}

func statusFor(k market.ErrorKind) int {
	switch k {
	case market.KindNotFound:
		return http.StatusNotFound
	case market.KindForbidden:
		return http.StatusForbidden
	case market.KindConflict:
		return http.StatusConflict
	case market.KindBadRequest:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
