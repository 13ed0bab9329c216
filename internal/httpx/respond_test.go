package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/donasaurs/p2p-market/internal/market"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(market.KindNotFound))
	assert.Equal(t, http.StatusForbidden, statusFor(market.KindForbidden))
	assert.Equal(t, http.StatusConflict, statusFor(market.KindConflict))
	assert.Equal(t, http.StatusBadRequest, statusFor(market.KindBadRequest))
}

func TestWriteDomainErr(t *testing.T) {
	t.Run("domain error keeps its message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeDomainErr(rec, zap.NewNop(), &market.Error{
			Kind:    market.KindConflict,
			Message: "listing is not available for reservation",
		})

		assert.Equal(t, http.StatusConflict, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "listing is not available for reservation", body["error"])
	})

	t.Run("infra error is a masked 500", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeDomainErr(rec, zap.NewNop(), errors.New("connection refused"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotContains(t, body["error"], "connection refused")
	})
}
