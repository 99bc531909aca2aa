package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamadhk7/3D-AR-GENERATOR/generation"
	"github.com/hamadhk7/3D-AR-GENERATOR/ledger"
	"github.com/hamadhk7/3D-AR-GENERATOR/types"
)

func TestCreditsHandler(t *testing.T) {
	svc := &fakeService{
		snapshot: &ledger.Snapshot{
			SchemaVersion: ledger.SchemaVersion,
			FreeBalance:   5219,
			TotalConsumed: 1,
			LastUpdated:   time.Now(),
		},
	}
	h := NewCreditsHandler(svc, zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleCredits(w, httptest.NewRequest(http.MethodGet, "/api/credits", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(5219), data["free_balance"])
	assert.Equal(t, float64(1), data["total_consumed"])
	assert.Equal(t, "local", data["source"])
}

func TestConvertHandler(t *testing.T) {
	svc := &fakeService{
		convertJob: &generation.ConvertJob{
			JobID:   "convert_1234",
			Message: "format conversion is not implemented; request acknowledged",
		},
	}
	h := NewConvertHandler(svc, zap.NewNop())

	w := postJSON(t, h.HandleConvert, `{"model_id":"tripo_abc123","target_format":"usdz"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "convert_1234", data["job_id"])
}

func TestConvertHandler_UnknownModel(t *testing.T) {
	svc := &fakeService{
		convertErr: types.NewError(types.ErrNotFound, "model not found"),
	}
	h := NewConvertHandler(svc, zap.NewNop())

	w := postJSON(t, h.HandleConvert, `{"model_id":"tripo_nope","target_format":"glb"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
