package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/bingopot/internal/api/handler"
	"github.com/mcoot/bingopot/internal/api/response"
	"github.com/mcoot/bingopot/internal/dependencies/mocks"
	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/services/registry"
	"github.com/mcoot/bingopot/internal/storage"
	"github.com/mcoot/bingopot/internal/storage/memory"
	"github.com/mcoot/bingopot/internal/testutil"
)

// unreachableStorage fails every ID lookup, as a dropped Redis connection would
type unreachableStorage struct {
	storage.Storage
}

func (unreachableStorage) LatestGameID(ctx context.Context) (model.GameID, error) {
	return 0, errors.New("dial tcp: connection refused")
}

func serveHealth(t *testing.T, store storage.Storage) (*httptest.ResponseRecorder, response.Health) {
	t.Helper()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := mocks.NewMockClock(now)
	reg := registry.New(store, clk, registry.DefaultConfig(), testutil.NopLogger())
	h := handler.NewHealthHandler(reg, clk, testutil.NopLogger(), "redis", "postgres")

	rr := httptest.NewRecorder()
	h.Get(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var health response.Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health), rr.Body.String())
	return rr, health
}

func TestHealthReportsBackends(t *testing.T) {
	rr, health := serveHealth(t, memory.New())

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "redis", health.Storage)
	assert.Equal(t, "postgres", health.Bank)
	assert.Zero(t, health.LatestGameID)
	assert.Empty(t, health.Error)
}

func TestHealthUnavailableWhenStorageFails(t *testing.T) {
	rr, health := serveHealth(t, unreachableStorage{Storage: memory.New()})

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "unavailable", health.Status)
	assert.Equal(t, "redis", health.Storage)
	assert.Contains(t, health.Error, "connection refused")
}
