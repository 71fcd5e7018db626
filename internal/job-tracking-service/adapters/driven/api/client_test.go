package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mechanic-setu/internal/config"
	"mechanic-setu/internal/job-tracking-service/core/domain/dto"
	"mechanic-setu/internal/mylogger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&config.APIconfig{
		BaseURL:        srv.URL,
		RequestTimeout: 2 * time.Second,
	}, mylogger.NewWithWriter(mylogger.LevelError, io.Discard))
}

func TestFetchWSToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/core/ws-token/", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"ws_token": "abc.def.ghi"})
	}))

	token, err := client.FetchWSToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestFetchWSTokenEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"ws_token": ""})
	}))

	_, err := client.FetchWSToken(context.Background())
	assert.Error(t, err)
}

func TestCreateRequest(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/jobs/CreateServiceRequest/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req dto.CreateServiceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "car", req.VehicleType)
		assert.Equal(t, "Puncture Repair", req.Problem)

		// The backend sends the id as a bare number.
		w.Write([]byte(`{"request_id": 1042, "message": "created"}`))
	}))

	id, err := client.CreateRequest(context.Background(), dto.CreateServiceRequest{
		VehicleType: "car",
		Problem:     "Puncture Repair",
		Location:    "SG Highway",
	})
	require.NoError(t, err)
	assert.Equal(t, "1042", id)
}

func TestCancelRequest(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/jobs/CancelServiceRequest/1042/", r.URL.Path)

		var req dto.CancelServiceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Changed my mind", req.CancellationReason)

		w.WriteHeader(http.StatusOK)
	}))

	err := client.CancelRequest(context.Background(), "1042", "Changed my mind")
	assert.NoError(t, err)
}

func TestStatusErrorCarriesServerMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Job is already in progress"})
	}))

	err := client.CancelRequest(context.Background(), "1042", "Changed my mind")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "Job is already in progress", statusErr.ServerMessage())
}

func TestStatusErrorWithoutBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.FetchWSToken(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "api responded 500", statusErr.Error())
}
