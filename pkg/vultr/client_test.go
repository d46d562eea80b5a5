package vultr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang-ea-automation/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New("test-key",
		WithBaseURL(srv.URL),
		WithRateLimit(0, 0),
		WithRetry(3, time.Millisecond),
	)
}

func TestCreateInstanceSendsBearerAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/instances", r.URL.Path)

		var body CreateInstanceRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ewr", body.Region)
		assert.Equal(t, 1713, body.OSID)
		assert.Equal(t, "disabled", body.Backups)

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"instance":{"id":"inst-1","status":"pending","main_ip":"0.0.0.0","default_password":"pw"}}`))
	})

	inst, err := c.CreateInstance(context.Background(), CreateInstanceRequest{
		Region: "ewr", Plan: DefaultPlan, OSID: 1713, Backups: "disabled",
	})
	require.NoError(t, err)
	assert.Equal(t, "inst-1", inst.ID)
	assert.False(t, inst.AddressAssigned())
	assert.Equal(t, "pw", inst.DefaultPassword)
}

func TestProviderErrorUsesVendorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid plan","status":400}`))
	})

	_, err := c.CreateInstance(context.Background(), CreateInstanceRequest{})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 400, pe.StatusCode)
	assert.Equal(t, "Invalid plan", pe.Message)
}

func TestProviderErrorFallsBackToStatusText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := c.DeleteInstance(context.Background(), "x")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Vultr API error: 403 Forbidden", pe.Message)
}

func TestDeleteNoContentIsSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/instances/inst-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, c.DeleteInstance(context.Background(), "inst-1"))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"instance":{"id":"inst-1","status":"active","power_status":"running","server_status":"ok","main_ip":"45.1.2.3"}}`))
	})

	inst, err := c.GetInstance(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.True(t, inst.Ready())
	assert.True(t, inst.AddressAssigned())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Invalid instance-id."}`))
	})

	_, err := c.GetInstance(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPostIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.CreateInstance(context.Background(), CreateInstanceRequest{})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	c := New("k", WithBaseURL(srv.URL), WithRateLimit(0, 0), WithRetry(1, time.Millisecond))

	_, err := c.GetInstance(context.Background(), "inst-1")
	assert.True(t, errs.Is(err, errs.CodeUnavailable))
}

func TestMissingAPIKey(t *testing.T) {
	c := New("")
	err := c.DeleteInstance(context.Background(), "x")
	assert.True(t, errs.Is(err, errs.CodeValidation))
}

func TestCatalogFilters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/plans":
			assert.Equal(t, "all", r.URL.Query().Get("type"))
			_, _ = w.Write([]byte(`{"plans":[{"id":"vc2-1c-1gb","ram":1024},{"id":"vc2-1c-2gb","ram":2048}]}`))
		case "/os":
			_, _ = w.Write([]byte(`{"os":[{"id":1713,"name":"Windows 2022","family":"windows"},{"id":1743,"name":"Ubuntu","family":"ubuntu"}]}`))
		case "/account":
			_, _ = w.Write([]byte(`{"account":{"balance":-12.5,"pending_charges":3.1}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	plans, err := c.ListWindowsPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "vc2-1c-2gb", plans[0].ID)

	images, err := c.ListWindowsOS(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, 1713, images[0].ID)

	acct, err := c.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -12.5, acct.Balance)
}
