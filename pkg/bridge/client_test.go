package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang-ea-automation/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, "bridge-key", opts...)
}

func TestAccountSnapshotDecodesFlatPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bridge-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "/account/extended", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "5001", body["account"])
		assert.Equal(t, "Demo-Server", body["server"])

		_, _ = w.Write([]byte(`{"success":true,"login":5001,"balance":1000.5,"equity":1020.25,"profit":50,
			"open_positions_count":2,"total_lot_size":0.3,"positions_profit":19.75,
			"positions":[{"ticket":1,"symbol":"EURUSD","type":"buy","volume":0.1,"profit":10}]}`))
	})

	snap, err := c.AccountSnapshot(context.Background(), "5001", "Demo-Server")
	require.NoError(t, err)
	assert.Equal(t, int64(5001), snap.Login)
	assert.True(t, snap.Balance.Equal(decimal.RequireFromString("1000.5")))
	assert.True(t, snap.Profit.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 2, snap.OpenPositionsCount)
	assert.True(t, snap.TotalLotSize.Equal(decimal.RequireFromString("0.3")))
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, "EURUSD", snap.Positions[0].Symbol)
}

func TestEAStatusSendsMagic(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, DefaultMagic, body["magic"])
		_, _ = w.Write([]byte(`{"success":true,"ea_active":true,"ea_positions_count":3,"magic_number":123456}`))
	})

	st, err := c.EAStatus(context.Background(), "5001", "Demo-Server")
	require.NoError(t, err)
	assert.True(t, st.EAActive)
	assert.Equal(t, 3, st.EAPositionsCount)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		code   errs.Code
		msg    string
	}{
		{http.StatusUnauthorized, `{"success":false,"error":"Invalid API key"}`, errs.CodeUnauthenticated, "Invalid API key"},
		{http.StatusBadRequest, `{"success":false,"error":"ticket is required"}`, errs.CodeValidation, "ticket is required"},
		{http.StatusNotFound, `{"success":false,"error":"Position 9 not found"}`, errs.CodeNotFound, "Position 9 not found"},
		{http.StatusInternalServerError, ``, errs.CodeProvider, "MT5 service error: 500 Internal Server Error"},
		{http.StatusOK, `{"success":false,"error":"Not logged in"}`, errs.CodeProvider, "Not logged in"},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		})
		_, err := c.Positions(context.Background())
		assert.Equal(t, tc.code, errs.CodeOf(err), tc.msg)
		assert.Equal(t, tc.msg, errs.MessageOf(err))
	}
}

func TestConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := New(addr, "k")
	_, err := c.Health(context.Background())
	assert.True(t, IsUnavailable(err))
	assert.Contains(t, errs.MessageOf(err), "not running")
}

func TestCallTimesOut(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(30*time.Millisecond))
	defer close(release)

	start := time.Now()
	_, err := c.AccountSnapshot(context.Background(), "1", "s")
	assert.True(t, IsUnavailable(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCallerDeadlineWins(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(10*time.Second))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.EAStatus(ctx, "1", "s")
	assert.True(t, IsUnavailable(err))
}

func TestOpenTradeDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0.01", body["volume"])
		assert.EqualValues(t, DefaultMagic, body["magic"])
		_, _ = w.Write([]byte(`{"success":true,"order":{"ticket":77,"deal":78,"volume":0.01,"price":1.1,"symbol":"EURUSD","type":"buy"}}`))
	})

	res, err := c.OpenTrade(context.Background(), OpenTradeRequest{Symbol: "EURUSD", Type: "buy"})
	require.NoError(t, err)
	assert.Equal(t, int64(77), res.Ticket)
}
