package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/pkg/auth"
	"golang-ea-automation/pkg/bridge"
	"golang-ea-automation/pkg/errs"
	"golang-ea-automation/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobService struct {
	jobs      map[uint]*dto.JobResponse
	createErr error
	created   *dto.CreateJobRequest
	createdBy uint
	lastList  *dto.ListJobsRequest
	listedBy  auth.Principal
}

func (f *fakeJobService) CreateJob(_ context.Context, req *dto.CreateJobRequest, createdBy uint) (*dto.JobResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created, f.createdBy = req, createdBy
	return &dto.JobResponse{ID: 1, AccountID: req.AccountID, JobType: req.JobType, Status: "pending"}, nil
}

func (f *fakeJobService) GetJobByID(_ context.Context, id uint, _ auth.Principal) (*dto.JobResponse, error) {
	if job, ok := f.jobs[id]; ok {
		return job, nil
	}
	return nil, errs.NotFound("job", "Job not found")
}

func (f *fakeJobService) ListJobs(_ context.Context, req *dto.ListJobsRequest, requester auth.Principal) ([]*dto.JobResponse, error) {
	f.lastList, f.listedBy = req, requester
	return []*dto.JobResponse{}, nil
}

func (f *fakeJobService) UpdateJob(_ context.Context, id uint, _ *dto.UpdateJobRequest) (*dto.JobResponse, error) {
	return f.GetJobByID(context.Background(), id, auth.System)
}

func (f *fakeJobService) CancelOrDeleteJob(_ context.Context, id uint) (*dto.CancelJobResponse, error) {
	return &dto.CancelJobResponse{Success: true, Message: "Job deleted"}, nil
}

func (f *fakeJobService) RunJob(_ context.Context, id uint) (*dto.JobResponse, error) {
	return nil, errs.Internal("job", assert.AnError)
}

type fakeBridge struct {
	BridgeOperator
	historyDays int
	opened      bridge.OpenTradeRequest
	healthErr   error
}

func (f *fakeBridge) Health(context.Context) (*bridge.Health, error) {
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return &bridge.Health{}, nil
}

func (f *fakeBridge) History(_ context.Context, days int) ([]bridge.Deal, error) {
	f.historyDays = days
	return []bridge.Deal{}, nil
}

func (f *fakeBridge) OpenTrade(_ context.Context, req bridge.OpenTradeRequest) (*bridge.TradeResult, error) {
	f.opened = req
	return &bridge.TradeResult{Ticket: 77, Symbol: req.Symbol, Type: req.Type}, nil
}

type server struct {
	e    *echo.Echo
	jwt  auth.JWT
	jobs *fakeJobService
	br   *fakeBridge
}

func newServer(t *testing.T) *server {
	t.Helper()
	log := logger.NewNop()
	s := &server{
		e:    echo.New(),
		jwt:  auth.NewJWT("handler-secret", "ea-automation", time.Hour),
		jobs: &fakeJobService{jobs: map[uint]*dto.JobResponse{5: {ID: 5, Status: "running"}}},
		br:   &fakeBridge{},
	}

	api := s.e.Group("/api/v1", Authenticate(s.jwt, log))
	admin := RequireAdmin(log)
	NewJobHandler(s.jobs, log).RegisterRoutes(api.Group("/jobs"), admin)
	NewBridgeHandler(s.br, log).RegisterRoutes(api.Group("/bridge", admin))
	return s
}

func (s *server) do(t *testing.T, method, path, body string, p *auth.Principal) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if p != nil {
		token, _, err := s.jwt.Sign(*p)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var (
	adminUser = &auth.Principal{UserID: 1, Role: auth.RoleAdmin}
	plainUser = &auth.Principal{UserID: 2, Role: auth.RoleUser}
)

func TestMissingTokenIsUnauthorized(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/jobs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(errs.CodeUnauthenticated), decodeError(t, rec).Code)
}

func TestAdminRoutesRejectUsers(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/jobs", `{"mt5_account_id":3,"job_type":"status_check"}`, plainUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin access required", decodeError(t, rec).Error)
	assert.Nil(t, s.jobs.created)

	rec = s.do(t, http.MethodGet, "/api/v1/bridge/health", "", plainUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateJobUsesCaller(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/jobs", `{"mt5_account_id":3,"job_type":"status_check"}`, adminUser)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint(1), s.jobs.createdBy)
	assert.Equal(t, uint(3), s.jobs.created.AccountID)
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	s := newServer(t)

	s.jobs.createErr = errs.Conflict("job", "A status_check job is already pending or running for this account")
	rec := s.do(t, http.MethodPost, "/api/v1/jobs", `{"mt5_account_id":3,"job_type":"status_check"}`, adminUser)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "A status_check job is already pending or running for this account", decodeError(t, rec).Error)

	rec = s.do(t, http.MethodGet, "/api/v1/jobs/9", "", plainUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/jobs/5/run", "", adminUser)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeError(t, rec).Error)
}

func TestInvalidPathID(t *testing.T) {
	s := newServer(t)

	for _, id := range []string{"abc", "0", "-1"} {
		rec := s.do(t, http.MethodGet, "/api/v1/jobs/"+id, "", adminUser)
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
		assert.Equal(t, "Invalid job ID", decodeError(t, rec).Error)
	}
}

func TestListJobsPassesPrincipal(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/jobs?mt5_account_id=4&status=pending", "", plainUser)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(4), s.jobs.lastList.AccountID)
	assert.Equal(t, "pending", s.jobs.lastList.Status)
	assert.Equal(t, *plainUser, s.jobs.listedBy)
}

func TestBridgeProxy(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/bridge/history?days=7", "", adminUser)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, s.br.historyDays)

	rec = s.do(t, http.MethodGet, "/api/v1/bridge/history?days=x", "", adminUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/bridge/trade/open", `{"symbol":"EURUSD","type":"SELL","volume":"0.05"}`, adminUser)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sell", s.br.opened.Type)
	assert.True(t, decimal.RequireFromString("0.05").Equal(s.br.opened.Volume))

	rec = s.do(t, http.MethodPost, "/api/v1/bridge/trade/open", `{"symbol":"EURUSD","type":"hold"}`, adminUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.br.healthErr = errs.New("bridge", errs.CodeUnavailable, errs.WithMessage("MT5 service is not running. Please start the bridge service on the VPS."))
	rec = s.do(t, http.MethodGet, "/api/v1/bridge/health", "", adminUser)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "MT5 service is not running. Please start the bridge service on the VPS.", decodeError(t, rec).Error)
}
