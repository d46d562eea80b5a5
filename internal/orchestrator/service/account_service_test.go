package service_test

import (
	"fmt"
	"sort"
	"testing"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/repository/repotest"
	"golang-ea-automation/pkg/auth"
	"golang-ea-automation/pkg/bridge"
	"golang-ea-automation/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(balance, equity, profit string, positions int) *bridge.AccountSnapshot {
	return &bridge.AccountSnapshot{
		AccountInfo: bridge.AccountInfo{
			Balance: decimal.RequireFromString(balance),
			Equity:  decimal.RequireFromString(equity),
			Profit:  decimal.RequireFromString(profit),
		},
		OpenPositionsCount: positions,
		TotalLotSize:       decimal.RequireFromString("0.30"),
		Positions:          []bridge.Position{{Ticket: 1, Symbol: "EURUSD", Magic: bridge.DefaultMagic}},
	}
}

func TestConnectAccount(t *testing.T) {
	env := newTestEnv(t)
	user := auth.Principal{UserID: env.owner.ID, Role: auth.RoleUser}

	acct, err := env.accounts.ConnectAccount(env.ctx, &dto.ConnectAccountRequest{
		AccountNumber: " 5001 ",
		Server:        "Broker-Live",
		Password:      "hunter2",
	}, user)
	require.NoError(t, err)
	assert.Equal(t, "5001", acct.AccountNumber)
	assert.Equal(t, "pending", acct.Status)
	assert.Equal(t, "MT5", acct.Platform)
	assert.Equal(t, "none", acct.AutomationStatus)

	stored := env.account(t, acct.ID)
	assert.NotEqual(t, "hunter2", stored.EncryptedPassword)
	plain, err := env.sealer.Open(stored.EncryptedPassword)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plain)

	msgs := env.dispatcher.adminMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, entity.NotificationMT5Request, msgs[0].Type)
	assert.Contains(t, msgs[0].Body, "owner@example.com")

	_, err = env.accounts.ConnectAccount(env.ctx, &dto.ConnectAccountRequest{AccountNumber: "5001", Server: "Broker-Live"}, user)
	assert.Equal(t, errs.CodeConflict, errs.CodeOf(err))
	assert.Equal(t, "This MT5 account is already connected", errs.MessageOf(err))

	_, err = env.accounts.ConnectAccount(env.ctx, &dto.ConnectAccountRequest{AccountNumber: "5002"}, user)
	assert.Equal(t, errs.CodeValidation, errs.CodeOf(err))

	_, err = env.accounts.ConnectAccount(env.ctx, &dto.ConnectAccountRequest{AccountNumber: "5003", Server: "X", Platform: "ctrader"}, user)
	assert.Equal(t, errs.CodeValidation, errs.CodeOf(err))
}

func TestReviewAccount(t *testing.T) {
	env := newTestEnv(t)
	reviewer := auth.Principal{UserID: env.admin.ID, Role: auth.RoleAdmin}
	approved := repotest.SeedAccount(t, env.db, env.owner.ID, "5100", entity.AccountStatusPending)
	rejected := repotest.SeedAccount(t, env.db, env.owner.ID, "5101", entity.AccountStatusPending)

	res, err := env.accounts.ReviewAccount(env.ctx, approved.ID, &dto.ReviewAccountRequest{Approve: true}, reviewer)
	require.NoError(t, err)
	assert.Equal(t, "active", res.Status)
	assert.NotNil(t, res.ApprovedAt)
	stored := env.account(t, approved.ID)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, env.admin.ID, *stored.ApprovedBy)

	_, err = env.accounts.ReviewAccount(env.ctx, approved.ID, &dto.ReviewAccountRequest{Approve: false}, reviewer)
	assert.Equal(t, errs.CodeConflict, errs.CodeOf(err))

	res, err = env.accounts.ReviewAccount(env.ctx, rejected.ID, &dto.ReviewAccountRequest{Reason: "wrong server"}, reviewer)
	require.NoError(t, err)
	assert.Equal(t, "rejected", res.Status)
	assert.Equal(t, "wrong server", res.RejectionReason)

	assert.Equal(t, []entity.NotificationType{entity.NotificationMT5Approved, entity.NotificationMT5Rejected}, env.dispatcher.userTypes())
}

func TestListAccountsScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	stranger := repotest.SeedUser(t, env.db, "stranger@example.com", entity.UserRoleUser)
	repotest.SeedAccount(t, env.db, env.owner.ID, "5200", entity.AccountStatusActive)
	repotest.SeedAccount(t, env.db, stranger.ID, "5201", entity.AccountStatusActive)

	all, err := env.accounts.ListAccounts(env.ctx, &dto.ListAccountsRequest{}, auth.System)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := env.accounts.ListAccounts(env.ctx, &dto.ListAccountsRequest{UserID: stranger.ID}, auth.Principal{UserID: env.owner.ID, Role: auth.RoleUser})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "5200", mine[0].AccountNumber)
}

func TestFetchAccountStatusLive(t *testing.T) {
	env := newTestEnv(t)
	acct := repotest.SeedAccount(t, env.db, env.owner.ID, "5300", entity.AccountStatusActive)
	repotest.SeedVPS(t, env.db, acct.ID, entity.VPSStatusActive)
	env.bridge.snapshots["5300"] = snapshot("2000", "2100", "100", 3)
	env.bridge.ea["5300"] = &bridge.EAStatus{EAActive: true, EAPositionsCount: 2}

	view, err := env.accounts.FetchAccountStatus(env.ctx, acct.ID, auth.Principal{UserID: env.owner.ID, Role: auth.RoleUser})
	require.NoError(t, err)
	assert.True(t, view.LiveData)
	assert.Empty(t, view.Message)
	assert.Equal(t, 2, view.EAPositionsCount)
	assert.Len(t, view.Positions, 1)
	require.NotNil(t, view.VPS)
	assert.Equal(t, "active", view.VPS.Status)
	assert.True(t, decimal.RequireFromString("5").Equal(view.Account.GainPercentage))

	stored := env.account(t, acct.ID)
	assert.True(t, decimal.NewFromInt(2000).Equal(stored.Balance))
	assert.True(t, decimal.NewFromInt(2100).Equal(stored.Equity))
	assert.True(t, decimal.NewFromInt(5).Equal(stored.GainPercentage))
	assert.Equal(t, 3, stored.OpenPositionsCount)
	assert.Equal(t, entity.EAStatusActive, stored.EAStatus)
	assert.NotNil(t, stored.LastSyncAt)
}

func TestFetchAccountStatusFallsBackToStoredData(t *testing.T) {
	env := newTestEnv(t)
	acct := repotest.SeedAccount(t, env.db, env.owner.ID, "5301", entity.AccountStatusActive)
	env.bridge.failures["5301"] = bridgeDown()

	view, err := env.accounts.FetchAccountStatus(env.ctx, acct.ID, auth.System)
	require.NoError(t, err)
	assert.False(t, view.LiveData)
	assert.Equal(t, "MT5 service unavailable, showing cached data", view.Message)
	assert.True(t, decimal.NewFromInt(1000).Equal(view.Account.Balance))
	assert.Nil(t, view.VPS)
	assert.Nil(t, env.account(t, acct.ID).LastSyncAt)
}

func TestFetchAccountStatusInactiveAndHidden(t *testing.T) {
	env := newTestEnv(t)
	stranger := repotest.SeedUser(t, env.db, "stranger@example.com", entity.UserRoleUser)
	acct := repotest.SeedAccount(t, env.db, env.owner.ID, "5302", entity.AccountStatusPending)
	env.bridge.snapshots["5302"] = snapshot("9999", "9999", "1", 0)

	view, err := env.accounts.FetchAccountStatus(env.ctx, acct.ID, auth.Principal{UserID: env.owner.ID, Role: auth.RoleUser})
	require.NoError(t, err)
	assert.False(t, view.LiveData)
	assert.True(t, decimal.NewFromInt(1000).Equal(view.Account.Balance))

	_, err = env.accounts.FetchAccountStatus(env.ctx, acct.ID, auth.Principal{UserID: stranger.ID, Role: auth.RoleUser})
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
	assert.Equal(t, "MT5 account not found or access denied", errs.MessageOf(err))

	_, err = env.accounts.FetchAccountStatus(env.ctx, 8080, auth.System)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
}

func TestBulkRefresh(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		number := fmt.Sprintf("540%d", i)
		repotest.SeedAccount(t, env.db, env.owner.ID, number, entity.AccountStatusActive)
		env.bridge.snapshots[number] = snapshot("500", "450", "-50", 1)
	}
	repotest.SeedAccount(t, env.db, env.owner.ID, "5499", entity.AccountStatusPending)
	env.bridge.failures["5401"] = bridgeDown()

	res, err := env.accounts.BulkRefresh(env.ctx, auth.System)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Refreshed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Account 5401: MT5 service is not running. Please start the bridge service on the VPS.", res.Errors[0])

	accounts, err := env.accounts.ListAccounts(env.ctx, &dto.ListAccountsRequest{Status: "active"}, auth.System)
	require.NoError(t, err)
	gains := make([]string, 0, len(accounts))
	for _, a := range accounts {
		gains = append(gains, a.GainPercentage.StringFixed(2))
	}
	sort.Strings(gains)
	assert.Equal(t, []string{"-10.00", "-10.00", "0.00"}, gains)

	_, err = env.accounts.BulkRefresh(env.ctx, auth.Principal{UserID: env.owner.ID, Role: auth.RoleUser})
	assert.Equal(t, errs.CodeForbidden, errs.CodeOf(err))
}

func TestBulkRefreshEmpty(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.accounts.BulkRefresh(env.ctx, auth.System)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.Refreshed)
	assert.Empty(t, res.Errors)
}
