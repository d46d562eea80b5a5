package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/repository"
	"golang-ea-automation/pkg/auth"
	"golang-ea-automation/pkg/bridge"
	"golang-ea-automation/pkg/common"
	"golang-ea-automation/pkg/errs"
	"golang-ea-automation/pkg/lock"
	"golang-ea-automation/pkg/logger"
	"golang-ea-automation/pkg/secret"
	"golang-ea-automation/pkg/utils"

	"github.com/sourcegraph/conc/pool"
)

const accountComponent = "accounts"

const (
	accountHidden     = "MT5 account not found or access denied"
	accountConnected  = "This MT5 account is already connected"
	bridgeUnavailable = "MT5 service unavailable, showing cached data"
)

// BridgeClient is the terminal bridge surface used for account status.
type BridgeClient interface {
	AccountSnapshot(ctx context.Context, account, server string) (*bridge.AccountSnapshot, error)
	EAStatus(ctx context.Context, account, server string) (*bridge.EAStatus, error)
}

// AccountService manages connected trading accounts and their live status.
type AccountService interface {
	ConnectAccount(ctx context.Context, req *dto.ConnectAccountRequest, requester auth.Principal) (*dto.AccountResponse, error)
	ListAccounts(ctx context.Context, req *dto.ListAccountsRequest, requester auth.Principal) ([]*dto.AccountResponse, error)
	ReviewAccount(ctx context.Context, id uint, req *dto.ReviewAccountRequest, reviewer auth.Principal) (*dto.AccountResponse, error)
	FetchAccountStatus(ctx context.Context, id uint, requester auth.Principal) (*dto.AccountStatusView, error)
	BulkRefresh(ctx context.Context, requester auth.Principal) (*dto.BulkRefreshResponse, error)
}

// NewAccountService creates a new account service.
func NewAccountService(
	accountRepo repository.TradingAccountRepository,
	vpsRepo repository.VPSInstanceRepository,
	userRepo repository.UserRepository,
	bridgeClient BridgeClient,
	sealer secret.Sealer,
	locker lock.Locker,
	dispatcher Dispatcher,
	opts Options,
	logger *logger.Logger,
) AccountService {
	return &accountService{
		accountRepo: accountRepo,
		vpsRepo:     vpsRepo,
		userRepo:    userRepo,
		bridge:      bridgeClient,
		sealer:      sealer,
		locker:      locker,
		dispatcher:  dispatcher,
		opts:        opts.withDefaults(),
		logger:      logger,
	}
}

type accountService struct {
	accountRepo repository.TradingAccountRepository
	vpsRepo     repository.VPSInstanceRepository
	userRepo    repository.UserRepository
	bridge      BridgeClient
	sealer      secret.Sealer
	locker      lock.Locker
	dispatcher  Dispatcher
	opts        Options
	logger      *logger.Logger
}

// ConnectAccount registers an account for admin approval.
func (s *accountService) ConnectAccount(ctx context.Context, req *dto.ConnectAccountRequest, requester auth.Principal) (*dto.AccountResponse, error) {
	number := strings.TrimSpace(req.AccountNumber)
	server := strings.TrimSpace(req.Server)
	if number == "" || server == "" {
		return nil, errs.Validation(accountComponent, "account_number", "Account number and server are required")
	}
	platform := entity.Platform(strings.ToUpper(strings.TrimSpace(req.Platform)))
	if platform == "" {
		platform = entity.PlatformMT5
	}
	if platform != entity.PlatformMT4 && platform != entity.PlatformMT5 {
		return nil, errs.Validation(accountComponent, "platform", "Platform must be MT4 or MT5")
	}

	release, err := acquire(ctx, s.locker, common.AccountLockKey(number, server), s.opts.LockWait, accountComponent, accountConnected)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.accountRepo.FindByNumberAndServer(ctx, number, server); err == nil {
		return nil, errs.Conflict(accountComponent, accountConnected)
	} else if !repository.IsNotFound(err) {
		return nil, errs.Internal(accountComponent, err)
	}

	sealed, err := s.sealer.Seal(req.Password)
	if err != nil {
		return nil, errs.Internal(accountComponent, err)
	}

	account := &entity.TradingAccount{
		UserID:            requester.UserID,
		AccountNumber:     number,
		Server:            server,
		Platform:          platform,
		EncryptedPassword: sealed,
		Status:            entity.AccountStatusPending,
		EAStatus:          entity.EAStatusInactive,
		AutomationStatus:  entity.AutomationNone,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, storeError(accountComponent, err, accountConnected)
	}

	email := fmt.Sprintf("#%d", requester.UserID)
	if user, err := s.userRepo.FindByID(ctx, requester.UserID); err == nil {
		email = user.Email
	}
	if _, err := s.dispatcher.NotifyAdmins(ctx, MT5RequestSubmitted(number, email)); err != nil {
		s.logger.Warn("Failed to notify admins of connection request", logger.ErrorField(err), logger.Field("account_id", account.ID))
	}

	s.logger.Info("MT5 account connected", logger.Field("account_id", account.ID), logger.StringField("account_number", number))
	return mapToAccountResponse(account), nil
}

// ListAccounts lists accounts. Non-admins only see their own.
func (s *accountService) ListAccounts(ctx context.Context, req *dto.ListAccountsRequest, requester auth.Principal) ([]*dto.AccountResponse, error) {
	filter := repository.AccountFilter{
		UserID: optionalID(req.UserID),
		Status: entity.AccountStatus(req.Status),
		Limit:  req.Limit,
	}
	if !requester.IsAdmin() {
		owner := requester.UserID
		filter.UserID = &owner
	}
	if filter.Limit <= 0 || filter.Limit > common.MaxJobListLimit {
		filter.Limit = common.MaxJobListLimit
	}

	accounts, err := s.accountRepo.List(ctx, filter)
	if err != nil {
		return nil, errs.Internal(accountComponent, err)
	}
	out := make([]*dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, mapToAccountResponse(&accounts[i]))
	}
	return out, nil
}

// ReviewAccount approves or rejects an account through the approval state machine.
func (s *accountService) ReviewAccount(ctx context.Context, id uint, req *dto.ReviewAccountRequest, reviewer auth.Principal) (*dto.AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(accountComponent, err, "MT5 account not found")
	}

	event := entity.AccountEventReject
	if req.Approve {
		event = entity.AccountEventApprove
	}
	next, err := entity.TransitionAccount(account.Status, event)
	if err != nil {
		return nil, transitionError(accountComponent, err)
	}

	fields := map[string]interface{}{"status": next}
	var msg Message
	if req.Approve {
		fields["approved_at"] = utils.TimeNowUTC()
		fields["approved_by"] = optionalID(reviewer.UserID)
		fields["rejection_reason"] = ""
		msg = MT5Approved(account.AccountNumber)
	} else {
		fields["rejection_reason"] = strings.TrimSpace(req.Reason)
		msg = MT5Rejected(account.AccountNumber, strings.TrimSpace(req.Reason))
	}

	if err := s.accountRepo.UpdateFields(ctx, account.ID, fields); err != nil {
		return nil, lookupError(accountComponent, err, "MT5 account not found")
	}
	if err := s.dispatcher.NotifyUser(ctx, account.UserID, msg); err != nil {
		s.logger.Warn("Failed to notify account review", logger.ErrorField(err), logger.Field("account_id", account.ID))
	}

	updated, err := s.accountRepo.FindByID(ctx, account.ID)
	if err != nil {
		return nil, errs.Internal(accountComponent, err)
	}
	s.logger.Info("MT5 account reviewed", logger.Field("account_id", account.ID), logger.StringField("status", string(next)))
	return mapToAccountResponse(updated), nil
}

// FetchAccountStatus returns live data from the bridge, or the stored snapshot when the bridge fails.
func (s *accountService) FetchAccountStatus(ctx context.Context, id uint, requester auth.Principal) (*dto.AccountStatusView, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(accountComponent, err, accountHidden)
	}
	if !requester.IsAdmin() && account.UserID != requester.UserID {
		return nil, errs.NotFound(accountComponent, accountHidden)
	}

	view := &dto.AccountStatusView{}
	if vps, err := s.vpsRepo.FindByAccountID(ctx, account.ID); err == nil {
		view.VPS = &dto.VPSSummary{
			Status:    string(vps.Status),
			Health:    vps.HealthStatus,
			Name:      vps.Name,
			IPAddress: vps.IPAddress,
		}
	} else if !repository.IsNotFound(err) {
		s.logger.Warn("Failed to load VPS for account status", logger.ErrorField(err), logger.Field("account_id", account.ID))
	}

	if account.Status != entity.AccountStatusActive {
		view.Account = mapToAccountResponse(account)
		return view, nil
	}

	snapCtx, cancel := context.WithTimeout(ctx, s.opts.StatusTimeout)
	snapshot, err := s.bridge.AccountSnapshot(snapCtx, account.AccountNumber, account.Server)
	cancel()
	if err != nil {
		s.logger.Warn("Bridge snapshot failed, serving cached account data",
			logger.ErrorField(err),
			logger.StringField("account_number", account.AccountNumber))
		view.Account = mapToAccountResponse(account)
		view.Message = bridgeUnavailable
		return view, nil
	}

	eaCtx, cancel := context.WithTimeout(ctx, s.opts.StatusTimeout)
	eaStatus, eaErr := s.bridge.EAStatus(eaCtx, account.AccountNumber, account.Server)
	cancel()
	if eaErr != nil {
		s.logger.Warn("Bridge EA status failed", logger.ErrorField(eaErr), logger.StringField("account_number", account.AccountNumber))
	}

	// A zero balance or equity from the bridge means the terminal has not loaded the account yet.
	balance := snapshot.Balance
	if balance.IsZero() {
		balance = account.Balance
	}
	equity := snapshot.Equity
	if equity.IsZero() {
		equity = account.Equity
	}
	now := utils.TimeNowUTC()

	account.Balance = balance
	account.Equity = equity
	account.Profit = snapshot.Profit
	account.GainPercentage = entity.GainPercentage(snapshot.Profit, balance)
	account.OpenPositionsCount = snapshot.OpenPositionsCount
	account.CurrentLotSize = snapshot.TotalLotSize
	account.LastSyncAt = &now
	if eaStatus != nil && eaStatus.EAActive {
		account.EAStatus = entity.EAStatusActive
	}

	err = s.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
		"balance":              account.Balance,
		"equity":               account.Equity,
		"profit":               account.Profit,
		"gain_percentage":      account.GainPercentage,
		"open_positions_count": account.OpenPositionsCount,
		"current_lot_size":     account.CurrentLotSize,
		"ea_status":            account.EAStatus,
		"last_sync_at":         now,
	})
	if err != nil {
		s.logger.Error("Failed to persist account snapshot", logger.ErrorField(err), logger.Field("account_id", account.ID))
	}

	view.Account = mapToAccountResponse(account)
	view.LiveData = true
	view.Positions = snapshot.Positions
	if eaStatus != nil {
		view.EAPositionsCount = eaStatus.EAPositionsCount
	}
	return view, nil
}

// BulkRefresh refreshes every active account from the bridge. One failure never stops the sweep.
func (s *accountService) BulkRefresh(ctx context.Context, requester auth.Principal) (*dto.BulkRefreshResponse, error) {
	if !requester.IsAdmin() {
		return nil, errs.Forbidden(accountComponent, "Admin access required")
	}

	accounts, err := s.accountRepo.FindActive(ctx)
	if err != nil {
		return nil, errs.Internal(accountComponent, err)
	}

	result := &dto.BulkRefreshResponse{Total: len(accounts), Errors: []string{}}
	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(s.opts.BulkRefreshConcurrency)
	for i := range accounts {
		account := &accounts[i]
		p.Go(func() {
			err := s.refreshOne(ctx, account)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Account %s: %s", account.AccountNumber, describe(err)))
				return
			}
			result.Refreshed++
		})
	}
	p.Wait()

	s.logger.Info("Bulk refresh finished",
		logger.IntField("total", result.Total),
		logger.IntField("refreshed", result.Refreshed),
		logger.IntField("failed", len(result.Errors)))
	return result, nil
}

func (s *accountService) refreshOne(ctx context.Context, account *entity.TradingAccount) error {
	refreshCtx, cancel := context.WithTimeout(ctx, s.opts.RefreshTimeout)
	defer cancel()

	snapshot, err := s.bridge.AccountSnapshot(refreshCtx, account.AccountNumber, account.Server)
	if err != nil {
		return err
	}
	return s.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
		"balance":              snapshot.Balance,
		"equity":               snapshot.Equity,
		"profit":               snapshot.Profit,
		"gain_percentage":      entity.GainPercentage(snapshot.Profit, snapshot.Balance),
		"open_positions_count": snapshot.OpenPositionsCount,
		"last_sync_at":         utils.TimeNowUTC(),
	})
}
