package service

import (
	"context"
	"fmt"

	"golang-ea-automation/internal/orchestrator/config"
	"golang-ea-automation/pkg/auth"
	"golang-ea-automation/pkg/logger"
	"golang-ea-automation/pkg/telegram"

	"github.com/robfig/cron/v3"
)

// SweepService runs the periodic account refresh and VPS sync.
type SweepService interface {
	Start(ctx context.Context) error
	RunBulkRefresh(ctx context.Context)
	RunVPSSync(ctx context.Context)
}

// NewSweepService creates a new sweep service. alerter may be nil.
func NewSweepService(accountSvc AccountService, vpsSvc VPSService, alerter telegram.Notifier, cfg config.Sweep, logger *logger.Logger) SweepService {
	return &sweepService{
		accountSvc: accountSvc,
		vpsSvc:     vpsSvc,
		alerter:    alerter,
		cfg:        cfg,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		logger:     logger,
	}
}

type sweepService struct {
	accountSvc AccountService
	vpsSvc     VPSService
	alerter    telegram.Notifier
	cfg        config.Sweep
	cronParser cron.Parser
	logger     *logger.Logger
}

// Start schedules the sweeps and blocks until ctx is done.
func (s *sweepService) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(s.cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if s.cfg.BulkRefreshCron != "" {
		if _, err := c.AddFunc(s.cfg.BulkRefreshCron, func() { s.RunBulkRefresh(ctx) }); err != nil {
			return fmt.Errorf("invalid bulk refresh schedule %q: %w", s.cfg.BulkRefreshCron, err)
		}
	}
	if s.cfg.VPSSyncCron != "" {
		if _, err := c.AddFunc(s.cfg.VPSSyncCron, func() { s.RunVPSSync(ctx) }); err != nil {
			return fmt.Errorf("invalid vps sync schedule %q: %w", s.cfg.VPSSyncCron, err)
		}
	}

	c.Start()
	s.logger.Info("Sweep scheduler started",
		logger.StringField("bulk_refresh_cron", s.cfg.BulkRefreshCron),
		logger.StringField("vps_sync_cron", s.cfg.VPSSyncCron))

	<-ctx.Done()
	s.logger.Info("Sweep scheduler stopping")
	<-c.Stop().Done()
	return nil
}

// RunBulkRefresh refreshes all active accounts and alerts operators about failures.
func (s *sweepService) RunBulkRefresh(ctx context.Context) {
	res, err := s.accountSvc.BulkRefresh(ctx, auth.System)
	if err != nil {
		s.logger.Error("Bulk refresh sweep failed", logger.ErrorField(err))
		return
	}
	if s.alerter == nil || len(res.Errors) == 0 {
		return
	}
	if err := s.alerter.SendMessage(telegram.FormatBulkRefreshSummary(res.Total, res.Refreshed, res.Errors)); err != nil {
		s.logger.Warn("Failed to send bulk refresh summary", logger.ErrorField(err))
	}
}

func (s *sweepService) RunVPSSync(ctx context.Context) {
	if _, err := s.vpsSvc.SyncProvisioning(ctx); err != nil {
		s.logger.Error("VPS sync sweep failed", logger.ErrorField(err))
	}
}
