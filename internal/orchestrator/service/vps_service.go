package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/repository"
	"golang-ea-automation/pkg/common"
	"golang-ea-automation/pkg/errs"
	"golang-ea-automation/pkg/lock"
	"golang-ea-automation/pkg/logger"
	"golang-ea-automation/pkg/secret"
	"golang-ea-automation/pkg/utils"
	"golang-ea-automation/pkg/vultr"

	"github.com/patrickmn/go-cache"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const vpsComponent = "vps"

const vpsExists = "VPS already exists for this MT5 account"

var hostnameInvalid = regexp.MustCompile(`[^a-z0-9-]`)

// ProvisioningClient is the cloud provider surface the orchestrator uses.
type ProvisioningClient interface {
	CreateInstance(ctx context.Context, req vultr.CreateInstanceRequest) (*vultr.Instance, error)
	GetInstance(ctx context.Context, id string) (*vultr.Instance, error)
	DeleteInstance(ctx context.Context, id string) error
	GetAccount(ctx context.Context) (*vultr.Account, error)
	ListRegions(ctx context.Context) ([]vultr.Region, error)
	ListWindowsPlans(ctx context.Context) ([]vultr.Plan, error)
	ListWindowsOS(ctx context.Context) ([]vultr.OS, error)
}

// VPSService provisions and reconciles VPS instances.
type VPSService interface {
	ProvisionVPS(ctx context.Context, req *dto.ProvisionVPSRequest, createdBy uint) (*dto.ProvisionVPSResponse, error)
	SyncVPS(ctx context.Context, id uint) (*dto.VPSResponse, error)
	SyncProvisioning(ctx context.Context) (int, error)
	GetVPSByID(ctx context.Context, id uint) (*dto.VPSResponse, error)
	ListVPS(ctx context.Context, req *dto.ListVPSRequest) ([]*dto.VPSResponse, error)
	DeleteVPS(ctx context.Context, id uint) error
	ProvisioningOptions(ctx context.Context, action string) (*dto.ProvisioningOptionsResponse, error)
}

// NewVPSService creates a new VPS service.
func NewVPSService(
	tx repository.Transactor,
	vpsRepo repository.VPSInstanceRepository,
	accountRepo repository.TradingAccountRepository,
	provisioner ProvisioningClient,
	sealer secret.Sealer,
	locker lock.Locker,
	dispatcher Dispatcher,
	opts Options,
	logger *logger.Logger,
) VPSService {
	opts = opts.withDefaults()
	return &vpsService{
		tx:          tx,
		vpsRepo:     vpsRepo,
		accountRepo: accountRepo,
		provisioner: provisioner,
		sealer:      sealer,
		locker:      locker,
		dispatcher:  dispatcher,
		catalog:     cache.New(opts.CatalogTTL, 2*opts.CatalogTTL),
		opts:        opts,
		logger:      logger,
	}
}

type vpsService struct {
	tx          repository.Transactor
	vpsRepo     repository.VPSInstanceRepository
	accountRepo repository.TradingAccountRepository
	provisioner ProvisioningClient
	sealer      secret.Sealer
	locker      lock.Locker
	dispatcher  Dispatcher
	catalog     *cache.Cache
	opts        Options
	logger      *logger.Logger
}

// providerError wraps a provider failure unless it already carries a code.
func providerError(err error) error {
	if _, ok := errs.As(err); ok {
		return err
	}
	var pe *vultr.ProviderError
	if errors.As(err, &pe) {
		return errs.New(vultr.ProviderName, errs.CodeProvider, errs.WithMessage(pe.Message), errs.WithCause(err))
	}
	return errs.New(vultr.ProviderName, errs.CodeUnavailable, errs.WithMessage("Provisioning provider unavailable"), errs.WithCause(err))
}

// Hostname derives the provider hostname from an account number.
func Hostname(accountNumber string) string {
	return hostnameInvalid.ReplaceAllString(strings.ToLower("mt5-"+accountNumber), "")
}

// ProvisionVPS creates a provider instance and its VPS row. An account has at most one VPS.
func (s *vpsService) ProvisionVPS(ctx context.Context, req *dto.ProvisionVPSRequest, createdBy uint) (*dto.ProvisionVPSResponse, error) {
	if req.AccountID == 0 {
		return nil, errs.Validation(vpsComponent, "mt5_account_id", "MT5 account ID is required")
	}

	release, err := acquire(ctx, s.locker, common.VPSLockKey(req.AccountID), s.opts.LockWait, vpsComponent, vpsExists)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.vpsRepo.FindByAccountID(ctx, req.AccountID); err == nil {
		return nil, errs.Conflict(vpsComponent, vpsExists)
	} else if !repository.IsNotFound(err) {
		return nil, errs.Internal(vpsComponent, err)
	}

	account, err := s.accountRepo.FindByID(ctx, req.AccountID)
	if err != nil {
		return nil, lookupError(vpsComponent, err, "MT5 account not found")
	}
	nextAutomation, err := entity.TransitionAutomation(account.AutomationStatus, entity.AutomationEventProvisionStarted)
	if err != nil {
		return nil, transitionError(vpsComponent, err)
	}

	region := req.Region
	if region == "" {
		region = vultr.DefaultRegion
	}
	plan := req.Plan
	if plan == "" {
		plan = vultr.DefaultPlan
	}
	osID := req.OSID
	if osID == 0 {
		osID = vultr.DefaultOSID
	}
	label := req.Name
	if label == "" {
		label = "MT5-" + account.AccountNumber
	}
	hostname := Hostname(account.AccountNumber)

	instance, err := s.provisioner.CreateInstance(ctx, vultr.CreateInstanceRequest{
		Region:          region,
		Plan:            plan,
		OSID:            osID,
		Label:           label,
		Hostname:        hostname,
		EnableIPv6:      false,
		Backups:         "disabled",
		DDOSProtection:  false,
		ActivationEmail: false,
	})
	if err != nil {
		s.logger.Error("Failed to create provider instance", logger.ErrorField(err), logger.StringField("account_number", account.AccountNumber))
		return nil, providerError(err)
	}

	sealed, err := s.sealer.Seal(instance.DefaultPassword)
	if err != nil {
		s.rollbackInstance(instance.ID)
		return nil, errs.Internal(vpsComponent, err)
	}
	metadata, err := json.Marshal(map[string]interface{}{
		"os_id":      osID,
		"hostname":   hostname,
		"created_at": instance.DateCreated,
	})
	if err != nil {
		s.rollbackInstance(instance.ID)
		return nil, errs.Internal(vpsComponent, err)
	}

	vps := &entity.VPSInstance{
		AccountID:            account.ID,
		Name:                 label,
		SSHPort:              common.VPSDefaultPort,
		SSHUsername:          common.VPSDefaultUsername,
		EncryptedSSHPassword: sealed,
		OSType:               common.VPSDefaultOSType,
		Status:               entity.VPSStatusProvisioning,
		Provider:             vultr.ProviderName,
		ProviderInstanceID:   instance.ID,
		ProviderRegion:       region,
		ProviderPlan:         plan,
		ProviderMetadata:     datatypes.JSON(metadata),
		Notes:                "Vultr instance created. ID: " + instance.ID,
		CreatedBy:            optionalID(createdBy),
	}
	if instance.AddressAssigned() {
		ip := instance.MainIP
		vps.IPAddress = &ip
	}

	err = s.tx.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.vpsRepo.WithTx(tx).Create(ctx, vps); err != nil {
			return err
		}
		return s.accountRepo.WithTx(tx).UpdateFields(ctx, account.ID, map[string]interface{}{
			"automation_status": nextAutomation,
			"automation_notes":  "VPS provisioning started",
		})
	})
	if err != nil {
		s.rollbackInstance(instance.ID)
		return nil, storeError(vpsComponent, err, vpsExists)
	}

	if err := s.dispatcher.NotifyUser(ctx, account.UserID, VPSProvisioning(account.AccountNumber)); err != nil {
		s.logger.Warn("Failed to notify provisioning start", logger.ErrorField(err), logger.Field("account_id", account.ID))
	}

	s.logger.Info("VPS provisioning started",
		logger.Field("vps_id", vps.ID),
		logger.StringField("instance_id", instance.ID),
		logger.StringField("account_number", account.AccountNumber))
	return &dto.ProvisionVPSResponse{
		Success: true,
		VPS:     mapToVPSResponse(vps),
		Message: "VPS provisioning started",
	}, nil
}

// rollbackInstance deletes an instance whose row could not be stored.
func (s *vpsService) rollbackInstance(instanceID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.provisioner.DeleteInstance(ctx, instanceID); err != nil {
		s.logger.Error("Failed to roll back provider instance", logger.ErrorField(err), logger.StringField("instance_id", instanceID))
	}
}

// SyncVPS reconciles a VPS row with the provider. The owner is told once, on the edge into active.
func (s *vpsService) SyncVPS(ctx context.Context, id uint) (*dto.VPSResponse, error) {
	vps, err := s.vpsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(vpsComponent, err, "VPS not found")
	}

	release, err := acquire(ctx, s.locker, common.VPSLockKey(vps.AccountID), s.opts.LockWait, vpsComponent, "VPS is being updated, try again")
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock so the ready edge is observed once.
	vps, err = s.vpsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(vpsComponent, err, "VPS not found")
	}
	if vps.Provider != vultr.ProviderName {
		return nil, errs.Validation(vpsComponent, "provider", fmt.Sprintf("Unsupported provider: %s", vps.Provider))
	}
	if vps.ProviderInstanceID == "" {
		return nil, errs.Validation(vpsComponent, "provider_instance_id", "VPS has no provider instance to sync")
	}

	instance, err := s.provisioner.GetInstance(ctx, vps.ProviderInstanceID)
	if err != nil {
		s.logger.Warn("Failed to read provider instance", logger.ErrorField(err), logger.Field("vps_id", vps.ID))
		return nil, providerError(err)
	}

	status := vps.Status
	var event entity.VPSEvent
	switch {
	case instance.Ready():
		event = entity.VPSEventReady
	case instance.Status == "pending":
		event = entity.VPSEventProvision
	}
	if event != "" {
		if next, err := entity.TransitionVPS(vps.Status, event); err == nil {
			status = next
		} else {
			s.logger.Warn("Ignoring provider state", logger.ErrorField(err), logger.Field("vps_id", vps.ID))
		}
	}

	fields := map[string]interface{}{
		"status":            status,
		"health_status":     instance.ServerStatus,
		"power_status":      instance.PowerStatus,
		"last_health_check": utils.TimeNowUTC(),
		"notes":             fmt.Sprintf("Vultr status: %s, power: %s, server: %s", instance.Status, instance.PowerStatus, instance.ServerStatus),
	}
	if instance.AddressAssigned() && instance.MainIP != vps.Address() {
		fields["ip_address"] = instance.MainIP
	}

	becameReady := vps.Status != entity.VPSStatusActive && status == entity.VPSStatusActive
	var account *entity.TradingAccount
	if becameReady {
		account, err = s.accountRepo.FindByID(ctx, vps.AccountID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, errs.Internal(vpsComponent, err)
		}
	}

	err = s.tx.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.vpsRepo.WithTx(tx).UpdateFields(ctx, vps.ID, fields); err != nil {
			return err
		}
		if account == nil {
			return nil
		}
		next, err := entity.TransitionAutomation(account.AutomationStatus, entity.AutomationEventVPSReady)
		if err != nil {
			s.logger.Info("Account automation not advanced on VPS ready",
				logger.Field("account_id", account.ID),
				logger.StringField("automation_status", string(account.AutomationStatus)))
			return nil
		}
		return s.accountRepo.WithTx(tx).UpdateFields(ctx, account.ID, map[string]interface{}{
			"automation_status": next,
			"automation_notes":  "VPS ready",
		})
	})
	if err != nil {
		return nil, storeError(vpsComponent, err, vpsExists)
	}

	if account != nil {
		if err := s.dispatcher.NotifyUser(ctx, account.UserID, VPSReady(account.AccountNumber, vps.Name)); err != nil {
			s.logger.Warn("Failed to notify VPS ready", logger.ErrorField(err), logger.Field("vps_id", vps.ID))
		}
		s.logger.Info("VPS became ready", logger.Field("vps_id", vps.ID), logger.StringField("account_number", account.AccountNumber))
	}

	updated, err := s.vpsRepo.FindByID(ctx, vps.ID)
	if err != nil {
		return nil, errs.Internal(vpsComponent, err)
	}
	return mapToVPSResponse(updated), nil
}

// SyncProvisioning syncs every VPS still provisioning and returns how many were synced.
func (s *vpsService) SyncProvisioning(ctx context.Context) (int, error) {
	pending, err := s.vpsRepo.List(ctx, repository.VPSFilter{Status: entity.VPSStatusProvisioning})
	if err != nil {
		return 0, errs.Internal(vpsComponent, err)
	}

	synced := 0
	for _, vps := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if _, err := s.SyncVPS(ctx, vps.ID); err != nil {
			s.logger.Warn("VPS sync failed", logger.ErrorField(err), logger.Field("vps_id", vps.ID))
			continue
		}
		synced++
	}
	s.logger.Info("Provisioning sweep finished", logger.IntField("total", len(pending)), logger.IntField("synced", synced))
	return synced, nil
}

func (s *vpsService) GetVPSByID(ctx context.Context, id uint) (*dto.VPSResponse, error) {
	vps, err := s.vpsRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(vpsComponent, err, "VPS not found")
	}
	return mapToVPSResponse(vps), nil
}

func (s *vpsService) ListVPS(ctx context.Context, req *dto.ListVPSRequest) ([]*dto.VPSResponse, error) {
	items, err := s.vpsRepo.List(ctx, repository.VPSFilter{AccountID: optionalID(req.AccountID), Status: entity.VPSStatus(req.Status)})
	if err != nil {
		return nil, errs.Internal(vpsComponent, err)
	}
	out := make([]*dto.VPSResponse, 0, len(items))
	for i := range items {
		out = append(out, mapToVPSResponse(&items[i]))
	}
	return out, nil
}

// DeleteVPS destroys the provider instance, drops the row and resets the account pipeline.
// A provider failure is logged and does not keep the row.
func (s *vpsService) DeleteVPS(ctx context.Context, id uint) error {
	vps, err := s.vpsRepo.FindByID(ctx, id)
	if err != nil {
		return lookupError(vpsComponent, err, "VPS not found")
	}

	release, err := acquire(ctx, s.locker, common.VPSLockKey(vps.AccountID), s.opts.LockWait, vpsComponent, "VPS is being updated, try again")
	if err != nil {
		return err
	}
	defer release()

	if vps.Provider == vultr.ProviderName && vps.ProviderInstanceID != "" {
		if err := s.provisioner.DeleteInstance(ctx, vps.ProviderInstanceID); err != nil && !vultr.IsNotFound(err) {
			s.logger.Error("Failed to delete provider instance", logger.ErrorField(err), logger.StringField("instance_id", vps.ProviderInstanceID))
		}
	}

	reset, _ := entity.TransitionAutomation(entity.AutomationNone, entity.AutomationEventReset)
	err = s.tx.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.vpsRepo.WithTx(tx).Delete(ctx, vps.ID); err != nil {
			return err
		}
		err := s.accountRepo.WithTx(tx).UpdateFields(ctx, vps.AccountID, map[string]interface{}{
			"automation_status": reset,
			"automation_notes":  "VPS deleted",
		})
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	})
	if err != nil {
		return lookupError(vpsComponent, err, "VPS not found")
	}

	s.logger.Info("VPS deleted", logger.Field("vps_id", vps.ID), logger.StringField("instance_id", vps.ProviderInstanceID))
	return nil
}

// ProvisioningOptions returns the curated catalog plus one live catalog selected by action.
func (s *vpsService) ProvisioningOptions(ctx context.Context, action string) (*dto.ProvisioningOptionsResponse, error) {
	resp := &dto.ProvisioningOptionsResponse{
		RecommendedPlans:   vultr.RecommendedPlans,
		RecommendedRegions: vultr.RecommendedRegions,
		WindowsOS:          vultr.WindowsOS,
	}

	var err error
	switch action {
	case "":
	case "regions":
		resp.Regions, err = cached(s.catalog, common.CacheKeyProvisioningRegions, func() ([]vultr.Region, error) {
			return s.provisioner.ListRegions(ctx)
		})
	case "plans":
		resp.Plans, err = cached(s.catalog, common.CacheKeyProvisioningPlans, func() ([]vultr.Plan, error) {
			return s.provisioner.ListWindowsPlans(ctx)
		})
	case "os":
		resp.OS, err = cached(s.catalog, common.CacheKeyProvisioningOS, func() ([]vultr.OS, error) {
			return s.provisioner.ListWindowsOS(ctx)
		})
	case "account":
		resp.Account, err = cached(s.catalog, common.CacheKeyProvisioningAccount, func() (*vultr.Account, error) {
			return s.provisioner.GetAccount(ctx)
		})
	default:
		return nil, errs.Validation(vpsComponent, "action", "Invalid action. Must be one of: regions, plans, os, account")
	}
	if err != nil {
		return nil, providerError(err)
	}
	return resp, nil
}

func cached[T any](c *cache.Cache, key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.SetDefault(key, v)
	return v, nil
}
