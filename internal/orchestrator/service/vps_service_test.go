package service_test

import (
	"errors"
	"sync"
	"testing"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/repository/repotest"
	"golang-ea-automation/internal/orchestrator/service"
	"golang-ea-automation/pkg/errs"
	"golang-ea-automation/pkg/vultr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostname(t *testing.T) {
	assert.Equal(t, "mt5-7", service.Hostname("7"))
	assert.Equal(t, "mt5-ab123", service.Hostname("AB_12.3"))
}

func TestProvisionVPSOncePerAccount(t *testing.T) {
	env := newTestEnv(t)
	acct := repotest.SeedAccount(t, env.db, env.owner.ID, "7", entity.AccountStatusActive)

	res, err := env.vps.ProvisionVPS(env.ctx, &dto.ProvisionVPSRequest{AccountID: acct.ID}, env.admin.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "provisioning", res.VPS.Status)
	assert.Equal(t, 3389, res.VPS.Port)
	assert.Equal(t, "Administrator", res.VPS.Username)
	assert.Equal(t, "windows", res.VPS.OSType)
	assert.Equal(t, "vultr", res.VPS.Provider)
	assert.Equal(t, "inst-new", res.VPS.ProviderInstanceID)
	assert.Equal(t, "MT5-7", res.VPS.Name)
	assert.Nil(t, res.VPS.IPAddress)
	assert.Equal(t, "Vultr instance created. ID: inst-new", res.VPS.Notes)
	assert.JSONEq(t, `{"os_id":1713,"hostname":"mt5-7","created_at":"2026-10-17T08:00:00+00:00"}`, string(res.VPS.ProviderMetadata))

	_, err = env.vps.ProvisionVPS(env.ctx, &dto.ProvisionVPSRequest{AccountID: acct.ID}, env.admin.ID)
	assert.Equal(t, errs.CodeConflict, errs.CodeOf(err))

	require.Equal(t, 1, env.provisioner.createCount())
	sent := env.provisioner.creates[0]
	assert.Equal(t, "ewr", sent.Region)
	assert.Equal(t, "vc2-1c-2gb", sent.Plan)
	assert.Equal(t, 1713, sent.OSID)
	assert.Equal(t, "MT5-7", sent.Label)
	assert.Equal(t, "mt5-7", sent.Hostname)
	assert.Equal(t, "disabled", sent.Backups)
	assert.False(t, sent.EnableIPv6)
	assert.False(t, sent.ActivationEmail)

	row, err := env.vpsRepo.FindByAccountID(env.ctx, acct.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Pa55word!", row.EncryptedSSHPassword)
	plain, err := env.sealer.Open(row.EncryptedSSHPassword)
	require.NoError(t, err)
	assert.Equal(t, "Pa55word!", plain)

	assert.Equal(t, entity.AutomationVPSProvisioning, env.account(t, acct.ID).AutomationStatus)
	assert.Equal(t, []entity.NotificationType{entity.NotificationVPSProvisioning}, env.dispatcher.userTypes())
}

func TestProvisionVPSConcurrentCallersCreateOneInstance(t *testing.T) {
	env := newTestEnv(t)
	acct := repotest.SeedAccount(t, env.db, env.owner.ID, "72", entity.AccountStatusActive)

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.vps.ProvisionVPS(env.ctx, &dto.ProvisionVPSRequest{AccountID: acct.ID}, env.admin.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, errs.CodeConflict, errs.CodeOf(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, env.provisioner.createCount())
	assert.Equal(t, []entity.NotificationType{entity.NotificationVPSProvisioning}, env.dispatcher.userTypes())
}

func TestProvisionVPSProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	acct := repotest.SeedAccount(t, env.db, env.owner.ID, "70", entity.AccountStatusActive)
	env.provisioner.createErr = &vultr.ProviderError{StatusCode: 400, Message: "Invalid plan"}

	_, err := env.vps.ProvisionVPS(env.ctx, &dto.ProvisionVPSRequest{AccountID: acct.ID, Plan: "nope"}, env.admin.ID)
	require.Error(t, err)
	assert.Equal(t, errs.CodeProvider, errs.CodeOf(err))
	assert.Equal(t, "Invalid plan", errs.MessageOf(err))

	_, err = env.vpsRepo.FindByAccountID(env.ctx, acct.ID)
	assert.Error(t, err)
	assert.Equal(t, entity.AutomationNone, env.account(t, acct.ID).AutomationStatus)
	assert.Empty(t, env.dispatcher.userTypes())
}

func TestProvisionVPSUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.vps.ProvisionVPS(env.ctx, &dto.ProvisionVPSRequest{AccountID: 404}, env.admin.ID)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
	assert.Zero(t, env.provisioner.createCount())
}

func TestSyncVPSNotifiesOnceWhenReady(t *testing.T) {
	env := newTestEnv(t)
	acct := repotest.SeedAccount(t, env.db, env.owner.ID, "71", entity.AccountStatusActive)
	env.setAutomation(t, acct.ID, entity.AutomationVPSProvisioning)
	vps := repotest.SeedVPS(t, env.db, acct.ID, entity.VPSStatusProvisioning)

	env.provisioner.instance = vultr.Instance{Status: "pending", PowerStatus: "stopped", ServerStatus: "none", MainIP: "0.0.0.0"}
	synced, err := env.vps.SyncVPS(env.ctx, vps.ID)
	require.NoError(t, err)
	assert.Equal(t, "provisioning", synced.Status)
	assert.Equal(t, "Vultr status: pending, power: stopped, server: none", synced.Notes)
	assert.Nil(t, synced.IPAddress)
	assert.Empty(t, env.dispatcher.userTypes())

	env.provisioner.instance = vultr.Instance{Status: "active", PowerStatus: "running", ServerStatus: "ok", MainIP: "203.0.113.7"}
	synced, err = env.vps.SyncVPS(env.ctx, vps.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", synced.Status)
	require.NotNil(t, synced.IPAddress)
	assert.Equal(t, "203.0.113.7", *synced.IPAddress)
	assert.Equal(t, "ok", synced.HealthStatus)
	assert.NotNil(t, synced.LastHealthCheck)
	assert.Equal(t, entity.AutomationVPSReady, env.account(t, acct.ID).AutomationStatus)

	_, err = env.vps.SyncVPS(env.ctx, vps.ID)
	require.NoError(t, err)
	assert.Equal(t, []entity.NotificationType{entity.NotificationVPSReady}, env.dispatcher.userTypes())
}

func TestSyncVPSKeepsDeployingAccount(t *testing.T) {
	env := newTestEnv(t)
	acct := repotest.SeedAccount(t, env.db, env.owner.ID, "72", entity.AccountStatusActive)
	env.setAutomation(t, acct.ID, entity.AutomationEADeploying)
	vps := repotest.SeedVPS(t, env.db, acct.ID, entity.VPSStatusError)

	env.provisioner.instance = vultr.Instance{Status: "active", PowerStatus: "running", ServerStatus: "ok", MainIP: "203.0.113.8"}
	synced, err := env.vps.SyncVPS(env.ctx, vps.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", synced.Status)
	assert.Equal(t, entity.AutomationEADeploying, env.account(t, acct.ID).AutomationStatus)
}

func TestSyncVPSProviderError(t *testing.T) {
	env := newTestEnv(t)
	acct := repotest.SeedAccount(t, env.db, env.owner.ID, "73", entity.AccountStatusActive)
	vps := repotest.SeedVPS(t, env.db, acct.ID, entity.VPSStatusProvisioning)
	env.provisioner.getErr = errors.New("dial tcp: connection refused")

	_, err := env.vps.SyncVPS(env.ctx, vps.ID)
	assert.Equal(t, errs.CodeUnavailable, errs.CodeOf(err))

	_, err = env.vps.SyncVPS(env.ctx, 5555)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
}

func TestSyncProvisioning(t *testing.T) {
	env := newTestEnv(t)
	a := repotest.SeedAccount(t, env.db, env.owner.ID, "74", entity.AccountStatusActive)
	b := repotest.SeedAccount(t, env.db, env.owner.ID, "75", entity.AccountStatusActive)
	c := repotest.SeedAccount(t, env.db, env.owner.ID, "76", entity.AccountStatusActive)
	repotest.SeedVPS(t, env.db, a.ID, entity.VPSStatusProvisioning)
	repotest.SeedVPS(t, env.db, b.ID, entity.VPSStatusProvisioning)
	repotest.SeedVPS(t, env.db, c.ID, entity.VPSStatusActive)
	env.provisioner.instance = vultr.Instance{Status: "active", PowerStatus: "running", ServerStatus: "ok", MainIP: "203.0.113.9"}

	synced, err := env.vps.SyncProvisioning(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	left, err := env.vps.ListVPS(env.ctx, &dto.ListVPSRequest{Status: "provisioning"})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDeleteVPSResetsAutomation(t *testing.T) {
	env := newTestEnv(t)
	acct := repotest.SeedAccount(t, env.db, env.owner.ID, "77", entity.AccountStatusActive)
	env.setAutomation(t, acct.ID, entity.AutomationActive)
	vps := repotest.SeedVPS(t, env.db, acct.ID, entity.VPSStatusActive)
	env.provisioner.deleteErr = &vultr.ProviderError{StatusCode: 500, Message: "try later"}

	require.NoError(t, env.vps.DeleteVPS(env.ctx, vps.ID))
	assert.Contains(t, env.provisioner.deleted, vps.ProviderInstanceID)

	_, err := env.vps.GetVPSByID(env.ctx, vps.ID)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
	assert.Equal(t, entity.AutomationNone, env.account(t, acct.ID).AutomationStatus)

	err = env.vps.DeleteVPS(env.ctx, vps.ID)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
}

func TestProvisioningOptions(t *testing.T) {
	env := newTestEnv(t)

	base, err := env.vps.ProvisioningOptions(env.ctx, "")
	require.NoError(t, err)
	assert.Contains(t, base.RecommendedPlans, "basic")
	assert.NotEmpty(t, base.RecommendedRegions)
	assert.Nil(t, base.Regions)

	for i := 0; i < 2; i++ {
		res, err := env.vps.ProvisioningOptions(env.ctx, "regions")
		require.NoError(t, err)
		require.Len(t, res.Regions, 1)
		assert.Equal(t, "ewr", res.Regions[0].ID)
	}
	assert.Equal(t, 1, env.provisioner.regionCalls)

	acct, err := env.vps.ProvisioningOptions(env.ctx, "account")
	require.NoError(t, err)
	require.NotNil(t, acct.Account)
	assert.Equal(t, "ops", acct.Account.Name)

	_, err = env.vps.ProvisioningOptions(env.ctx, "invoices")
	assert.Equal(t, errs.CodeValidation, errs.CodeOf(err))
}
