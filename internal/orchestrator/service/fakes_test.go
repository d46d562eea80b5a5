package service_test

import (
	"context"
	"sync"
	"testing"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/repository"
	"golang-ea-automation/internal/orchestrator/repository/repotest"
	"golang-ea-automation/internal/orchestrator/service"
	"golang-ea-automation/internal/orchestrator/strategy"
	"golang-ea-automation/pkg/bridge"
	"golang-ea-automation/pkg/errs"
	"golang-ea-automation/pkg/lock"
	"golang-ea-automation/pkg/logger"
	"golang-ea-automation/pkg/secret"
	"golang-ea-automation/pkg/vultr"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMessage struct {
	userID uint
	msg    service.Message
}

type recordingDispatcher struct {
	mu     sync.Mutex
	users  []sentMessage
	admins []service.Message
}

func (d *recordingDispatcher) NotifyUser(_ context.Context, userID uint, msg service.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = append(d.users, sentMessage{userID: userID, msg: msg})
	return nil
}

func (d *recordingDispatcher) NotifyAdmins(_ context.Context, msg service.Message) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.admins = append(d.admins, msg)
	return 1, nil
}

func (d *recordingDispatcher) userTypes() []entity.NotificationType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]entity.NotificationType, 0, len(d.users))
	for _, s := range d.users {
		out = append(out, s.msg.Type)
	}
	return out
}

func (d *recordingDispatcher) adminMessages() []service.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]service.Message(nil), d.admins...)
}

type fakeProvisioner struct {
	mu          sync.Mutex
	creates     []vultr.CreateInstanceRequest
	createErr   error
	instance    vultr.Instance
	getErr      error
	deleted     []string
	deleteErr   error
	regionCalls int
}

func (p *fakeProvisioner) CreateInstance(_ context.Context, req vultr.CreateInstanceRequest) (*vultr.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates = append(p.creates, req)
	if p.createErr != nil {
		return nil, p.createErr
	}
	inst := p.instance
	return &inst, nil
}

func (p *fakeProvisioner) GetInstance(_ context.Context, id string) (*vultr.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return nil, p.getErr
	}
	inst := p.instance
	inst.ID = id
	return &inst, nil
}

func (p *fakeProvisioner) DeleteInstance(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, id)
	return p.deleteErr
}

func (p *fakeProvisioner) GetAccount(context.Context) (*vultr.Account, error) {
	return &vultr.Account{Name: "ops", Balance: -12.5}, nil
}

func (p *fakeProvisioner) ListRegions(context.Context) ([]vultr.Region, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regionCalls++
	return []vultr.Region{{ID: "ewr", City: "New Jersey", Country: "US"}}, nil
}

func (p *fakeProvisioner) ListWindowsPlans(context.Context) ([]vultr.Plan, error) {
	return []vultr.Plan{{ID: "vc2-1c-2gb", RAM: 2048}}, nil
}

func (p *fakeProvisioner) ListWindowsOS(context.Context) ([]vultr.OS, error) {
	return []vultr.OS{{ID: 1713, Name: "Windows 2022 Standard x64", Family: "windows"}}, nil
}

func (p *fakeProvisioner) createCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creates)
}

type fakeBridge struct {
	mu        sync.Mutex
	snapshots map[string]*bridge.AccountSnapshot
	failures  map[string]error
	ea        map[string]*bridge.EAStatus
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		snapshots: map[string]*bridge.AccountSnapshot{},
		failures:  map[string]error{},
		ea:        map[string]*bridge.EAStatus{},
	}
}

func (b *fakeBridge) AccountSnapshot(_ context.Context, account, _ string) (*bridge.AccountSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failures[account]; err != nil {
		return nil, err
	}
	if snap, ok := b.snapshots[account]; ok {
		return snap, nil
	}
	return nil, errs.New("bridge", errs.CodeNotFound, errs.WithMessage("account not logged in"))
}

func (b *fakeBridge) EAStatus(_ context.Context, account, _ string) (*bridge.EAStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failures[account]; err != nil {
		return nil, err
	}
	if st, ok := b.ea[account]; ok {
		return st, nil
	}
	return &bridge.EAStatus{}, nil
}

func bridgeDown() error {
	return errs.New("bridge", errs.CodeUnavailable, errs.WithMessage("MT5 service is not running. Please start the bridge service on the VPS."))
}

type testEnv struct {
	ctx         context.Context
	db          *gorm.DB
	dispatcher  *recordingDispatcher
	provisioner *fakeProvisioner
	bridge      *fakeBridge
	sealer      secret.Sealer

	accountRepo repository.TradingAccountRepository
	vpsRepo     repository.VPSInstanceRepository
	jobRepo     repository.AutomationJobRepository

	jobs        service.JobService
	deployments service.DeploymentService
	vps         service.VPSService
	accounts    service.AccountService

	admin *entity.User
	owner *entity.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := repotest.NewDB(t)
	log := logger.NewNop()
	sealer, err := secret.NewAESGCM("test-encryption-key")
	require.NoError(t, err)

	env := &testEnv{
		ctx:         context.Background(),
		db:          db,
		dispatcher:  &recordingDispatcher{},
		provisioner: &fakeProvisioner{instance: vultr.Instance{ID: "inst-new", Status: "pending", MainIP: "0.0.0.0", DefaultPassword: "Pa55word!", DateCreated: "2026-10-17T08:00:00+00:00"}},
		bridge:      newFakeBridge(),
		sealer:      sealer,
		accountRepo: repository.NewTradingAccountRepository(db),
		vpsRepo:     repository.NewVPSInstanceRepository(db),
		jobRepo:     repository.NewAutomationJobRepository(db),
		admin:       repotest.SeedUser(t, db, "admin@example.com", entity.UserRoleAdmin),
		owner:       repotest.SeedUser(t, db, "owner@example.com", entity.UserRoleUser),
	}

	tx := repository.NewTransactor(db)
	locker := lock.NewLocal()
	opts := service.Options{}
	userRepo := repository.NewUserRepository(db)

	env.vps = service.NewVPSService(tx, env.vpsRepo, env.accountRepo, env.provisioner, sealer, locker, env.dispatcher, opts, log)
	env.accounts = service.NewAccountService(env.accountRepo, env.vpsRepo, userRepo, env.bridge, sealer, locker, env.dispatcher, opts, log)
	env.deployments = service.NewDeploymentService(tx, env.jobRepo, env.accountRepo, env.vpsRepo, locker, env.dispatcher, opts, log)
	env.jobs = service.NewJobService(tx, env.jobRepo, env.accountRepo, env.vpsRepo, locker, env.dispatcher, []strategy.JobExecutionStrategy{
		strategy.NewStatusCheckStrategy(env.bridge, env.accountRepo, log),
		strategy.NewVPSHealthCheckStrategy(env.vps, env.vpsRepo, log),
	}, opts, log)
	return env
}

func (e *testEnv) account(t *testing.T, id uint) *entity.TradingAccount {
	t.Helper()
	a, err := e.accountRepo.FindByID(e.ctx, id)
	require.NoError(t, err)
	return a
}

func (e *testEnv) setAutomation(t *testing.T, id uint, status entity.AutomationStatus) {
	t.Helper()
	require.NoError(t, e.accountRepo.UpdateFields(e.ctx, id, map[string]interface{}{"automation_status": status}))
}

// gatedStrategy holds Execute until release is closed.
type gatedStrategy struct {
	jobType entity.JobType
	started chan struct{}
	release chan struct{}
	output  string
	err     error
}

func newGatedStrategy(jobType entity.JobType) *gatedStrategy {
	return &gatedStrategy{jobType: jobType, started: make(chan struct{}), release: make(chan struct{}), output: "done"}
}

func (g *gatedStrategy) GetType() entity.JobType { return g.jobType }

func (g *gatedStrategy) Execute(ctx context.Context, _ *entity.AutomationJob) (string, error) {
	close(g.started)
	select {
	case <-g.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return g.output, g.err
}

func (e *testEnv) jobServiceWith(strategies ...strategy.JobExecutionStrategy) service.JobService {
	return service.NewJobService(repository.NewTransactor(e.db), e.jobRepo, e.accountRepo, e.vpsRepo,
		lock.NewLocal(), e.dispatcher, strategies, service.Options{}, logger.NewNop())
}
