package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionJob(t *testing.T) {
	tests := []struct {
		from    JobStatus
		event   JobEvent
		want    JobStatus
		illegal bool
	}{
		{JobStatusPending, JobEventStart, JobStatusRunning, false},
		{JobStatusPending, JobEventComplete, JobStatusCompleted, false},
		{JobStatusPending, JobEventCancel, JobStatusCancelled, false},
		{JobStatusRunning, JobEventStart, JobStatusRunning, false},
		{JobStatusRunning, JobEventFail, JobStatusFailed, false},
		{JobStatusCompleted, JobEventStart, JobStatusCompleted, true},
		{JobStatusFailed, JobEventComplete, JobStatusFailed, true},
		{JobStatusCancelled, JobEventCancel, JobStatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			got, err := TransitionJob(tt.from, tt.event)
			assert.Equal(t, tt.want, got)
			if tt.illegal {
				assert.ErrorIs(t, err, ErrIllegalTransition)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJobEventFor(t *testing.T) {
	ev, ok := JobEventFor(JobStatusCompleted)
	require.True(t, ok)
	assert.Equal(t, JobEventComplete, ev)

	_, ok = JobEventFor(JobStatusPending)
	assert.False(t, ok)
}

func TestTransitionAutomationHappyPath(t *testing.T) {
	s := AutomationNone
	var err error
	for _, ev := range []AutomationEvent{
		AutomationEventProvisionStarted,
		AutomationEventVPSReady,
		AutomationEventDeployStarted,
		AutomationEventDeploySucceeded,
		AutomationEventDeployStarted,
		AutomationEventDeployFailed,
	} {
		s, err = TransitionAutomation(s, ev)
		require.NoError(t, err, string(ev))
	}
	assert.Equal(t, AutomationError, s)
}

func TestTransitionAutomationRejectsJumps(t *testing.T) {
	_, err := TransitionAutomation(AutomationNone, AutomationEventDeployStarted)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = TransitionAutomation(AutomationVPSReady, AutomationEventDeploySucceeded)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = TransitionAutomation(AutomationEADeploying, AutomationEventVPSReady)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	got, err := TransitionAutomation(AutomationEADeploying, AutomationEventReset)
	require.NoError(t, err)
	assert.Equal(t, AutomationNone, got)

	got, err = TransitionAutomation(AutomationActive, AutomationEventFault)
	require.NoError(t, err)
	assert.Equal(t, AutomationError, got)
}

func TestTransitionVPS(t *testing.T) {
	got, err := TransitionVPS(VPSStatusProvisioning, VPSEventReady)
	require.NoError(t, err)
	assert.Equal(t, VPSStatusActive, got)

	_, err = TransitionVPS(VPSStatusActive, VPSEventProvision)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestTransitionAccount(t *testing.T) {
	got, err := TransitionAccount(AccountStatusPending, AccountEventApprove)
	require.NoError(t, err)
	assert.Equal(t, AccountStatusActive, got)

	_, err = TransitionAccount(AccountStatusRejected, AccountEventApprove)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	var ite *IllegalTransitionError
	_, err = TransitionAccount(AccountStatusActive, AccountEventReject)
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, "account", ite.Machine)
}

func TestGainPercentage(t *testing.T) {
	assert.True(t, GainPercentage(decimal.NewFromInt(50), decimal.NewFromInt(1000)).Equal(decimal.NewFromInt(5)))
	assert.True(t, GainPercentage(decimal.NewFromInt(50), decimal.Zero).IsZero())
	assert.True(t, GainPercentage(decimal.NewFromInt(-10), decimal.NewFromInt(-5)).IsZero())
	assert.Equal(t, "33.33", GainPercentage(decimal.NewFromInt(1), decimal.NewFromInt(3)).String())
	assert.Equal(t, "-10", GainPercentage(decimal.NewFromInt(-100), decimal.NewFromInt(1000)).String())
	assert.Equal(t, "-33.33", GainPercentage(decimal.NewFromInt(-1), decimal.NewFromInt(3)).String())
}

func TestGainPercentageFitsColumn(t *testing.T) {
	tiny := decimal.RequireFromString("0.01")
	assert.Equal(t, "99999999.99", GainPercentage(decimal.NewFromInt(5000000), tiny).String())
	assert.Equal(t, "-99999999.99", GainPercentage(decimal.NewFromInt(-5000000), tiny).String())
}

func TestJobTypeAndProgress(t *testing.T) {
	assert.True(t, JobTypeEADeploy.Valid())
	assert.False(t, JobType("reboot").Valid())
	assert.Equal(t, 0, ClampProgress(-5))
	assert.Equal(t, 100, ClampProgress(150))
	assert.Equal(t, 42, ClampProgress(42))
}
