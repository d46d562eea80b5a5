package entity

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is matched by every rejected state change.
var ErrIllegalTransition = errors.New("illegal state transition")

// IllegalTransitionError names the machine, the state and the refused event.
type IllegalTransitionError struct {
	Machine string
	From    string
	Event   string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: cannot apply %q in state %q", e.Machine, e.Event, e.From)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// JobEvent drives the job state machine.
type JobEvent string

const (
	JobEventStart    JobEvent = "start"
	JobEventComplete JobEvent = "complete"
	JobEventFail     JobEvent = "fail"
	JobEventCancel   JobEvent = "cancel"
)

var jobTransitions = map[JobStatus]map[JobEvent]JobStatus{
	JobStatusPending: {
		JobEventStart:    JobStatusRunning,
		JobEventComplete: JobStatusCompleted,
		JobEventFail:     JobStatusFailed,
		JobEventCancel:   JobStatusCancelled,
	},
	JobStatusRunning: {
		JobEventStart:    JobStatusRunning,
		JobEventComplete: JobStatusCompleted,
		JobEventFail:     JobStatusFailed,
		JobEventCancel:   JobStatusCancelled,
	},
}

// TransitionJob returns the status reached by applying ev to current.
func TransitionJob(current JobStatus, ev JobEvent) (JobStatus, error) {
	if next, ok := jobTransitions[current][ev]; ok {
		return next, nil
	}
	return current, &IllegalTransitionError{Machine: "job", From: string(current), Event: string(ev)}
}

// JobEventFor maps a requested target status onto the event that reaches it.
func JobEventFor(target JobStatus) (JobEvent, bool) {
	switch target {
	case JobStatusRunning:
		return JobEventStart, true
	case JobStatusCompleted:
		return JobEventComplete, true
	case JobStatusFailed:
		return JobEventFail, true
	case JobStatusCancelled:
		return JobEventCancel, true
	}
	return "", false
}

// AutomationEvent drives the per-account automation state machine.
type AutomationEvent string

const (
	AutomationEventProvisionStarted AutomationEvent = "provision_started"
	AutomationEventVPSReady         AutomationEvent = "vps_ready"
	AutomationEventDeployStarted    AutomationEvent = "deploy_started"
	AutomationEventDeploySucceeded  AutomationEvent = "deploy_succeeded"
	AutomationEventDeployFailed     AutomationEvent = "deploy_failed"
	AutomationEventFault            AutomationEvent = "fault"
	AutomationEventReset            AutomationEvent = "reset"
)

var automationTransitions = map[AutomationEvent]struct {
	from []AutomationStatus
	to   AutomationStatus
}{
	AutomationEventProvisionStarted: {from: []AutomationStatus{AutomationNone, AutomationError}, to: AutomationVPSProvisioning},
	AutomationEventVPSReady:         {from: []AutomationStatus{AutomationNone, AutomationVPSProvisioning, AutomationError}, to: AutomationVPSReady},
	AutomationEventDeployStarted:    {from: []AutomationStatus{AutomationVPSReady, AutomationEADeploying, AutomationActive, AutomationError}, to: AutomationEADeploying},
	AutomationEventDeploySucceeded:  {from: []AutomationStatus{AutomationEADeploying}, to: AutomationActive},
	AutomationEventDeployFailed:     {from: []AutomationStatus{AutomationEADeploying}, to: AutomationError},
}

// TransitionAutomation returns the status reached by applying ev to current.
func TransitionAutomation(current AutomationStatus, ev AutomationEvent) (AutomationStatus, error) {
	switch ev {
	case AutomationEventFault:
		return AutomationError, nil
	case AutomationEventReset:
		return AutomationNone, nil
	}
	rule, ok := automationTransitions[ev]
	if ok {
		for _, from := range rule.from {
			if from == current {
				return rule.to, nil
			}
		}
	}
	return current, &IllegalTransitionError{Machine: "automation", From: string(current), Event: string(ev)}
}

// VPSEvent drives the VPS state machine.
type VPSEvent string

const (
	VPSEventProvision VPSEvent = "provision"
	VPSEventReady     VPSEvent = "ready"
	VPSEventFail      VPSEvent = "fail"
)

var vpsTransitions = map[VPSStatus]map[VPSEvent]VPSStatus{
	VPSStatusPending: {
		VPSEventProvision: VPSStatusProvisioning,
		VPSEventReady:     VPSStatusActive,
		VPSEventFail:      VPSStatusError,
	},
	VPSStatusProvisioning: {
		VPSEventProvision: VPSStatusProvisioning,
		VPSEventReady:     VPSStatusActive,
		VPSEventFail:      VPSStatusError,
	},
	VPSStatusActive: {
		VPSEventReady: VPSStatusActive,
		VPSEventFail:  VPSStatusError,
	},
	VPSStatusError: {
		VPSEventProvision: VPSStatusProvisioning,
		VPSEventReady:     VPSStatusActive,
		VPSEventFail:      VPSStatusError,
	},
}

// TransitionVPS returns the status reached by applying ev to current.
func TransitionVPS(current VPSStatus, ev VPSEvent) (VPSStatus, error) {
	if next, ok := vpsTransitions[current][ev]; ok {
		return next, nil
	}
	return current, &IllegalTransitionError{Machine: "vps", From: string(current), Event: string(ev)}
}

// AccountEvent drives the account approval state machine.
type AccountEvent string

const (
	AccountEventApprove AccountEvent = "approve"
	AccountEventReject  AccountEvent = "reject"
	AccountEventSuspend AccountEvent = "suspend"
)

var accountTransitions = map[AccountStatus]map[AccountEvent]AccountStatus{
	AccountStatusPending: {
		AccountEventApprove: AccountStatusActive,
		AccountEventReject:  AccountStatusRejected,
	},
	AccountStatusActive: {
		AccountEventSuspend: AccountStatusSuspended,
	},
	AccountStatusSuspended: {
		AccountEventApprove: AccountStatusActive,
	},
}

// TransitionAccount returns the status reached by applying ev to current.
func TransitionAccount(current AccountStatus, ev AccountEvent) (AccountStatus, error) {
	if next, ok := accountTransitions[current][ev]; ok {
		return next, nil
	}
	return current, &IllegalTransitionError{Machine: "account", From: string(current), Event: string(ev)}
}
