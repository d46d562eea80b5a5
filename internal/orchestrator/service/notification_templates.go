package service

import (
	"fmt"

	"golang-ea-automation/internal/entity"
)

// Message is a notification ready to be stored for one or more recipients.
type Message struct {
	Type  entity.NotificationType
	Title string
	Body  string
}

// MT5RequestSubmitted is sent to admins when a user connects an account.
func MT5RequestSubmitted(accountNumber, userEmail string) Message {
	return Message{
		Type:  entity.NotificationMT5Request,
		Title: "New MT5 Connection Request",
		Body:  fmt.Sprintf("User %s has submitted a connection request for MT5 account %s. Please review and approve/reject.", userEmail, accountNumber),
	}
}

func MT5Approved(accountNumber string) Message {
	return Message{
		Type:  entity.NotificationMT5Approved,
		Title: "MT5 Account Approved",
		Body:  fmt.Sprintf("Your MT5 account %s has been approved! VPS setup will begin shortly.", accountNumber),
	}
}

func MT5Rejected(accountNumber, reason string) Message {
	body := fmt.Sprintf("Your MT5 account %s request was rejected. Please contact support for more information.", accountNumber)
	if reason != "" {
		body = fmt.Sprintf("Your MT5 account %s request was rejected. Reason: %s", accountNumber, reason)
	}
	return Message{Type: entity.NotificationMT5Rejected, Title: "MT5 Account Request Rejected", Body: body}
}

func VPSProvisioning(accountNumber string) Message {
	return Message{
		Type:  entity.NotificationVPSProvisioning,
		Title: "VPS Setup Started",
		Body:  fmt.Sprintf("VPS provisioning has started for your MT5 account %s. You will be notified when it's ready.", accountNumber),
	}
}

func VPSReady(accountNumber, vpsName string) Message {
	return Message{
		Type:  entity.NotificationVPSReady,
		Title: "VPS Ready",
		Body:  fmt.Sprintf("Your VPS %q is now ready for MT5 account %s. EA deployment will begin shortly.", vpsName, accountNumber),
	}
}

func EADeploying(accountNumber string) Message {
	return Message{
		Type:  entity.NotificationEADeploying,
		Title: "EA Deployment Started",
		Body:  fmt.Sprintf("Expert Advisor is being deployed to your MT5 account %s. This may take a few minutes.", accountNumber),
	}
}

func EADeployed(accountNumber string) Message {
	return Message{
		Type:  entity.NotificationEADeployed,
		Title: "EA Deployed Successfully",
		Body:  fmt.Sprintf("Expert Advisor has been successfully deployed to your MT5 account %s. Automated trading is now active!", accountNumber),
	}
}

// EADeployFailed is sent to admins, not the account owner.
func EADeployFailed(accountNumber, reason string) Message {
	return Message{
		Type:  entity.NotificationEADeployFailed,
		Title: "EA Deployment Failed",
		Body:  fmt.Sprintf("EA deployment failed for MT5 account %s. Error: %s. Please investigate and retry.", accountNumber, reason),
	}
}

func AutomationError(accountNumber, reason string) Message {
	return Message{
		Type:  entity.NotificationAutomationError,
		Title: "Automation Error",
		Body:  fmt.Sprintf("An automation error occurred for MT5 account %s: %s", accountNumber, reason),
	}
}
