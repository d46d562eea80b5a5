package common

import "fmt"

const (
	LockKeyPrefix = "ea-automation:lock:"

	CacheKeyProvisioningRegions = "vultr:regions"
	CacheKeyProvisioningPlans   = "vultr:plans"
	CacheKeyProvisioningOS      = "vultr:os"
	CacheKeyProvisioningAccount = "vultr:account"

	DefaultJobListLimit = 50
	MaxJobListLimit     = 200

	VPSDefaultPort     = 3389
	VPSDefaultUsername = "Administrator"
	VPSDefaultOSType   = "windows"
)

// JobLockKey serialises job creation for one account and job type.
func JobLockKey(accountID uint, jobType string) string {
	return fmt.Sprintf("job:%d:%s", accountID, jobType)
}

// VPSLockKey serialises VPS creation for one account.
func VPSLockKey(accountID uint) string {
	return fmt.Sprintf("vps:%d", accountID)
}

// AccountLockKey serialises account connection for one number/server pair.
func AccountLockKey(accountNumber, server string) string {
	return fmt.Sprintf("account:%s@%s", accountNumber, server)
}
