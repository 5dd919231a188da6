package common

// AppName prefixes backup file names and well-known metadata keys.
const AppName = "life-os"

// Well-known metadata keys.
const (
	CredentialKey     = AppName + "-pin-hash"
	CurrencyKey       = AppName + "-currency"
	ReminderKeyPrefix = "reminder-"
)

const (
	MinPINLength        = 4
	BackupFormatVersion = "1.0"
)
