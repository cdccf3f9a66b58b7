package backupcode

import "errors"

var (
	ErrInvalidCodeCount     = errors.New("invalid backup code count, must be greater than 0")
	ErrFailedToGenerateCode = errors.New("failed to generate backup code")
	ErrCodeMismatch         = errors.New("backup code does not match any entry")
	ErrCodeAlreadyConsumed  = errors.New("backup code already consumed")
	ErrNoCodesRemaining     = errors.New("all backup codes consumed")
	ErrNotEnrolled          = errors.New("no backup codes enrolled")
	ErrStoreRequired        = errors.New("backup code store is required")
)
