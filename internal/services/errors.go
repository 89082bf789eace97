package services

import (
	"errors"
)

// Sentinel errors for the settlement core. Callers branch with errors.Is;
// the idempotency guards (AlreadyDistributed, AlreadyCharged) are treated as
// success no-ops by the API layer, not as failures.
var (
	ErrInsufficientBalance         = errors.New("insufficient balance")
	ErrWalletNotFound              = errors.New("wallet not found")
	ErrWalletInactive              = errors.New("wallet is not active")
	ErrAlreadyDistributed          = errors.New("order already distributed")
	ErrAlreadyCharged              = errors.New("fine already charged")
	ErrDistributionBusy            = errors.New("distribution already in progress for this order")
	ErrTransactionNotFound         = errors.New("transaction not found")
	ErrInvalidStatusTransition     = errors.New("invalid transaction status transition")
	ErrComplaintNotFound           = errors.New("complaint not found")
	ErrInvalidEscalationTransition = errors.New("escalation level cannot decrease")
)
