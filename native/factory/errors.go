package factory

import "errors"

var (
	ErrNilState               = errors.New("factory: state not configured")
	ErrNotInitialized         = errors.New("factory: not initialised")
	ErrAlreadyInitialized     = errors.New("factory: already initialised")
	ErrNotOwner               = errors.New("factory: caller is not the owner")
	ErrNotModerator           = errors.New("factory: caller is not a moderator")
	ErrInvalidAddress         = errors.New("factory: invalid address")
	ErrFeeOutOfRange          = errors.New("factory: platform fee out of range")
	ErrCapitaPointsAlreadySet = errors.New("factory: capita points address already set")
	ErrContractPaused         = errors.New("factory: contract paused")
	ErrMaxOf5TokensExceeded   = errors.New("factory: more than 5 additional tokens")
	ErrTokenNotAllowed        = errors.New("factory: token not allowed")
	ErrInvalidDatesSet        = errors.New("factory: invalid dates set")
	ErrUnverifiedUser         = errors.New("factory: creator is not verified")
	ErrBatchTooLarge          = errors.New("factory: batch exceeds maximum size")
	ErrAssetNotPriced         = errors.New("factory: asset has no price for the funding limit")
	ErrInvalidAmount          = errors.New("factory: amount must not be negative")
	ErrCampaignsNotConfigured = errors.New("factory: campaign engine not configured")
)
