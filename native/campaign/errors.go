package campaign

import "errors"

var (
	ErrNilState                = errors.New("campaign: state not configured")
	ErrNotFactory              = errors.New("campaign: caller is not the factory")
	ErrNotOwner                = errors.New("campaign: caller is not the campaign owner")
	ErrCampaignNotFound        = errors.New("campaign: not found")
	ErrCampaignExists          = errors.New("campaign: already deployed")
	ErrInvalidAddress          = errors.New("campaign: invalid address")
	ErrInvalidDatesSet         = errors.New("campaign: invalid dates set")
	ErrMaxOf5TokensExceeded    = errors.New("campaign: more than 5 additional tokens")
	ErrFundingPeriodNotStarted = errors.New("campaign: funding period not started")
	ErrFundingPeriodOver       = errors.New("campaign: funding period over")
	ErrFundingStillActive      = errors.New("campaign: funding still active")
	ErrFundingPaused           = errors.New("campaign: funding paused")
	ErrFundingDisapproved      = errors.New("campaign: funding disapproved")
	ErrFundingNotApproved      = errors.New("campaign: funding not approved")
	ErrInvalidAmount           = errors.New("campaign: invalid amount")
	ErrTokenNotAllowed         = errors.New("campaign: token not allowed")
	ErrValueSentNotEqualAmount = errors.New("campaign: value sent does not equal amount")
	ErrFundingLimitExceeded    = errors.New("campaign: funding limit exceeded")
	ErrAlreadyApproved         = errors.New("campaign: withdrawal already approved")
	ErrNotApproved             = errors.New("campaign: withdrawal not approved")
	ErrTokensNotConfigured     = errors.New("campaign: token registry not configured")
)
