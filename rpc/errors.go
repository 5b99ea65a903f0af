package rpc

import (
	"errors"
	"net/http"

	"capitafund/core"
	cerrors "capitafund/core/errors"
	"capitafund/native/bank"
	"capitafund/native/campaign"
	"capitafund/native/factory"
	"capitafund/native/fees"
	"capitafund/native/oracle"
	"capitafund/native/points"
	"capitafund/native/token"
)

// ErrorData is attached to failed calls so clients can match on the
// platform error name instead of the message.
type ErrorData struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type namedError struct {
	err  error
	name string
}

var errorNames = []namedError{
	{core.ErrContractCaller, "Capita__ContractCaller"},
	{core.ErrUnknownTok, "Token__Unknown"},
	{factory.ErrNotInitialized, "Capita__NotInitialized"},
	{factory.ErrNotOwner, "Capita__NotOwner"},
	{factory.ErrNotModerator, "Capita__NotModerator"},
	{factory.ErrInvalidAddress, "Capita__InvalidAddress"},
	{factory.ErrFeeOutOfRange, "Capita__FeeOutOfRange"},
	{factory.ErrCapitaPointsAlreadySet, "Capita__CapitaPointsAlreadySet"},
	{factory.ErrContractPaused, "Capita__ContractPaused"},
	{factory.ErrMaxOf5TokensExceeded, "Capita__MaxOf5TokensExceeded"},
	{factory.ErrTokenNotAllowed, "Capita__TokenNotAllowed"},
	{factory.ErrInvalidDatesSet, "Capita__InvalidDatesSet"},
	{factory.ErrUnverifiedUser, "Capita__UnverifiedUser"},
	{factory.ErrBatchTooLarge, "Capita__BatchTooLarge"},
	{factory.ErrAssetNotPriced, "Capita__AssetNotPriced"},
	{factory.ErrInvalidAmount, "Capita__InvalidAmount"},
	{campaign.ErrNotFactory, "ChainFundMe__NotFactory"},
	{campaign.ErrNotOwner, "ChainFundMe__NotOwner"},
	{campaign.ErrCampaignNotFound, "ChainFundMe__NotFound"},
	{campaign.ErrCampaignExists, "ChainFundMe__AlreadyDeployed"},
	{campaign.ErrInvalidAddress, "ChainFundMe__InvalidAddress"},
	{campaign.ErrInvalidDatesSet, "ChainFundMe__InvalidDatesSet"},
	{campaign.ErrMaxOf5TokensExceeded, "ChainFundMe__MaxOf5TokensExceeded"},
	{campaign.ErrFundingPeriodNotStarted, "ChainFundMe__FundingPeriodNotStarted"},
	{campaign.ErrFundingPeriodOver, "ChainFundMe__FundingPeriodOver"},
	{campaign.ErrFundingStillActive, "ChainFundMe__FundingStillActive"},
	{campaign.ErrFundingPaused, "ChainFundMe__FundingPaused"},
	{campaign.ErrFundingDisapproved, "ChainFundMe__FundingDisapproved"},
	{campaign.ErrFundingNotApproved, "ChainFundMe__FundingNotApproved"},
	{campaign.ErrInvalidAmount, "ChainFundMe__InvalidAmount"},
	{campaign.ErrTokenNotAllowed, "ChainFundMe__TokenNotAllowed"},
	{campaign.ErrValueSentNotEqualAmount, "ChainFundMe__ValueSentNotEqualAmount"},
	{campaign.ErrFundingLimitExceeded, "ChainFundMe__FundingLimitExceeded"},
	{campaign.ErrAlreadyApproved, "ChainFundMe__AlreadyApproved"},
	{campaign.ErrNotApproved, "ChainFundMe__NotApproved"},
	{points.ErrNotFactory, "CapitaPoints__NotFactory"},
	{points.ErrInvalidAmount, "CapitaPoints__InvalidAmount"},
	{fees.ErrFeeOutOfRange, "Capita__FeeOutOfRange"},
	{fees.ErrAmountOverflow, "Capita__AmountOverflow"},
	{oracle.ErrInvalidPrice, "Oracle__InvalidPrice"},
	{oracle.ErrFeedNotSet, "Oracle__FeedNotSet"},
	{oracle.ErrInvalidDecimals, "Oracle__InvalidDecimals"},
	{oracle.ErrInvalidAmount, "Oracle__InvalidAmount"},
	{token.ErrUnknownToken, "Token__Unknown"},
	{token.ErrInsufficientFunds, "Token__InsufficientBalance"},
	{token.ErrInsufficientAllow, "Token__InsufficientAllowance"},
	{token.ErrTransferFailed, "Token__TransferFailed"},
	{token.ErrInvalidRecipient, "Token__InvalidRecipient"},
	{token.ErrAmountOverflow, "Token__AmountOverflow"},
	{token.ErrInvalidAmount, "Token__InvalidAmount"},
	{bank.ErrInsufficientBalance, "Native__InsufficientBalance"},
	{bank.ErrInvalidAmount, "Native__InvalidAmount"},
}

// platformError maps an execution failure to its JSON-RPC representation.
// Known platform errors are client errors; anything else is reported as an
// internal failure.
func platformError(err error) (int, *RPCError) {
	for _, named := range errorNames {
		if errors.Is(err, named.err) {
			data := ErrorData{Name: named.name}
			if addr, ok := cerrors.AddressOf(err); ok {
				data.Address = addr.Hex()
			}
			return http.StatusOK, &RPCError{Code: codeExecutionError, Message: err.Error(), Data: data}
		}
	}
	return http.StatusInternalServerError, &RPCError{Code: codeServerError, Message: "internal error", Data: err.Error()}
}
