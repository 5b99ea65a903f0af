package campaign

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"capitafund/core/types"
)

const (
	EventTypeDeposited                   = "Deposited"
	EventTypeWithdrawApproved            = "WithdrawApproved"
	EventTypeApprovalRevoked             = "ApprovalRevoked"
	EventTypeWithdrawnETH                = "WithdrawnETH"
	EventTypeWithdrawnToken              = "WithdrawnToken"
	EventTypeFailedOtherTokensWithdrawal = "FailedOtherTokensWithdrawal"
	EventTypePaused                      = "Paused"
	EventTypeFundingApproved             = "FundingApproved"
	EventTypeFundingDisapproved          = "FundingDisapproved"
	EventTypeCampaignEnded               = "CampaignEnded"
	EventTypeStartTimeUpdated            = "StartTimeUpdated"
	EventTypeEndTimeUpdated              = "EndTimeUpdated"
	EventTypeMetadataURIUpdated          = "MetadataURIUpdated"
)

func newEvent(kind string, campaign common.Address, attrs map[string]string) *types.Event {
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs["campaign"] = campaign.Hex()
	return &types.Event{Type: kind, Attributes: attrs}
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// NewDepositedEvent reports a contribution of amount of token by funder.
func NewDepositedEvent(campaign, funder, token common.Address, amount *big.Int) *types.Event {
	return newEvent(EventTypeDeposited, campaign, map[string]string{
		"funder": funder.Hex(),
		"token":  token.Hex(),
		"amount": amountString(amount),
	})
}

// NewWithdrawApprovedEvent reports that moderators released the funds.
func NewWithdrawApprovedEvent(campaign common.Address) *types.Event {
	return newEvent(EventTypeWithdrawApproved, campaign, nil)
}

// NewApprovalRevokedEvent reports a change of the revocation flag.
func NewApprovalRevokedEvent(campaign common.Address, revoked bool) *types.Event {
	return newEvent(EventTypeApprovalRevoked, campaign, map[string]string{"revoked": strconv.FormatBool(revoked)})
}

// NewWithdrawnETHEvent reports a native-coin withdrawal.
func NewWithdrawnETHEvent(campaign, owner common.Address, amount *big.Int) *types.Event {
	return newEvent(EventTypeWithdrawnETH, campaign, map[string]string{
		"owner":  owner.Hex(),
		"amount": amountString(amount),
	})
}

// NewWithdrawnTokenEvent reports a token withdrawal.
func NewWithdrawnTokenEvent(campaign, owner common.Address, amount *big.Int, token common.Address) *types.Event {
	return newEvent(EventTypeWithdrawnToken, campaign, map[string]string{
		"owner":  owner.Hex(),
		"amount": amountString(amount),
		"token":  token.Hex(),
	})
}

// NewFailedOtherTokensWithdrawalEvent lists the tokens that could not be
// withdrawn, comma separated.
func NewFailedOtherTokensWithdrawalEvent(campaign common.Address, tokens []common.Address) *types.Event {
	hexes := make([]string, len(tokens))
	for i, token := range tokens {
		hexes[i] = token.Hex()
	}
	return newEvent(EventTypeFailedOtherTokensWithdrawal, campaign, map[string]string{"tokens": strings.Join(hexes, ",")})
}

// NewPausedEvent reports a change of the pause flag.
func NewPausedEvent(campaign common.Address, paused bool) *types.Event {
	return newEvent(EventTypePaused, campaign, map[string]string{"paused": strconv.FormatBool(paused)})
}

// NewFundingApprovedEvent reports that funding was approved.
func NewFundingApprovedEvent(campaign common.Address, approved bool) *types.Event {
	return newEvent(EventTypeFundingApproved, campaign, map[string]string{"approved": strconv.FormatBool(approved)})
}

// NewFundingDisapprovedEvent reports a change of the disapproval flag.
func NewFundingDisapprovedEvent(campaign common.Address, disapproved bool) *types.Event {
	return newEvent(EventTypeFundingDisapproved, campaign, map[string]string{"disapproved": strconv.FormatBool(disapproved)})
}

// NewCampaignEndedEvent reports that the owner ended the campaign.
func NewCampaignEndedEvent(campaign common.Address, endTime uint64) *types.Event {
	return newEvent(EventTypeCampaignEnded, campaign, map[string]string{"endTime": strconv.FormatUint(endTime, 10)})
}

// NewStartTimeUpdatedEvent reports a rescheduled start.
func NewStartTimeUpdatedEvent(campaign common.Address, startTime uint64) *types.Event {
	return newEvent(EventTypeStartTimeUpdated, campaign, map[string]string{"startTime": strconv.FormatUint(startTime, 10)})
}

// NewEndTimeUpdatedEvent reports a rescheduled end.
func NewEndTimeUpdatedEvent(campaign common.Address, endTime uint64) *types.Event {
	return newEvent(EventTypeEndTimeUpdated, campaign, map[string]string{"endTime": strconv.FormatUint(endTime, 10)})
}

// NewMetadataURIUpdatedEvent reports a new metadata pointer.
func NewMetadataURIUpdatedEvent(campaign common.Address, uri string) *types.Event {
	return newEvent(EventTypeMetadataURIUpdated, campaign, map[string]string{"uri": uri})
}
