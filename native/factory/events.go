package factory

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"capitafund/core/types"
)

const (
	EventTypeModeratorAdded          = "ModeratorAdded"
	EventTypeModeratorRemoved        = "ModeratorRemoved"
	EventTypeCapitaPointsAddressSet  = "CapitaPointsAddressSet"
	EventTypeCapitaFactoryPaused     = "CapitaFactoryPaused"
	EventTypeAcceptableTokenSet      = "AcceptableTokenSet"
	EventTypePlatformFeeUpdated      = "PlatformFeeUpdated"
	EventTypeUpdatedFeeWalletAddress = "UpdatedFeeWalletAddress"
	EventTypeCreatorVerified         = "CreatorVerified"
	EventTypeLimitsEnabled           = "LimitsEnabled"
	EventTypeChainFundMeCreated      = "ChainFundMeCreated"
)

func addressEvent(kind, key string, addr common.Address) *types.Event {
	return &types.Event{Type: kind, Attributes: map[string]string{key: addr.Hex()}}
}

func boolEvent(kind, key string, value bool) *types.Event {
	return &types.Event{Type: kind, Attributes: map[string]string{key: strconv.FormatBool(value)}}
}

// NewModeratorAddedEvent reports a granted moderator role.
func NewModeratorAddedEvent(moderator common.Address) *types.Event {
	return addressEvent(EventTypeModeratorAdded, "moderator", moderator)
}

// NewModeratorRemovedEvent reports a revoked moderator role.
func NewModeratorRemovedEvent(moderator common.Address) *types.Event {
	return addressEvent(EventTypeModeratorRemoved, "moderator", moderator)
}

// NewCapitaPointsAddressSetEvent reports the configured points ledger.
func NewCapitaPointsAddressSetEvent(points common.Address) *types.Event {
	return addressEvent(EventTypeCapitaPointsAddressSet, "capitaPoints", points)
}

// NewCapitaFactoryPausedEvent reports the factory pause flag.
func NewCapitaFactoryPausedEvent(paused bool) *types.Event {
	return boolEvent(EventTypeCapitaFactoryPaused, "paused", paused)
}

// NewAcceptableTokenSetEvent reports a token being enabled or disabled.
func NewAcceptableTokenSetEvent(token common.Address, enabled bool) *types.Event {
	evt := addressEvent(EventTypeAcceptableTokenSet, "token", token)
	evt.Attributes["enabled"] = strconv.FormatBool(enabled)
	return evt
}

// NewPlatformFeeUpdatedEvent reports the new fee percentage.
func NewPlatformFeeUpdatedEvent(fee uint64) *types.Event {
	return &types.Event{Type: EventTypePlatformFeeUpdated, Attributes: map[string]string{"fee": strconv.FormatUint(fee, 10)}}
}

// NewUpdatedFeeWalletAddressEvent reports the new fee wallet.
func NewUpdatedFeeWalletAddressEvent(wallet common.Address) *types.Event {
	return addressEvent(EventTypeUpdatedFeeWalletAddress, "feeWallet", wallet)
}

// NewCreatorVerifiedEvent reports a change of a creator's verification.
func NewCreatorVerifiedEvent(creator common.Address, verified bool) *types.Event {
	evt := addressEvent(EventTypeCreatorVerified, "creator", creator)
	evt.Attributes["verified"] = strconv.FormatBool(verified)
	return evt
}

// NewLimitsEnabledEvent reports whether the unverified-creator limit applies.
func NewLimitsEnabledEvent(enabled bool) *types.Event {
	return boolEvent(EventTypeLimitsEnabled, "enabled", enabled)
}

// NewChainFundMeCreatedEvent reports a deployed campaign.
func NewChainFundMeCreatedEvent(creator, campaign common.Address) *types.Event {
	evt := addressEvent(EventTypeChainFundMeCreated, "creator", creator)
	evt.Attributes["campaign"] = campaign.Hex()
	return evt
}
