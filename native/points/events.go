package points

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"capitafund/core/types"
)

const (
	// EventTypePointsCredited is emitted whenever a balance grows.
	EventTypePointsCredited = "PointsCredited"
	// EventTypePointsSkipped is emitted when a contribution cannot be priced.
	EventTypePointsSkipped = "PointsSkipped"
)

// NewPointsCreditedEvent reports points added to spender.
func NewPointsCreditedEvent(spender common.Address, points, balance *big.Int, reason string) *types.Event {
	return &types.Event{
		Type: EventTypePointsCredited,
		Attributes: map[string]string{
			"spender": spender.Hex(),
			"points":  points.String(),
			"balance": balance.String(),
			"reason":  reason,
		},
	}
}

// NewPointsSkippedEvent reports a contribution in an asset without a price.
func NewPointsSkippedEvent(spender, token common.Address, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypePointsSkipped,
		Attributes: map[string]string{
			"spender": spender.Hex(),
			"token":   token.Hex(),
			"amount":  amount.String(),
		},
	}
}
