package points

import "math/big"

// PointsDecimals is the fixed-point precision of a points balance. One point
// corresponds to one USD of contribution value.
const PointsDecimals = 18

// BasePoints is credited to a creator for every campaign they create.
var BasePoints = new(big.Int).Mul(big.NewInt(100), new(big.Int).Exp(big.NewInt(10), big.NewInt(PointsDecimals), nil))

const (
	// ReasonCampaign marks the flat campaign-creation bonus.
	ReasonCampaign = "campaign"
	// ReasonContribution marks points earned by funding a campaign.
	ReasonContribution = "contribution"
)
