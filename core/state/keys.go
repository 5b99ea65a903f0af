package state

import (
	"github.com/ethereum/go-ethereum/common"
)

var (
	nativeBalancePrefix       = []byte("native/balance/")
	tokenBalancePrefix        = []byte("token/balance/")
	tokenAllowancePrefix      = []byte("token/allowance/")
	factoryRecordKey          = []byte("factory/record")
	factoryModeratorPrefix    = []byte("factory/moderator/")
	factoryVerifiedPrefix     = []byte("factory/verified/")
	factoryAcceptablePrefix   = []byte("factory/acceptable/")
	factoryAcceptableSeen     = []byte("factory/acceptable-seen/")
	factoryAcceptableList     = []byte("factory/acceptable-list")
	factoryCampaignList       = []byte("factory/campaigns")
	factoryUserCampaignPrefix = []byte("factory/user-campaigns/")
	factoryFeeTotalsPrefix    = []byte("factory/fee-totals/")
	campaignRecordPrefix      = []byte("campaign/record/")
	campaignFunderPrefix      = []byte("campaign/funders/")
	campaignContribPrefix     = []byte("campaign/contribution/")
	pointsBalancePrefix       = []byte("points/balance/")
	eventLogKey               = []byte("events/log")
	heightKey                 = []byte("node/height")
)

func addrKey(prefix []byte, addrs ...common.Address) []byte {
	buf := make([]byte, 0, len(prefix)+len(addrs)*common.AddressLength)
	buf = append(buf, prefix...)
	for _, addr := range addrs {
		buf = append(buf, addr.Bytes()...)
	}
	return buf
}
