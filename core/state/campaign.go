package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"capitafund/core/types"
	"capitafund/native/campaign"
)

// CampaignGet loads the campaign stored at addr.
func (m *Manager) CampaignGet(addr common.Address) (*campaign.Campaign, bool, error) {
	record := new(campaign.Campaign)
	ok, err := m.KVGet(addrKey(campaignRecordPrefix, addr), record)
	if err != nil || !ok {
		return nil, ok, err
	}
	if record.CappedValue == nil {
		record.CappedValue = big.NewInt(0)
	}
	return record, true, nil
}

// CampaignPut stores the campaign record.
func (m *Manager) CampaignPut(record *campaign.Campaign) error {
	if record == nil {
		return fmt.Errorf("state: nil campaign")
	}
	return m.KVPut(addrKey(campaignRecordPrefix, record.Address), record)
}

// CampaignFunderAppend appends an entry to the campaign's deposit log and
// returns its index.
func (m *Manager) CampaignFunderAppend(addr common.Address, funder types.Funder) (uint64, error) {
	entry := funder.Clone()
	return m.IndexedAppend(addrKey(campaignFunderPrefix, addr), &entry)
}

// CampaignFunderCount returns the length of the campaign's deposit log.
func (m *Manager) CampaignFunderCount(addr common.Address) (uint64, error) {
	return m.IndexedLen(addrKey(campaignFunderPrefix, addr))
}

// CampaignFunderGet returns the deposit log entry at index.
func (m *Manager) CampaignFunderGet(addr common.Address, index uint64) (types.Funder, bool, error) {
	var funder types.Funder
	ok, err := m.IndexedGet(addrKey(campaignFunderPrefix, addr), index, &funder)
	if err != nil || !ok {
		return types.Funder{}, ok, err
	}
	return funder.Clone(), true, nil
}

// CampaignContribution returns funder's cumulative contribution of asset to
// the campaign. The zero asset denotes the native coin.
func (m *Manager) CampaignContribution(addr, funder, asset common.Address) (*big.Int, error) {
	return m.getBig(addrKey(campaignContribPrefix, addr, funder, asset))
}

// SetCampaignContribution overwrites funder's cumulative contribution.
func (m *Manager) SetCampaignContribution(addr, funder, asset common.Address, amount *big.Int) error {
	return m.putBig(addrKey(campaignContribPrefix, addr, funder, asset), amount)
}
