package state

import (
	"github.com/ethereum/go-ethereum/common"

	"capitafund/native/factory"
	"capitafund/native/fees"
)

// FactoryGet loads the factory singleton.
func (m *Manager) FactoryGet() (*factory.Factory, bool, error) {
	record := new(factory.Factory)
	ok, err := m.KVGet(factoryRecordKey, record)
	if err != nil || !ok {
		return nil, ok, err
	}
	return record, true, nil
}

// FactoryPut stores the factory singleton.
func (m *Manager) FactoryPut(record *factory.Factory) error {
	if record == nil {
		return m.KVDelete(factoryRecordKey)
	}
	return m.KVPut(factoryRecordKey, record)
}

func (m *Manager) flag(key []byte) (bool, error) {
	var value bool
	if _, err := m.KVGet(key, &value); err != nil {
		return false, err
	}
	return value, nil
}

func (m *Manager) setFlag(key []byte, value bool) error {
	if !value {
		return m.KVDelete(key)
	}
	return m.KVPut(key, true)
}

// FactoryModerator reports whether addr holds the moderator role.
func (m *Manager) FactoryModerator(addr common.Address) (bool, error) {
	return m.flag(addrKey(factoryModeratorPrefix, addr))
}

// SetFactoryModerator grants or revokes the moderator role.
func (m *Manager) SetFactoryModerator(addr common.Address, enabled bool) error {
	return m.setFlag(addrKey(factoryModeratorPrefix, addr), enabled)
}

// FactoryVerifiedCreator reports whether addr is exempt from the funding limit.
func (m *Manager) FactoryVerifiedCreator(addr common.Address) (bool, error) {
	return m.flag(addrKey(factoryVerifiedPrefix, addr))
}

// SetFactoryVerifiedCreator toggles the verified-creator flag.
func (m *Manager) SetFactoryVerifiedCreator(addr common.Address, verified bool) error {
	return m.setFlag(addrKey(factoryVerifiedPrefix, addr), verified)
}

// FactoryAcceptableToken reports whether token may be used by campaigns.
func (m *Manager) FactoryAcceptableToken(token common.Address) (bool, error) {
	return m.flag(addrKey(factoryAcceptablePrefix, token))
}

// SetFactoryAcceptableToken toggles the acceptable flag of token. A token is
// appended to the enumeration list the first time it is enabled and never
// removed from it.
func (m *Manager) SetFactoryAcceptableToken(token common.Address, enabled bool) error {
	if enabled {
		seen, err := m.flag(addrKey(factoryAcceptableSeen, token))
		if err != nil {
			return err
		}
		if !seen {
			if _, err := m.IndexedAppend(factoryAcceptableList, token); err != nil {
				return err
			}
			if err := m.setFlag(addrKey(factoryAcceptableSeen, token), true); err != nil {
				return err
			}
		}
	}
	return m.setFlag(addrKey(factoryAcceptablePrefix, token), enabled)
}

// FactoryAcceptableTokens lists the currently acceptable tokens in the order
// they were first enabled.
func (m *Manager) FactoryAcceptableTokens() ([]common.Address, error) {
	all, err := m.addressList(factoryAcceptableList)
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, 0, len(all))
	for _, token := range all {
		ok, err := m.FactoryAcceptableToken(token)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, token)
		}
	}
	return out, nil
}

// FactoryCampaignAppend records a deployed campaign in the global registry and
// in its creator's list.
func (m *Manager) FactoryCampaignAppend(creator, campaign common.Address) error {
	if _, err := m.IndexedAppend(factoryCampaignList, campaign); err != nil {
		return err
	}
	_, err := m.IndexedAppend(addrKey(factoryUserCampaignPrefix, creator), campaign)
	return err
}

// FactoryCampaigns lists every deployed campaign in creation order.
func (m *Manager) FactoryCampaigns() ([]common.Address, error) {
	return m.addressList(factoryCampaignList)
}

// FactoryUserCampaigns lists the campaigns created by user in creation order.
func (m *Manager) FactoryUserCampaigns(user common.Address) ([]common.Address, error) {
	return m.addressList(addrKey(factoryUserCampaignPrefix, user))
}

// FactoryFeeTotals loads the accumulated fee accounting for asset.
func (m *Manager) FactoryFeeTotals(asset common.Address) (*fees.Totals, bool, error) {
	totals := new(fees.Totals)
	ok, err := m.KVGet(addrKey(factoryFeeTotalsPrefix, asset), totals)
	if err != nil || !ok {
		return nil, ok, err
	}
	return totals, true, nil
}

// FactoryFeeTotalsPut stores the fee accounting of totals.Asset.
func (m *Manager) FactoryFeeTotalsPut(totals *fees.Totals) error {
	if totals == nil {
		return nil
	}
	return m.KVPut(addrKey(factoryFeeTotalsPrefix, totals.Asset), totals)
}

func (m *Manager) addressList(prefix []byte) ([]common.Address, error) {
	length, err := m.IndexedLen(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, 0, length)
	for i := uint64(0); i < length; i++ {
		var addr common.Address
		if _, err := m.IndexedGet(prefix, i, &addr); err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
