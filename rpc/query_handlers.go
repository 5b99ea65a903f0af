package rpc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

func (s *Server) handleFactoryInfo(context.Context, common.Address, *callParams) (interface{}, error) {
	record, err := s.node.Factory()
	if err != nil {
		return nil, err
	}
	return factoryResult(record), nil
}

func (s *Server) readFlag(field, raw string, read func(common.Address) (bool, error)) (interface{}, error) {
	addr, perr := parseAddress(field, raw, false)
	if perr != nil {
		return nil, perr
	}
	value, err := read(addr)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Server) readAmount(field, raw string, read func(common.Address) (*big.Int, error)) (interface{}, error) {
	addr, perr := parseAddress(field, raw, false)
	if perr != nil {
		return nil, perr
	}
	value, err := read(addr)
	if err != nil {
		return nil, err
	}
	return map[string]string{"amount": amountString(value)}, nil
}

func (s *Server) handleIsModerator(_ context.Context, _ common.Address, p *callParams) (interface{}, error) {
	return s.readFlag("address", p.Address, s.node.IsModerator)
}

func (s *Server) handleIsVerifiedCreator(_ context.Context, _ common.Address, p *callParams) (interface{}, error) {
	return s.readFlag("address", p.Address, s.node.IsVerifiedCreator)
}

func (s *Server) handleAcceptableTokens(context.Context, common.Address, *callParams) (interface{}, error) {
	tokens, err := s.node.AcceptableTokens()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(tokens))
	for _, tok := range tokens {
		enabled, err := s.node.CheckAcceptableToken(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, map[string]interface{}{"token": tok.Hex(), "enabled": enabled})
	}
	return out, nil
}

func (s *Server) handleCampaigns(context.Context, common.Address, *callParams) (interface{}, error) {
	addrs, err := s.node.DeployedCampaigns()
	if err != nil {
		return nil, err
	}
	return hexList(addrs), nil
}

func (s *Server) handleUserCampaigns(_ context.Context, _ common.Address, p *callParams) (interface{}, error) {
	user, perr := parseAddress("address", p.Address, false)
	if perr != nil {
		return nil, perr
	}
	addrs, err := s.node.UserCampaigns(user)
	if err != nil {
		return nil, err
	}
	return hexList(addrs), nil
}

func (s *Server) handleFeeTotals(_ context.Context, _ common.Address, p *callParams) (interface{}, error) {
	asset, perr := parseAddress("token", p.Token, true)
	if perr != nil {
		return nil, perr
	}
	totals, err := s.node.FeeTotals(asset)
	if err != nil {
		return nil, err
	}
	return feeTotalsResult(asset, totals), nil
}

func (s *Server) handleCampaignGet(_ context.Context, _ common.Address, p *callParams) (interface{}, error) {
	addr, perr := parseAddress("campaign", p.Campaign, false)
	if perr != nil {
		return nil, perr
	}
	record, err := s.node.Campaign(addr)
	if err != nil {
		return nil, err
	}
	return campaignResult(record), nil
}

func (s *Server) handleCampaignFunders(_ context.Context, _ common.Address, p *callParams) (interface{}, error) {
	addr, perr := parseAddress("campaign", p.Campaign, false)
	if perr != nil {
		return nil, perr
	}
	funders, err := s.node.Funders(addr)
	if err != nil {
		return nil, err
	}
	return funderResults(funders), nil
}

func (s *Server) handleCampaignContribution(_ context.Context, _ common.Address, p *callParams) (interface{}, error) {
	addr, perr := parseAddress("campaign", p.Campaign, false)
	if perr != nil {
		return nil, perr
	}
	asset, perr := parseAddress("token", p.Token, true)
	if perr != nil {
		return nil, perr
	}
	return s.readAmount("funder", p.Funder, func(funder common.Address) (*big.Int, error) {
		return s.node.Contribution(addr, funder, asset)
	})
}

func (s *Server) handlePointsBalance(_ context.Context, _ common.Address, p *callParams) (interface{}, error) {
	return s.readAmount("address", p.Address, s.node.SpenderPoints)
}

func (s *Server) handleTokenBalance(_ context.Context, _ common.Address, p *callParams) (interface{}, error) {
	tok, perr := parseAddress("token", p.Token, false)
	if perr != nil {
		return nil, perr
	}
	return s.readAmount("holder", p.Holder, func(holder common.Address) (*big.Int, error) {
		return s.node.TokenBalance(tok, holder)
	})
}

func (s *Server) handleTokenAllowance(_ context.Context, _ common.Address, p *callParams) (interface{}, error) {
	tok, perr := parseAddress("token", p.Token, false)
	if perr != nil {
		return nil, perr
	}
	owner, perr := parseAddress("holder", p.Holder, false)
	if perr != nil {
		return nil, perr
	}
	return s.readAmount("spender", p.Spender, func(spender common.Address) (*big.Int, error) {
		return s.node.TokenAllowance(tok, owner, spender)
	})
}

func (s *Server) handleNativeBalance(_ context.Context, _ common.Address, p *callParams) (interface{}, error) {
	return s.readAmount("address", p.Address, s.node.NativeBalance)
}

func (s *Server) handleEventsList(_ context.Context, _ common.Address, p *callParams) (interface{}, error) {
	limit := p.Limit
	if limit == 0 {
		limit = defaultEventsLimit
	}
	if limit > maxEventsLimit {
		return nil, invalidParam("limit", "exceeds maximum")
	}
	records, err := s.node.Events(p.Offset, limit)
	if err != nil {
		return nil, err
	}
	return EventsResult{Events: records, Next: p.Offset + uint64(len(records))}, nil
}
