package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

func (s *Server) handleEndCampaign(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	return s.addressCall("campaign", p.Campaign, func(addr common.Address) error {
		return s.node.EndCampaign(ctx, caller, addr)
	})
}

func (s *Server) handleUpdateStartTime(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	start, perr := requireUint("startTime", p.StartTime)
	if perr != nil {
		return nil, perr
	}
	return s.addressCall("campaign", p.Campaign, func(addr common.Address) error {
		return s.node.UpdateStartTime(ctx, caller, addr, start)
	})
}

func (s *Server) handleUpdateEndTime(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	end, perr := requireUint("endTime", p.EndTime)
	if perr != nil {
		return nil, perr
	}
	return s.addressCall("campaign", p.Campaign, func(addr common.Address) error {
		return s.node.UpdateEndTime(ctx, caller, addr, end)
	})
}

func (s *Server) handleUpdateMetadataURI(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	if p.MetadataURI == nil {
		return nil, invalidParam("metadataURI", "required")
	}
	uri := *p.MetadataURI
	return s.addressCall("campaign", p.Campaign, func(addr common.Address) error {
		return s.node.UpdateMetadataURI(ctx, caller, addr, uri)
	})
}

func (s *Server) handleTokenApprove(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	tok, perr := parseAddress("token", p.Token, false)
	if perr != nil {
		return nil, perr
	}
	amount, perr := parseAmount("amount", p.Amount, false)
	if perr != nil {
		return nil, perr
	}
	return s.addressCall("spender", p.Spender, func(spender common.Address) error {
		return s.node.TokenApprove(ctx, caller, tok, spender, amount)
	})
}

func (s *Server) handleTokenTransfer(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	tok, perr := parseAddress("token", p.Token, false)
	if perr != nil {
		return nil, perr
	}
	amount, perr := parseAmount("amount", p.Amount, false)
	if perr != nil {
		return nil, perr
	}
	return s.addressCall("to", p.To, func(to common.Address) error {
		return s.node.TokenTransfer(ctx, caller, tok, to, amount)
	})
}

func (s *Server) handleNativeTransfer(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	amount, perr := parseAmount("amount", p.Amount, false)
	if perr != nil {
		return nil, perr
	}
	return s.addressCall("to", p.To, func(to common.Address) error {
		return s.node.NativeTransfer(ctx, caller, to, amount)
	})
}
