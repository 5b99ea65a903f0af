package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type handlerFunc func(ctx context.Context, caller common.Address, params *callParams) (interface{}, error)

type method struct {
	mutating bool
	fn       handlerFunc
}

func (s *Server) methodTable() map[string]method {
	tx := func(fn handlerFunc) method { return method{mutating: true, fn: fn} }
	read := func(fn handlerFunc) method { return method{fn: fn} }
	return map[string]method{
		"factory_addModerator":           tx(s.handleAddModerator),
		"factory_removeModerator":        tx(s.handleRemoveModerator),
		"factory_setCapitaPoints":        tx(s.handleSetCapitaPoints),
		"factory_updatePaused":           tx(s.handleUpdatePaused),
		"factory_setAcceptableToken":     tx(s.handleSetAcceptableToken),
		"factory_removeToken":            tx(s.handleRemoveToken),
		"factory_updatePlatformFee":      tx(s.handleUpdatePlatformFee),
		"factory_updateFeeWallet":        tx(s.handleUpdateFeeWallet),
		"factory_verifyCreator":          tx(s.handleVerifyCreator),
		"factory_updateLimitsEnabled":    tx(s.handleUpdateLimitsEnabled),
		"factory_createCampaign":         tx(s.handleCreateCampaign),
		"factory_approveFunding":         tx(s.handleApproveFunding),
		"factory_disapproveFunding":      tx(s.handleDisapproveFunding),
		"factory_pauseCampaign":          tx(s.handlePauseCampaign),
		"factory_approveWithdraw":        tx(s.handleApproveWithdraw),
		"factory_revokeApproval":         tx(s.handleRevokeApproval),
		"factory_batchApproveFunding":    tx(s.handleBatchApproveFunding),
		"factory_batchDisapproveFunding": tx(s.handleBatchDisapproveFunding),
		"factory_batchApproveWithdraw":   tx(s.handleBatchApproveWithdraw),
		"factory_withdrawETH":            tx(s.handleWithdrawETH),
		"factory_withdrawTokens":         tx(s.handleWithdrawTokens),
		"factory_fund":                   tx(s.handleFund),
		"campaign_end":                   tx(s.handleEndCampaign),
		"campaign_updateStartTime":       tx(s.handleUpdateStartTime),
		"campaign_updateEndTime":         tx(s.handleUpdateEndTime),
		"campaign_updateMetadataURI":     tx(s.handleUpdateMetadataURI),
		"token_approve":                  tx(s.handleTokenApprove),
		"token_transfer":                 tx(s.handleTokenTransfer),
		"native_transfer":                tx(s.handleNativeTransfer),
		"factory_info":                   read(s.handleFactoryInfo),
		"factory_isModerator":            read(s.handleIsModerator),
		"factory_isVerifiedCreator":      read(s.handleIsVerifiedCreator),
		"factory_acceptableTokens":       read(s.handleAcceptableTokens),
		"factory_campaigns":              read(s.handleCampaigns),
		"factory_userCampaigns":          read(s.handleUserCampaigns),
		"factory_feeTotals":              read(s.handleFeeTotals),
		"campaign_get":                   read(s.handleCampaignGet),
		"campaign_funders":               read(s.handleCampaignFunders),
		"campaign_contribution":          read(s.handleCampaignContribution),
		"points_balance":                 read(s.handlePointsBalance),
		"token_balance":                  read(s.handleTokenBalance),
		"token_allowance":                read(s.handleTokenAllowance),
		"native_balance":                 read(s.handleNativeBalance),
		"events_list":                    read(s.handleEventsList),
	}
}

func (s *Server) addressCall(field string, raw string, call func(common.Address) error) (interface{}, error) {
	addr, perr := parseAddress(field, raw, false)
	if perr != nil {
		return nil, perr
	}
	if err := call(addr); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) handleAddModerator(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	return s.addressCall("address", p.Address, func(addr common.Address) error {
		return s.node.AddModerator(ctx, caller, addr)
	})
}

func (s *Server) handleRemoveModerator(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	return s.addressCall("address", p.Address, func(addr common.Address) error {
		return s.node.RemoveModerator(ctx, caller, addr)
	})
}

func (s *Server) handleSetCapitaPoints(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	return s.addressCall("address", p.Address, func(addr common.Address) error {
		return s.node.SetCapitaPointsAddress(ctx, caller, addr)
	})
}

func (s *Server) handleUpdatePaused(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	paused, perr := requireBool("paused", p.Paused)
	if perr != nil {
		return nil, perr
	}
	if err := s.node.UpdatePaused(ctx, caller, paused); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) handleSetAcceptableToken(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	return s.addressCall("token", p.Token, func(tok common.Address) error {
		return s.node.SetAcceptableToken(ctx, caller, tok)
	})
}

func (s *Server) handleRemoveToken(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	return s.addressCall("token", p.Token, func(tok common.Address) error {
		return s.node.RemoveTokenAddress(ctx, caller, tok)
	})
}

func (s *Server) handleUpdatePlatformFee(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	fee, perr := requireUint("fee", p.Fee)
	if perr != nil {
		return nil, perr
	}
	if err := s.node.UpdatePlatformFee(ctx, caller, fee); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) handleUpdateFeeWallet(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	return s.addressCall("address", p.Address, func(addr common.Address) error {
		return s.node.UpdateFeeWalletAddress(ctx, caller, addr)
	})
}

func (s *Server) handleVerifyCreator(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	verified, perr := requireBool("verified", p.Verified)
	if perr != nil {
		return nil, perr
	}
	return s.addressCall("address", p.Address, func(addr common.Address) error {
		return s.node.VerifyCreator(ctx, caller, addr, verified)
	})
}

func (s *Server) handleUpdateLimitsEnabled(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	enabled, perr := requireBool("enabled", p.Enabled)
	if perr != nil {
		return nil, perr
	}
	if err := s.node.UpdateLimitsEnabled(ctx, caller, enabled); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) handleCreateCampaign(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	start, perr := requireUint("startTime", p.StartTime)
	if perr != nil {
		return nil, perr
	}
	end, perr := requireUint("endTime", p.EndTime)
	if perr != nil {
		return nil, perr
	}
	tokens, perr := parseAddresses("tokens", p.Tokens)
	if perr != nil {
		return nil, perr
	}
	uri := ""
	if p.MetadataURI != nil {
		uri = *p.MetadataURI
	}
	addr, err := s.node.CreateCampaign(ctx, caller, start, end, uri, tokens)
	if err != nil {
		return nil, err
	}
	return map[string]string{"campaign": addr.Hex()}, nil
}

func (s *Server) handleApproveFunding(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	return s.addressCall("campaign", p.Campaign, func(addr common.Address) error {
		return s.node.ApproveFunding(ctx, caller, addr)
	})
}

func (s *Server) handleDisapproveFunding(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	disapproved, perr := requireBool("disapproved", p.Disapproved)
	if perr != nil {
		return nil, perr
	}
	return s.addressCall("campaign", p.Campaign, func(addr common.Address) error {
		return s.node.DisapproveFunding(ctx, caller, addr, disapproved)
	})
}

func (s *Server) handlePauseCampaign(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	paused, perr := requireBool("paused", p.Paused)
	if perr != nil {
		return nil, perr
	}
	return s.addressCall("campaign", p.Campaign, func(addr common.Address) error {
		return s.node.PauseCampaign(ctx, caller, addr, paused)
	})
}

func (s *Server) handleApproveWithdraw(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	return s.addressCall("campaign", p.Campaign, func(addr common.Address) error {
		return s.node.ApproveWithdraw(ctx, caller, addr)
	})
}

func (s *Server) handleRevokeApproval(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	revoked, perr := requireBool("revoked", p.Revoked)
	if perr != nil {
		return nil, perr
	}
	return s.addressCall("campaign", p.Campaign, func(addr common.Address) error {
		return s.node.RevokeApproval(ctx, caller, addr, revoked)
	})
}

func (s *Server) batchCall(p *callParams, call func([]common.Address) error) (interface{}, error) {
	addrs, perr := parseAddresses("campaigns", p.Campaigns)
	if perr != nil {
		return nil, perr
	}
	if err := call(addrs); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Server) handleBatchApproveFunding(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	return s.batchCall(p, func(addrs []common.Address) error {
		return s.node.BatchApproveFunding(ctx, caller, addrs)
	})
}

func (s *Server) handleBatchDisapproveFunding(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	disapproved, perr := requireBool("disapproved", p.Disapproved)
	if perr != nil {
		return nil, perr
	}
	return s.batchCall(p, func(addrs []common.Address) error {
		return s.node.BatchDisapproveFunding(ctx, caller, addrs, disapproved)
	})
}

func (s *Server) handleBatchApproveWithdraw(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	return s.batchCall(p, func(addrs []common.Address) error {
		return s.node.BatchApproveWithdraw(ctx, caller, addrs)
	})
}

func (s *Server) handleWithdrawETH(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	addr, perr := parseAddress("campaign", p.Campaign, false)
	if perr != nil {
		return nil, perr
	}
	amount, err := s.node.WithdrawETH(ctx, caller, addr)
	if err != nil {
		return nil, err
	}
	return map[string]string{"amount": amountString(amount)}, nil
}

func (s *Server) handleWithdrawTokens(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	addr, perr := parseAddress("campaign", p.Campaign, false)
	if perr != nil {
		return nil, perr
	}
	result, err := s.node.WithdrawTokens(ctx, caller, addr)
	if err != nil {
		return nil, err
	}
	out := WithdrawTokensResult{Withdrawn: make(map[string]string, len(result.Withdrawn)), Failed: hexList(result.Failed)}
	for tok, amount := range result.Withdrawn {
		out.Withdrawn[tok.Hex()] = amountString(amount)
	}
	return out, nil
}

func (s *Server) handleFund(ctx context.Context, caller common.Address, p *callParams) (interface{}, error) {
	addr, perr := parseAddress("campaign", p.Campaign, false)
	if perr != nil {
		return nil, perr
	}
	asset, perr := parseAddress("token", p.Token, true)
	if perr != nil {
		return nil, perr
	}
	amount, perr := parseAmount("amount", p.Amount, false)
	if perr != nil {
		return nil, perr
	}
	value, perr := parseAmount("value", p.Value, true)
	if perr != nil {
		return nil, perr
	}
	result, err := s.node.Fund(ctx, caller, addr, asset, amount, value)
	if err != nil {
		return nil, err
	}
	return FundResult{Fee: amountString(result.Fee), Net: amountString(result.Net), Points: amountString(result.Points)}, nil
}
