package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"capitafund/core/state"
	"capitafund/core/types"
	"capitafund/native/campaign"
	"capitafund/native/factory"
	"capitafund/native/fees"
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj})
}

// resultResponse keeps the result member even when it is a zero value.
type resultResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result"`
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	_ = json.NewEncoder(w).Encode(resultResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

// callParams is the single object every method takes. Each method reads the
// fields it needs.
type callParams struct {
	Address     string   `json:"address,omitempty"`
	Campaign    string   `json:"campaign,omitempty"`
	Campaigns   []string `json:"campaigns,omitempty"`
	Token       string   `json:"token,omitempty"`
	Tokens      []string `json:"tokens,omitempty"`
	Spender     string   `json:"spender,omitempty"`
	Holder      string   `json:"holder,omitempty"`
	Funder      string   `json:"funder,omitempty"`
	To          string   `json:"to,omitempty"`
	Amount      string   `json:"amount,omitempty"`
	Value       string   `json:"value,omitempty"`
	Fee         *uint64  `json:"fee,omitempty"`
	StartTime   *uint64  `json:"startTime,omitempty"`
	EndTime     *uint64  `json:"endTime,omitempty"`
	MetadataURI *string  `json:"metadataURI,omitempty"`
	Paused      *bool    `json:"paused,omitempty"`
	Enabled     *bool    `json:"enabled,omitempty"`
	Verified    *bool    `json:"verified,omitempty"`
	Disapproved *bool    `json:"disapproved,omitempty"`
	Revoked     *bool    `json:"revoked,omitempty"`
	Offset      uint64   `json:"offset,omitempty"`
	Limit       uint64   `json:"limit,omitempty"`
}

func decodeParams(req *RPCRequest) (*callParams, *RPCError) {
	params := &callParams{}
	if len(req.Params) == 0 {
		return params, nil
	}
	if len(req.Params) != 1 {
		return nil, &RPCError{Code: codeInvalidParams, Message: "expected a single parameter object"}
	}
	dec := json.NewDecoder(strings.NewReader(string(req.Params[0])))
	dec.DisallowUnknownFields()
	if err := dec.Decode(params); err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	return params, nil
}

func invalidParam(field, reason string) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("%s: %s", field, reason)}
}

// parseAddress accepts a 0x-prefixed hex address. The empty string is
// rejected unless optional is set, in which case it means the zero address.
func parseAddress(field, raw string, optional bool) (common.Address, *RPCError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if optional {
			return common.Address{}, nil
		}
		return common.Address{}, invalidParam(field, "required")
	}
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, invalidParam(field, "invalid address")
	}
	return common.HexToAddress(trimmed), nil
}

func parseAddresses(field string, raw []string) ([]common.Address, *RPCError) {
	out := make([]common.Address, 0, len(raw))
	for i, value := range raw {
		addr, err := parseAddress(fmt.Sprintf("%s[%d]", field, i), value, false)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// parseAmount accepts a decimal or 0x-prefixed hexadecimal integer string.
func parseAmount(field, raw string, optional bool) (*big.Int, *RPCError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if optional {
			return big.NewInt(0), nil
		}
		return nil, invalidParam(field, "required")
	}
	base := 10
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		base = 16
		trimmed = trimmed[2:]
	}
	amount, ok := new(big.Int).SetString(trimmed, base)
	if !ok || amount.Sign() < 0 {
		return nil, invalidParam(field, "invalid amount")
	}
	return amount, nil
}

func requireBool(field string, value *bool) (bool, *RPCError) {
	if value == nil {
		return false, invalidParam(field, "required")
	}
	return *value, nil
}

func requireUint(field string, value *uint64) (uint64, *RPCError) {
	if value == nil {
		return 0, invalidParam(field, "required")
	}
	return *value, nil
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func hexList(addrs []common.Address) []string {
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, addr.Hex())
	}
	return out
}

type FactoryResult struct {
	Address       string `json:"address"`
	Owner         string `json:"owner"`
	Paused        bool   `json:"paused"`
	PlatformFee   uint64 `json:"platformFee"`
	FeeWallet     string `json:"feeWallet"`
	StableCoin    string `json:"stableCoin"`
	CapitaToken   string `json:"capitaToken"`
	CapitaPoints  string `json:"capitaPoints"`
	LimitsEnabled bool   `json:"limitsEnabled"`
	CampaignCount uint64 `json:"campaignCount"`
}

func factoryResult(record *factory.Factory) FactoryResult {
	return FactoryResult{
		Address:       record.Address.Hex(),
		Owner:         record.Owner.Hex(),
		Paused:        record.Paused,
		PlatformFee:   record.PlatformFee,
		FeeWallet:     record.FeeWallet.Hex(),
		StableCoin:    record.StableCoin.Hex(),
		CapitaToken:   record.CapitaToken.Hex(),
		CapitaPoints:  record.CapitaPoints.Hex(),
		LimitsEnabled: record.LimitsEnabled,
		CampaignCount: record.CampaignCount,
	}
}

type CampaignResult struct {
	Address                   string   `json:"address"`
	Owner                     string   `json:"owner"`
	StartTime                 uint64   `json:"startTime"`
	EndTime                   uint64   `json:"endTime"`
	MetadataURI               string   `json:"metadataURI"`
	OtherTokens               []string `json:"otherTokens"`
	Paused                    bool     `json:"paused"`
	FundingApproved           bool     `json:"fundingApproved"`
	FundingDisapproved        bool     `json:"fundingDisapproved"`
	Ended                     bool     `json:"ended"`
	WithdrawApproved          bool     `json:"withdrawApproved"`
	WithdrawalApprovalRevoked bool     `json:"withdrawalApprovalRevoked"`
	FundersCount              uint64   `json:"fundersCount"`
	CappedValue               string   `json:"cappedValue"`
	CreatedAt                 uint64   `json:"createdAt"`
}

func campaignResult(record *campaign.Campaign) CampaignResult {
	return CampaignResult{
		Address:                   record.Address.Hex(),
		Owner:                     record.Owner.Hex(),
		StartTime:                 record.StartTime,
		EndTime:                   record.EndTime,
		MetadataURI:               record.MetadataURI,
		OtherTokens:               hexList(record.OtherTokens),
		Paused:                    record.Paused,
		FundingApproved:           record.FundingApproved,
		FundingDisapproved:        record.FundingDisapproved,
		Ended:                     record.Ended,
		WithdrawApproved:          record.WithdrawApproved,
		WithdrawalApprovalRevoked: record.WithdrawalApprovalRevoked,
		FundersCount:              record.FundersCount,
		CappedValue:               amountString(record.CappedValue),
		CreatedAt:                 record.CreatedAt,
	}
}

type FunderResult struct {
	Funder string `json:"funder"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

func funderResults(funders []types.Funder) []FunderResult {
	out := make([]FunderResult, 0, len(funders))
	for _, f := range funders {
		out = append(out, FunderResult{Funder: f.FunderAddress.Hex(), Token: f.TokenAddress.Hex(), Amount: amountString(f.Amount)})
	}
	return out
}

type FundResult struct {
	Fee    string `json:"fee"`
	Net    string `json:"net"`
	Points string `json:"points"`
}

type WithdrawTokensResult struct {
	Withdrawn map[string]string `json:"withdrawn"`
	Failed    []string          `json:"failed"`
}

type FeeTotalsResult struct {
	Asset  string `json:"asset"`
	Wallet string `json:"wallet"`
	Gross  string `json:"gross"`
	Fee    string `json:"fee"`
	Net    string `json:"net"`
}

func feeTotalsResult(asset common.Address, totals fees.Totals) FeeTotalsResult {
	return FeeTotalsResult{
		Asset:  asset.Hex(),
		Wallet: totals.Wallet.Hex(),
		Gross:  amountString(totals.Gross),
		Fee:    amountString(totals.Fee),
		Net:    amountString(totals.Net),
	}
}

type EventsResult struct {
	Events []state.EventRecord `json:"events"`
	Next   uint64              `json:"next"`
}
