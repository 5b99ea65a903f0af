package rpc

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"capitafund/core"
	cerrors "capitafund/core/errors"
	"capitafund/core/state"
	"capitafund/native/campaign"
	"capitafund/native/oracle"
	"capitafund/native/token"
	"capitafund/storage"
)

func TestPlatformErrorNames(t *testing.T) {
	contract := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	cases := []struct {
		err  error
		name string
	}{
		{cerrors.WithAddress(core.ErrContractCaller, contract), "Capita__ContractCaller"},
		{fmt.Errorf("%w: %s", campaign.ErrCampaignExists, contract.Hex()), "ChainFundMe__AlreadyDeployed"},
		{oracle.ErrInvalidDecimals, "Oracle__InvalidDecimals"},
		{oracle.ErrInvalidAmount, "Oracle__InvalidAmount"},
		{token.ErrInvalidAmount, "Token__InvalidAmount"},
		{fmt.Errorf("%w: %w", token.ErrTransferFailed, token.ErrInsufficientAllow), "Token__InsufficientAllowance"},
	}
	for _, tc := range cases {
		status, rpcErr := platformError(tc.err)
		require.Equal(t, http.StatusOK, status, tc.name)
		require.Equal(t, codeExecutionError, rpcErr.Code, tc.name)
		require.Equal(t, tc.name, rpcErr.Data.(ErrorData).Name)
	}

	status, rpcErr := platformError(errors.New("disk on fire"))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, codeServerError, rpcErr.Code)
}

func TestTransferFromAllowanceErrorIsNamed(t *testing.T) {
	st := state.NewManager(storage.NewMemDB())
	owner := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	spender := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	ledger := token.NewLedger(common.HexToAddress("0x0000000000000000000000000000000000005701"), "USDC", 6)
	require.NoError(t, ledger.Mint(st, owner, big.NewInt(100)))

	err := token.SafeTransferFrom(ledger, st, spender, owner, spender, big.NewInt(10))
	require.ErrorIs(t, err, token.ErrTransferFailed)
	require.ErrorIs(t, err, token.ErrInsufficientAllow)
	_, rpcErr := platformError(err)
	require.Equal(t, "Token__InsufficientAllowance", rpcErr.Data.(ErrorData).Name)
}
