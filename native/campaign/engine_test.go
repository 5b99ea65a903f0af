package campaign_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"capitafund/core/events"
	"capitafund/core/state"
	"capitafund/native/bank"
	"capitafund/native/campaign"
	"capitafund/native/token"
	"capitafund/storage"
)

var (
	factoryAddr  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	campaignAddr = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	ownerAddr    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	funderAddr   = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	feeWallet    = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	stableAddr   = common.HexToAddress("0x0000000000000000000000000000000000005701")
	capitaAddr   = common.HexToAddress("0x0000000000000000000000000000000000005702")
	failingAddr  = common.HexToAddress("0x0000000000000000000000000000000000005703")
)

const (
	startTime = int64(10_000)
	endTime   = int64(20_000)
)

type failingToken struct{ *token.Ledger }

func (failingToken) Transfer(token.State, common.Address, common.Address, *big.Int) (bool, error) {
	return false, nil
}

type fixture struct {
	engine   *campaign.Engine
	state    *state.Manager
	recorder *events.Recorder
	stable   *token.Ledger
	failing  failingToken
	now      int64
}

func newFixture(t *testing.T, otherTokens ...common.Address) *fixture {
	t.Helper()
	registry := token.NewRegistry()
	stable := token.NewLedger(stableAddr, "USDC", 6)
	failing := failingToken{token.NewLedger(failingAddr, "FAIL", 18)}
	require.NoError(t, registry.Register(stable))
	require.NoError(t, registry.Register(token.NewLedger(capitaAddr, "CAP", 18)))
	require.NoError(t, registry.Register(failing))

	f := &fixture{
		state:    state.NewManager(storage.NewMemDB()),
		recorder: events.NewRecorder(),
		stable:   stable,
		failing:  failing,
		now:      startTime - 100,
	}
	f.engine = campaign.NewEngine(factoryAddr, registry)
	f.engine.SetState(f.state)
	f.engine.SetEmitter(f.recorder)
	f.engine.SetNowFunc(func() int64 { return f.now })

	_, err := f.engine.Deploy(factoryAddr, campaign.DeployParams{
		Address:     campaignAddr,
		Owner:       ownerAddr,
		StableCoin:  stableAddr,
		CapitaToken: capitaAddr,
		StartTime:   uint64(startTime),
		EndTime:     uint64(endTime),
		MetadataURI: "ipfs://campaign",
		OtherTokens: otherTokens,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) approveFunding(t *testing.T) {
	t.Helper()
	require.NoError(t, f.engine.UpdateFundingApproval(factoryAddr, campaignAddr))
}

func (f *fixture) nativeDeposit(amount int64) campaign.DepositInput {
	gross := big.NewInt(amount)
	fee := new(big.Int).Div(new(big.Int).Mul(gross, big.NewInt(5)), big.NewInt(100))
	return campaign.DepositInput{
		Funder:    funderAddr,
		Amount:    gross,
		Value:     new(big.Int).Set(gross),
		Fee:       fee,
		Net:       new(big.Int).Sub(gross, fee),
		FeeWallet: feeWallet,
	}
}

func (f *fixture) tokenDeposit(t *testing.T, ledger *token.Ledger, amount int64) campaign.DepositInput {
	t.Helper()
	require.NoError(t, ledger.Mint(f.state, funderAddr, big.NewInt(amount)))
	_, err := ledger.Approve(f.state, funderAddr, campaignAddr, big.NewInt(amount))
	require.NoError(t, err)
	in := f.nativeDeposit(amount)
	in.Token = ledger.Address()
	in.Value = nil
	return in
}

func TestDeployOnlyByFactory(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Deploy(ownerAddr, campaign.DeployParams{Address: common.HexToAddress("0xc2"), Owner: ownerAddr, StartTime: 1, EndTime: 2})
	require.ErrorIs(t, err, campaign.ErrNotFactory)

	_, err = f.engine.Deploy(factoryAddr, campaign.DeployParams{Address: campaignAddr, Owner: ownerAddr, StartTime: 1, EndTime: 2})
	require.ErrorIs(t, err, campaign.ErrCampaignExists)

	_, err = f.engine.Deploy(factoryAddr, campaign.DeployParams{Address: common.HexToAddress("0xc3"), Owner: ownerAddr, StartTime: 2, EndTime: 2})
	require.ErrorIs(t, err, campaign.ErrInvalidDatesSet)

	record, err := f.engine.Get(campaignAddr)
	require.NoError(t, err)
	require.Equal(t, factoryAddr, record.Factory)
	require.Equal(t, ownerAddr, record.Owner)
	require.False(t, record.FundingApproved)
}

func TestDepositGating(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, bank.Credit(f.state, factoryAddr, big.NewInt(1_000_000)))

	err := f.engine.Deposit(funderAddr, campaignAddr, f.nativeDeposit(100))
	require.ErrorIs(t, err, campaign.ErrNotFactory)

	err = f.engine.Deposit(factoryAddr, campaignAddr, f.nativeDeposit(100))
	require.ErrorIs(t, err, campaign.ErrFundingPeriodNotStarted)

	f.now = startTime
	err = f.engine.Deposit(factoryAddr, campaignAddr, f.nativeDeposit(100))
	require.ErrorIs(t, err, campaign.ErrFundingNotApproved)

	f.approveFunding(t)
	require.NoError(t, f.engine.UpdatePause(factoryAddr, campaignAddr, true))
	err = f.engine.Deposit(factoryAddr, campaignAddr, f.nativeDeposit(100))
	require.ErrorIs(t, err, campaign.ErrFundingPaused)
	require.NoError(t, f.engine.UpdatePause(factoryAddr, campaignAddr, false))

	require.NoError(t, f.engine.UpdateFundingDisapproval(factoryAddr, campaignAddr, true))
	err = f.engine.Deposit(factoryAddr, campaignAddr, f.nativeDeposit(100))
	require.ErrorIs(t, err, campaign.ErrFundingDisapproved)
	require.NoError(t, f.engine.UpdateFundingDisapproval(factoryAddr, campaignAddr, false))

	err = f.engine.Deposit(factoryAddr, campaignAddr, f.nativeDeposit(0))
	require.ErrorIs(t, err, campaign.ErrInvalidAmount)

	mismatch := f.nativeDeposit(100)
	mismatch.Value = big.NewInt(99)
	err = f.engine.Deposit(factoryAddr, campaignAddr, mismatch)
	require.ErrorIs(t, err, campaign.ErrValueSentNotEqualAmount)

	unknown := f.nativeDeposit(100)
	unknown.Token = common.HexToAddress("0xbad")
	unknown.Value = nil
	err = f.engine.Deposit(factoryAddr, campaignAddr, unknown)
	require.ErrorIs(t, err, campaign.ErrTokenNotAllowed)

	f.now = endTime + 1
	err = f.engine.Deposit(factoryAddr, campaignAddr, f.nativeDeposit(100))
	require.ErrorIs(t, err, campaign.ErrFundingPeriodOver)

	funders, err := f.engine.GetFundersDetails(campaignAddr)
	require.NoError(t, err)
	require.Empty(t, funders)
}

func TestNativeDepositSplitsFee(t *testing.T) {
	f := newFixture(t)
	f.now = startTime
	f.approveFunding(t)
	oneEther := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	require.NoError(t, bank.Credit(f.state, factoryAddr, oneEther))

	in := f.nativeDeposit(0)
	in.Amount = new(big.Int).Set(oneEther)
	in.Value = new(big.Int).Set(oneEther)
	in.Fee = new(big.Int).Div(new(big.Int).Mul(oneEther, big.NewInt(5)), big.NewInt(100))
	in.Net = new(big.Int).Sub(oneEther, in.Fee)
	require.NoError(t, f.engine.Deposit(factoryAddr, campaignAddr, in))

	campaignBal, err := bank.Balance(f.state, campaignAddr)
	require.NoError(t, err)
	require.Equal(t, "950000000000000000", campaignBal.String())
	walletBal, err := bank.Balance(f.state, feeWallet)
	require.NoError(t, err)
	require.Equal(t, "50000000000000000", walletBal.String())

	contributed, err := f.engine.EthContribution(campaignAddr, funderAddr)
	require.NoError(t, err)
	require.Zero(t, contributed.Cmp(oneEther))

	record, err := f.engine.Get(campaignAddr)
	require.NoError(t, err)
	require.Equal(t, uint64(1), record.FundersCount)
	entry, ok, err := f.engine.Funder(campaignAddr, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, funderAddr, entry.FunderAddress)
	require.Equal(t, common.Address{}, entry.TokenAddress)
	require.Zero(t, entry.Amount.Cmp(oneEther))

	deposited := f.recorder.Filter(campaign.EventTypeDeposited)
	require.Len(t, deposited, 1)
	require.Equal(t, oneEther.String(), deposited[0].Attr("amount"))
}

func TestTokenDepositPullsThroughAllowance(t *testing.T) {
	f := newFixture(t)
	f.now = startTime
	f.approveFunding(t)

	in := f.tokenDeposit(t, f.stable, 100_000_000)
	require.NoError(t, f.engine.Deposit(factoryAddr, campaignAddr, in))

	held, err := f.stable.BalanceOf(f.state, campaignAddr)
	require.NoError(t, err)
	require.Equal(t, "95000000", held.String())
	fee, err := f.stable.BalanceOf(f.state, feeWallet)
	require.NoError(t, err)
	require.Equal(t, "5000000", fee.String())

	contributed, err := f.engine.Contribution(campaignAddr, funderAddr, stableAddr)
	require.NoError(t, err)
	require.Equal(t, "100000000", contributed.String())

	valueOnToken := f.tokenDeposit(t, f.stable, 10)
	valueOnToken.Value = big.NewInt(1)
	require.ErrorIs(t, f.engine.Deposit(factoryAddr, campaignAddr, valueOnToken), campaign.ErrValueSentNotEqualAmount)
}

func TestDepositWithoutAllowanceFails(t *testing.T) {
	f := newFixture(t)
	f.now = startTime
	f.approveFunding(t)
	require.NoError(t, f.stable.Mint(f.state, funderAddr, big.NewInt(100)))

	in := f.nativeDeposit(100)
	in.Token = stableAddr
	in.Value = nil
	require.ErrorIs(t, f.engine.Deposit(factoryAddr, campaignAddr, in), token.ErrTransferFailed)
}

func TestFundingLimitIsExclusive(t *testing.T) {
	f := newFixture(t)
	f.now = startTime
	f.approveFunding(t)

	limit := big.NewInt(1000)
	first := f.tokenDeposit(t, f.stable, 600)
	first.CapValue = big.NewInt(600)
	first.Limit = limit
	require.NoError(t, f.engine.Deposit(factoryAddr, campaignAddr, first))

	second := f.tokenDeposit(t, f.stable, 400)
	second.CapValue = big.NewInt(400)
	second.Limit = limit
	require.ErrorIs(t, f.engine.Deposit(factoryAddr, campaignAddr, second), campaign.ErrFundingLimitExceeded)

	second.CapValue = big.NewInt(399)
	require.NoError(t, f.engine.Deposit(factoryAddr, campaignAddr, second))

	record, err := f.engine.Get(campaignAddr)
	require.NoError(t, err)
	require.Equal(t, "999", record.CappedValue.String())
}

func TestApproveWithdrawLifecycle(t *testing.T) {
	f := newFixture(t)
	f.now = startTime + 1

	require.ErrorIs(t, f.engine.ApproveWithdraw(ownerAddr, campaignAddr), campaign.ErrNotFactory)
	require.ErrorIs(t, f.engine.ApproveWithdraw(factoryAddr, campaignAddr), campaign.ErrFundingStillActive)

	f.now = endTime + 1
	require.NoError(t, f.engine.ApproveWithdraw(factoryAddr, campaignAddr))
	before, err := f.engine.Get(campaignAddr)
	require.NoError(t, err)
	require.True(t, before.Ended)
	require.True(t, before.WithdrawApproved)

	require.ErrorIs(t, f.engine.ApproveWithdraw(factoryAddr, campaignAddr), campaign.ErrAlreadyApproved)
	after, err := f.engine.Get(campaignAddr)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Len(t, f.recorder.Filter(campaign.EventTypeWithdrawApproved), 1)
}

func TestWithdrawETHRequiresApproval(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, bank.Credit(f.state, campaignAddr, big.NewInt(500)))

	_, err := f.engine.WithdrawETH(factoryAddr, campaignAddr)
	require.ErrorIs(t, err, campaign.ErrNotApproved)

	f.now = endTime + 1
	require.NoError(t, f.engine.ApproveWithdraw(factoryAddr, campaignAddr))
	require.NoError(t, f.engine.RevokeApproval(factoryAddr, campaignAddr, true))
	_, err = f.engine.WithdrawETH(factoryAddr, campaignAddr)
	require.ErrorIs(t, err, campaign.ErrNotApproved)

	require.NoError(t, f.engine.RevokeApproval(factoryAddr, campaignAddr, false))
	amount, err := f.engine.WithdrawETH(factoryAddr, campaignAddr)
	require.NoError(t, err)
	require.Equal(t, int64(500), amount.Int64())
	ownerBal, err := bank.Balance(f.state, ownerAddr)
	require.NoError(t, err)
	require.Equal(t, int64(500), ownerBal.Int64())
}

func TestWithdrawTokensIsolatesFailingToken(t *testing.T) {
	f := newFixture(t, failingAddr)
	f.now = startTime
	f.approveFunding(t)

	require.NoError(t, f.engine.Deposit(factoryAddr, campaignAddr, f.tokenDeposit(t, f.stable, 1000)))
	require.NoError(t, f.engine.Deposit(factoryAddr, campaignAddr, f.tokenDeposit(t, f.failing.Ledger, 2000)))

	f.now = endTime + 1
	require.NoError(t, f.engine.ApproveWithdraw(factoryAddr, campaignAddr))
	result, err := f.engine.WithdrawTokens(factoryAddr, campaignAddr)
	require.NoError(t, err)
	require.Equal(t, []common.Address{failingAddr}, result.Failed)
	require.Equal(t, "950", result.Withdrawn[stableAddr].String())

	ownerStable, err := f.stable.BalanceOf(f.state, ownerAddr)
	require.NoError(t, err)
	require.Equal(t, "950", ownerStable.String())
	stuck, err := f.failing.BalanceOf(f.state, campaignAddr)
	require.NoError(t, err)
	require.Equal(t, "1900", stuck.String())

	failed := f.recorder.Filter(campaign.EventTypeFailedOtherTokensWithdrawal)
	require.Len(t, failed, 1)
	require.Equal(t, failingAddr.Hex(), failed[0].Attr("tokens"))
	require.Len(t, f.recorder.Filter(campaign.EventTypeWithdrawnToken), 1)
}

func TestOwnerOperations(t *testing.T) {
	f := newFixture(t)

	require.ErrorIs(t, f.engine.UpdateMetadataURI(funderAddr, campaignAddr, "x"), campaign.ErrNotOwner)
	require.NoError(t, f.engine.UpdateMetadataURI(ownerAddr, campaignAddr, " ipfs://new "))

	require.ErrorIs(t, f.engine.UpdateStartTime(ownerAddr, campaignAddr, uint64(endTime)), campaign.ErrInvalidDatesSet)
	require.NoError(t, f.engine.UpdateStartTime(ownerAddr, campaignAddr, uint64(startTime+50)))

	_, err := f.engine.EndCampaign(ownerAddr, campaignAddr)
	require.ErrorIs(t, err, campaign.ErrFundingPeriodNotStarted)

	f.now = startTime + 60
	require.ErrorIs(t, f.engine.UpdateStartTime(ownerAddr, campaignAddr, uint64(startTime+100)), campaign.ErrFundingStillActive)
	require.NoError(t, f.engine.UpdateEndTime(ownerAddr, campaignAddr, uint64(endTime+100)))

	ended, err := f.engine.EndCampaign(ownerAddr, campaignAddr)
	require.NoError(t, err)
	require.True(t, ended.Ended)
	require.Equal(t, uint64(startTime+60), ended.EndTime)
	require.Equal(t, "ipfs://new", ended.MetadataURI)

	require.ErrorIs(t, f.engine.UpdateEndTime(ownerAddr, campaignAddr, uint64(endTime+200)), campaign.ErrFundingPeriodOver)
	require.ErrorIs(t, f.engine.UpdateMetadataURI(ownerAddr, campaignAddr, "late"), campaign.ErrFundingPeriodOver)
}

func TestWithdrawTokensSkipsUnregisteredEmptyToken(t *testing.T) {
	unregistered := common.HexToAddress("0x0000000000000000000000000000000000005704")
	f := newFixture(t, unregistered)
	f.now = startTime
	f.approveFunding(t)
	require.NoError(t, f.engine.Deposit(factoryAddr, campaignAddr, f.tokenDeposit(t, f.stable, 1000)))

	f.now = endTime + 1
	require.NoError(t, f.engine.ApproveWithdraw(factoryAddr, campaignAddr))
	result, err := f.engine.WithdrawTokens(factoryAddr, campaignAddr)
	require.NoError(t, err)
	require.Empty(t, result.Failed)
	require.Equal(t, "950", result.Withdrawn[stableAddr].String())
	require.NotContains(t, result.Withdrawn, unregistered)
	require.Empty(t, f.recorder.Filter(campaign.EventTypeFailedOtherTokensWithdrawal))
}
