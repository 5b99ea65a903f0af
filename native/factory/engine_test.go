package factory_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"capitafund/core/events"
	cerrors "capitafund/core/errors"
	"capitafund/core/state"
	"capitafund/native/bank"
	"capitafund/native/campaign"
	"capitafund/native/factory"
	"capitafund/native/oracle"
	"capitafund/native/points"
	"capitafund/native/token"
	"capitafund/storage"
)

var (
	factoryAddr = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	pointsAddr  = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	ownerAddr   = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	moderator   = common.HexToAddress("0x00000000000000000000000000000000000000a9")
	creator     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	funder      = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	feeWallet   = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	stableAddr  = common.HexToAddress("0x0000000000000000000000000000000000005701")
	capitaAddr  = common.HexToAddress("0x0000000000000000000000000000000000005702")
	extraAddr   = common.HexToAddress("0x0000000000000000000000000000000000005703")
)

const baseTime = int64(1_000_000)

type harness struct {
	factory  *factory.Engine
	points   *points.Engine
	state    *state.Manager
	recorder *events.Recorder
	stable   *token.Ledger
	now      int64
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func usdc(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000))
}

func newHarness(t *testing.T, params factory.Params) *harness {
	t.Helper()
	h := &harness{
		state:    state.NewManager(storage.NewMemDB()),
		recorder: events.NewRecorder(),
		stable:   token.NewLedger(stableAddr, "USDC", 6),
		now:      baseTime,
	}
	registry := token.NewRegistry()
	require.NoError(t, registry.Register(h.stable))
	require.NoError(t, registry.Register(token.NewLedger(capitaAddr, "CAP", 18)))
	require.NoError(t, registry.Register(token.NewLedger(extraAddr, "EXT", 18)))

	adapter := oracle.NewAdapter(oracle.NewStaticFeed(big.NewInt(2000_00000000), 8))
	rate, err := oracle.ParseRate("1", 6)
	require.NoError(t, err)
	require.NoError(t, adapter.SetTokenRate(stableAddr, rate))

	clock := func() int64 { return h.now }
	campaigns := campaign.NewEngine(factoryAddr, registry)
	campaigns.SetState(h.state)
	campaigns.SetEmitter(h.recorder)
	campaigns.SetNowFunc(clock)

	h.points = points.NewEngine(pointsAddr, factoryAddr, adapter)
	h.points.SetState(h.state)
	h.points.SetEmitter(h.recorder)

	h.factory = factory.NewEngine(campaigns, h.points, adapter, params)
	h.factory.SetState(h.state)
	h.factory.SetEmitter(h.recorder)
	h.factory.SetNowFunc(clock)

	_, err = h.factory.Init(factory.InitParams{
		Address:     factoryAddr,
		Owner:       ownerAddr,
		FeeWallet:   feeWallet,
		StableCoin:  stableAddr,
		CapitaToken: capitaAddr,
	})
	require.NoError(t, err)
	return h
}

func (h *harness) ready(t *testing.T) {
	t.Helper()
	require.NoError(t, h.factory.AddModerator(ownerAddr, moderator))
	require.NoError(t, h.factory.SetCapitaPointsAddress(ownerAddr, pointsAddr))
}

func (h *harness) createCampaign(t *testing.T, owner common.Address, tokens ...common.Address) common.Address {
	t.Helper()
	start := uint64(h.now + 3600)
	addr, err := h.factory.CreateChainFundMe(owner, start, start+86400, "ipfs://meta", tokens)
	require.NoError(t, err)
	return addr
}

func (h *harness) startFunding(t *testing.T, addr common.Address) {
	t.Helper()
	require.NoError(t, h.factory.ApproveFunding(moderator, addr))
	h.now += 3600
}

func TestInitDefaults(t *testing.T) {
	h := newHarness(t, factory.DefaultParams())
	record, err := h.factory.Factory()
	require.NoError(t, err)
	require.Equal(t, uint64(5), record.PlatformFee)
	require.True(t, record.LimitsEnabled)
	require.False(t, record.Paused)
	isMod, err := h.factory.IsModerator(ownerAddr)
	require.NoError(t, err)
	require.True(t, isMod)

	_, err = h.factory.Init(factory.InitParams{Address: factoryAddr, Owner: ownerAddr, FeeWallet: feeWallet})
	require.ErrorIs(t, err, factory.ErrAlreadyInitialized)
}

func TestOwnerOnlyAdministration(t *testing.T) {
	h := newHarness(t, factory.DefaultParams())

	require.ErrorIs(t, h.factory.AddModerator(creator, moderator), factory.ErrNotOwner)
	require.ErrorIs(t, h.factory.UpdatePaused(creator, true), factory.ErrNotOwner)
	require.ErrorIs(t, h.factory.SetAcceptableToken(creator, extraAddr), factory.ErrNotOwner)
	require.ErrorIs(t, h.factory.UpdatePlatformFee(creator, 10), factory.ErrNotOwner)
	require.ErrorIs(t, h.factory.SetCapitaPointsAddress(creator, pointsAddr), factory.ErrNotOwner)

	require.NoError(t, h.factory.AddModerator(ownerAddr, moderator))
	require.NoError(t, h.factory.AddModerator(ownerAddr, moderator))
	require.NoError(t, h.factory.RemoveModerator(ownerAddr, moderator))
	isMod, err := h.factory.IsModerator(moderator)
	require.NoError(t, err)
	require.False(t, isMod)
	require.Len(t, h.recorder.Filter(factory.EventTypeModeratorAdded), 2)

	require.ErrorIs(t, h.factory.UpdatePlatformFee(ownerAddr, 0), factory.ErrFeeOutOfRange)
	require.ErrorIs(t, h.factory.UpdatePlatformFee(ownerAddr, 21), factory.ErrFeeOutOfRange)
	require.NoError(t, h.factory.UpdatePlatformFee(ownerAddr, 10))

	require.NoError(t, h.factory.SetAcceptableToken(ownerAddr, extraAddr))
	ok, err := h.factory.CheckAcceptableTokenAddress(extraAddr)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, h.factory.RemoveTokenAddress(ownerAddr, extraAddr))
	ok, err = h.factory.CheckAcceptableTokenAddress(extraAddr)
	require.NoError(t, err)
	require.False(t, ok)
	tokenEvents := h.recorder.Filter(factory.EventTypeAcceptableTokenSet)
	require.Len(t, tokenEvents, 2)
	require.Equal(t, "false", tokenEvents[1].Attr("enabled"))
}

func TestFeeWalletFreezesWithCapitaPoints(t *testing.T) {
	h := newHarness(t, factory.DefaultParams())
	newWallet := common.HexToAddress("0xfe2")
	require.NoError(t, h.factory.UpdateFeeWalletAddress(ownerAddr, newWallet))

	err := h.factory.SetCapitaPointsAddress(ownerAddr, common.Address{})
	require.ErrorIs(t, err, factory.ErrInvalidAddress)

	require.NoError(t, h.factory.SetCapitaPointsAddress(ownerAddr, pointsAddr))
	require.ErrorIs(t, h.factory.UpdateFeeWalletAddress(ownerAddr, feeWallet), factory.ErrCapitaPointsAlreadySet)
}

func TestCreateChainFundMeValidation(t *testing.T) {
	h := newHarness(t, factory.DefaultParams())
	start := uint64(baseTime + 3600)

	_, err := h.factory.CreateChainFundMe(creator, start, start+86400, "", nil)
	require.ErrorIs(t, err, factory.ErrInvalidAddress)
	addr, ok := cerrors.AddressOf(err)
	require.True(t, ok)
	require.Equal(t, common.Address{}, addr)

	h.ready(t)
	require.NoError(t, h.factory.UpdatePaused(ownerAddr, true))
	_, err = h.factory.CreateChainFundMe(creator, start, start+86400, "", nil)
	require.ErrorIs(t, err, factory.ErrContractPaused)
	require.NoError(t, h.factory.UpdatePaused(ownerAddr, false))

	six := []common.Address{extraAddr, extraAddr, extraAddr, extraAddr, extraAddr, extraAddr}
	_, err = h.factory.CreateChainFundMe(creator, start, start+86400, "", six)
	require.ErrorIs(t, err, factory.ErrMaxOf5TokensExceeded)

	_, err = h.factory.CreateChainFundMe(creator, start, start+86400, "", []common.Address{extraAddr})
	require.ErrorIs(t, err, factory.ErrUnverifiedUser)

	require.NoError(t, h.factory.VerifyCreator(ownerAddr, creator, true))
	_, err = h.factory.CreateChainFundMe(creator, start, start+86400, "", []common.Address{{}})
	require.ErrorIs(t, err, factory.ErrInvalidAddress)
	_, err = h.factory.CreateChainFundMe(creator, start, start+86400, "", []common.Address{extraAddr})
	require.ErrorIs(t, err, factory.ErrTokenNotAllowed)
	bad, ok := cerrors.AddressOf(err)
	require.True(t, ok)
	require.Equal(t, extraAddr, bad)

	require.NoError(t, h.factory.SetAcceptableToken(ownerAddr, extraAddr))
	_, err = h.factory.CreateChainFundMe(creator, uint64(baseTime), start+86400, "", nil)
	require.ErrorIs(t, err, factory.ErrInvalidDatesSet)
	_, err = h.factory.CreateChainFundMe(creator, start, start, "", nil)
	require.ErrorIs(t, err, factory.ErrInvalidDatesSet)

	five := []common.Address{extraAddr, extraAddr, extraAddr, extraAddr, extraAddr}
	_, err = h.factory.CreateChainFundMe(creator, start, start+86400, "", five)
	require.NoError(t, err)
}

func TestCreateChainFundMeRegistersAndCredits(t *testing.T) {
	h := newHarness(t, factory.DefaultParams())
	h.ready(t)

	first := h.createCampaign(t, creator)
	second := h.createCampaign(t, funder)
	require.Equal(t, crypto.CreateAddress(factoryAddr, 0), first)
	require.Equal(t, crypto.CreateAddress(factoryAddr, 1), second)

	all, err := h.factory.DeployedCampaigns()
	require.NoError(t, err)
	require.Equal(t, []common.Address{first, second}, all)
	mine, err := h.factory.UserCampaigns(creator)
	require.NoError(t, err)
	require.Equal(t, []common.Address{first}, mine)

	balance, err := h.points.GetSpenderPoints(creator)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(points.BasePoints))

	created := h.recorder.Filter(factory.EventTypeChainFundMeCreated)
	require.Len(t, created, 2)
	require.Equal(t, first.Hex(), created[0].Attr("campaign"))
	require.Equal(t, creator.Hex(), created[0].Attr("creator"))
}

func TestModeratorProxies(t *testing.T) {
	h := newHarness(t, factory.DefaultParams())
	h.ready(t)
	addr := h.createCampaign(t, creator)

	require.ErrorIs(t, h.factory.ApproveFunding(funder, addr), factory.ErrNotModerator)
	require.ErrorIs(t, h.factory.PauseCampaign(funder, addr, true), factory.ErrNotModerator)
	require.ErrorIs(t, h.factory.RevokeApproval(moderator, addr, true), factory.ErrNotOwner)

	require.NoError(t, h.factory.ApproveFunding(moderator, addr))
	require.NoError(t, h.factory.PauseCampaign(moderator, addr, true))
	require.NoError(t, h.factory.DisapproveFunding(moderator, addr, true))

	err := h.factory.ApproveFunding(moderator, common.HexToAddress("0xdead"))
	require.ErrorIs(t, err, campaign.ErrCampaignNotFound)

	h.now += 3600 + 86400 + 1
	require.NoError(t, h.factory.ApproveWithdraw(moderator, addr))
	require.ErrorIs(t, h.factory.ApproveWithdraw(moderator, addr), campaign.ErrAlreadyApproved)
	require.NoError(t, h.factory.RevokeApproval(ownerAddr, addr, true))

	_, err = h.factory.WithdrawETH(moderator, addr)
	require.ErrorIs(t, err, factory.ErrNotOwner)
	_, err = h.factory.WithdrawETH(creator, addr)
	require.ErrorIs(t, err, campaign.ErrNotApproved)
}

func TestBatchOperationsAreCapped(t *testing.T) {
	h := newHarness(t, factory.Params{MaxBatchSize: 2})
	h.ready(t)
	a := h.createCampaign(t, creator)
	b := h.createCampaign(t, creator)
	c := h.createCampaign(t, creator)

	err := h.factory.BatchApproveFunding(moderator, []common.Address{a, b, c})
	require.ErrorIs(t, err, factory.ErrBatchTooLarge)

	require.NoError(t, h.factory.BatchApproveFunding(moderator, []common.Address{a, b}))
	require.NoError(t, h.factory.BatchDisapproveFunding(moderator, []common.Address{b}, true))
	require.ErrorIs(t, h.factory.BatchApproveFunding(funder, []common.Address{c}), factory.ErrNotModerator)
	require.Len(t, h.recorder.Filter(campaign.EventTypeFundingApproved), 2)

	h.now += 3600 + 86400 + 1
	require.NoError(t, h.factory.BatchApproveWithdraw(moderator, []common.Address{a, b}))
	require.Len(t, h.recorder.Filter(campaign.EventTypeWithdrawApproved), 2)
}

func TestFundNativeSplitsFeeAndCreditsPoints(t *testing.T) {
	h := newHarness(t, factory.DefaultParams())
	h.ready(t)
	addr := h.createCampaign(t, creator)
	h.startFunding(t, addr)
	require.NoError(t, bank.Credit(h.state, funder, ether(10)))

	snap := h.state.Snapshot()
	_, err := h.factory.FundChainFundMe(funder, addr, common.Address{}, ether(1), ether(2))
	require.ErrorIs(t, err, campaign.ErrValueSentNotEqualAmount)
	h.state.RevertToSnapshot(snap)

	result, err := h.factory.FundChainFundMe(funder, addr, common.Address{}, ether(1), ether(1))
	require.NoError(t, err)
	require.Equal(t, "50000000000000000", result.Fee.String())
	require.Equal(t, "950000000000000000", result.Net.String())

	campaignBal, err := bank.Balance(h.state, addr)
	require.NoError(t, err)
	require.Equal(t, "950000000000000000", campaignBal.String())
	walletBal, err := bank.Balance(h.state, feeWallet)
	require.NoError(t, err)
	require.Equal(t, "50000000000000000", walletBal.String())
	funderBal, err := bank.Balance(h.state, funder)
	require.NoError(t, err)
	require.Zero(t, funderBal.Cmp(ether(9)))
	escrow, err := bank.Balance(h.state, factoryAddr)
	require.NoError(t, err)
	require.Zero(t, escrow.Sign())

	balance, err := h.points.GetSpenderPoints(funder)
	require.NoError(t, err)
	require.Equal(t, 1, balance.Sign())
	require.Zero(t, result.Points.Cmp(ether(2000)))

	totals, err := h.factory.FeeTotals(common.Address{})
	require.NoError(t, err)
	require.Equal(t, "50000000000000000", totals.Fee.String())
	require.Equal(t, feeWallet, totals.Wallet)
}

func TestUnverifiedCreatorFundingLimit(t *testing.T) {
	h := newHarness(t, factory.DefaultParams())
	h.ready(t)
	addr := h.createCampaign(t, creator)
	h.startFunding(t, addr)

	require.NoError(t, bank.Credit(h.state, funder, ether(10)))
	_, err := h.factory.FundChainFundMe(funder, addr, common.Address{}, ether(10), ether(10))
	require.NoError(t, err)

	require.NoError(t, h.stable.Mint(h.state, funder, usdc(35_000)))
	_, err = h.stable.Approve(h.state, funder, addr, usdc(35_000))
	require.NoError(t, err)
	snap := h.state.Snapshot()
	_, err = h.factory.FundChainFundMe(funder, addr, stableAddr, usdc(35_000), nil)
	require.ErrorIs(t, err, campaign.ErrFundingLimitExceeded)
	h.state.RevertToSnapshot(snap)

	_, err = h.factory.FundChainFundMe(funder, addr, stableAddr, usdc(34_999), nil)
	require.NoError(t, err)

	require.NoError(t, h.factory.VerifyCreator(ownerAddr, creator, true))
	_, err = h.factory.FundChainFundMe(funder, addr, stableAddr, usdc(1), nil)
	require.NoError(t, err)
}

func TestFundingLimitCanBeDisabled(t *testing.T) {
	h := newHarness(t, factory.DefaultParams())
	h.ready(t)
	addr := h.createCampaign(t, creator)
	h.startFunding(t, addr)
	require.NoError(t, h.factory.UpdateLimitsEnabled(ownerAddr, false))

	require.NoError(t, h.stable.Mint(h.state, funder, usdc(50_000)))
	_, err := h.stable.Approve(h.state, funder, addr, usdc(50_000))
	require.NoError(t, err)
	_, err = h.factory.FundChainFundMe(funder, addr, stableAddr, usdc(50_000), nil)
	require.NoError(t, err)
}

func TestNativeContributionsCappedWhenConfigured(t *testing.T) {
	params := factory.DefaultParams()
	params.CapNativeContributions = true
	params.FundingLimit = ether(3000)
	h := newHarness(t, params)
	h.ready(t)
	addr := h.createCampaign(t, creator)
	h.startFunding(t, addr)
	require.NoError(t, bank.Credit(h.state, funder, ether(10)))

	_, err := h.factory.FundChainFundMe(funder, addr, common.Address{}, ether(1), ether(1))
	require.NoError(t, err)
	_, err = h.factory.FundChainFundMe(funder, addr, common.Address{}, ether(1), ether(1))
	require.ErrorIs(t, err, campaign.ErrFundingLimitExceeded)
}

func TestWithdrawByCreator(t *testing.T) {
	h := newHarness(t, factory.DefaultParams())
	h.ready(t)
	addr := h.createCampaign(t, creator)
	h.startFunding(t, addr)

	require.NoError(t, h.stable.Mint(h.state, funder, usdc(100)))
	_, err := h.stable.Approve(h.state, funder, addr, usdc(100))
	require.NoError(t, err)
	_, err = h.factory.FundChainFundMe(funder, addr, stableAddr, usdc(100), nil)
	require.NoError(t, err)

	h.now += 86400 + 1
	require.NoError(t, h.factory.ApproveWithdraw(moderator, addr))
	_, err = h.factory.WithdrawTokens(funder, addr)
	require.ErrorIs(t, err, factory.ErrNotOwner)

	result, err := h.factory.WithdrawTokens(creator, addr)
	require.NoError(t, err)
	require.Empty(t, result.Failed)
	got, err := h.stable.BalanceOf(h.state, creator)
	require.NoError(t, err)
	require.Zero(t, got.Cmp(usdc(95)))
}

func TestLifecycleCheckedBeforeFundingLimit(t *testing.T) {
	h := newHarness(t, factory.DefaultParams())
	h.ready(t)
	addr := h.createCampaign(t, creator)

	// The CAP token has no rate, so valuing it for the cap would fail.
	_, err := h.factory.FundChainFundMe(funder, addr, capitaAddr, ether(1), nil)
	require.ErrorIs(t, err, campaign.ErrFundingPeriodNotStarted)

	h.now += 3600
	_, err = h.factory.FundChainFundMe(funder, addr, capitaAddr, ether(1), nil)
	require.ErrorIs(t, err, campaign.ErrFundingNotApproved)

	require.NoError(t, h.factory.ApproveFunding(moderator, addr))
	require.NoError(t, h.factory.PauseCampaign(moderator, addr, true))
	_, err = h.factory.FundChainFundMe(funder, addr, capitaAddr, ether(1), nil)
	require.ErrorIs(t, err, campaign.ErrFundingPaused)

	require.NoError(t, h.factory.PauseCampaign(moderator, addr, false))
	_, err = h.factory.FundChainFundMe(funder, addr, capitaAddr, ether(1), nil)
	require.ErrorIs(t, err, factory.ErrAssetNotPriced)
}

func TestWithdrawSkipsEmptyUnregisteredToken(t *testing.T) {
	unregistered := common.HexToAddress("0x0000000000000000000000000000000000005709")
	h := newHarness(t, factory.DefaultParams())
	h.ready(t)
	require.NoError(t, h.factory.SetAcceptableToken(ownerAddr, unregistered))
	require.NoError(t, h.factory.VerifyCreator(ownerAddr, creator, true))
	addr := h.createCampaign(t, creator, unregistered)
	h.startFunding(t, addr)

	require.NoError(t, h.stable.Mint(h.state, funder, usdc(10)))
	_, err := h.stable.Approve(h.state, funder, addr, usdc(10))
	require.NoError(t, err)
	_, err = h.factory.FundChainFundMe(funder, addr, stableAddr, usdc(10), nil)
	require.NoError(t, err)

	h.now += 86400 + 1
	require.NoError(t, h.factory.ApproveWithdraw(moderator, addr))
	result, err := h.factory.WithdrawTokens(creator, addr)
	require.NoError(t, err)
	require.Empty(t, result.Failed)
	require.Zero(t, result.Withdrawn[stableAddr].Cmp(usdc(9)))
	require.Empty(t, h.recorder.Filter(campaign.EventTypeFailedOtherTokensWithdrawal))
}
