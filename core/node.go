package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	cerrors "capitafund/core/errors"
	"capitafund/core/events"
	"capitafund/core/genesis"
	"capitafund/core/state"
	"capitafund/native/campaign"
	"capitafund/native/factory"
	"capitafund/native/oracle"
	"capitafund/native/points"
	"capitafund/native/token"
	"capitafund/observability"
	cotel "capitafund/observability/otel"
	"capitafund/storage"
)

var (
	ErrNilDatabase = errors.New("core: database not configured")
	ErrNilGenesis  = errors.New("core: genesis spec not configured")
	ErrNilFeed     = errors.New("core: price feed not configured")
	ErrUnknownTok  = errors.New("core: unknown token")
)

// ErrContractCaller rejects calls signed as a platform contract account.
var ErrContractCaller = errors.New("core: contract accounts cannot originate calls")

// Options carries the optional collaborators of a Node.
type Options struct {
	Params  factory.Params
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.PlatformMetrics
	// Now overrides the block clock. Defaults to time.Now.
	Now func() int64
	// Subscriber receives every event once the transaction that produced it
	// has been committed.
	Subscriber events.Emitter
}

// Node executes platform calls one at a time. Every call runs against a
// fresh state overlay and is committed only when it succeeds, so a failing
// call leaves no trace.
type Node struct {
	mu         sync.RWMutex
	db         storage.Database
	genesis    *genesis.GenesisSpec
	registry   *token.Registry
	ledgers    map[common.Address]*token.Ledger
	adapter    *oracle.Adapter
	params     factory.Params
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *observability.PlatformMetrics
	nowFn      func() int64
	subscriber events.Emitter
}

// txContext is the set of engines bound to one transaction's overlay.
type txContext struct {
	state     *state.Manager
	recorder  *events.Recorder
	campaigns *campaign.Engine
	points    *points.Engine
	factory   *factory.Engine
}

// NewNode wires the engines described by spec over db and runs the genesis
// transaction when the database is empty.
func NewNode(ctx context.Context, db storage.Database, spec *genesis.GenesisSpec, feed oracle.Feed, opts Options) (*Node, error) {
	if db == nil {
		return nil, ErrNilDatabase
	}
	if spec == nil {
		return nil, ErrNilGenesis
	}
	if feed == nil {
		return nil, ErrNilFeed
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("core: genesis: %w", err)
	}

	n := &Node{
		db:         db,
		genesis:    spec,
		registry:   token.NewRegistry(),
		ledgers:    make(map[common.Address]*token.Ledger),
		adapter:    oracle.NewAdapter(feed),
		params:     opts.Params,
		logger:     opts.Logger,
		tracer:     opts.Tracer,
		metrics:    opts.Metrics,
		nowFn:      opts.Now,
		subscriber: opts.Subscriber,
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	if n.tracer == nil {
		n.tracer = cotel.Tracer("core")
	}
	if n.nowFn == nil {
		n.nowFn = func() int64 { return time.Now().Unix() }
	}
	if n.subscriber == nil {
		n.subscriber = events.NoopEmitter{}
	}
	for _, ledger := range spec.Ledgers() {
		if err := n.registry.Register(ledger); err != nil {
			return nil, err
		}
		n.ledgers[ledger.Address()] = ledger
	}
	for addr, rate := range spec.Rates() {
		if err := n.adapter.SetTokenRate(addr, rate); err != nil {
			return nil, fmt.Errorf("core: token rate %s: %w", addr.Hex(), err)
		}
	}
	if err := n.bootstrap(ctx); err != nil {
		return nil, err
	}
	return n, nil
}

// Registry exposes the token implementations known to the node.
func (n *Node) Registry() *token.Registry { return n.registry }

// Oracle exposes the price adapter.
func (n *Node) Oracle() *oracle.Adapter { return n.adapter }

// FactoryAddress returns the address of the deployed factory.
func (n *Node) FactoryAddress() common.Address { return n.genesis.FactoryAddress() }

// PointsAddress returns the address of the points ledger.
func (n *Node) PointsAddress() common.Address { return n.genesis.PointsAddress() }

func (n *Node) newTx() *txContext {
	tx := &txContext{
		state:    state.NewManager(n.db),
		recorder: events.NewRecorder(),
	}
	factoryAddr := n.genesis.FactoryAddress()

	tx.campaigns = campaign.NewEngine(factoryAddr, n.registry)
	tx.campaigns.SetState(tx.state)
	tx.campaigns.SetEmitter(tx.recorder)
	tx.campaigns.SetNowFunc(n.nowFn)

	tx.points = points.NewEngine(n.genesis.PointsAddress(), factoryAddr, n.adapter)
	tx.points.SetState(tx.state)
	tx.points.SetEmitter(tx.recorder)

	tx.factory = factory.NewEngine(tx.campaigns, tx.points, n.adapter, n.params)
	tx.factory.SetState(tx.state)
	tx.factory.SetEmitter(tx.recorder)
	tx.factory.SetNowFunc(n.nowFn)
	return tx
}

// execute runs fn as one atomic transaction on behalf of caller.
func (n *Node) execute(ctx context.Context, method string, caller common.Address, fn func(tx *txContext) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := n.tracer.Start(ctx, "node."+method, trace.WithAttributes(
		attribute.String("method", method),
		attribute.String("caller", caller.Hex()),
	))
	defer span.End()
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	start := time.Now()
	tx := n.newTx()
	err := n.checkCaller(tx, caller)
	if err == nil {
		err = fn(tx)
	}
	var height uint64
	var published int
	if err == nil {
		height, published, err = n.commit(tx)
	}
	duration := time.Since(start)
	n.metrics.ObserveTx(method, duration, err)
	if err != nil {
		tx.state.Discard()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.logger.Warn("transaction failed",
			slog.String("method", method),
			slog.String("caller", caller.Hex()),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return err
	}
	span.SetAttributes(attribute.Int64("height", int64(height)), attribute.Int("events", published))
	n.metrics.SetHeight(height)
	n.logger.Debug("transaction committed",
		slog.String("method", method),
		slog.String("caller", caller.Hex()),
		slog.Uint64("height", height),
		slog.Int("events", published),
		slog.Duration("duration", duration))
	return nil
}

// checkCaller rejects the factory, the points ledger, token contracts and
// deployed campaigns as callers. Their balances leave only through the
// engines that own them.
func (n *Node) checkCaller(tx *txContext, caller common.Address) error {
	if caller == n.genesis.FactoryAddress() || caller == n.genesis.PointsAddress() {
		return cerrors.WithAddress(ErrContractCaller, caller)
	}
	if _, ok := n.ledgers[caller]; ok {
		return cerrors.WithAddress(ErrContractCaller, caller)
	}
	_, err := tx.campaigns.Get(caller)
	switch {
	case err == nil:
		return cerrors.WithAddress(ErrContractCaller, caller)
	case errors.Is(err, campaign.ErrCampaignNotFound):
		return nil
	default:
		return err
	}
}

// commit appends the recorded events to the log, advances the height and
// flushes the overlay. Subscribers are notified only after the flush.
func (n *Node) commit(tx *txContext) (uint64, int, error) {
	height, err := tx.state.Height()
	if err != nil {
		return 0, 0, err
	}
	height++
	recorded := tx.recorder.Events()
	for _, evt := range recorded {
		if _, err := tx.state.AppendEvent(height, evt); err != nil {
			return 0, 0, err
		}
	}
	if err := tx.state.SetHeight(height); err != nil {
		return 0, 0, err
	}
	if err := tx.state.Commit(); err != nil {
		return 0, 0, err
	}
	for _, evt := range recorded {
		n.subscriber.Emit(events.Wrap(evt))
	}
	return height, len(recorded), nil
}

// view runs fn against a read-only overlay.
func (n *Node) view(fn func(tx *txContext) error) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	tx := n.newTx()
	defer tx.state.Discard()
	return fn(tx)
}

func (n *Node) ledger(addr common.Address) (*token.Ledger, error) {
	ledger, ok := n.ledgers[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTok, addr.Hex())
	}
	return ledger, nil
}
