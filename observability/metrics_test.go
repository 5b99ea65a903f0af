package observability

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPlatformMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPlatformMetrics(reg)

	m.ObserveTx("factory_fund", time.Millisecond, nil)
	m.ObserveTx("factory_fund", time.Millisecond, errors.New("boom"))
	m.RecordDeposit("native")
	m.RecordWithdrawalFailure("0xabc")
	m.AddPoints(new(big.Int).Mul(big.NewInt(3), big.NewInt(1e18)))
	m.SetHeight(7)

	require.Equal(t, 1.0, testutil.ToFloat64(m.txTotal.WithLabelValues("factory_fund", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.txTotal.WithLabelValues("factory_fund", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.deposits.WithLabelValues("NATIVE")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.withdrawalFailures.WithLabelValues("0XABC")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.pointsCredited))
	require.Equal(t, 7.0, testutil.ToFloat64(m.height))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *PlatformMetrics
	m.ObserveTx("x", time.Second, nil)
	m.RecordDeposit("x")
	m.AddPoints(big.NewInt(1))

	var mod *moduleMetrics
	mod.Observe("factory", "fund", 0, time.Second)
	mod.RecordThrottle("factory", "rate_limit")
}

func TestModuleMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newModuleMetrics(reg)
	m.Observe("factory", "fund", -32000, time.Millisecond)
	m.RecordThrottle("", "")
	require.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("factory", "fund", "-32000")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.throttles.WithLabelValues("unknown", "unspecified")))
}
