package events

import (
	"testing"

	"github.com/stretchr/testify/require"

	"capitafund/core/types"
)

func TestRecorderBuffersPayloads(t *testing.T) {
	rec := NewRecorder()
	rec.Emit(Wrap(&types.Event{Type: "Paused", Attributes: map[string]string{"paused": "true"}}))
	rec.Emit(Wrap(nil))
	rec.Emit(Wrap(&types.Event{Type: "FundingApproved", Attributes: map[string]string{"approved": "true"}}))

	require.Equal(t, 2, rec.Len())
	evts := rec.Events()
	require.Equal(t, "Paused", evts[0].Type)
	require.Equal(t, "true", evts[1].Attr("approved"))

	evts[0].Attributes["paused"] = "false"
	require.Equal(t, "true", rec.Events()[0].Attr("paused"))

	require.Len(t, rec.Filter("FundingApproved"), 1)
	rec.Truncate(1)
	require.Equal(t, 1, rec.Len())
	rec.Reset()
	require.Zero(t, rec.Len())
}

func TestFanoutForwardsToEveryEmitter(t *testing.T) {
	first, second := NewRecorder(), NewRecorder()
	fan := Fanout{first, nil, second, NoopEmitter{}}
	fan.Emit(Wrap(&types.Event{Type: "WithdrawApproved"}))
	require.Equal(t, 1, first.Len())
	require.Equal(t, 1, second.Len())
}
