package telemetry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newMetrics(t *testing.T, pending telemetry.PendingApprovalsProvider) (*telemetry.BusinessMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:           provider.Meter("test"),
		Pending:         pending,
		CollectInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	return bm, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumFor(t *testing.T, data metricdata.Aggregation, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range sum.DataPoints {
		if len(attrs) == 0 || dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{})
	require.Error(t, err)
	assert.Nil(t, bm)
	assert.Equal(t, "NewBusinessMetrics: meter cannot be nil", err.Error())
}

func TestNewBusinessMetrics_NoopMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{Meter: noop.NewMeterProvider().Meter("test")})
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordApprovalDecision(ctx, "deposit", "approved")
	bm.RecordRefund(ctx, valueobject.NewMoneyFromInt(1))
	bm.StartPeriodicCollection(ctx)
	bm.Stop()
}

func TestBusinessMetrics_Counters(t *testing.T) {
	bm, reader := newMetrics(t, nil)
	ctx := context.Background()

	bm.RecordApprovalDecision(ctx, "dealership", "approved")
	bm.RecordApprovalDecision(ctx, "deposit", "rejected")
	bm.RecordApprovalDecision(ctx, "deposit", "rejected")
	bm.RecordDeposit(ctx, "cash", valueobject.MustMoney("1250.50"))
	bm.RecordSubscriptionPayment(ctx, "card", "completed", valueobject.NewMoneyFromInt(700))
	bm.RecordSubscriptionPayment(ctx, "card", "failed", valueobject.NewMoneyFromInt(700))
	bm.RecordRefund(ctx, valueobject.NewMoneyFromInt(300))
	bm.RecordSubscriptionTransition(ctx, "pending", "active")

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, data["dealerdesk_approval_decisions_total"],
		telemetry.AttrEntity.String("deposit"), telemetry.AttrDecision.String("rejected")))
	assert.Equal(t, int64(125050), sumFor(t, data["dealerdesk_deposit_amount_total"]))
	assert.Equal(t, int64(2), sumFor(t, data["dealerdesk_subscription_payments_total"]))
	assert.Equal(t, int64(70000), sumFor(t, data["dealerdesk_subscription_payment_amount_total"]))
	assert.Equal(t, int64(30000), sumFor(t, data["dealerdesk_refund_amount_total"]))
	assert.Equal(t, int64(1), sumFor(t, data["dealerdesk_subscription_transitions_total"]))
}

type fakePending struct {
	calls atomic.Int64
	err   error
}

func (f *fakePending) CountPendingApprovals(context.Context) (map[string]int64, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return map[string]int64{"dealership": 3, "deposit": 5}, nil
}

func TestBusinessMetrics_PendingGauge(t *testing.T) {
	pending := &fakePending{}
	bm, reader := newMetrics(t, pending)

	bm.StartPeriodicCollection(context.Background())
	assert.Eventually(t, func() bool { return pending.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	bm.Stop()
	bm.Stop()

	gauge, ok := collect(t, reader)["dealerdesk_pending_approvals"].(metricdata.Gauge[int64])
	require.True(t, ok)
	values := map[string]int64{}
	for _, dp := range gauge.DataPoints {
		entity, _ := dp.Attributes.Value(telemetry.AttrEntity)
		values[entity.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"dealership": 3, "deposit": 5}, values)
}

func TestBusinessMetrics_PendingProviderError(t *testing.T) {
	pending := &fakePending{err: errors.New("db down")}
	bm, _ := newMetrics(t, pending)

	bm.StartPeriodicCollection(context.Background())
	assert.Eventually(t, func() bool { return pending.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	bm.Stop()
}
