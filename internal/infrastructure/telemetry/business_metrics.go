package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// PendingApprovalsProvider reports how many entities await a decision, keyed by entity kind
type PendingApprovalsProvider interface {
	CountPendingApprovals(ctx context.Context) (map[string]int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration
	Pending         PendingApprovalsProvider
}

// BusinessMetrics tracks approvals, deposits and subscription activity.
// Amounts are recorded in poisha so counters stay integral.
type BusinessMetrics struct {
	logger *zap.Logger

	approvalDecisions       *Counter
	depositsRecorded        *Counter
	depositAmount           *Counter
	subscriptionTransitions *Counter
	subscriptionPayments    *Counter
	paymentAmount           *Counter
	refundAmount            *Counter
	pendingApprovals        *Gauge

	pending         PendingApprovalsProvider
	collectInterval time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once
	startOnce       sync.Once
	wg              sync.WaitGroup
}

// NewBusinessMetrics creates the business instruments on cfg.Meter
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.CollectInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	bm := &BusinessMetrics{
		logger:          logger,
		pending:         cfg.Pending,
		collectInterval: interval,
		stopCh:          make(chan struct{}),
	}

	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&bm.approvalDecisions, "dealerdesk_approval_decisions_total", "Approval decisions by entity and outcome", "{decisions}"},
		{&bm.depositsRecorded, "dealerdesk_deposits_recorded_total", "Deposits recorded by method", "{deposits}"},
		{&bm.depositAmount, "dealerdesk_deposit_amount_total", "Deposited amount in poisha", "{poisha}"},
		{&bm.subscriptionTransitions, "dealerdesk_subscription_transitions_total", "Subscription status transitions", "{transitions}"},
		{&bm.subscriptionPayments, "dealerdesk_subscription_payments_total", "Subscription payments by method and status", "{payments}"},
		{&bm.paymentAmount, "dealerdesk_subscription_payment_amount_total", "Completed subscription payment amount in poisha", "{poisha}"},
		{&bm.refundAmount, "dealerdesk_refund_amount_total", "Refunded subscription payment amount in poisha", "{poisha}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	gauge, err := NewGauge(cfg.Meter, "dealerdesk_pending_approvals", "Entities awaiting an approval decision", "{entities}")
	if err != nil {
		return nil, err
	}
	bm.pendingApprovals = gauge
	return bm, nil
}

// RecordApprovalDecision counts an approve or reject on a dealership or deposit
func (bm *BusinessMetrics) RecordApprovalDecision(ctx context.Context, entity, decision string) {
	bm.approvalDecisions.Inc(ctx, AttrEntity.String(entity), AttrDecision.String(decision))
}

// RecordDeposit counts a recorded deposit and its amount
func (bm *BusinessMetrics) RecordDeposit(ctx context.Context, method string, amount valueobject.Money) {
	bm.depositsRecorded.Inc(ctx, AttrDepositMethod.String(method))
	bm.depositAmount.Add(ctx, amount.MinorUnits(), AttrDepositMethod.String(method))
}

// RecordSubscriptionTransition counts a subscription status change
func (bm *BusinessMetrics) RecordSubscriptionTransition(ctx context.Context, from, to string) {
	bm.subscriptionTransitions.Inc(ctx, AttrFromStatus.String(from), AttrToStatus.String(to))
}

// RecordSubscriptionPayment counts a payment; only completed payments add to the amount
func (bm *BusinessMetrics) RecordSubscriptionPayment(ctx context.Context, method, status string, amount valueobject.Money) {
	bm.subscriptionPayments.Inc(ctx, AttrPaymentMethod.String(method), AttrPaymentStatus.String(status))
	if status == "completed" {
		bm.paymentAmount.Add(ctx, amount.MinorUnits(), AttrPaymentMethod.String(method))
	}
}

// RecordRefund adds a refunded amount
func (bm *BusinessMetrics) RecordRefund(ctx context.Context, amount valueobject.Money) {
	bm.refundAmount.Add(ctx, amount.MinorUnits())
}

// StartPeriodicCollection samples the pending approval gauge until Stop is
// called or ctx ends. Without a provider it does nothing.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context) {
	if bm.pending == nil {
		return
	}
	bm.startOnce.Do(func() {
		bm.wg.Add(1)
		go bm.run(ctx)
	})
}

func (bm *BusinessMetrics) run(ctx context.Context) {
	defer bm.wg.Done()
	ticker := time.NewTicker(bm.collectInterval)
	defer ticker.Stop()

	bm.collect(ctx)
	for {
		select {
		case <-bm.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.collect(ctx)
		}
	}
}

func (bm *BusinessMetrics) collect(ctx context.Context) {
	counts, err := bm.pending.CountPendingApprovals(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count pending approvals", zap.Error(err))
		return
	}
	for entity, n := range counts {
		bm.pendingApprovals.Record(ctx, n, AttrEntity.String(entity))
	}
}

// Stop ends periodic collection. Safe to call more than once.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopCh)
		bm.wg.Wait()
	})
}

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics setup error
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
