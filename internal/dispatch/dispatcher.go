package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/internal/services"
	"github.com/nimasrn/admissions-inbox/pkg/logger"
	"github.com/nimasrn/admissions-inbox/pkg/prom"
	"github.com/nimasrn/admissions-inbox/pkg/worker"
)

var ErrTenantInactive = errors.New("tenant is inactive")

// Sender hands one message to the messaging gateway and returns its delivery id.
type Sender interface {
	SendMessage(ctx context.Context, channelRef, phone, content, kind string) (string, error)
}

type ScheduledStore interface {
	SelectDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*model.ScheduledMessage, error)
	Claim(ctx context.Context, id int64, seenAttempts int, claimedUntil, now time.Time) (bool, error)
	MarkSent(ctx context.Context, id int64, attempt int, deliveryID string, now time.Time) (bool, error)
	MarkAttemptFailed(ctx context.Context, id int64, attempt int, reason string, terminal bool, now time.Time) (bool, error)
	ReapAbandoned(ctx context.Context, now time.Time, maxAttempts int) (int64, error)
}

type TenantLookup interface {
	Get(ctx context.Context, id int64) (*model.Tenant, error)
}

type MessageAppender interface {
	Create(ctx context.Context, msg *model.Message) (*model.Message, error)
}

type ConversationToucher interface {
	TouchLastMessage(ctx context.Context, id, tenantID int64, excerpt string, now time.Time) error
}

type AttemptRecorder interface {
	Create(ctx context.Context, da *model.DeliveryAttempt) (*model.DeliveryAttempt, error)
}

type Config struct {
	BatchLimit  int
	MaxAttempts int
	Concurrency int
	// ClaimTTL bounds how long a claimed record is hidden from other cycles.
	// It must outlive SendTimeout.
	ClaimTTL    time.Duration
	SendTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchLimit:  model.DefaultBatchLimit,
		MaxAttempts: model.DefaultMaxAttempts,
		Concurrency: 4,
		ClaimTTL:    2 * time.Minute,
		SendTimeout: 10 * time.Second,
	}
}

type Dependencies struct {
	Store         ScheduledStore
	Tenants       TenantLookup
	Sender        Sender
	Messages      MessageAppender
	Conversations ConversationToucher
	Attempts      AttemptRecorder
}

// Dispatcher delivers due scheduled messages. A single RunOnce is safe to
// race with another one on a different process: every record is claimed with
// a compare-and-swap before the gateway is called.
type Dispatcher struct {
	deps   Dependencies
	config Config
	pool   *worker.Pool
}

func NewDispatcher(deps Dependencies, config Config) *Dispatcher {
	def := DefaultConfig()
	if config.BatchLimit <= 0 {
		config.BatchLimit = def.BatchLimit
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.ClaimTTL <= 0 {
		config.ClaimTTL = def.ClaimTTL
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = def.SendTimeout
	}
	return &Dispatcher{
		deps:   deps,
		config: config,
		pool:   worker.NewPool(config.Concurrency),
	}
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSent
	outcomeFailed
	outcomeExhausted
)

// RunOnce runs one dispatch cycle at now. Only failing to read the due batch
// is returned as an error; per record failures end up in the summary.
func (d *Dispatcher) RunOnce(ctx context.Context, now time.Time) (model.DispatchSummary, error) {
	start := time.Now()
	now = now.UTC()
	var summary model.DispatchSummary

	reaped, err := d.deps.Store.ReapAbandoned(ctx, now, d.config.MaxAttempts)
	if err != nil {
		logger.Warn("failed to reap abandoned claims", "error", err)
	} else if reaped > 0 {
		summary.Reaped = int(reaped)
		logger.Warn("reaped abandoned scheduled messages", "count", reaped)
	}

	due, err := d.deps.Store.SelectDue(ctx, now, d.config.MaxAttempts, d.config.BatchLimit)
	if err != nil {
		return summary, fmt.Errorf("%w: select due: %w", services.ErrStorage, err)
	}
	summary.Processed = len(due)

	var mu sync.Mutex
	worker.Run(ctx, d.pool, due, func(ctx context.Context, _ int, sm *model.ScheduledMessage) {
		// late items in a slow batch get a full claim ttl from when they are claimed
		res := d.deliver(ctx, now, now.Add(time.Since(start)), sm)
		mu.Lock()
		defer mu.Unlock()
		switch res {
		case outcomeSent:
			summary.Sent++
		case outcomeFailed:
			summary.Failed++
		case outcomeExhausted:
			summary.Failed++
			summary.Exhausted++
		default:
			summary.Skipped++
		}
	})
	// jobs dropped on cancellation or lost to a panic reported nothing
	if missing := summary.Processed - summary.Sent - summary.Failed - summary.Skipped; missing > 0 {
		logger.Warn("dispatch items finished without an outcome", "count", missing)
		summary.Skipped += missing
	}

	prom.AddDispatchOutcome(prom.OutcomeSent, summary.Sent)
	prom.AddDispatchOutcome(prom.OutcomeFailed, summary.Failed)
	prom.AddDispatchOutcome(prom.OutcomeExhausted, summary.Exhausted)
	prom.AddDispatchOutcome(prom.OutcomeSkipped, summary.Skipped)
	prom.AddDispatchOutcome(prom.OutcomeReaped, summary.Reaped)
	prom.AddDispatchCycleDuration(time.Since(start).Seconds())

	if summary.Processed > 0 || summary.Reaped > 0 {
		logger.Info("dispatch cycle finished",
			"processed", summary.Processed,
			"sent", summary.Sent,
			"failed", summary.Failed,
			"exhausted", summary.Exhausted,
			"skipped", summary.Skipped,
			"reaped", summary.Reaped,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return summary, nil
}

func (d *Dispatcher) deliver(ctx context.Context, now, claimAt time.Time, sm *model.ScheduledMessage) outcome {
	claimed, err := d.deps.Store.Claim(ctx, sm.ID, sm.Attempts, claimAt.Add(d.config.ClaimTTL), now)
	if err != nil {
		logger.Error("failed to claim scheduled message", "id", sm.ID, "error", err)
		return outcomeSkipped
	}
	if !claimed {
		logger.Debug("scheduled message claimed elsewhere", "id", sm.ID)
		return outcomeSkipped
	}
	attempt := sm.Attempts + 1

	// The attempt is durable now. Outcomes are written even if the cycle
	// is being cancelled so the claim does not linger until it expires.
	storeCtx := context.WithoutCancel(ctx)

	deliveryID, sendErr := d.send(ctx, sm)
	if sendErr != nil {
		terminal := attempt >= d.config.MaxAttempts
		ok, err := d.deps.Store.MarkAttemptFailed(storeCtx, sm.ID, attempt, sendErr.Error(), terminal, now)
		if err != nil {
			logger.Error("failed to record failed attempt", "id", sm.ID, "attempt", attempt, "error", err)
		} else if !ok {
			logger.Warn("claim lost before failure was recorded", "id", sm.ID, "attempt", attempt)
		}
		d.recordAttempt(storeCtx, sm.ID, attempt, model.AttemptOutcomeFailed, "", sendErr.Error(), now)

		logger.Warn("scheduled message delivery failed",
			"id", sm.ID,
			"tenant_id", sm.TenantID,
			"attempt", attempt,
			"terminal", terminal,
			"error", sendErr)
		if terminal {
			return outcomeExhausted
		}
		return outcomeFailed
	}

	ok, err := d.deps.Store.MarkSent(storeCtx, sm.ID, attempt, deliveryID, now)
	if err != nil {
		logger.Error("failed to record sent message", "id", sm.ID, "delivery_id", deliveryID, "error", err)
	} else if !ok {
		logger.Warn("claim lost before delivery was recorded", "id", sm.ID, "delivery_id", deliveryID)
	}
	d.recordAttempt(storeCtx, sm.ID, attempt, model.AttemptOutcomeSent, deliveryID, "", now)
	d.appendOutbound(storeCtx, sm, deliveryID, now)

	logger.Info("scheduled message sent", "id", sm.ID, "tenant_id", sm.TenantID, "attempt", attempt, "delivery_id", deliveryID)
	return outcomeSent
}

func (d *Dispatcher) send(ctx context.Context, sm *model.ScheduledMessage) (string, error) {
	tenant, err := d.deps.Tenants.Get(ctx, sm.TenantID)
	if err != nil {
		return "", fmt.Errorf("%w: resolve tenant %d: %w", services.ErrDelivery, sm.TenantID, err)
	}
	if !tenant.Active {
		return "", fmt.Errorf("%w: %w", services.ErrDelivery, ErrTenantInactive)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
	defer cancel()

	prom.IncDispatchInFlight(string(sm.Kind))
	defer prom.DecDispatchInFlight(string(sm.Kind))

	start := time.Now()
	deliveryID, err := d.deps.Sender.SendMessage(sendCtx, tenant.ChannelRef, sm.PhoneNumber, sm.Content, string(sm.Kind))
	elapsed := time.Since(start).Seconds()
	if err != nil {
		prom.AddGatewayDuration(elapsed, prom.OutcomeFailed)
		return "", fmt.Errorf("%w: %w", services.ErrDelivery, err)
	}
	prom.AddGatewayDuration(elapsed, prom.OutcomeSent)
	return deliveryID, nil
}

// appendOutbound mirrors a delivered message into its conversation. The
// delivery already happened, so failures here are only logged.
func (d *Dispatcher) appendOutbound(ctx context.Context, sm *model.ScheduledMessage, deliveryID string, now time.Time) {
	if sm.ConversationID == nil || d.deps.Messages == nil {
		return
	}
	conversationID := *sm.ConversationID

	_, err := d.deps.Messages.Create(ctx, &model.Message{
		ConversationID: conversationID,
		Content:        sm.Content,
		Kind:           sm.Kind,
		SenderRole:     sm.SenderRole,
		Read:           true,
		DeliveryID:     deliveryID,
		Timestamp:      now,
	})
	if err != nil {
		logger.Error("failed to append outbound message", "id", sm.ID, "conversation_id", conversationID, "error", err)
		return
	}

	if d.deps.Conversations == nil {
		return
	}
	if err := d.deps.Conversations.TouchLastMessage(ctx, conversationID, sm.TenantID, model.Excerpt(sm.Content), now); err != nil {
		logger.Error("failed to refresh conversation excerpt", "id", sm.ID, "conversation_id", conversationID, "error", err)
	}
}

func (d *Dispatcher) recordAttempt(ctx context.Context, id int64, attempt int, result model.AttemptOutcome, deliveryID, reason string, now time.Time) {
	if d.deps.Attempts == nil {
		return
	}
	_, err := d.deps.Attempts.Create(ctx, &model.DeliveryAttempt{
		ScheduledMessageID: id,
		Attempt:            attempt,
		Outcome:            result,
		DeliveryID:         deliveryID,
		Error:              reason,
		AttemptedAt:        now,
	})
	if err != nil {
		logger.Warn("failed to record delivery attempt", "id", id, "attempt", attempt, "error", err)
	}
}
