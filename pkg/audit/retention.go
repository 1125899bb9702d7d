package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionPolicy bounds the audit trail by age and size.
type RetentionPolicy struct {
	// Days is the maximum record age. Zero disables age pruning.
	Days int

	// MaxRecords is the maximum trail size. Zero disables count pruning.
	MaxRecords int64

	// PruneSchedule is a standard cron expression (e.g. "0 3 * * *" for
	// daily at 3 AM). Empty disables scheduled pruning.
	PruneSchedule string
}

// Pruner enforces a RetentionPolicy against a Storage, either on demand
// via Prune or on a cron schedule via Start.
type Pruner struct {
	storage Storage
	policy  RetentionPolicy
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewPruner creates a Pruner for the given storage and policy.
func NewPruner(storage Storage, policy RetentionPolicy) *Pruner {
	return &Pruner{
		storage: storage,
		policy:  policy,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "audit.pruner"),
	}
}

// Prune applies the policy once: first by age, then by count.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.policy.Days > 0 {
		cutoff := time.Now().AddDate(0, 0, -p.policy.Days)
		removed, err := p.storage.PruneBefore(ctx, cutoff)
		if err != nil {
			return total, err
		}
		total += removed
	}

	if p.policy.MaxRecords > 0 {
		removed, err := p.storage.PruneToCount(ctx, p.policy.MaxRecords)
		if err != nil {
			return total, err
		}
		total += removed
	}

	if total > 0 {
		p.logger.Info("audit records pruned",
			"removed", total,
			"retention_days", p.policy.Days,
			"max_records", p.policy.MaxRecords,
		)
	}
	return total, nil
}

// Start schedules pruning per the policy's cron expression. An empty
// schedule is a no-op.
func (p *Pruner) Start() error {
	if p.policy.PruneSchedule == "" {
		p.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}

	_, err := p.cron.AddFunc(p.policy.PruneSchedule, func() {
		if _, err := p.Prune(context.Background()); err != nil {
			p.logger.Error("scheduled pruning failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	p.cron.Start()
	p.logger.Info("retention scheduler started",
		"schedule", p.policy.PruneSchedule,
		"retention_days", p.policy.Days,
		"max_records", p.policy.MaxRecords,
	)
	return nil
}

// Stop halts scheduled pruning, waiting for a running prune to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}
