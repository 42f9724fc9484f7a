package comparison

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/procurehq/backend-procure/internal/queue"
)

// TaskKind is the queue topic carrying comparison sheet rebuilds.
const TaskKind = "comparison-recompute"

type recomputePayload struct {
	RFQNumber string `json:"rfqNumber"`
}

// Scheduler enqueues a sheet rebuild for an RFQ. The RFQ number doubles as
// the idempotency key, so a burst of quotation saves against one RFQ
// collapses into a single pending rebuild.
type Scheduler struct {
	Enq queue.Enqueuer
}

// ScheduleRecompute satisfies quotation.Recomputer.
func (s Scheduler) ScheduleRecompute(ctx context.Context, rfqNumber string) error {
	payload, err := json.Marshal(recomputePayload{RFQNumber: rfqNumber})
	if err != nil {
		return err
	}
	return s.Enq.Enqueue(ctx, queue.Task{
		Kind:           TaskKind,
		Payload:        payload,
		IdempotencyKey: rfqNumber,
	})
}

// TaskHandler returns the worker callback that rebuilds a sheet from a
// queued task.
func TaskHandler(svc *Service) func(context.Context, queue.Task) error {
	return func(ctx context.Context, t queue.Task) error {
		var p recomputePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return fmt.Errorf("comparison: decode recompute payload: %w", err)
		}
		if p.RFQNumber == "" {
			return fmt.Errorf("comparison: recompute payload missing rfq number")
		}
		return svc.Refresh(ctx, p.RFQNumber)
	}
}
