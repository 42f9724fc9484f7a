package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Task is one unit of background work, typically a comparison sheet rebuild
// for a single RFQ.
type Task struct {
	Kind           string
	Payload        []byte
	IdempotencyKey string
	MaxAttempts    int
	Delay          time.Duration
	Attempt        int
}

// Enqueuer publishes tasks onto Redis sorted-set queues. Tasks carrying an
// idempotency key are deduplicated within DedupTTL, so repeated saves against
// the same RFQ collapse into one pending rebuild.
type Enqueuer struct {
	R           *redis.Client
	Prefix      string
	DedupTTL    time.Duration
	MaxAttempts int
}

// Enqueue inserts the task into its queue, scored by availability time.
func (e Enqueuer) Enqueue(ctx context.Context, t Task) error {
	if e.R == nil {
		return errors.New("queue: redis client not configured")
	}
	kind := sanitizeKind(t.Kind)
	if kind == "" {
		return errors.New("queue: task kind is required")
	}
	msg := taskMessage{
		Kind:        kind,
		Key:         t.IdempotencyKey,
		Payload:     t.Payload,
		MaxAttempts: t.MaxAttempts,
	}
	if msg.MaxAttempts <= 0 {
		msg.MaxAttempts = e.MaxAttempts
	}
	if msg.MaxAttempts <= 0 {
		msg.MaxAttempts = 10
	}
	msg.AvailableAt = time.Now().Add(t.Delay).UnixNano()

	if msg.Key != "" {
		ttl := e.DedupTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		ok, err := e.R.SetNX(ctx, dedupKey(e.Prefix, kind, msg.Key), "1", ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return e.R.ZAdd(ctx, queueKey(e.Prefix, kind), redis.Z{
		Score:  float64(msg.AvailableAt),
		Member: raw,
	}).Err()
}

// Worker consumes tasks of one kind until its context is cancelled. A task
// being processed lives in a processing set scored by its visibility
// deadline, so work lost to a crash is redelivered.
type Worker struct {
	R                 *redis.Client
	Prefix            string
	Kind              string
	Concurrency       int
	VisibilityTimeout time.Duration
	SoftDeadline      time.Duration
	RetryBase         time.Duration
	RetryJitter       float64
	Logger            *zerolog.Logger
	Handler           func(context.Context, Task) error
}

// Run blocks processing tasks. It returns nil on context cancellation after
// in-flight handlers finish.
func (w Worker) Run(ctx context.Context) error {
	if w.R == nil {
		return errors.New("queue: worker redis client not configured")
	}
	if w.Handler == nil {
		return errors.New("queue: worker handler not configured")
	}
	kind := sanitizeKind(w.Kind)
	if kind == "" {
		return errors.New("queue: worker kind is required")
	}
	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	visibility := w.VisibilityTimeout
	if visibility <= 0 {
		visibility = 30 * time.Second
	}
	retryBase := w.RetryBase
	if retryBase <= 0 {
		retryBase = 200 * time.Millisecond
	}

	qKey := queueKey(w.Prefix, kind)
	pKey := processingKey(w.Prefix, kind)

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	requeueTicker := time.NewTicker(time.Second)
	defer requeueTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case <-requeueTicker.C:
			if err := w.requeueExpired(ctx, pKey, qKey); err != nil {
				return err
			}
		default:
		}

		if depth, err := w.R.ZCard(ctx, qKey).Result(); err == nil {
			QueueDepth.WithLabelValues(kind).Set(float64(depth))
		}

		res, err := w.R.ZPopMin(ctx, qKey, 1).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			if err == redis.Nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return err
		}
		if len(res) == 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		member, ok := res[0].Member.(string)
		if !ok {
			continue
		}
		msg, err := decodeMessage(member)
		if err != nil {
			w.logErr(err, "queue: drop undecodable task")
			continue
		}
		now := time.Now().UnixNano()
		if msg.AvailableAt > now {
			// Not due yet. Push back and wait for the earliest deadline.
			w.R.ZAdd(ctx, qKey, redis.Z{Score: float64(msg.AvailableAt), Member: member})
			sleep := time.Duration(msg.AvailableAt - now)
			if sleep > time.Second {
				sleep = time.Second
			}
			time.Sleep(sleep)
			continue
		}

		msg.Attempt++
		rawBytes, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		raw := string(rawBytes)
		deadline := time.Now().Add(visibility).UnixNano()
		if err := w.R.ZAdd(ctx, pKey, redis.Z{Score: float64(deadline), Member: raw}).Err(); err != nil {
			return err
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(raw string, m taskMessage) {
			defer func() { <-sem }()
			defer wg.Done()
			jobCtx := ctx
			cancel := context.CancelFunc(func() {})
			if w.SoftDeadline > 0 {
				jobCtx, cancel = context.WithTimeout(ctx, w.SoftDeadline)
			}
			defer cancel()
			err := w.Handler(jobCtx, Task{
				Kind:           kind,
				Payload:        m.Payload,
				IdempotencyKey: m.Key,
				Attempt:        m.Attempt,
			})
			if err != nil {
				QueueProcessedTotal.WithLabelValues(kind, "error").Inc()
				w.handleFailure(ctx, qKey, pKey, raw, m, retryBase)
				return
			}
			QueueProcessedTotal.WithLabelValues(kind, "ok").Inc()
			w.ack(ctx, pKey, raw, m)
		}(raw, msg)
	}
}

func (w Worker) handleFailure(ctx context.Context, qKey, pKey, raw string, msg taskMessage, base time.Duration) {
	_ = w.R.ZRem(ctx, pKey, raw)
	if msg.MaxAttempts > 0 && msg.Attempt >= msg.MaxAttempts {
		rawBytes, err := json.Marshal(msg)
		if err != nil {
			return
		}
		_ = w.R.LPush(ctx, dlqKey(w.Prefix, msg.Kind), rawBytes).Err()
		if size, err := w.R.LLen(ctx, dlqKey(w.Prefix, msg.Kind)).Result(); err == nil {
			QueueDLQSize.WithLabelValues(msg.Kind).Set(float64(size))
		}
		if msg.Key != "" {
			_ = w.R.Del(ctx, dedupKey(w.Prefix, msg.Kind, msg.Key)).Err()
		}
		w.logErr(fmt.Errorf("task %q exhausted %d attempts", msg.Kind, msg.Attempt), "queue: task moved to dlq")
		return
	}
	delay := backoff(base, msg.Attempt, w.RetryJitter)
	msg.AvailableAt = time.Now().Add(delay).UnixNano()
	rawBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = w.R.ZAdd(ctx, qKey, redis.Z{Score: float64(msg.AvailableAt), Member: string(rawBytes)}).Err()
}

func (w Worker) ack(ctx context.Context, pKey, raw string, msg taskMessage) {
	_ = w.R.ZRem(ctx, pKey, raw)
	if msg.Key != "" {
		_ = w.R.Del(ctx, dedupKey(w.Prefix, msg.Kind, msg.Key)).Err()
	}
}

func (w Worker) requeueExpired(ctx context.Context, pKey, qKey string) error {
	now := float64(time.Now().UnixNano())
	due, err := w.R.ZRangeByScore(ctx, pKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%f", now)}).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	for _, raw := range due {
		msg, err := decodeMessage(raw)
		if err != nil {
			continue
		}
		_ = w.R.ZRem(ctx, pKey, raw).Err()
		msg.AvailableAt = time.Now().UnixNano()
		encoded, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		_ = w.R.ZAdd(ctx, qKey, redis.Z{Score: float64(msg.AvailableAt), Member: encoded}).Err()
	}
	return nil
}

func (w Worker) logErr(err error, msg string) {
	if w.Logger == nil {
		return
	}
	w.Logger.Error().Err(err).Msg(msg)
}

// backoff grows exponentially with the attempt number, capped at 30s, with
// optional proportional jitter.
func backoff(base time.Duration, attempt int, jitterPct float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base << (attempt - 1)
	const maxDelay = 30 * time.Second
	if d > maxDelay || d <= 0 {
		d = maxDelay
	}
	if jitterPct > 0 {
		span := float64(d) * jitterPct
		d += time.Duration((rand.Float64()*2 - 1) * span)
		if d < 0 {
			d = base
		}
	}
	return d
}

func queueKey(prefix, kind string) string {
	if prefix == "" {
		return "queue:" + kind
	}
	return prefix + ":queue:" + kind
}

func processingKey(prefix, kind string) string {
	if prefix == "" {
		return "queue:" + kind + ":processing"
	}
	return prefix + ":queue:" + kind + ":processing"
}

func dlqKey(prefix, kind string) string {
	if prefix == "" {
		return "queue:" + kind + ":dlq"
	}
	return prefix + ":queue:" + kind + ":dlq"
}

func dedupKey(prefix, kind, key string) string {
	if prefix == "" {
		return "queue:dedup:" + kind + ":" + key
	}
	return prefix + ":dedup:" + kind + ":" + key
}

func sanitizeKind(kind string) string {
	for i := 0; i < len(kind); i++ {
		c := kind[i]
		if c >= 'a' && c <= 'z' {
			continue
		}
		if c >= '0' && c <= '9' {
			continue
		}
		if c == '-' || c == '_' || c == ':' {
			continue
		}
		return ""
	}
	return kind
}

func decodeMessage(raw string) (taskMessage, error) {
	var msg taskMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return taskMessage{}, err
	}
	return msg, nil
}

type taskMessage struct {
	Kind        string `json:"kind"`
	Key         string `json:"key,omitempty"`
	Payload     []byte `json:"payload"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
	AvailableAt int64  `json:"available_at"`
}
