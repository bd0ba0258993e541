package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/redis/go-redis/v9"
)

// Predefinied Queue IDs.
const (
	CreateQueue   = "creation"
	UpdateQueue   = "updating"
	DeleteQueue   = "deletion"
	PurchaseQueue = "purchase"
)

// CatalogQueues lists all queue ids a catalog change can be pushed onto.
var CatalogQueues = []string{CreateQueue, UpdateQueue, DeleteQueue, PurchaseQueue}

var (
	ErrQueueFull    = errors.New("queue is full")
	ErrUnknownQueue = errors.New("unknown queue id")
)

// Ensure both queues implement Queuer.
var (
	_ Queuer = (*redisQueue)(nil)
	_ Queuer = (*memoryQueue)(nil)
)

// CatalogEvent describes a change applied to the catalog.
type CatalogEvent struct {
	Kind     string    `json:"kind"`
	BookID   string    `json:"bookId"`
	Book     Book      `json:"book"`
	Quantity int       `json:"quantity,omitempty"`
	At       time.Time `json:"at"`
}

// Queuer describes a queue.
type Queuer interface {
	Push(ctx context.Context, qid string, event CatalogEvent) error
	Pop(ctx context.Context, qids ...string) (string, CatalogEvent, error)
}

// redisQueue represents a queue which implements the Queuer interface.
type redisQueue struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisQueue provides a redis lists based queue. The timeout bounds
// each blocking pop so consumers can notice their context is done.
func NewRedisQueue(client *redis.Client, timeout time.Duration) Queuer {
	return &redisQueue{client: client, timeout: timeout}
}

// Push enqueues an event onto the queue identified by qid.
func (q *redisQueue) Push(ctx context.Context, qid string, event CatalogEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, qid, eventBytes).Err()
}

// Pop returns the first dequeued event from the list of queue ids.
// It blocks until an event is available or the context is done.
func (q *redisQueue) Pop(ctx context.Context, qids ...string) (string, CatalogEvent, error) {
	var event CatalogEvent
	for {
		infos, err := q.client.BLPop(ctx, q.timeout, qids...).Result()
		if err == redis.Nil {
			if ctx.Err() != nil {
				return "", event, ctx.Err()
			}
			continue
		}
		if err != nil {
			return "", event, err
		}
		if err = json.Unmarshal([]byte(infos[1]), &event); err != nil {
			return "", event, err
		}
		return infos[0], event, nil
	}
}

type memoryQueue struct {
	queues map[string]chan CatalogEvent
}

// NewMemoryQueue provides an in-process queue with one buffered
// channel of the given capacity per catalog queue id.
func NewMemoryQueue(capacity int) Queuer {
	q := &memoryQueue{queues: make(map[string]chan CatalogEvent, len(CatalogQueues))}
	for _, qid := range CatalogQueues {
		q.queues[qid] = make(chan CatalogEvent, capacity)
	}
	return q
}

// Push enqueues an event without blocking. It fails when the queue is full.
func (q *memoryQueue) Push(_ context.Context, qid string, event CatalogEvent) error {
	ch, ok := q.queues[qid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQueue, qid)
	}
	select {
	case ch <- event:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrQueueFull, qid)
	}
}

// Pop waits for the next event on any of the given queue ids.
func (q *memoryQueue) Pop(ctx context.Context, qids ...string) (string, CatalogEvent, error) {
	cases := make([]reflect.SelectCase, 0, len(qids)+1)
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
	for _, qid := range qids {
		ch, ok := q.queues[qid]
		if !ok {
			return "", CatalogEvent{}, fmt.Errorf("%w: %s", ErrUnknownQueue, qid)
		}
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ch)})
	}
	chosen, value, _ := reflect.Select(cases)
	if chosen == 0 {
		return "", CatalogEvent{}, ctx.Err()
	}
	return qids[chosen-1], value.Interface().(CatalogEvent), nil
}
