// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package adapter

// AMQPRuntime is a Runtime (C3) implementation backed by a remote worker
// fleet reachable over RabbitMQ. Every control operation is published as
// a correlation-id'd command on a control exchange; the decorated
// lifecycle hooks (C4) are delivered back as messages on a reply queue
// that Events() exposes to the coordinator.
//
// The liveness probe (Subscriptions) queries the RabbitMQ management API
// through rabbit-hole for the consumer count of the one reply queue all
// jobs share; it does not distinguish one job from another.

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
	"github.com/karlmutch/go-cache"
	"github.com/karlmutch/go-shortid"
	"github.com/makasim/amqpextra"
	rh "github.com/michaelklishin/rabbit-hole/v2"
	"github.com/streadway/amqp"

	"github.com/leaf-ai/batch-scheduler/internal/logger"
	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

// LifecycleMessage is one init-after/terminate-before delivery surfaced
// from the runtime back to the coordinator.
type LifecycleMessage struct {
	Queue            string
	Kind             string // "init_after" | "terminate_before"
	Reason           interface{}
	TimeoutInit      time.Duration
	TimeoutTerminate time.Duration
}

// AMQPRuntime implements Runtime over a RabbitMQ control exchange.
type AMQPRuntime struct {
	logger   *logger.Logger
	conn     *amqpextra.Connection
	mgmt     *rh.Client
	exchange string
	replyQ   string

	// pending tracks in-flight published command correlation ids with a
	// TTL; consumeReplies drops any reply whose correlation id is not (or
	// no longer) present rather than attribute it to the wrong job.
	pending *cache.Cache

	events chan LifecycleMessage
}

// NewAMQPRuntime dials uri (an amqp:// URL) and the paired RabbitMQ
// management endpoint mgmtURL, and returns a Runtime ready to dispatch
// control commands on exchange.
func NewAMQPRuntime(log *logger.Logger, uri, mgmtURL, mgmtUser, mgmtPass, exchange string) (r *AMQPRuntime, err kv.Error) {
	if _, errGo := url.Parse(uri); errGo != nil {
		return nil, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime()).With("uri", uri)
	}

	mgmt, errGo := rh.NewClient(mgmtURL, mgmtUser, mgmtPass)
	if errGo != nil {
		return nil, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime()).With("mgmt", mgmtURL)
	}

	conn := amqpextra.Dial([]string{uri})
	conn.SetLogger(amqpextra.LoggerFunc(func(format string, v ...interface{}) {
		log.Trace(fmt.Sprintf(format, v...))
	}))

	r = &AMQPRuntime{
		logger:   log,
		conn:     conn,
		mgmt:     mgmt,
		exchange: exchange,
		replyQ:   exchange + ".replies",
		pending:  cache.New(2*time.Minute, 10*time.Second),
		events:   make(chan LifecycleMessage, 64),
	}

	r.consumeReplies()

	return r, nil
}

// Events returns the channel the coordinator reads decorated lifecycle
// hook deliveries from.
func (r *AMQPRuntime) Events() <-chan LifecycleMessage {
	return r.events
}

func (r *AMQPRuntime) consumeReplies() {
	r.conn.Consumer(
		r.replyQ,
		amqpextra.WorkerFunc(func(ctx context.Context, msg amqp.Delivery) interface{} {
			if _, found := r.pending.Get(msg.CorrelationId); !found {
				r.logger.Warn("dropping lifecycle reply with unknown or expired correlation id", "correlation_id", msg.CorrelationId)
				msg.Ack(false)
				return nil
			}
			r.pending.Delete(msg.CorrelationId)

			kind, _ := msg.Headers["kind"].(string)
			queueName, _ := msg.Headers["queue"].(string)

			lm := LifecycleMessage{Queue: queueName, Kind: kind, Reason: string(msg.Body)}
			if ms, ok := msg.Headers["timeout_init_ms"].(int64); ok {
				lm.TimeoutInit = time.Duration(ms) * time.Millisecond
			}
			if ms, ok := msg.Headers["timeout_terminate_ms"].(int64); ok {
				lm.TimeoutTerminate = time.Duration(ms) * time.Millisecond
			}

			select {
			case r.events <- lm:
			case <-ctx.Done():
			}

			msg.Ack(false)
			return nil
		}),
	)
}

func (r *AMQPRuntime) publish(ctx context.Context, command, id string, body queue.Config) (correlation string, err kv.Error) {
	correlation, errGo := shortid.Generate()
	if errGo != nil {
		return "", kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}

	r.pending.Set(correlation, command, cache.DefaultExpiration)

	publishing := amqpextra.Publishing{
		Exchange: r.exchange,
		Key:      command,
		Message: amqp.Publishing{
			CorrelationId: correlation,
			ReplyTo:       r.replyQ,
			Headers:       amqp.Table{"service_id": id},
		},
	}

	if err := r.conn.Publisher().Publish(publishing); err != nil {
		return "", kv.Wrap(err).With("stack", stack.Trace().TrimRuntime()).With("command", command).With("service_id", id)
	}

	return correlation, nil
}

// Add implements Runtime.
func (r *AMQPRuntime) Add(ctx context.Context, queueName string, cfg queue.Config) (id string, err kv.Error) {
	id, errGo := shortid.Generate()
	if errGo != nil {
		return "", kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	if _, err = r.publish(ctx, "add", id, cfg); err != nil {
		return "", err
	}
	return id, nil
}

// Remove implements Runtime.
func (r *AMQPRuntime) Remove(ctx context.Context, id string) (err kv.Error) {
	_, err = r.publish(ctx, "remove", id, queue.Config{})
	return err
}

// Suspend implements Runtime.
func (r *AMQPRuntime) Suspend(ctx context.Context, id string) (err kv.Error) {
	_, err = r.publish(ctx, "suspend", id, queue.Config{})
	return err
}

// Resume implements Runtime.
func (r *AMQPRuntime) Resume(ctx context.Context, id string) (err kv.Error) {
	_, err = r.publish(ctx, "resume", id, queue.Config{})
	return err
}

// Restart implements Runtime.
func (r *AMQPRuntime) Restart(ctx context.Context, id string) (err kv.Error) {
	_, err = r.publish(ctx, "restart", id, queue.Config{})
	return err
}

// Subscriptions implements Runtime's liveness probe via the RabbitMQ
// management API: it reports alive iff the shared reply queue has at
// least one consumer. id is not consulted, so every job reads as alive
// while any consumer is attached.
func (r *AMQPRuntime) Subscriptions(ctx context.Context, id string) (alive bool, err kv.Error) {
	q, errGo := r.mgmt.GetQueue("/", r.replyQ)
	if errGo != nil {
		return false, ErrServiceNotFound
	}
	return q.Consumers > 0, nil
}
