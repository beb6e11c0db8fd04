// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package eventbus is the daemon's in-process publish/subscribe hub. Every
// store mutation, hook dispatch, agent lifecycle change, and pipeline step
// transition is published here; the WebSocket hub, the webhook dispatcher,
// and the agent reaper are all plain subscribers.
package eventbus

import (
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Topic identifies the kind of event being published. Subscribers filter by
// topic rather than receiving a firehose of every event in the system.
type Topic string

const (
	TopicSession      Topic = "session"
	TopicTask         Topic = "task"
	TopicAgentRun     Topic = "agent_run"
	TopicWorkflow     Topic = "workflow"
	TopicWorktree     Topic = "worktree"
	TopicPipeline     Topic = "pipeline"
	TopicArtifact     Topic = "artifact"
	TopicMessage      Topic = "message"
	TopicWebhook      Topic = "webhook"
)

// Event is one published occurrence. Payload is whatever the publisher
// chose to attach — subscribers type-assert based on Topic.
type Event struct {
	Topic     Topic
	Kind      string // e.g. "created", "status_changed", "claimed"
	ID        string // the primary entity id this event concerns
	Payload   any
	Timestamp time.Time
}

var (
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gobby_eventbus_published_total",
		Help: "Total events published to the event bus, by topic.",
	}, []string{"topic"})

	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gobby_eventbus_dropped_total",
		Help: "Total events dropped because a subscriber's channel was full.",
	}, []string{"topic"})

	subscriberQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gobby_eventbus_subscriber_queue_depth",
		Help: "Current buffered event count per subscriber.",
	}, []string{"subscriber"})
)

// DefaultQueueDepth is the per-subscriber channel buffer size. Once full,
// Publish drops the oldest queued event rather than blocking the publisher
// (the publisher is almost always a store transaction commit path, which
// must never stall on a slow subscriber like a stuck WebSocket write).
const DefaultQueueDepth = 256

type subscriber struct {
	name   string
	topics map[Topic]bool // nil means "all topics"
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

// Bus is a bounded, non-blocking, multi-subscriber event hub.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	logger      *slog.Logger
}

// New creates an empty Bus.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string]*subscriber),
		logger:      logger,
	}
}

// Subscribe registers a named subscriber and returns a channel of events.
// Passing no topics subscribes to everything. Calling Subscribe again with
// the same name replaces the previous subscription and closes its channel.
func (b *Bus) Subscribe(name string, topics ...Topic) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subscribers[name]; ok {
		old.mu.Lock()
		if !old.closed {
			old.closed = true
			close(old.ch)
		}
		old.mu.Unlock()
	}

	var topicSet map[Topic]bool
	if len(topics) > 0 {
		topicSet = make(map[Topic]bool, len(topics))
		for _, t := range topics {
			topicSet[t] = true
		}
	}

	sub := &subscriber{
		name:   name,
		topics: topicSet,
		ch:     make(chan Event, DefaultQueueDepth),
	}
	b.subscribers[name] = sub
	return sub.ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subscribers[name]
	if !ok {
		return
	}
	delete(b.subscribers, name)
	sub.mu.Lock()
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
	sub.mu.Unlock()
	subscriberQueueDepth.DeleteLabelValues(name)
}

// Publish fans an event out to every matching subscriber. It never blocks:
// a subscriber whose channel is full has its oldest buffered event dropped
// to make room, and the drop is counted so operators can see backpressure
// in /admin/metrics rather than silently losing visibility.
func (b *Bus) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	publishedTotal.WithLabelValues(string(evt.Topic)).Inc()

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.topics != nil && !sub.topics[evt.Topic] {
			continue
		}
		b.deliver(sub, evt)
	}
}

func (b *Bus) deliver(sub *subscriber, evt Event) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}

	select {
	case sub.ch <- evt:
	default:
		// Queue full: drop the oldest buffered event and retry once.
		select {
		case <-sub.ch:
			droppedTotal.WithLabelValues(string(evt.Topic)).Inc()
			b.logger.Warn("eventbus: dropping oldest event for slow subscriber",
				slog.String("subscriber", sub.name), slog.String("topic", string(evt.Topic)))
		default:
		}
		select {
		case sub.ch <- evt:
		default:
			// Another publisher raced us and refilled the buffer; give up
			// rather than spin — the event is lost either way.
			droppedTotal.WithLabelValues(string(evt.Topic)).Inc()
		}
	}
	subscriberQueueDepth.WithLabelValues(sub.name).Set(float64(len(sub.ch)))
}

// Close unsubscribes and closes every subscriber's channel. Used on daemon
// shutdown.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, sub := range b.subscribers {
		sub.mu.Lock()
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
		sub.mu.Unlock()
		delete(b.subscribers, name)
		subscriberQueueDepth.DeleteLabelValues(name)
	}
}
