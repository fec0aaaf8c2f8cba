// LearnPulse - Adaptive Learning Recommendations and Behavioral Nudges
// Copyright 2026 LearnPulse Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/learnpulse/learnpulse

// Package audit delivers served-nudge events to the data provider
// asynchronously. The request path publishes to an in-process channel
// and returns immediately; a consumer drains the channel and appends
// to the store. Delivery failures are logged and counted, never
// propagated back to the request.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/learnpulse/learnpulse/internal/engine"
	"github.com/learnpulse/learnpulse/internal/logging"
	"github.com/learnpulse/learnpulse/internal/metrics"
)

// Topic is the audit event topic.
const Topic = "audit.nudges"

// appendTimeout bounds one store append.
const appendTimeout = 5 * time.Second

// Pipeline is the in-process audit event bus. It implements
// engine.AuditSink on the publish side; Run drains the subscription.
type Pipeline struct {
	pubsub   *gochannel.GoChannel
	provider engine.DataProvider
	log      zerolog.Logger
}

// NewPipeline creates a pipeline that appends events via provider.
func NewPipeline(provider engine.DataProvider) *Pipeline {
	log := logging.With().Str("component", "audit").Logger()
	return &Pipeline{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, watermillLogger{log: log}),
		provider: provider,
		log:      log,
	}
}

// Publish enqueues one audit event. Non-blocking apart from marshal
// and channel handoff.
func (p *Pipeline) Publish(_ context.Context, event engine.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pubsub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

// Run consumes the topic until ctx is cancelled. Intended to be run as
// a supervised service.
func (p *Pipeline) Run(ctx context.Context) error {
	messages, err := p.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", Topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			p.handle(msg)
		}
	}
}

// handle appends one event to the store. Failures are terminal for the
// event: audit is fire-and-forget, so the message is acked either way.
func (p *Pipeline) handle(msg *message.Message) {
	defer msg.Ack()

	var event engine.AuditEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		metrics.AuditEvents.WithLabelValues("failed").Inc()
		p.log.Error().Err(err).Str("message_id", msg.UUID).Msg("malformed audit event dropped")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()
	if err := p.provider.AppendAuditEvent(ctx, event); err != nil {
		metrics.AuditEvents.WithLabelValues("failed").Inc()
		p.log.Warn().Err(err).Str("user_id", event.UserID).Msg("audit append failed, event dropped")
		return
	}
	metrics.AuditEvents.WithLabelValues("stored").Inc()
}

// Close shuts down the channel; pending messages are dropped.
func (p *Pipeline) Close() error {
	return p.pubsub.Close()
}

// watermillLogger adapts zerolog to watermill.LoggerAdapter.
type watermillLogger struct {
	log zerolog.Logger
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(l.log.Error().Err(err), msg, fields)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(l.log.Debug(), msg, fields) // watermill is chatty; demote to debug
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(l.log.Debug(), msg, fields)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(l.log.Trace(), msg, fields)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := l.log.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return watermillLogger{log: ctx.Logger()}
}

func (l watermillLogger) event(e *zerolog.Event, msg string, fields watermill.LogFields) {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}
