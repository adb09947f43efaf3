package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

const publishTimeout = 5 * time.Second

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes build messages on a NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	policy  retry.Policy
	now     func() time.Time
}

// NewNATSPublisher connects to the configured NATS server.
func NewNATSPublisher(cfg config.NotifyConfig) (*NATSPublisher, error) {
	if !cfg.Enabled() {
		return nil, errors.ConfigError("notifications are disabled").Build()
	}

	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("sitebuilder"),
		nats.Timeout(publishTimeout),
	)
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", cfg.NATSURL).
			Build()
	}

	slog.Info("NATS publisher initialized", "url", cfg.NATSURL, "subject", cfg.Subject)
	return newPublisher(nc, cfg.Subject, retry.FromConfig(cfg.Retry)), nil
}

func newPublisher(c conn, subject string, policy retry.Policy) *NATSPublisher {
	if subject == "" {
		subject = config.DefaultNotifySubject
	}
	return &NATSPublisher{conn: c, subject: subject, policy: policy, now: time.Now}
}

// PublishBuild publishes msg and waits for the server to acknowledge the flush.
func (p *NATSPublisher) PublishBuild(ctx context.Context, msg BuildMessage) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = p.now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return errors.InternalError("failed to marshal build message").WithCause(err).Build()
	}

	attempt := 0
	err = p.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		err := p.publish(ctx, data)
		if err != nil && attempt <= p.policy.MaxRetries {
			slog.Warn("Publishing build message failed, retrying",
				logfields.BuildID(msg.BuildID),
				slog.Int("attempt", attempt),
				logfields.Error(err))
		}
		return err
	})
	if err != nil {
		return err
	}

	slog.Debug("Published build message",
		logfields.BuildID(msg.BuildID),
		slog.String("subject", p.subject),
		logfields.Outcome(msg.Outcome))
	return nil
}

func (p *NATSPublisher) publish(ctx context.Context, data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.NetworkError("failed to publish build message").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return errors.NetworkError("failed to flush build message").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
