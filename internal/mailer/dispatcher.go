package mailer

import (
	"context"
	"errors"
	"time"

	"lost_and_found/internal/logger"
	"lost_and_found/internal/metrics"
)

// ErrQueueFull is returned by Enqueue when the outbound queue has no room.
var ErrQueueFull = errors.New("mail queue is full")

const (
	defaultQueueSize   = 100
	defaultSendTimeout = 15 * time.Second
)

// FailureHook is called by the worker for every message it could not deliver.
type FailureHook func(ctx context.Context, m Message, err error)

// Dispatcher queues outbound mail and delivers it from a single background
// worker, so a slow or failing transport never delays the caller.
type Dispatcher struct {
	sender      Sender
	queue       chan Message
	sendTimeout time.Duration
	onFailure   FailureHook
	log         *logger.Logger
}

type DispatcherOption func(*Dispatcher)

func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan Message, n)
		}
	}
}

func WithSendTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if t > 0 {
			d.sendTimeout = t
		}
	}
}

func WithFailureHook(h FailureHook) DispatcherOption {
	return func(d *Dispatcher) { d.onFailure = h }
}

func NewDispatcher(sender Sender, log *logger.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:      sender,
		queue:       make(chan Message, defaultQueueSize),
		sendTimeout: defaultSendTimeout,
		log:         log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue hands m to the worker without blocking.
func (d *Dispatcher) Enqueue(m Message) error {
	select {
	case d.queue <- m:
		metrics.MailQueueDepth.Set(float64(len(d.queue)))
		return nil
	default:
		metrics.NotifierFailuresTotal.WithLabelValues("queue_full").Inc()
		return ErrQueueFull
	}
}

// SendVerification renders the verification email and queues it.
func (d *Dispatcher) SendVerification(_ context.Context, email, username, token, baseURL string) error {
	m, err := VerificationMessage(email, username, token, baseURL)
	if err != nil {
		return err
	}
	return d.Enqueue(m)
}

// Run delivers queued messages until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := len(d.queue); n > 0 {
				d.log.Warnw("mail_dispatcher_stopped", "pending", n)
			}
			return
		case m := <-d.queue:
			metrics.MailQueueDepth.Set(float64(len(d.queue)))
			d.deliver(ctx, m)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, m Message) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, m); err != nil {
		metrics.NotifierFailuresTotal.WithLabelValues("send").Inc()
		d.log.Errorw("notifier_send_failed", "to", m.To, "subject", m.Subject, "err", err)
		if d.onFailure != nil {
			d.onFailure(ctx, m, err)
		}
		return
	}
	d.log.Debugw("notifier_sent", "to", m.To, "subject", m.Subject)
}
