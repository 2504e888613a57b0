package nats

import (
	"errors"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/piresc/tirtha/internal/pkg/logger"
)

// JetStreamMessageHandler is a function that processes JetStream messages with acknowledgment
type JetStreamMessageHandler func(msg jetstream.Msg) error

// permanentError marks a message that must not be redelivered
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so the consumer terminates the message instead of retrying it
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

func settle(msg jetstream.Msg, err error) {
	switch {
	case err == nil:
		if ackErr := msg.Ack(); ackErr != nil {
			logger.Error("Failed to ACK message", logger.Err(ackErr))
		}
	case IsPermanent(err):
		logger.Warn("Dropping unprocessable JetStream message",
			logger.String("subject", msg.Subject()),
			logger.Err(err))
		if termErr := msg.Term(); termErr != nil {
			logger.Error("Failed to TERM message", logger.Err(termErr))
		}
	default:
		logger.Error("Error processing JetStream message",
			logger.String("subject", msg.Subject()),
			logger.Err(err))
		if nakErr := msg.Nak(); nakErr != nil {
			logger.Error("Failed to NAK message", logger.Err(nakErr))
		}
	}
}
