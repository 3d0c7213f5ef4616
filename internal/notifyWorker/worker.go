package notifyWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"nemochat/internal/dto"
	"nemochat/internal/mailer"
	"nemochat/internal/rabbit"
)

// Reader drains the notification queue and turns messages into e-mails.
// Mail failures are logged and the message is acked anyway: a notification
// is best effort and must not wedge the queue.
type Reader struct {
	RMQ    *rabbit.Client
	mail   *mailer.Mailer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, mail *mailer.Mailer) *Reader {
	return &Reader{
		RMQ:  rmq,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("notification reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.NotificationMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Msgf("Failed to unmarshal notification: %s", string(body))
				return err
			}

			zlog.Logger.Info().
				Str("kind", msg.Kind).
				Str("event", msg.EventName).
				Msg("Received notification message")

			var err error
			switch msg.Kind {
			case dto.NotifyRegistration:
				err = r.mail.SendRegistrationEmail(msg.EventName, msg.UserName, msg.Recipient)
			case dto.NotifyFeedback:
				err = r.mail.SendFeedbackEmail(msg.EventName, msg.Recipient, msg.Rating)
			default:
				zlog.Logger.Warn().Str("kind", msg.Kind).Msg("Unknown notification kind, dropping")
				return nil
			}

			if err != nil {
				zlog.Logger.Warn().
					Err(err).
					Str("recipient", msg.Recipient).
					Msg("Failed to send notification e-mail")
			}
			return nil
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("notification reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
