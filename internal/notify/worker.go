package notify

import (
	"context"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/itskold/befa/pkg/mq"
)

// Worker consumes registration events and dispatches email. Mail
// failures nack with requeue, so delivery is at-least-once; everything
// else acks and moves on.
type Worker struct {
	cons   *mq.Consumer
	mailer Mailer
}

func NewWorker(cons *mq.Consumer, mailer Mailer) *Worker {
	return &Worker{cons: cons, mailer: mailer}
}

func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.cons.Deliveries(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := w.handle(ctx, d); err != nil {
				log.Printf("[notifier] handle key=%s err=%v -> Nack&requeue", d.RoutingKey, err)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) error {
	switch d.RoutingKey {
	case RKReservationConfirmed:
		ev, err := MustUnmarshal[ReservationConfirmed](d.Body)
		if err != nil {
			return err
		}
		if ev.Mail.Email == "" {
			log.Printf("[notifier] confirmed reservation %s without email, skipping", ev.ReservationID)
			return nil
		}
		return w.mailer.SendConfirmation(ctx, ev.Mail)

	case RKReservationCreated:
		ev, err := MustUnmarshal[ReservationCreated](d.Body)
		if err != nil {
			return err
		}
		log.Printf("[notifier] reservation %s created (group=%s amount=%d)", ev.ReservationID, ev.GroupID, ev.Amount)
		return nil

	case RKPaymentFailed:
		ev, err := MustUnmarshal[PaymentFailed](d.Body)
		if err != nil {
			return err
		}
		log.Printf("[notifier] payment failed for reservation %s: %s", ev.ReservationID, ev.Reason)
		return nil

	default:
		log.Printf("[notifier] skip unknown key=%s", d.RoutingKey)
		return nil
	}
}
