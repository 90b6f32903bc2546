package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"

	"github.com/itskold/befa/internal/notify"
	"github.com/itskold/befa/pkg/mq"
	"github.com/itskold/befa/pkg/obs"
)

type Cfg struct {
	RabbitURL            string `envconfig:"RABBIT_URL" required:"true"`
	RegistrationExchange string `envconfig:"REGISTRATION_EXCHANGE" default:"registration.exchange"`
	NotifierQueue        string `envconfig:"NOTIFIER_QUEUE" default:"notifier.registration.q"`
	Prefetch             int    `envconfig:"NOTIFIER_PREFETCH" default:"8"`

	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"BEFA Academy <no-reply@befa-academy.be>"`
}

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	var cfg Cfg
	must(0, envconfig.Process("", &cfg))

	shutdownTracer := obs.InitTracer("registration-notifier")
	defer func() { _ = shutdownTracer(context.Background()) }()

	cons := must(mq.NewConsumer(cfg.RabbitURL, cfg.RegistrationExchange, cfg.NotifierQueue, []string{
		notify.RKReservationCreated,
		notify.RKReservationConfirmed,
		notify.RKPaymentFailed,
	}, cfg.Prefetch))
	defer cons.Close()

	var mailer notify.Mailer = notify.ConsoleMailer{}
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		log.Println("[notifier] RESEND_API_KEY not set, logging emails instead of sending")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := notify.NewWorker(cons, mailer)
	go func() {
		if err := w.Run(ctx); err != nil {
			log.Fatalf("[notifier] worker: %v", err)
		}
	}()
	log.Println("[notifier] consuming reservation.*, payment.failed")

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	cancel()
	log.Println("[notifier] stopped")
}
