package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/itskold/befa/internal/handlers"
	"github.com/itskold/befa/internal/notify"
	"github.com/itskold/befa/internal/payment"
	"github.com/itskold/befa/internal/registration"
	"github.com/itskold/befa/internal/repository"
	"github.com/itskold/befa/pkg/config"
	"github.com/itskold/befa/pkg/db"
	"github.com/itskold/befa/pkg/mq"
	"github.com/itskold/befa/pkg/obs"
)

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())

	shutdownTracer := obs.InitTracer("registration-api")
	defer func() { _ = shutdownTracer(context.Background()) }()

	// DB
	gdb := db.Open(cfg.PGRegistrationDSN)
	must(0, repository.Migrate(gdb))

	// Publisher for reservation.* / payment.* events
	pub := must(mq.NewPublisher(cfg.RabbitURL, cfg.RegistrationExchange))
	defer pub.Close()

	svc := registration.NewService(
		repository.NewActivityRepo(gdb),
		repository.NewGroupRepo(gdb),
		repository.NewPlayerRepo(gdb),
		repository.NewReservationRepo(gdb),
		repository.NewPromoRepo(gdb),
		pub,
		registration.Config{EquipmentPrice: cfg.EquipmentPrice, Location: cfg.Location},
	)

	provider := payment.NewStripeProvider(cfg.StripeSecretKey)

	var mailer notify.Mailer = notify.ConsoleMailer{}
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	}

	r := gin.Default()
	handlers.RegisterRoutes(r, handlers.New(svc, provider, mailer, handlers.Config{
		BaseURL:  cfg.BaseURL,
		Currency: cfg.Currency,
	}))

	srv := &http.Server{Addr: cfg.ServerHTTPAddr, Handler: r}
	go func() {
		log.Println("[server] HTTP listening on", cfg.ServerHTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Println("[server] stopped")
}
