package config

import (
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	// DB
	PGRegistrationDSN string `envconfig:"PG_REGISTRATION_DSN" required:"true"`

	// Stripe
	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	Currency        string `envconfig:"CURRENCY" default:"eur"`

	// Public site, used to build success/cancel URLs
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:3000"`

	// RabbitMQ
	RabbitURL            string `envconfig:"RABBIT_URL" required:"true"`
	RegistrationExchange string `envconfig:"REGISTRATION_EXCHANGE" default:"registration.exchange"`

	// Email
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"BEFA Academy <no-reply@befa-academy.be>"`

	// Training venue printed in confirmation emails
	Location string `envconfig:"ACADEMY_LOCATION" default:"KSC Grimbergen"`

	// Flat equipment price in EUR when a package does not bundle it
	EquipmentPrice int `envconfig:"EQUIPMENT_PRICE" default:"30"`

	// Network
	ServerHTTPAddr string `envconfig:"SERVER_HTTP_ADDR" default:":8080"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
