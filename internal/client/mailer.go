package client

import (
	"context"
	"fmt"
	"log"
	"net/smtp"

	"storefront-checkout/internal/config"
)

// Mailer sends the order confirmation. Callers treat it as
// fire-and-forget: failures are logged, never propagated.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, email, orderNumber string) error
}

type smtpMailer struct {
	addr string
	from string
}

func NewSMTPMailer(cfg *config.Mail) Mailer {
	return &smtpMailer{
		addr: cfg.SMTPAddr,
		from: cfg.From,
	}
}

func (m *smtpMailer) SendOrderConfirmation(ctx context.Context, email, orderNumber string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Order %s confirmed\r\n\r\nThank you, your order %s has been paid.\r\n",
		m.from, email, orderNumber, orderNumber,
	)
	if err := smtp.SendMail(m.addr, nil, m.from, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// logMailer is the development sender: it only logs.
type logMailer struct{}

func NewLogMailer() Mailer {
	return logMailer{}
}

func (logMailer) SendOrderConfirmation(_ context.Context, email, orderNumber string) error {
	log.Printf("order confirmation for %s sent to %s", orderNumber, email)
	return nil
}
