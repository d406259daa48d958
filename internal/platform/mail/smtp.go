// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPConfig holds the connection settings for the outbound mail relay.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string

	// Secure selects implicit TLS (typically port 465). When false the
	// client still upgrades via STARTTLS if the relay offers it.
	Secure bool
}

// SMTPMailer delivers messages through a single SMTP relay.
type SMTPMailer struct {
	config SMTPConfig
}

// NewSMTPMailer returns a Mailer backed by the configured relay.
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	return &SMTPMailer{config: config}
}

/*
Send delivers one plain-text message.

Parameters:
  - ctx: honored for cancellation while dialing.
  - message: the email to deliver.

Returns:
  - error: any dial, authentication, or protocol failure.
*/
func (mailer *SMTPMailer) Send(ctx context.Context, message Message) error {
	address := net.JoinHostPort(mailer.config.Host, strconv.Itoa(mailer.config.Port))

	client, err := mailer.dial(ctx, address)
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", address, err)
	}
	defer func() { _ = client.Close() }()

	// Opportunistic STARTTLS for non-implicit-TLS connections.
	if !mailer.config.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			tlsConfig := &tls.Config{ServerName: mailer.config.Host}
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("mail: starttls: %w", err)
			}
		}
	}

	if mailer.config.User != "" {
		auth := smtp.PlainAuth("", mailer.config.User, mailer.config.Pass, mailer.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}

	if err := client.Mail(message.From); err != nil {
		return fmt.Errorf("mail: sender rejected: %w", err)
	}
	if err := client.Rcpt(message.To); err != nil {
		return fmt.Errorf("mail: recipient rejected: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail: open data stream: %w", err)
	}

	if _, err := writer.Write(encode(message)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("mail: write body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("mail: close data stream: %w", err)
	}

	return client.Quit()
}

// dial opens either a plain or an implicit-TLS connection to the relay.
func (mailer *SMTPMailer) dial(ctx context.Context, address string) (*smtp.Client, error) {
	dialer := &net.Dialer{}

	if mailer.config.Secure {
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config:    &tls.Config{ServerName: mailer.config.Host},
		}

		connection, err := tlsDialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(connection, mailer.config.Host)
	}

	connection, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return smtp.NewClient(connection, mailer.config.Host)
}

// encode renders the message as an RFC 5322 plain-text payload.
func encode(message Message) []byte {
	var builder strings.Builder

	builder.WriteString("From: " + message.From + "\r\n")
	builder.WriteString("To: " + message.To + "\r\n")
	builder.WriteString("Subject: " + message.Subject + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(message.Body)
	builder.WriteString("\r\n")

	return []byte(builder.String())
}
