// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mail provides outbound email delivery for account flows.

It covers the two transactional messages the platform sends: the email
verification code after registration and the password reset code.

Architecture:

  - Message: a transport-agnostic value describing one email.
  - Mailer: the synchronous delivery interface (SMTP in production).
  - Dispatcher: an asynchronous, bounded queue in front of a Mailer.

Delivery is always fire-and-forget from the caller's perspective: a mail
failure must never fail the account operation that triggered it.
*/
package mail

import "context"

// Message is a single outbound plain-text email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer delivers a message synchronously.
//
// # Why an interface?
//
// The domain service depends on this interface rather than a concrete SMTP
// client, so tests can capture messages and alternative transports can be
// swapped in without touching the service layer.
type Mailer interface {
	Send(ctx context.Context, message Message) error
}
