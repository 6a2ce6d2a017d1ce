package services

import (
	"log"
)

// Mailer is the outbound email capability. Delivery is best-effort: callers
// on a request path never fail because a send failed.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer writes outbound mail to the process log. It stands in for a real
// transport in development and tests.
type LogMailer struct {
	From string
}

// NewLogMailer creates a LogMailer with the given sender identity.
func NewLogMailer(from string) *LogMailer {
	return &LogMailer{From: from}
}

// Send logs the message instead of delivering it.
func (m *LogMailer) Send(to, subject, body string) error {
	log.Printf("mail: from=%s to=%s subject=%q body=%q", m.From, to, subject, body)
	return nil
}

// sendAsync spawns a fire-and-forget send. Failures are logged and swallowed.
func sendAsync(mailer Mailer, to, subject, body string) {
	go func() {
		if err := mailer.Send(to, subject, body); err != nil {
			log.Printf("mail send to %s failed: %v", to, err)
		}
	}()
}
