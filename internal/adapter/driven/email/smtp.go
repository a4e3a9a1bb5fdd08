// Package email implements the Notifier port.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/knguessan/moodlewatch/internal/domain/model"
	"github.com/knguessan/moodlewatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*SMTPNotifier)(nil)

// SMTPNotifier delivers assignment notifications over SMTP with STARTTLS.
type SMTPNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	timeout  time.Duration
}

// NewSMTPNotifier creates a notifier for the given SMTP relay. An empty
// username disables authentication (local relays).
func NewSMTPNotifier(host string, port int, username, password, from string) *SMTPNotifier {
	return &SMTPNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		timeout:  30 * time.Second,
	}
}

// Notify sends one plain-text email listing the assignments. The connection
// deadline is the notifier timeout, tightened by the context deadline when
// one is set.
func (n *SMTPNotifier) Notify(ctx context.Context, email string, assignments []model.Assignment) error {
	addr := net.JoinHostPort(n.host, strconv.Itoa(n.port))

	conn, err := net.DialTimeout("tcp", addr, n.timeout)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}

	deadline := time.Now().Add(n.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("set smtp deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, n.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: n.host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if n.username != "" {
		auth := smtp.PlainAuth("", n.username, n.password, n.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(n.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(email); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(buildMessage(n.from, email, assignments))); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}

	return client.Quit()
}

// buildMessage renders the notification in the site's locale.
func buildMessage(from, to string, assignments []model.Assignment) string {
	subject := fmt.Sprintf("%d nouveaux devoirs détectés", len(assignments))
	if len(assignments) == 1 {
		subject = "1 nouveau devoir détecté"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")

	b.WriteString("Bonjour,\r\n\r\n")
	b.WriteString("De nouveaux devoirs ont été détectés sur la plateforme :\r\n\r\n")
	for _, a := range assignments {
		fmt.Fprintf(&b, "- %s : %s (pour le %s)\r\n", a.Course, a.Title, a.DueDate)
		fmt.Fprintf(&b, "  Lien : %s\r\n\r\n", a.Link)
	}
	b.WriteString("Ne les oubliez pas !\r\n")

	return b.String()
}
