package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"os"
	"strings"
)

const smtpPort = "465"

// Email sends the report over SMTP with implicit TLS.
type Email struct {
	user   string
	pass   string
	to     string
	server string
}

// emailFromEnv requires user, password and recipient; the SMTP host defaults
// to smtp.<sender domain> when not given explicitly.
func emailFromEnv() *Email {
	user := os.Getenv(envEmailUser)
	pass := os.Getenv(envEmailPass)
	to := os.Getenv(envEmailTo)
	if user == "" || pass == "" || to == "" {
		return nil
	}

	server := os.Getenv(envSMTPServer)
	if server == "" {
		if _, domainPart, ok := strings.Cut(user, "@"); ok {
			server = "smtp." + domainPart
		}
	}

	return &Email{user: user, pass: pass, to: to, server: server}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(ctx context.Context, title, content string) error {
	if e.server == "" {
		return errors.New("smtp server not configured")
	}

	addr := net.JoinHostPort(e.server, smtpPort)
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: e.server}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp server: %w", err)
	}

	client, err := smtp.NewClient(conn, e.server)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Auth(smtp.PlainAuth("", e.user, e.pass, e.server)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(e.user); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(e.to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(e.message(title, content)); err != nil {
		_ = w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}

	return client.Quit()
}

func (e *Email) message(title, content string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.user)
	fmt.Fprintf(&b, "To: %s\r\n", e.to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", title))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(content)
	return []byte(b.String())
}
