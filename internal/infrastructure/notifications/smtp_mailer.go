package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/you/buzoku/domain"
	"go.uber.org/zap"
)

// SMTPConfig holds the outgoing mail server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer implements domain.Mailer over net/smtp. Port 465 uses
// implicit TLS, other ports upgrade with STARTTLS when offered.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *zap.Logger
}

// NewSMTPMailer creates a mailer. With an empty host messages are logged
// instead of sent.
func NewSMTPMailer(cfg SMTPConfig, logger *zap.Logger) domain.Mailer {
	return &SMTPMailer{cfg: cfg, logger: logger.Named("mail")}
}

// SendMail implements domain.Mailer
func (m *SMTPMailer) SendMail(ctx context.Context, msg *domain.MailMessage) error {
	if msg == nil || len(msg.To) == 0 {
		return errors.New("mail has no recipients")
	}
	if msg.Text == "" && msg.HTML == "" {
		return errors.New("either text or html must be provided")
	}

	from := msg.From
	if from == "" {
		from = m.cfg.From
	}
	if from == "" {
		from = m.cfg.Username
	}

	if m.cfg.Host == "" {
		m.logger.Info("mock email", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	}

	body, err := buildMessage(from, msg)
	if err != nil {
		return err
	}

	client, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer client.Close()

	if m.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(parseAddress(from)); err != nil {
		return err
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(parseAddress(rcpt)); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write(body); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	m.logger.Debug("email sent", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return client.Quit()
}

func (m *SMTPMailer) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprint(m.cfg.Port))
	tlsCfg := &tls.Config{ServerName: m.cfg.Host}

	if m.cfg.Port == 465 {
		d := &tls.Dialer{Config: tlsCfg}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, m.cfg.Host)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return nil, err
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsCfg); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return client, nil
}

// buildMessage renders headers plus a text, html or multipart/alternative body
func buildMessage(from string, msg *domain.MailMessage) ([]byte, error) {
	var buf bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	header("From", from)
	header("To", strings.Join(msg.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("MIME-Version", "1.0")

	switch {
	case msg.Text != "" && msg.HTML != "":
		mw := multipart.NewWriter(&buf)
		header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
		buf.WriteString("\r\n")
		for _, part := range []struct{ ctype, body string }{
			{"text/plain; charset=utf-8", msg.Text},
			{"text/html; charset=utf-8", msg.HTML},
		} {
			w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
			if err != nil {
				return nil, err
			}
			if _, err := w.Write([]byte(part.body)); err != nil {
				return nil, err
			}
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
	case msg.HTML != "":
		header("Content-Type", "text/html; charset=utf-8")
		buf.WriteString("\r\n" + msg.HTML)
	default:
		header("Content-Type", "text/plain; charset=utf-8")
		buf.WriteString("\r\n" + msg.Text)
	}
	return buf.Bytes(), nil
}

func parseAddress(addr string) string {
	start := strings.Index(addr, "<")
	end := strings.Index(addr, ">")
	if start >= 0 && end > start {
		return strings.TrimSpace(addr[start+1 : end])
	}
	return strings.TrimSpace(addr)
}
