package service

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xactrix/xact-two/api/internal/config"
	"github.com/xactrix/xact-two/api/internal/models"
)

// SMTPTransport opens STARTTLS sessions authenticated with PLAIN auth.
type SMTPTransport struct {
	creds     config.MailCredentials
	timeout   time.Duration
	tlsConfig *tls.Config
	localName string
	dialFn    func(ctx context.Context, network, addr string) (net.Conn, error)
	now       func() time.Time
}

// NewSMTPTransport creates a transport for the given relay credentials.
func NewSMTPTransport(creds config.MailCredentials, timeout time.Duration, insecure bool) (*SMTPTransport, error) {
	if creds.Host == "" || creds.Email == "" || creds.Password == "" {
		return nil, fmt.Errorf("SMTP configuration incomplete")
	}

	dialer := &net.Dialer{Timeout: timeout}
	return &SMTPTransport{
		creds:   creds,
		timeout: timeout,
		tlsConfig: &tls.Config{
			ServerName:         creds.Host,
			InsecureSkipVerify: insecure, //nolint:gosec // opt-in via SMTP_TLS_INSECURE
			MinVersion:         tls.VersionTLS12,
		},
		localName: "localhost",
		dialFn:    dialer.DialContext,
		now:       time.Now,
	}, nil
}

// Open connects, upgrades with STARTTLS and authenticates.
func (t *SMTPTransport) Open(ctx context.Context) (MailSession, error) {
	conn, err := t.dialFn(ctx, "tcp", t.creds.Addr())
	if err != nil {
		return nil, &stageError{stage: StageConnect, err: err}
	}
	if deadline, ok := t.deadline(ctx); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.creds.Host)
	if err != nil {
		_ = conn.Close()
		return nil, &stageError{stage: StageConnect, err: err}
	}

	fail := func(stage string, err error) (MailSession, error) {
		_ = client.Close()
		return nil, &stageError{stage: stage, err: err}
	}

	if err := client.Hello(t.localName); err != nil {
		return fail(StageConnect, err)
	}
	if ok, _ := client.Extension("STARTTLS"); !ok {
		return fail(StageStartTLS, errors.New("relay does not support STARTTLS"))
	}
	if err := client.StartTLS(t.tlsConfig); err != nil {
		return fail(StageStartTLS, err)
	}
	auth := smtp.PlainAuth("", t.creds.Email, t.creds.Password, t.creds.Host)
	if err := client.Auth(auth); err != nil {
		return fail(StageAuth, err)
	}

	return &smtpSession{client: client, now: t.now}, nil
}

// deadline picks the earlier of the session timeout and the context deadline.
func (t *SMTPTransport) deadline(ctx context.Context) (time.Time, bool) {
	var deadline time.Time
	if t.timeout > 0 {
		deadline = t.now().Add(t.timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return deadline, !deadline.IsZero()
}

type smtpSession struct {
	client *smtp.Client
	now    func() time.Time
}

func (s *smtpSession) Send(ctx context.Context, msg models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Mail(msg.From); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	if err := s.client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	w, err := s.client.Data()
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	if _, err := w.Write([]byte(buildPlainMessage(msg, s.now(), uuid.NewString()))); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}

func (s *smtpSession) Close() error {
	if err := s.client.Quit(); err != nil {
		return errors.Join(err, s.client.Close())
	}
	return nil
}

// buildPlainMessage renders an RFC 5322 message. The body is quoted-printable
// so no wire line exceeds 76 octets regardless of what the requester typed.
func buildPlainMessage(msg models.Message, date time.Time, id string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Date: %s\r\n"+
		"Message-ID: <%s@%s>\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"Content-Transfer-Encoding: quoted-printable\r\n"+
		"\r\n", msg.From, msg.To, mime.QEncoding.Encode("UTF-8", msg.Subject),
		date.Format(time.RFC1123Z), id, senderDomain(msg.From))

	qp := quotedprintable.NewWriter(&b)
	// Writes to a strings.Builder cannot fail.
	_, _ = qp.Write([]byte(msg.Body))
	_ = qp.Close()
	return b.String()
}

func senderDomain(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
