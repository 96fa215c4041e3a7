package service

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"io"
	"mime/quotedprintable"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xactrix/xact-two/api/internal/config"
	"github.com/xactrix/xact-two/api/internal/models"
)

// relayedMessage records one envelope accepted by fakeRelay.
type relayedMessage struct {
	from string
	to   string
	data string
}

type relayOptions struct {
	greeting      string
	startTLS      bool
	startTLSReply string
	authReply     string
	rcptReply     func(n int) string
}

// fakeRelay is a single-connection SMTP server speaking just enough of the
// protocol for net/smtp: EHLO, STARTTLS, AUTH, MAIL, RCPT, DATA, QUIT.
type fakeRelay struct {
	port      int
	serverTLS *tls.Config
	rootCAs   *x509.CertPool
	done      chan struct{}

	mu       sync.Mutex
	authLine string
	messages []relayedMessage
}

func startFakeRelay(t *testing.T, opts relayOptions) *fakeRelay {
	t.Helper()
	if opts.greeting == "" {
		opts.greeting = "220 fake.relay ESMTP"
	}
	if opts.startTLSReply == "" {
		opts.startTLSReply = "220 2.0.0 Ready to start TLS"
	}
	if opts.authReply == "" {
		opts.authReply = "235 2.7.0 Accepted"
	}

	// Borrow httptest's self-signed certificate for 127.0.0.1.
	certSrv := httptest.NewTLSServer(http.NotFoundHandler())
	t.Cleanup(certSrv.Close)
	pool := x509.NewCertPool()
	pool.AddCert(certSrv.Certificate())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	r := &fakeRelay{
		port:      ln.Addr().(*net.TCPAddr).Port,
		serverTLS: certSrv.TLS,
		rootCAs:   pool,
		done:      make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		r.serve(conn, opts)
	}()
	return r
}

func (r *fakeRelay) serve(conn net.Conn, opts relayOptions) {
	defer func() { _ = conn.Close() }()
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("%s", opts.greeting)
	if !strings.HasPrefix(opts.greeting, "220") {
		return
	}

	secure := false
	var cur relayedMessage
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch verb {
		case "EHLO":
			_ = tp.PrintfLine("250-fake.relay")
			if opts.startTLS && !secure {
				_ = tp.PrintfLine("250-STARTTLS")
			}
			_ = tp.PrintfLine("250 AUTH PLAIN")
		case "STARTTLS":
			_ = tp.PrintfLine("%s", opts.startTLSReply)
			if !strings.HasPrefix(opts.startTLSReply, "220") {
				continue
			}
			tlsConn := tls.Server(conn, r.serverTLS)
			conn = tlsConn
			tp = textproto.NewConn(tlsConn)
			secure = true
		case "AUTH":
			r.mu.Lock()
			r.authLine = line
			r.mu.Unlock()
			_ = tp.PrintfLine("%s", opts.authReply)
		case "MAIL":
			cur = relayedMessage{from: between(line, "<", ">")}
			_ = tp.PrintfLine("250 2.1.0 OK")
		case "RCPT":
			cur.to = between(line, "<", ">")
			reply := "250 2.1.5 OK"
			if opts.rcptReply != nil {
				reply = opts.rcptReply(len(r.relayed()))
			}
			_ = tp.PrintfLine("%s", reply)
		case "DATA":
			_ = tp.PrintfLine("354 Go ahead")
			lines, err := tp.ReadDotLines()
			if err != nil {
				return
			}
			cur.data = strings.Join(lines, "\n")
			r.mu.Lock()
			r.messages = append(r.messages, cur)
			r.mu.Unlock()
			_ = tp.PrintfLine("250 2.0.0 Queued")
		case "QUIT":
			_ = tp.PrintfLine("221 2.0.0 Bye")
			return
		default:
			_ = tp.PrintfLine("502 5.5.2 Unrecognized command")
		}
	}
}

func (r *fakeRelay) relayed() []relayedMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]relayedMessage(nil), r.messages...)
}

func (r *fakeRelay) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("fake relay did not finish")
	}
}

func between(s, left, right string) string {
	start := strings.Index(s, left)
	end := strings.LastIndex(s, right)
	if start < 0 || end <= start {
		return ""
	}
	return s[start+len(left) : end]
}

func newRelayTransport(t *testing.T, r *fakeRelay) *SMTPTransport {
	t.Helper()
	tr, err := NewSMTPTransport(config.MailCredentials{
		Host:     "127.0.0.1",
		Port:     r.port,
		Email:    "bookings@xactrix.ai",
		Password: "app-password",
	}, 5*time.Second, false)
	require.NoError(t, err)
	tr.tlsConfig.RootCAs = r.rootCAs
	return tr
}

func TestNewSMTPTransport_Incomplete(t *testing.T) {
	tests := []struct {
		name  string
		creds config.MailCredentials
	}{
		{"missing host", config.MailCredentials{Port: 587, Email: "a@b.com", Password: "pw"}},
		{"missing email", config.MailCredentials{Host: "h", Port: 587, Password: "pw"}},
		{"missing password", config.MailCredentials{Host: "h", Port: 587, Email: "a@b.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSMTPTransport(tt.creds, time.Second, false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "SMTP configuration incomplete")
		})
	}
}

func TestNewSMTPTransport_TLSConfig(t *testing.T) {
	tr, err := NewSMTPTransport(config.MailCredentials{Host: "smtp.gmail.com", Port: 587, Email: "a@b.com", Password: "pw"}, time.Second, true)
	require.NoError(t, err)
	assert.Equal(t, "smtp.gmail.com", tr.tlsConfig.ServerName)
	assert.True(t, tr.tlsConfig.InsecureSkipVerify)
	assert.Equal(t, uint16(tls.VersionTLS12), tr.tlsConfig.MinVersion)
}

func TestSMTPTransport_FullSession(t *testing.T) {
	relay := startFakeRelay(t, relayOptions{startTLS: true})
	tr := newRelayTransport(t, relay)

	d, err := NewDispatcher(tr, "bookings@xactrix.ai", "Xactrix AI", "")
	require.NoError(t, err)
	require.NoError(t, d.Dispatch(context.Background(), janeDoe()))
	relay.wait(t)

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(relay.authLine, "AUTH PLAIN "))
	require.NoError(t, err)
	assert.Equal(t, "\x00bookings@xactrix.ai\x00app-password", string(decoded))

	msgs := relay.relayed()
	require.Len(t, msgs, 2)
	assert.Equal(t, "bookings@xactrix.ai", msgs[0].from)
	assert.Equal(t, "jane@x.com", msgs[0].to)
	assert.Contains(t, msgs[0].data, "Subject: Appointment Confirmation - Xactrix AI")
	assert.Contains(t, msgs[0].data, "Dear Jane Doe,")
	assert.Equal(t, "bookings@xactrix.ai", msgs[1].to)
	assert.Contains(t, msgs[1].data, "Subject: New Appointment Booking - Xactrix AI")
	assert.Contains(t, msgs[1].data, "Email: jane@x.com")
}

func TestSMTPTransport_FailureStages(t *testing.T) {
	tests := []struct {
		name      string
		opts      relayOptions
		wantStage string
		wantErr   string
	}{
		{
			name:      "greeting rejected",
			opts:      relayOptions{greeting: "554 5.3.2 service unavailable"},
			wantStage: StageConnect,
			wantErr:   "service unavailable",
		},
		{
			name:      "STARTTLS not advertised",
			opts:      relayOptions{},
			wantStage: StageStartTLS,
			wantErr:   "relay does not support STARTTLS",
		},
		{
			name:      "STARTTLS refused",
			opts:      relayOptions{startTLS: true, startTLSReply: "454 4.7.0 TLS not available"},
			wantStage: StageStartTLS,
			wantErr:   "TLS not available",
		},
		{
			name:      "auth rejected",
			opts:      relayOptions{startTLS: true, authReply: "535 5.7.8 Username and Password not accepted"},
			wantStage: StageAuth,
			wantErr:   "Password not accepted",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay := startFakeRelay(t, tt.opts)
			tr := newRelayTransport(t, relay)

			session, err := tr.Open(context.Background())
			require.Error(t, err)
			assert.Nil(t, session)

			var se *stageError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantStage, se.stage)
			assert.Contains(t, err.Error(), tt.wantErr)
			relay.wait(t)
		})
	}
}

func TestSMTPTransport_DialFailure(t *testing.T) {
	tr, err := NewSMTPTransport(config.MailCredentials{Host: "smtp.example.com", Port: 587, Email: "a@b.com", Password: "pw"}, time.Second, false)
	require.NoError(t, err)
	tr.dialFn = func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	d, err := NewDispatcher(tr, "a@b.com", "Xactrix AI", "")
	require.NoError(t, err)
	err = d.Dispatch(context.Background(), janeDoe())

	var derr *DeliveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, StageConnect, derr.Stage)
	assert.Equal(t, "Error sending email: dial tcp: connection refused", err.Error())
}

func TestSMTPTransport_RecipientRejectedMidSession(t *testing.T) {
	relay := startFakeRelay(t, relayOptions{
		startTLS: true,
		rcptReply: func(n int) string {
			if n == 1 {
				return "550 5.1.1 mailbox unavailable"
			}
			return "250 2.1.5 OK"
		},
	})
	tr := newRelayTransport(t, relay)

	d, err := NewDispatcher(tr, "bookings@xactrix.ai", "Xactrix AI", "")
	require.NoError(t, err)
	err = d.Dispatch(context.Background(), janeDoe())
	relay.wait(t)

	var derr *DeliveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, StageSend, derr.Stage)
	assert.Equal(t, 1, derr.Delivered, "confirmation went out before the alert failed")
	assert.Contains(t, err.Error(), "mailbox unavailable")
	assert.Len(t, relay.relayed(), 1)
}

func TestSMTPSession_CanceledContext(t *testing.T) {
	s := &smtpSession{now: time.Now}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, models.Message{To: "jane@x.com"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSMTPTransport_Deadline(t *testing.T) {
	fixed := time.Date(2025, 8, 3, 9, 0, 0, 0, time.UTC)
	tr := &SMTPTransport{timeout: 30 * time.Second, now: func() time.Time { return fixed }}

	d, ok := tr.deadline(context.Background())
	require.True(t, ok)
	assert.Equal(t, fixed.Add(30*time.Second), d)

	ctx, cancel := context.WithDeadline(context.Background(), fixed.Add(time.Second))
	defer cancel()
	d, ok = tr.deadline(ctx)
	require.True(t, ok)
	assert.Equal(t, fixed.Add(time.Second), d)

	tr.timeout = 0
	_, ok = tr.deadline(context.Background())
	assert.False(t, ok)
}

func TestBuildPlainMessage(t *testing.T) {
	date := time.Date(2025, 8, 3, 9, 5, 0, 0, time.UTC)
	msg := buildPlainMessage(models.Message{
		From:    "sender@example.com",
		To:      "recipient@example.com",
		Subject: "Test Subject",
		Body:    "Hello world",
	}, date, "abc-123")

	assert.Contains(t, msg, "From: sender@example.com\r\n")
	assert.Contains(t, msg, "To: recipient@example.com\r\n")
	assert.Contains(t, msg, "Subject: Test Subject\r\n")
	assert.Contains(t, msg, "Date: Sun, 03 Aug 2025 09:05:00 +0000\r\n")
	assert.Contains(t, msg, "Message-ID: <abc-123@example.com>\r\n")
	assert.Contains(t, msg, "MIME-Version: 1.0\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	assert.Contains(t, msg, "Content-Transfer-Encoding: quoted-printable\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nHello world"))
}

func TestBuildPlainMessage_WrapsLongBody(t *testing.T) {
	req := models.BookingRequest{
		Name:    "Jane Doe",
		Email:   "jane@x.com",
		Message: strings.Repeat("a", 5000),
	}
	pair := BuildNotifications(req, "bookings@xactrix.ai", "Xactrix AI")
	wire := buildPlainMessage(pair.Alert, time.Now(), "id")

	for _, line := range strings.Split(wire, "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}

	_, encoded, found := strings.Cut(wire, "\r\n\r\n")
	require.True(t, found)
	decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(encoded)))
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(pair.Alert.Body, "\n", "\r\n"), string(decoded))
}

func TestBuildPlainMessage_EncodesNonASCIISubject(t *testing.T) {
	msg := buildPlainMessage(models.Message{From: "a@b.com", To: "c@d.com", Subject: "Cita confirmada ✓"}, time.Now(), "id")
	assert.Contains(t, msg, "Subject: =?UTF-8?q?")
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "xactrix.ai", senderDomain("bookings@xactrix.ai"))
	assert.Equal(t, "localhost", senderDomain("no-at-sign"))
	assert.Equal(t, "localhost", senderDomain("trailing@"))
}
