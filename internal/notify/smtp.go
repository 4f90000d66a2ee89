package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/thornlake/wardenmq/internal/config"
)

// smtpDialTimeout is the maximum time to establish an SMTP connection,
// unless a shorter deadline is already set on ctx.
const smtpDialTimeout = 15 * time.Second

// sendSMTP connects to the configured SMTP server, optionally
// upgrading to TLS, authenticates if credentials are present, and
// delivers msg (a complete RFC 5322 message). Adapted from the
// teacher's SendMail: the connect-then-authenticate-then-DATA
// sequence is unchanged, but TLS selection follows this domain's
// config shape (ignoreTLS/requireTLS/tls.servername/
// tls.rejectUnauthorized, §6) rather than a single StartTLS bool.
func sendSMTP(ctx context.Context, cfg config.MailConfig, recipients []string, msg []byte) error {
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))

	dialTimeout := smtpDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < dialTimeout {
			dialTimeout = remaining
		}
	}
	dialer := &net.Dialer{Timeout: dialTimeout}

	serverName := cfg.TLS.ServerName
	if serverName == "" {
		serverName = cfg.Host
	}
	insecure := cfg.TLS.RejectUnauthorized != nil && !*cfg.TLS.RejectUnauthorized
	tlsCfg := &tls.Config{ServerName: serverName, InsecureSkipVerify: insecure}

	// Implicit TLS (typically port 465) versus a plain connection
	// upgraded via STARTTLS (typically port 587). ignoreTLS skips TLS
	// entirely, matching a local/unencrypted relay.
	implicitTLS := !cfg.IgnoreTLS && cfg.Port == 465

	var conn net.Conn
	var err error
	if implicitTLS {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsCfg)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("create smtp client on %s: %w", addr, err)
	}
	defer client.Close()

	if err := client.Hello("localhost"); err != nil {
		return fmt.Errorf("EHLO: %w", err)
	}

	if !implicitTLS && !cfg.IgnoreTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsCfg); err != nil && cfg.RequireTLS {
				return fmt.Errorf("STARTTLS: %w", err)
			}
		} else if cfg.RequireTLS {
			return fmt.Errorf("smtp server %s does not support STARTTLS but requireTLS is set", cfg.Host)
		}
	}

	if cfg.Auth.User != "" {
		auth := smtp.PlainAuth("", cfg.Auth.User, cfg.Auth.Pass, cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("AUTH: %w", err)
		}
	}

	if err := client.Mail(cfg.From); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close DATA: %w", err)
	}

	return client.Quit()
}
