package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/thornlake/wardenmq/internal/config"
)

// smsTimeout bounds one outbound SMS gateway call.
const smsTimeout = 10 * time.Second

// errSMSUnavailable is returned when SMS is disabled or missing
// credentials (§4.6: "SMS is optional... log a warn line and
// return").
var errSMSUnavailable = errors.New("sms gateway not configured")

// smsEndpoint builds the Messaging Service REST endpoint from the
// configured account SID, matching the `{body, messagingServiceSid,
// to}` outbound contract of §6.
func smsEndpoint(sid string) string {
	return fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", sid)
}

// sendSMS posts one message to the configured SMS gateway. Delivery
// uses HTTP Basic Auth (account SID / auth token) and a form-encoded
// body, matching the gateway's real REST contract; the field names
// (Body, MessagingServiceSid, To) are exactly §6's `{body,
// messagingServiceSid, to}` shape.
func sendSMS(ctx context.Context, cfg config.SMSConfig, to, body string) error {
	if !cfg.Configured() {
		return errSMSUnavailable
	}

	form := url.Values{}
	form.Set("Body", body)
	form.Set("MessagingServiceSid", cfg.Service)
	form.Set("To", to)

	reqCtx, cancel := context.WithTimeout(ctx, smsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, smsEndpoint(cfg.SID), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(cfg.SID, cfg.Token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
