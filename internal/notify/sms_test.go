package notify

import (
	"context"
	"testing"

	"github.com/thornlake/wardenmq/internal/config"
)

func TestSendSMS_NotConfigured(t *testing.T) {
	err := sendSMS(context.Background(), config.SMSConfig{}, "+15555550100", "hi")
	if err != errSMSUnavailable {
		t.Errorf("sendSMS with no credentials = %v, want errSMSUnavailable", err)
	}
}

func TestSMSEndpoint(t *testing.T) {
	got := smsEndpoint("ACxxxx")
	want := "https://api.twilio.com/2010-04-01/Accounts/ACxxxx/Messages.json"
	if got != want {
		t.Errorf("smsEndpoint(%q) = %q, want %q", "ACxxxx", got, want)
	}
}
