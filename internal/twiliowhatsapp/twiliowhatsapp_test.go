package twiliowhatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"sort"
	"testing"
)

func TestMockClient_SendMessage(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()

	err := mock.SendMessage(ctx, "12345", "Hello Test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := mock.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Body != "Hello Test" {
		t.Errorf("expected body %q, got %q", "Hello Test", msgs[0].Body)
	}
}

func TestMockClient_SendMessageError(t *testing.T) {
	mock := NewMockClient()
	mock.Err = errors.New("rate limited")
	if err := mock.SendMessage(context.Background(), "12345", "x"); err == nil {
		t.Fatal("expected error")
	}
	if len(mock.Messages()) != 0 {
		t.Fatal("failed send must not be recorded")
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")

	if _, err := NewClient(WithFromWhats("+6281")); err == nil {
		t.Fatal("expected error without SID and token")
	}
	if _, err := NewClient(WithAccountSID("AC1"), WithAuthToken("tok")); err == nil {
		t.Fatal("expected error without from number")
	}
	c, err := NewClient(WithAccountSID("AC1"), WithAuthToken("tok"), WithFromWhats("+6281"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.fromWhats != "whatsapp:+6281" {
		t.Errorf("unexpected from address %q", c.fromWhats)
	}
}

func TestAddressConversion(t *testing.T) {
	for _, in := range []string{"628111", "+628111", "whatsapp:+628111"} {
		if got := ToAddress(in); got != "whatsapp:+628111" {
			t.Errorf("ToAddress(%q) = %q", in, got)
		}
	}
	if got := FromAddress("whatsapp:+628111"); got != "628111" {
		t.Errorf("FromAddress = %q", got)
	}
}

func TestValidateRequest(t *testing.T) {
	c, err := NewClient(WithAccountSID("AC1"), WithAuthToken("secret"), WithFromWhats("+6281"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	url := "https://example.com/api/twilio/webhook"
	params := map[string]string{"From": "whatsapp:+628111", "Body": "lapor"}

	sig := sign("secret", url, params)

	if !c.ValidateRequest(url, params, sig) {
		t.Fatal("expected valid signature")
	}
	if c.ValidateRequest(url, params, "bogus") {
		t.Fatal("expected invalid signature to be rejected")
	}
	params["Body"] = "changed"
	if c.ValidateRequest(url, params, sig) {
		t.Fatal("expected tampered params to be rejected")
	}
}

// sign computes an X-Twilio-Signature: HMAC-SHA1 over the URL followed by
// the sorted key/value pairs, base64 encoded.
func sign(token, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	payload := url
	for _, k := range keys {
		payload += k + params[k]
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
