package twiliowhatsapp

import (
	"context"
	"testing"
)

func TestMockClient_SendMessage(t *testing.T) {
	ctx := context.Background()
	mock := NewMockClient()

	err := mock.SendMessage(ctx, "+5491100000000", "Hola Test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mock.SentMessages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(mock.SentMessages))
	}

	if mock.SentMessages[0].Body != "Hola Test" {
		t.Errorf("expected body %q, got %q", "Hola Test", mock.SentMessages[0].Body)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")

	if _, err := NewClient(); err == nil {
		t.Fatal("expected error without credentials")
	}

	if _, err := NewClient(
		WithAccountSID("AC123"),
		WithAuthToken("token"),
	); err == nil {
		t.Fatal("expected error without from number")
	}

	client, err := NewClient(
		WithAccountSID("AC123"),
		WithAuthToken("token"),
		WithFromWhats("whatsapp:+5491100000000"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.fromWhats != "whatsapp:+5491100000000" {
		t.Errorf("fromWhats = %q", client.fromWhats)
	}
}
