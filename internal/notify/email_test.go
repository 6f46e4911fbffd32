package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"shein_sen/internal/config"
)

func TestValidateEmailSettings(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EmailConfig
		wantErr bool
	}{
		{"valid", config.EmailConfig{Address: "ops@gmail.com", AuthCode: "abcd"}, false},
		{"missing address", config.EmailConfig{AuthCode: "abcd"}, true},
		{"malformed address", config.EmailConfig{Address: "not-an-address", AuthCode: "abcd"}, true},
		{"missing auth code", config.EmailConfig{Address: "ops@gmail.com"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEmailSettings(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestSMTPConfigForEmail(t *testing.T) {
	tests := []struct {
		email    string
		wantHost string
		wantPort int
		wantSSL  bool
	}{
		{"a@gmail.com", "smtp.gmail.com", 587, false},
		{"a@outlook.com", "smtp.office365.com", 587, false},
		{"a@hotmail.com", "smtp.office365.com", 587, false},
		{"a@yahoo.fr", "smtp.mail.yahoo.com", 465, true},
		{"a@orange.fr", "smtp.orange.fr", 465, true},
	}
	for _, tt := range tests {
		host, port, ssl, err := smtpConfigForEmail(tt.email)
		if err != nil {
			t.Fatalf("%s: %v", tt.email, err)
		}
		if host != tt.wantHost || port != tt.wantPort || ssl != tt.wantSSL {
			t.Fatalf("%s: got %s:%d ssl=%v, want %s:%d ssl=%v",
				tt.email, host, port, ssl, tt.wantHost, tt.wantPort, tt.wantSSL)
		}
	}

	if _, _, _, err := smtpConfigForEmail("no-domain"); err == nil {
		t.Fatal("address without domain must fail")
	}
}

func TestBuildSummaryBody(t *testing.T) {
	summary := BatchSummary{
		At:        time.Date(2026, 8, 28, 18, 30, 0, 0, time.UTC),
		Succeeded: 2,
		Failed:    1,
		Total:     3,
		Orders: []OrderLine{
			{OrderID: "o1", Requester: "Awa", Product: "https://www.shein.com/fr/item/1", Status: "completed", Note: "ajouté au panier (confirmed-explicit)"},
			{OrderID: "o2", Requester: "Bintou", Product: "https://www.shein.com/fr/item/2", Status: "failed", Note: `taille "M" non trouvée ou non sélectionnable`},
		},
	}

	htmlBody, textBody, err := buildSummaryBody(summary)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, want := range []string{"2026-08-28 18:30:00", "o1", "Bintou", "confirmed-explicit"} {
		if !strings.Contains(htmlBody, want) {
			t.Fatalf("html body missing %q", want)
		}
	}
	if !strings.Contains(textBody, "2 succès, 1 échecs, 3 au total") {
		t.Fatalf("text body counts missing:\n%s", textBody)
	}
	if !strings.Contains(htmlBody, "&#34;M&#34;") {
		t.Fatal("note not HTML-escaped")
	}
}

func TestNotifyBatchFinished(t *testing.T) {
	n := NewEmailNotifier(config.EmailConfig{Address: "ops@gmail.com", AuthCode: "abcd"}, zerolog.Nop())

	var gotSubject string
	n.send = func(_ config.EmailConfig, subject, htmlBody, textBody string) error {
		gotSubject = subject
		if htmlBody == "" || textBody == "" {
			t.Fatal("empty body")
		}
		return nil
	}

	summary := BatchSummary{At: time.Now(), Succeeded: 1, Failed: 1, Total: 2}
	if err := n.NotifyBatchFinished(context.Background(), summary); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !strings.Contains(gotSubject, "1 succès, 1 échecs sur 2") {
		t.Fatalf("subject = %q", gotSubject)
	}
}

func TestNotifyBatchFinishedSendFailure(t *testing.T) {
	n := NewEmailNotifier(config.EmailConfig{Address: "ops@gmail.com", AuthCode: "abcd"}, zerolog.Nop())
	n.send = func(config.EmailConfig, string, string, string) error {
		return errors.New("dial tcp: connection refused")
	}

	if err := n.NotifyBatchFinished(context.Background(), BatchSummary{At: time.Now()}); err == nil {
		t.Fatal("send failure must surface")
	}
}

func TestNotifyBatchFinishedInvalidSettings(t *testing.T) {
	n := NewEmailNotifier(config.EmailConfig{}, zerolog.Nop())
	n.send = func(config.EmailConfig, string, string, string) error {
		t.Fatal("send must not be reached with invalid settings")
		return nil
	}

	if err := n.NotifyBatchFinished(context.Background(), BatchSummary{At: time.Now()}); err == nil {
		t.Fatal("missing settings must fail")
	}
}
