package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"shein_sen/internal/config"
)

// EmailNotifier mails the batch recap to the operator address.
type EmailNotifier struct {
	cfg config.EmailConfig
	log zerolog.Logger

	// send is swappable in tests.
	send func(settings config.EmailConfig, subject, htmlBody, textBody string) error
}

func NewEmailNotifier(cfg config.EmailConfig, log zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:  cfg,
		log:  log.With().Str("component", "notify").Logger(),
		send: sendMail,
	}
}

func (n *EmailNotifier) NotifyBatchFinished(ctx context.Context, summary BatchSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateEmailSettings(n.cfg); err != nil {
		return err
	}
	subject := fmt.Sprintf("Récapitulatif SHEIN_SEN: %d succès, %d échecs sur %d", summary.Succeeded, summary.Failed, summary.Total)
	htmlBody, textBody, err := buildSummaryBody(summary)
	if err != nil {
		return err
	}
	if err := n.send(n.cfg, subject, htmlBody, textBody); err != nil {
		n.log.Warn().Err(err).Msg("recap email not sent")
		return err
	}
	n.log.Info().Int("orders", len(summary.Orders)).Msg("recap email sent")
	return nil
}

func validateEmailSettings(cfg config.EmailConfig) error {
	addr := strings.TrimSpace(cfg.Address)
	if addr == "" {
		return errors.New("email address is required")
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return errors.New("invalid email address")
	}
	if strings.TrimSpace(cfg.AuthCode) == "" {
		return errors.New("email authCode is required")
	}
	return nil
}

func sendMail(cfg config.EmailConfig, subject, htmlBody, textBody string) error {
	addr := strings.TrimSpace(cfg.Address)
	host, port, useSSL, err := smtpConfigForEmail(addr)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(addr, "SHEIN_SEN"))
	msg.SetHeader("To", addr)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(host, port, addr, strings.TrimSpace(cfg.AuthCode))
	d.SSL = useSSL
	return d.DialAndSend(msg)
}

func smtpConfigForEmail(email string) (host string, port int, useSSL bool, err error) {
	parts := strings.Split(strings.TrimSpace(email), "@")
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return "", 0, false, errors.New("invalid email format")
	}
	domain := strings.ToLower(strings.TrimSpace(parts[1]))

	switch {
	case domain == "gmail.com":
		return "smtp.gmail.com", 587, false, nil
	case domain == "outlook.com" || domain == "hotmail.com" || domain == "live.com":
		return "smtp.office365.com", 587, false, nil
	case domain == "yahoo.com" || domain == "yahoo.fr":
		return "smtp.mail.yahoo.com", 465, true, nil
	default:
		return "smtp." + domain, 465, true, nil
	}
}

var summaryHTMLTpl = template.Must(template.New("recap").Parse(`
<!doctype html>
<html lang="fr">
  <head><meta charset="utf-8" /><title>Récapitulatif</title></head>
  <body style="font-family:Arial,Helvetica,sans-serif;color:#111;">
    <h2>Récapitulatif du traitement des commandes</h2>
    <p>{{ .At }} — <strong>{{ .Succeeded }}</strong> succès, <strong>{{ .Failed }}</strong> échecs, {{ .Total }} au total.</p>
    {{ if .Orders }}
    <table cellspacing="0" cellpadding="6" border="1" style="border-collapse:collapse;font-size:13px;">
      <thead>
        <tr><th>Commande</th><th>Client</th><th>Produit</th><th>Statut</th><th>Remarque</th></tr>
      </thead>
      <tbody>
        {{ range .Orders }}
        <tr>
          <td>{{ .OrderID }}</td>
          <td>{{ .Requester }}</td>
          <td>{{ .Product }}</td>
          <td>{{ .Status }}</td>
          <td>{{ .Note }}</td>
        </tr>
        {{ end }}
      </tbody>
    </table>
    {{ end }}
    <p style="color:#888;font-size:12px;">Cet email est envoyé automatiquement par SHEIN_SEN.</p>
  </body>
</html>
`))

func buildSummaryBody(summary BatchSummary) (htmlBody, textBody string, err error) {
	data := struct {
		At        string
		Succeeded int
		Failed    int
		Total     int
		Orders    []OrderLine
	}{
		At:        summary.At.Format("2006-01-02 15:04:05"),
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Total:     summary.Total,
		Orders:    summary.Orders,
	}

	var buf bytes.Buffer
	if err := summaryHTMLTpl.Execute(&buf, data); err != nil {
		return "", "", err
	}

	text := new(strings.Builder)
	fmt.Fprintf(text, "Récapitulatif du traitement des commandes (%s)\n", data.At)
	fmt.Fprintf(text, "%d succès, %d échecs, %d au total\n", data.Succeeded, data.Failed, data.Total)
	for _, o := range summary.Orders {
		fmt.Fprintf(text, "- %s | %s | %s | %s | %s\n", o.OrderID, o.Requester, o.Product, o.Status, o.Note)
	}
	return buf.String(), text.String(), nil
}
