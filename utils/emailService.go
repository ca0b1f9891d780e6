package utils

import (
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// BatchSummary describes a finished run of sequential uploads.
type BatchSummary struct {
	BatchID   string
	Completed []string
	Failed    map[string]string
}

// Notifier tells an admin that a batch of uploads has finished.
type Notifier interface {
	NotifyUploadBatch(toName, toEmail string, summary BatchSummary) error
}

// NewNotifier returns a SendGrid notifier when an API key and sender are configured, otherwise
// one that only logs.
func NewNotifier(apiKey, sender string) Notifier {
	if apiKey == "" || sender == "" {
		return logNotifier{}
	}
	return &sendgridNotifier{key: apiKey, from: sgmail.NewEmail("Coursehub", sender)}
}

type logNotifier struct{}

func (logNotifier) NotifyUploadBatch(_, toEmail string, s BatchSummary) error {
	log.Printf("[UPLOAD-WORKER] Batch %s finished for %s: %d completed, %d failed",
		s.BatchID, toEmail, len(s.Completed), len(s.Failed))
	return nil
}

type sendgridNotifier struct {
	key  string
	from *sgmail.Email
}

func (n *sendgridNotifier) NotifyUploadBatch(toName, toEmail string, s BatchSummary) error {
	if toEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("Uploads finished: %d completed, %d failed", len(s.Completed), len(s.Failed))
	m := sgmail.NewSingleEmail(
		n.from,
		"[Coursehub] "+subject,
		sgmail.NewEmail(toName, toEmail),
		batchSummaryText(s),
		batchSummaryHTML(s),
	)

	req := sendgrid.GetRequest(n.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sending email - status: %d - body: %s", res.StatusCode, res.Body)
	}
	return nil
}

func batchSummaryText(s BatchSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Completed (%d):\n", len(s.Completed))
	for _, name := range s.Completed {
		fmt.Fprintf(&b, "  - %s\n", name)
	}
	fmt.Fprintf(&b, "Failed (%d):\n", len(s.Failed))
	for name, reason := range s.Failed {
		fmt.Fprintf(&b, "  - %s: %s\n", name, reason)
	}
	return b.String()
}

func batchSummaryHTML(s BatchSummary) string {
	var b strings.Builder
	b.WriteString(`<html><body style="font-family: Arial, sans-serif; padding: 20px;">`)
	fmt.Fprintf(&b, "<h3>Completed (%d)</h3><ul>", len(s.Completed))
	for _, name := range s.Completed {
		fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(name))
	}
	fmt.Fprintf(&b, "</ul><h3>Failed (%d)</h3><ul>", len(s.Failed))
	for name, reason := range s.Failed {
		fmt.Fprintf(&b, "<li>%s: %s</li>", html.EscapeString(name), html.EscapeString(reason))
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}
