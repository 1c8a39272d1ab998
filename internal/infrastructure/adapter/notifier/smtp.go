package notifier

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
)

// SendMailFunc matches smtp.SendMail
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPConfig holds SMTP connection settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier emails a receipt to the payer
type SMTPNotifier struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail SendMailFunc
	logger   coreport.Logger
}

// NewSMTPNotifier creates an SMTP receipt sender. Auth is skipped when no username is
// configured, which suits a local MailHog.
func NewSMTPNotifier(cfg SMTPConfig, logger coreport.Logger) *SMTPNotifier {
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPNotifier{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
		logger:   logger,
	}
}

// WithSendMail swaps the transport, used by tests
func (n *SMTPNotifier) WithSendMail(fn SendMailFunc) *SMTPNotifier {
	n.sendMail = fn
	return n
}

var receiptTpl = template.Must(template.New("receipt").Parse(`<h2>Thanks for your purchase!</h2>
<p>{{.Tokens}} generations were added to your Nerbixa account.</p>
<table>
<tr><td>Transaction</td><td><b>{{.TransactionID}}</b></td></tr>
<tr><td>Amount</td><td>{{.Amount}}</td></tr>
<tr><td>Description</td><td>{{.Description}}</td></tr>
<tr><td>Paid at</td><td>{{.PaidAt}}</td></tr>
<tr><td>Available generations</td><td>{{.NewBalance}}</td></tr>
</table>
`))

// RenderReceipt renders the HTML body of a receipt email
func RenderReceipt(r entity.Receipt) (string, error) {
	paidAt := "n/a"
	if !r.PaidAt.IsZero() {
		paidAt = r.PaidAt.UTC().Format(time.RFC1123)
	}

	var buf bytes.Buffer
	err := receiptTpl.Execute(&buf, map[string]any{
		"TransactionID": r.TransactionID,
		"Tokens":        r.Tokens,
		"Amount":        entity.FormatMinorUnits(r.Amount, r.Currency),
		"Description":   r.Description,
		"PaidAt":        paidAt,
		"NewBalance":    r.NewBalance,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildRFC822(from, to, subject, html string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&buf, "\r\n%s\r\n", html)
	return buf.Bytes()
}

// SendReceipt emails the receipt. Receipts without an address are skipped.
func (n *SMTPNotifier) SendReceipt(ctx context.Context, receipt entity.Receipt) error {
	if receipt.Email == "" {
		n.logger.Debug("receipt.smtp_skipped", map[string]any{
			"transaction_id": receipt.TransactionID,
			"reason":         "no email",
		})
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := RenderReceipt(receipt)
	if err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}

	msg := buildRFC822(n.from, receipt.Email, "Your Nerbixa receipt", body)

	// smtp.SendMail has no context; run it aside so the deadline still bounds the caller
	done := make(chan error, 1)
	go func() {
		done <- n.sendMail(n.addr, n.auth, n.from, []string{receipt.Email}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ coreport.ReceiptNotifier = (*SMTPNotifier)(nil)
