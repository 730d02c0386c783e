package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-pos-ledger/internal/models"

	"github.com/rs/zerolog"
)

// SMSSender dispatches transaction notifications through an HTTP SMS gateway.
// It subscribes to the ledger's credit hook and is strictly fire-and-forget:
// a dead gateway costs the customer a text message, never a sale.
type SMSSender struct {
	gatewayURL string
	client     *http.Client
	log        zerolog.Logger
}

func NewSMSSender(gatewayURL string, log zerolog.Logger) *SMSSender {
	return &SMSSender{
		gatewayURL: gatewayURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("component", "notify").Logger(),
	}
}

type smsPayload struct {
	To         string `json:"to"`
	Message    string `json:"message"`
	TemplateID string `json:"templateId,omitempty"`
}

// Notify formats and sends the message for a customer-touching transaction.
// Safe to call from a goroutine; errors are logged and swallowed.
func (s *SMSSender) Notify(tx models.Transaction, c models.Customer) {
	if s.gatewayURL == "" || c.Phone == "" {
		return
	}

	payload := smsPayload{
		To:         c.Phone,
		Message:    messageFor(tx, c),
		TemplateID: c.SMSTemplateID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Msg("sms payload marshal failed")
		return
	}

	resp, err := s.client.Post(s.gatewayURL, "application/json", bytes.NewReader(body))
	if err != nil {
		s.log.Warn().Err(err).Str("customer", c.ID).Msg("sms dispatch failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.log.Warn().
			Str("status", resp.Status).
			Str("customer", c.ID).
			Msg("sms gateway rejected message")
		return
	}

	s.log.Info().Str("customer", c.ID).Str("tx", tx.ID).Msg("sms sent")
}

func messageFor(tx models.Transaction, c models.Customer) string {
	switch {
	case tx.Type == models.TxTypePayment:
		return fmt.Sprintf("Dear %s, we received your payment of %.2f. Outstanding balance: %.2f. Thank you!",
			c.Name, tx.Total, c.Balance)
	case tx.PaymentMethod == models.PayAccount:
		return fmt.Sprintf("Dear %s, your purchase of %.2f was added to your account. Outstanding balance: %.2f.",
			c.Name, tx.Total, c.Balance)
	default:
		return fmt.Sprintf("Dear %s, thank you for your purchase of %.2f!", c.Name, tx.Total)
	}
}
