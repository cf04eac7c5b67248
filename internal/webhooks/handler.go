// Package webhooks receives provider callbacks: SMS delivery reports and
// payment confirmations. Both are acknowledge-and-log; nothing in the
// menu flow blocks on them.
package webhooks

import (
	"encoding/json"
	"net/http"

	"github.com/hospitalquick/platform/pkg/logging"
)

// DeliveryReport is the SMS provider's status callback payload.
type DeliveryReport struct {
	MessageID   string `json:"messageId"`
	Status      string `json:"status"`
	PhoneNumber string `json:"phoneNumber"`
}

// PaymentCallback is the payment provider's confirmation payload.
type PaymentCallback struct {
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	Amount        string `json:"amount"`
}

// Handler serves the provider-facing webhook endpoints.
type Handler struct {
	logger *logging.Logger
}

func NewHandler(logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{logger: logger}
}

// HandleSMSDelivery records an SMS delivery report. Providers retry on
// non-2xx, so malformed payloads are logged and acknowledged rather than
// rejected.
func (h *Handler) HandleSMSDelivery(w http.ResponseWriter, r *http.Request) {
	var report DeliveryReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		h.logger.Warn("sms delivery report unreadable", "error", err)
		h.ack(w)
		return
	}

	h.logger.Info("sms delivery report",
		"message_id", report.MessageID,
		"status", report.Status,
	)
	h.ack(w)
}

// HandlePayment records a payment confirmation against a booking
// reference.
func (h *Handler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	var callback PaymentCallback
	if err := json.NewDecoder(r.Body).Decode(&callback); err != nil {
		h.logger.Warn("payment callback unreadable", "error", err)
		http.Error(w, `{"success":false}`, http.StatusBadRequest)
		return
	}
	if callback.Reference == "" {
		http.Error(w, `{"success":false}`, http.StatusBadRequest)
		return
	}

	h.logger.Info("payment callback",
		"reference", callback.Reference,
		"status", callback.Status,
		"transaction_id", callback.TransactionID,
	)
	h.ack(w)
}

func (h *Handler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"success":true}`))
}
