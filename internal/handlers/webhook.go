package handlers

import (
	"encoding/json"
	"log"
	"strconv"

	"schoolops/internal/config"
	"schoolops/internal/services/ledger"
	"schoolops/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
)

// WebhookHandler is the payment-gateway adapter. It verifies the
// gateway signature and feeds (amount, reference) pairs into the
// ledger; the payment-intent ID is the idempotency key, so gateway
// redeliveries are safe.
type WebhookHandler struct {
	service ledger.Service
}

func NewWebhookHandler(service ledger.Service) *WebhookHandler {
	return &WebhookHandler{service: service}
}

func (h *WebhookHandler) HandlePayment(c *fiber.Ctx) error {
	secret := config.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	if secret == "" {
		return utils.InternalError(c, "webhook secret not configured")
	}

	event, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), secret)
	if err != nil {
		log.Printf("webhook signature verification failed: %v", err)
		return utils.BadRequest(c, "invalid signature")
	}

	if event.Type != "payment_intent.succeeded" {
		// Acknowledge everything else so the gateway stops retrying.
		return utils.Success(c, fiber.Map{"handled": false})
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return utils.BadRequest(c, "invalid event payload")
	}

	accountID, err := strconv.ParseUint(intent.Metadata["account_id"], 10, 32)
	if err != nil {
		log.Printf("payment %s missing account_id metadata", intent.ID)
		return utils.BadRequest(c, "missing account_id metadata")
	}

	// Gateway amounts are in currency minor units.
	amount := decimal.NewFromInt(intent.Amount).Div(decimal.NewFromInt(100))

	balance, err := h.service.AddMoney(c.Context(), ledger.AddMoneyInput{
		AccountID: uint(accountID),
		Amount:    amount,
		Reference: intent.ID,
	})
	if err != nil {
		return utils.DomainError(c, err)
	}

	return utils.Success(c, fiber.Map{"handled": true, "balance": balance})
}
