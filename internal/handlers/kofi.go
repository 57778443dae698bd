package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/uncommithq/uncommit/backend/internal/billing"
	"github.com/uncommithq/uncommit/backend/internal/config"
	"github.com/uncommithq/uncommit/backend/internal/store"
)

type KofiWebhookHandler struct {
	cfg   config.Config
	store *store.Store
}

func NewKofiWebhookHandler(cfg config.Config, st *store.Store) *KofiWebhookHandler {
	return &KofiWebhookHandler{cfg: cfg, store: st}
}

// kofiPayload is the JSON carried in Ko-fi's form-encoded "data" field.
type kofiPayload struct {
	VerificationToken     string `json:"verification_token"`
	KofiTransactionID     string `json:"kofi_transaction_id"`
	Type                  string `json:"type"`
	IsSubscriptionPayment bool   `json:"is_subscription_payment"`
	IsFirstSubscription   bool   `json:"is_first_subscription_payment"`
	TierName              string `json:"tier_name"`
	Email                 string `json:"email"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	FromName              string `json:"from_name"`
	Message               string `json:"message"`
	IsPublic              bool   `json:"is_public"`
}

// Receive handles Ko-fi payment webhooks. Ko-fi retries deliveries, so
// the insert is idempotent on transaction id and replays short-circuit
// before touching user state.
func (h *KofiWebhookHandler) Receive() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h.cfg.KofiVerificationToken == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "kofi_not_configured"})
		}

		raw := c.FormValue("data")
		if raw == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_data"})
		}

		var payload kofiPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_data"})
		}

		if subtle.ConstantTimeCompare([]byte(payload.VerificationToken), []byte(h.cfg.KofiVerificationToken)) != 1 {
			slog.Warn("kofi webhook verification token mismatch", "from_name", payload.FromName)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_token"})
		}
		if payload.KofiTransactionID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_transaction_id"})
		}

		email := strings.ToLower(strings.TrimSpace(payload.Email))

		inserted, err := h.store.InsertSubscription(c.Context(), store.SubscriptionPayment{
			Email:                 email,
			KofiTransactionID:     payload.KofiTransactionID,
			Type:                  payload.Type,
			TierName:              payload.TierName,
			IsFirstSubscription:   payload.IsFirstSubscription,
			IsSubscriptionPayment: payload.IsSubscriptionPayment,
			Amount:                payload.Amount,
			Currency:              payload.Currency,
			FromName:              payload.FromName,
			Message:               payload.Message,
			IsPublic:              payload.IsPublic,
		})
		if err != nil {
			slog.Error("kofi subscription insert failed", "transaction_id", payload.KofiTransactionID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "insert_failed"})
		}
		if !inserted {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
		}

		if !payload.IsSubscriptionPayment || payload.Type != "Subscription" {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
		}

		tier, ok := billing.TierByName(payload.TierName)
		if !ok {
			slog.Warn("kofi payment with unknown tier",
				"transaction_id", payload.KofiTransactionID,
				"tier_name", payload.TierName,
			)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
		}

		// Ko-fi bills monthly; give a few days of grace before expiry.
		expiresAt := time.Now().UTC().Add(34 * 24 * time.Hour)
		matched, err := h.store.UpdateUserSubscription(c.Context(), email, "active", tier.Name, expiresAt)
		if err != nil {
			slog.Error("subscription update failed", "transaction_id", payload.KofiTransactionID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_update_failed"})
		}
		if !matched {
			slog.Warn("kofi payment from email with no account", "transaction_id", payload.KofiTransactionID)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "matched": false})
		}

		updated, err := h.store.UpdateManagedProjectLimits(c.Context(), email, tier.Versions, tier.Price)
		if err != nil {
			slog.Error("managed project limit refresh failed", "transaction_id", payload.KofiTransactionID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "limit_refresh_failed"})
		}

		slog.Info("kofi subscription processed",
			"transaction_id", payload.KofiTransactionID,
			"tier", tier.Name,
			"projects_updated", updated,
		)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}
}
