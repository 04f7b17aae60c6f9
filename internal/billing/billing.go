// Package billing wraps the Stripe checkout and webhook flows for the two
// purchasable upgrades: the premium plan and the club-store add-on.
package billing

import (
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	checksession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Purchasable plan identifiers carried in checkout metadata.
const (
	PlanPremium     = "premium"
	PlanCostcoAddon = "costco_addon"
)

var ErrUnknownPlan = errors.New("billing: unknown plan")

type Config struct {
	SecretKey          string
	WebhookSecret      string
	PremiumPriceID     string
	CostcoAddonPriceID string
	FrontendBaseURL    string
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{cfg: cfg}
}

// PriceIDForPlan returns the configured Stripe price ID for a plan, or ""
// when the plan is unknown or the price is not configured.
func (c *Client) PriceIDForPlan(plan string) string {
	switch plan {
	case PlanPremium:
		return c.cfg.PremiumPriceID
	case PlanCostcoAddon:
		return c.cfg.CostcoAddonPriceID
	default:
		return ""
	}
}

// CreateCheckoutSession creates a subscription checkout session for the plan
// and returns its URL. The user id and plan ride along as metadata so the
// webhook can apply the upgrade.
func (c *Client) CreateCheckoutSession(userID, plan string) (string, error) {
	priceID := c.PriceIDForPlan(plan)
	if priceID == "" {
		return "", ErrUnknownPlan
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.cfg.FrontendBaseURL + "/?billing=success"),
		CancelURL:  stripe.String(c.cfg.FrontendBaseURL + "/?billing=cancel"),
	}
	params.AddMetadata("user_id", userID)
	params.AddMetadata("plan", plan)

	sess, err := checksession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// ConstructWebhookEvent verifies the signature and returns the parsed event.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.cfg.WebhookSecret)
}
