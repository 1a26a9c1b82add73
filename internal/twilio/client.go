package twilio

import (
	"fmt"
	"strings"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Client wraps Twilio messaging for the emergency alert channel. It is
// optional: when credentials are missing the zero-value-equivalent client
// reports itself as unconfigured and every send is a cheap error.
type Client struct {
	client       *twilio.RestClient
	fromWhatsApp string
	recipient    string
}

// New creates a Twilio client bound to the configured WhatsApp sender and
// alert recipient. Returns an unconfigured client when any credential is missing.
func New(accountSID, authToken, fromWhatsApp, recipient string) *Client {
	if accountSID == "" || authToken == "" {
		return &Client{}
	}
	return &Client{
		client:       twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken}),
		fromWhatsApp: fromWhatsApp,
		recipient:    recipient,
	}
}

// Configured reports whether the client can actually send messages.
func (c *Client) Configured() bool {
	return c.client != nil && c.fromWhatsApp != "" && c.recipient != ""
}

// SendAlert sends the emergency alert message via Twilio's API.
func (c *Client) SendAlert(body string) error {
	if c.client == nil {
		return fmt.Errorf("twilio client not initialised")
	}

	sender := normalizeWhatsAppAddress(c.fromWhatsApp)
	if sender == "" {
		return fmt.Errorf("twilio sender WhatsApp number is not configured")
	}

	recipient := normalizeWhatsAppAddress(c.recipient)
	if recipient == "" {
		return fmt.Errorf("alert recipient missing or invalid")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(body)

	if _, err := c.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send message error: %w", err)
	}
	return nil
}

func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}
