// Package discord posts assignment offers to producers and answers their
// button clicks.
package discord

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"song-request-backend/internal/apperr"
)

const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// ParsePublicKey decodes the application's hex encoded Ed25519 key.
func ParsePublicKey(hexKey string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("invalid discord public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid discord public key length %d", len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// Verify checks the X-Signature-Ed25519 header over timestamp+body. The
// request body stays readable afterwards.
func Verify(r *http.Request, key ed25519.PublicKey) bool {
	return discordgo.VerifyInteraction(r, key)
}

// CustomID encodes a button id as action:order_id.
func CustomID(action string, orderID uuid.UUID) string {
	return action + ":" + orderID.String()
}

func ParseCustomID(customID string) (string, uuid.UUID, error) {
	action, rawID, ok := strings.Cut(customID, ":")
	if !ok || (action != ActionAccept && action != ActionDecline) {
		return "", uuid.Nil, fmt.Errorf("unknown button %q: %w", customID, apperr.ErrValidation)
	}
	orderID, err := uuid.Parse(rawID)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("invalid order id in %q: %w", customID, apperr.ErrValidation)
	}
	return action, orderID, nil
}

// ClickerID returns the Discord user id behind an interaction, whether it
// came from a guild or a DM.
func ClickerID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// ParseWebhookURL splits https://discord.com/api/webhooks/{id}/{token}.
func ParseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("invalid webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("webhook url %q has no id/token", raw)
}

// Assignment is the offer posted to the producers channel.
type Assignment struct {
	OrderID           uuid.UUID
	Tier              string
	Genre             string
	SongIdea          string
	Payout            string
	Deadline          string
	ProducerDiscordID string
	ProducerName      string
}

// Client talks to Discord through an incoming webhook and the interactions
// endpoints, neither of which needs a bot token.
type Client struct {
	session      *discordgo.Session
	webhookID    string
	webhookToken string
}

func NewClient(webhookURL string) (*Client, error) {
	id, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, err
	}
	return &Client{session: session, webhookID: id, webhookToken: token}, nil
}

func (c *Client) PostAssignment(ctx context.Context, a Assignment) error {
	_, err := c.session.WebhookExecute(c.webhookID, c.webhookToken, false, assignmentMessage(a), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord webhook: %v: %w", err, apperr.ErrUpstream)
	}
	return nil
}

// EditOriginal replaces the clicked message's content and removes its buttons.
func (c *Client) EditOriginal(ctx context.Context, i *discordgo.Interaction, content string) error {
	components := []discordgo.MessageComponent{}
	_, err := c.session.InteractionResponseEdit(i, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord edit: %v: %w", err, apperr.ErrUpstream)
	}
	return nil
}

func assignmentMessage(a Assignment) *discordgo.WebhookParams {
	var b strings.Builder
	if a.ProducerDiscordID != "" {
		fmt.Fprintf(&b, "<@%s> ", a.ProducerDiscordID)
	}
	fmt.Fprintf(&b, "New **%s** song request", a.Tier)
	if a.Genre != "" {
		fmt.Fprintf(&b, " (%s)", a.Genre)
	}
	fmt.Fprintf(&b, "\n> %s\nPayout: %s\nAccept before %s", a.SongIdea, a.Payout, a.Deadline)

	params := &discordgo.WebhookParams{
		Content: b.String(),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Accept", Style: discordgo.SuccessButton, CustomID: CustomID(ActionAccept, a.OrderID)},
					discordgo.Button{Label: "Decline", Style: discordgo.DangerButton, CustomID: CustomID(ActionDecline, a.OrderID)},
				},
			},
		},
	}
	if a.ProducerDiscordID != "" {
		params.AllowedMentions = &discordgo.MessageAllowedMentions{Users: []string{a.ProducerDiscordID}}
	}
	return params
}
