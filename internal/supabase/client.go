package supabase

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
	"song-request-backend/internal/config"
)

const (
	RoleAdmin    = "admin"
	RoleProducer = "producer"
)

type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}

type userRoleRow struct {
	Role string `json:"role"`
}

// Roles returns the roles granted to userID in user_roles through PostgREST,
// so row-level policies apply exactly as they do for the frontend.
func (c *Client) Roles(ctx context.Context, userID string) ([]string, error) {
	var rows []userRoleRow
	_, err := c.Supabase.From("user_roles").
		Select("role", "", false).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	roles := make([]string, 0, len(rows))
	for _, r := range rows {
		roles = append(roles, r.Role)
	}
	return roles, nil
}
