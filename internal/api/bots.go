package api

import (
	"context"
	"fmt"
)

// ListBots returns the user's bots.
func (c *Client) ListBots(ctx context.Context) ([]*Bot, error) {
	var bots []*Bot
	if err := c.get(ctx, "/bots", &bots); err != nil {
		return nil, fmt.Errorf("listing bots: %w", err)
	}
	return bots, nil
}

// CreateBot registers a new bot.
func (c *Client) CreateBot(ctx context.Context, req BotCreateRequest) (*Bot, error) {
	var bot Bot
	if err := c.post(ctx, "/bots", req, &bot); err != nil {
		return nil, fmt.Errorf("creating bot: %w", err)
	}
	return &bot, nil
}

// UpdateBot patches a bot. Only non-nil request fields are changed.
func (c *Client) UpdateBot(ctx context.Context, id int64, req BotUpdateRequest) (*Bot, error) {
	var bot Bot
	if err := c.patch(ctx, fmt.Sprintf("/bots/%d", id), req, &bot); err != nil {
		return nil, fmt.Errorf("updating bot %d: %w", id, err)
	}
	return &bot, nil
}

// SetBotActive pauses or resumes a bot.
func (c *Client) SetBotActive(ctx context.Context, id int64, active bool) (*Bot, error) {
	return c.UpdateBot(ctx, id, BotUpdateRequest{IsActive: &active})
}

// DeleteBot removes a bot.
func (c *Client) DeleteBot(ctx context.Context, id int64) error {
	if err := c.delete(ctx, fmt.Sprintf("/bots/%d", id)); err != nil {
		return fmt.Errorf("deleting bot %d: %w", id, err)
	}
	return nil
}

// ListBotJobs returns the scheduled jobs of a bot.
func (c *Client) ListBotJobs(ctx context.Context, botID int64) ([]*BotJob, error) {
	var jobs []*BotJob
	if err := c.get(ctx, fmt.Sprintf("/bots/%d/jobs", botID), &jobs); err != nil {
		return nil, fmt.Errorf("listing jobs of bot %d: %w", botID, err)
	}
	return jobs, nil
}

// ListAIModels asks the server which models the provider offers for apiKey.
func (c *Client) ListAIModels(ctx context.Context, provider Provider, apiKey string) ([]string, error) {
	var resp AIModelListResponse
	req := AIModelRequest{AIProvider: provider, APIKey: apiKey}
	if err := c.post(ctx, "/ai/models", req, &resp); err != nil {
		return nil, fmt.Errorf("listing %s models: %w", provider, err)
	}
	return resp.Models, nil
}
