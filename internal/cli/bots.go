package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/fragmede/hams/internal/api"
)

func newBotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bots",
		Short: "List bots and switch them on or off",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your bots",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBotsList(cmd.Context(), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "toggle <id>",
			Short: "Pause an active bot or resume a paused one",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "bot")
				if err != nil {
					return err
				}
				return runBotsToggle(cmd.Context(), cmd.OutOrStdout(), id)
			},
		},
	)
	return cmd
}

func runBotsList(ctx context.Context, w io.Writer) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireLogin(); err != nil {
		return err
	}

	bots, err := e.client.ListBots(ctx)
	if err != nil {
		return err
	}
	if err := e.db.PutBots(bots); err != nil {
		slog.Warn("caching bots", "error", err)
	}

	if isJSON() {
		return printJSON(w, bots)
	}
	return printBots(w, bots)
}

func runBotsToggle(ctx context.Context, w io.Writer, id int64) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireLogin(); err != nil {
		return err
	}

	bots, err := e.client.ListBots(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(bots, func(b *api.Bot) bool { return b.ID == id })
	if i < 0 {
		return fmt.Errorf("bot #%d not found", id)
	}

	bot, err := e.client.SetBotActive(ctx, id, !bots[i].IsActive)
	if err != nil {
		return err
	}
	bots[i] = bot
	if err := e.db.PutBots(bots); err != nil {
		slog.Warn("caching bots", "error", err)
	}

	if isJSON() {
		return printJSON(w, bot)
	}
	state := "paused"
	if bot.IsActive {
		state = "active"
	}
	fmt.Fprintf(w, "✓ %s is now %s.\n", bot.Name, state)
	return nil
}
