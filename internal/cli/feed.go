package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fragmede/hams/internal/monitor"
	"github.com/fragmede/hams/internal/ui/messages"
)

func newFeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Stream bot activity as it happens",
		Long:  "Connects to the live activity channel and prints each bot job result until interrupted. Entries missed while offline are backfilled on connect.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runFeed(ctx context.Context, w io.Writer) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireLogin(); err != nil {
		return err
	}

	names := e.db.BotNames()
	mon := monitor.New(e.cfg, e.client, e.db)
	mon.Start(ctx, monitor.SinkFunc(feedPrinter(w, names, isJSON())))
	defer mon.Stop()

	select {
	case <-ctx.Done():
	case <-mon.Done():
		// The loop only exits on its own when the token is rejected.
		if ctx.Err() == nil {
			return fmt.Errorf("activity feed closed: run 'hams login' again")
		}
	}
	return nil
}

// feedPrinter formats monitor messages as lines on w.
func feedPrinter(w io.Writer, names map[int64]string, asJSON bool) func(tea.Msg) {
	var mu sync.Mutex
	return func(msg tea.Msg) {
		mu.Lock()
		defer mu.Unlock()
		switch msg := msg.(type) {
		case messages.ActivityMsg:
			if asJSON {
				data, err := json.Marshal(msg.Log)
				if err == nil {
					fmt.Fprintln(w, string(data))
				}
				return
			}
			l := msg.Log
			bot := names[l.BotID]
			if bot == "" {
				bot = fmt.Sprintf("bot #%d", l.BotID)
			}
			mark := "✓"
			if l.ResultStatus != "success" {
				mark = "✗"
			}
			fmt.Fprintf(w, "%s %s %s [%s] %s\n", l.ExecutedAt.Local().Format("15:04:05"), mark, bot, l.JobType, l.Message)
		case messages.ConnectionMsg:
			if asJSON {
				return
			}
			if msg.Err != nil {
				fmt.Fprintf(w, "-- %s (%v)\n", msg.State, msg.Err)
			} else {
				fmt.Fprintf(w, "-- %s\n", msg.State)
			}
		}
	}
}
