package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fragmede/hams/internal/monitor"
	"github.com/fragmede/hams/internal/ui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	e, err := openEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	mon := monitor.New(e.cfg, e.client, e.db)
	app := ui.NewApp(ctx, e.cfg, e.session, e.db, mon)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	app.SetProgram(p)

	_, err = p.Run()
	mon.Stop()
	if err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
