package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voyagent/voyagent/config"
	"github.com/voyagent/voyagent/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List resumable sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessions()
	},
}

// runSessions only needs the store, so it skips the full app wiring and
// never touches the model backend or the tool servers.
func runSessions() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ids, err := st.ListSessions(context.Background())
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(ids) == 0 {
		fmt.Println("No sessions yet. Start one with: voyagent chat")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}
