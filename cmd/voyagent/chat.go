package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/voyagent/voyagent/orchestrator"
)

var chatCmd = &cobra.Command{
	Use:   "chat [session-id]",
	Short: "Chat with the assistant from the terminal",
	Long: `Chat with the assistant in a session. Passing an existing session id
resumes that conversation; omitting it starts a fresh session.

Examples:
  voyagent chat                # new session
  voyagent chat tokyo-trip     # resume (or create) "tokyo-trip"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := ""
		if len(args) > 0 {
			sessionID = args[0]
		}
		return runChat(sessionID)
	},
}

func runChat(sessionID string) error {
	ctx := context.Background()
	application, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	if sessionID == "" {
		sessionID = "sess_" + uuid.New().String()[:8]
	}

	history, err := application.store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	fmt.Printf("Session %s (%d prior messages). Type 'exit' to quit.\n\n", sessionID, len(history))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		result, err := application.orchestrator.RunTurn(ctx, sessionID, line)
		if err != nil {
			if errors.Is(err, orchestrator.ErrTurnLimitExceeded) {
				fmt.Println("assistant> I got stuck calling tools and gave up on that one. Try rephrasing.")
				continue
			}
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Printf("assistant> %s\n\n", result.Answer)
	}

	return scanner.Err()
}
