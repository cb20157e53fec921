package cli

import (
	"bufio"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"infra-rag/internal/chat"
	"infra-rag/internal/mode"
)

var chatMode string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Starts a conversational session. Follow-up questions are resolved against
the previous turn. Commands: /mode architect|auditor, /reset, /quit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatMode, "mode", "", "operating mode: architect or auditor (default from config)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := sessionMode(cfg, chatMode)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	orchestrator, err := newOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}

	session := chat.NewSession(m)
	cmd.Printf("Session %s started in %s mode. /quit to exit.\n", session.ID, session.Mode)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if done := handleCommand(cmd, orchestrator, session, line); done {
				return nil
			}
			continue
		}

		start := time.Now()
		answer, err := orchestrator.Answer(ctx, session, line)
		if err != nil {
			// A failed turn does not end the session.
			cmd.Printf("error: %v\n", err)
			continue
		}
		printAnswer(cmd, answer, time.Since(start))
	}
}

func handleCommand(cmd *cobra.Command, orchestrator *chat.Orchestrator, session *chat.Session, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/reset":
		session.Reset()
		cmd.Println("History cleared.")
	case "/mode":
		if len(fields) != 2 {
			cmd.Println("usage: /mode architect|auditor")
			return false
		}
		m, err := mode.Parse(fields[1])
		if err != nil {
			cmd.Printf("error: %v\n", err)
			return false
		}
		if err := orchestrator.SetMode(session, m); err != nil {
			cmd.Printf("error: %v\n", err)
			return false
		}
		cmd.Printf("Mode set to %s.\n", m)
	default:
		cmd.Printf("unknown command %s\n", fields[0])
	}
	return false
}
