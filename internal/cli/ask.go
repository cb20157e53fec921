package cli

import (
	"time"

	"github.com/spf13/cobra"

	"infra-rag/internal/chat"
)

var askMode string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about the indexed infrastructure",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askMode, "mode", "", "operating mode: architect or auditor (default from config)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := sessionMode(cfg, askMode)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	orchestrator, err := newOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}

	session := chat.NewSession(m)
	start := time.Now()
	answer, err := orchestrator.Answer(ctx, session, args[0])
	if err != nil {
		return err
	}
	printAnswer(cmd, answer, time.Since(start))
	return nil
}

func printAnswer(cmd *cobra.Command, answer chat.Answer, latency time.Duration) {
	cmd.Println(answer.Text)
	if answer.Diagram != "" {
		cmd.Println("\n--- diagram ---")
		cmd.Println(answer.Diagram)
		cmd.Println("---------------")
	}
	if len(answer.Sources) > 0 {
		cmd.Println("\nSources:")
		for _, src := range answer.Sources {
			cmd.Printf("  - %s\n", src)
		}
	}
	cmd.Printf("\n(%.2fs)\n", latency.Seconds())
}
