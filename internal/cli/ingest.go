package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"infra-rag/internal/chunker"
	"infra-rag/internal/ingest"
	"infra-rag/internal/source"
)

var (
	ingestPath string
	ingestRepo string
	ingestRef  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index an infrastructure corpus into the vector store",
	Long: `Loads Terraform files from a local directory or a remote git repository,
redacts credential-shaped literals, chunks the result, and upserts it into
the vector store. Re-running on an unchanged corpus adds nothing.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestPath, "path", "", "local corpus directory (overrides config)")
	ingestCmd.Flags().StringVar(&ingestRepo, "repo", "", "remote repository URL (overrides config)")
	ingestCmd.Flags().StringVar(&ingestRef, "ref", "", "branch or tag for --repo")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	desc, err := corpusDescriptor(cfg.Corpus.Path, cfg.Corpus.RepoURL, cfg.Corpus.RepoRef)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	runner := ingest.NewRunner(
		source.NewLoader(cfg.Corpus.Extensions),
		chunker.NewSplitter(cfg.Chunking.Size, *cfg.Chunking.Overlap),
		store,
	)
	summary, err := runner.Run(ctx, desc)
	if err != nil {
		return err
	}

	cmd.Printf("Ingested %d files in %s\n", summary.Files, summary.Duration.Round(time.Millisecond))
	cmd.Printf("  chunks added:   %d\n", summary.ChunksAdded)
	cmd.Printf("  chunks skipped: %d\n", summary.ChunksSkipped)
	if summary.ChunksFailed > 0 {
		cmd.Printf("  chunks failed:  %d (embedding unavailable)\n", summary.ChunksFailed)
	}
	if summary.FilesFailed > 0 {
		cmd.Printf("  files failed:   %d\n", summary.FilesFailed)
	}
	cmd.Printf("  secrets redacted: %d\n", summary.Redactions)
	return nil
}

func corpusDescriptor(cfgPath, cfgRepo, cfgRef string) (source.Descriptor, error) {
	repo, ref, path := cfgRepo, cfgRef, cfgPath
	if ingestRepo != "" {
		repo, ref = ingestRepo, ingestRef
		path = ""
	}
	if ingestPath != "" {
		path = ingestPath
		repo = ""
	}
	switch {
	case repo != "":
		return source.Remote(repo, ref), nil
	case path != "":
		return source.LocalDir(path), nil
	default:
		return source.Descriptor{}, fmt.Errorf("no corpus configured: set corpus.path or corpus.repo_url, or pass --path/--repo")
	}
}
