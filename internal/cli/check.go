package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/factchecker/claimcheck/internal/database"
	"github.com/factchecker/claimcheck/internal/verify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	checkJSON  bool
	checkFresh bool
	noHistory  bool
)

var checkCmd = &cobra.Command{
	Use:   "check <claim...>",
	Short: "Fact-check a single claim",
	Long: `Check classifies the claim, extracts the assumptions behind it, searches
the web for evidence on each assumption and prints a verdict.

Results are kept in the local history database. Checking the same claim
again with the same backend reuses the stored result for pipeline.history_ttl
unless --fresh is given.

Example:
  claimcheck check "The Eiffel Tower is in Paris"
  claimcheck check --json --fresh Coffee consumption reduces the risk of diabetes
  claimcheck check --provider ollama "Mount Everest is the tallest mountain"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the full result as JSON")
	checkCmd.Flags().BoolVar(&checkFresh, "fresh", false, "ignore any stored result for this claim")
	checkCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not read or write the history database")
}

func runCheck(cmd *cobra.Command, args []string) error {
	claim := strings.TrimSpace(strings.Join(args, " "))
	if claim == "" {
		return fmt.Errorf("claim is empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Pipeline.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Pipeline.CheckTimeout)
		defer cancel()
	}

	checker, err := buildChecker(ctx, cfg)
	if err != nil {
		return err
	}

	var store database.Store
	if !noHistory {
		s, err := openStore(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("History database unavailable, continuing without it")
		} else {
			defer s.Close()
			store = s
		}
	}

	result, cached, err := verify.NewService(checker, store, cfg.Pipeline.HistoryTTL).Check(ctx, claim, checkFresh)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if checkJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	renderResult(os.Stdout, result, cached)
	return nil
}
