package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-narrator/internal/log"
	"github.com/teslashibe/go-narrator/pkg/narration"
)

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the model endpoint and speech provider",
	Long: `Check that the configured language model endpoint answers and that
the speech provider is usable, without opening a camera.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Second, "Per-check timeout")
}

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := appCfg

	provider, err := newProvider(cfg, log.Component("inference"))
	if err != nil {
		return err
	}
	defer provider.Close()

	speech, err := newSpeech(cfg, log.Component("tts"))
	if err != nil {
		return err
	}
	defer speech.Close()

	narrator := narration.New(provider, narration.Config{Model: cfg.LLMModel, Logger: log.Component("narration")})

	checks := []healthCheck{
		{"model endpoint " + cfg.LLMBaseURL, provider.Health},
		{"narration model " + cfg.LLMModel, func(ctx context.Context) error {
			_, err := narrator.Narrate(ctx, "an empty corridor", nil)
			return err
		}},
		{"speech " + cfg.TTSProvider, speech.Health},
	}

	failed := 0
	for _, c := range checks {
		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		err := c.check(ctx)
		cancel()

		if err != nil {
			failed++
			fmt.Printf("FAIL  %s: %v\n", c.name, err)
			continue
		}
		fmt.Printf("ok    %s\n", c.name)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	return nil
}
