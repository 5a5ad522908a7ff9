// Command jota is the CLI front for the Agente Jota context engine. It
// exposes the intent pipeline and the context assembly for inspection and
// scripting; the production agent embeds the same packages as a library.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jota/internal/config"
	"jota/internal/contextengine"
	"jota/internal/intent"
	"jota/internal/logging"
	"jota/internal/session"
	"jota/internal/types"
)

var (
	configPath string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "jota",
	Short: "Agente Jota context engine",
	Long: `jota inspects the Agente Jota context engine from the command line.

It classifies teacher messages, runs the deep intent analysis and assembles
the unified LLM contexts exactly as the agent does in production.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		if err := logging.Initialize(level, cfg.Logging.File); err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <mensagem>",
	Short: "Classify a teacher message (execute/chat/modify/query)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := intent.Classify(strings.Join(args, " "))
		fmt.Printf("type:        %s\n", c.Type)
		fmt.Printf("confidence:  %.2f\n", c.Confidence)
		fmt.Printf("reasoning:   %s\n", c.Reasoning)
		fmt.Printf("create plan: %v\n", c.ShouldCreatePlan())
		fmt.Printf("respond:     %v\n", c.ShouldRespondDirectly())
		return nil
	},
}

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <mensagem>",
	Short: "Run the deep intent analysis on a teacher message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		di := intent.AnalyzeDeepIntent(strings.Join(args, " "))
		if analyzeJSON {
			out, err := json.MarshalIndent(di, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding analysis: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}
		fmt.Println(intent.FormatForPlanner(di))
		return nil
	},
}

var contextCall string

var contextCmd = &cobra.Command{
	Use:   "context <mensagem>",
	Short: "Assemble the unified context the planner would receive",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")

		store := session.NewStore(cfg.Session.TTLDuration(), cfg.Session.SweepIntervalDuration())
		defer store.Stop()
		gateway := contextengine.NewGateway(store, contextengine.NewAssembler(cfg), cfg)

		store.GetOrCreate("cli", "local", message)
		store.AddTurn("cli", types.ConversationTurn{
			Role:      "user",
			Content:   message,
			Timestamp: time.Now(),
		})

		di := intent.AnalyzeDeepIntent(message)
		dynamic := map[string]any{
			"analise_de_intencao": intent.FormatForPlanner(di),
		}

		fmt.Println(gateway.BuildUnifiedContext(types.CallType(contextCall), "cli", message, dynamic, contextengine.BuildOptions{}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "jota.yaml", "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the raw analysis as JSON")
	contextCmd.Flags().StringVar(&contextCall, "call", string(types.CallPlanner), "call type to assemble for")

	rootCmd.AddCommand(classifyCmd, analyzeCmd, contextCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
