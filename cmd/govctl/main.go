package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/outsidedata/governor/internal/governance"
	"github.com/outsidedata/governor/internal/risk"
	"github.com/outsidedata/governor/internal/threat"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "govctl",
	Short: "Dataset governance risk engine CLI",
	Long: `govctl evaluates dataset metrics against the governance threat
catalog and prints the resulting risk assessment.

The assessment is advisory only; govctl never approves or rejects a
dataset.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.govctl")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		// Config file supplies defaults; explicit flags win.
		if !cmd.Flags().Changed("mode") && viper.GetString("mode") != "" {
			evalMode = viper.GetString("mode")
		}
		if !cmd.Flags().Changed("top") && viper.GetInt("top") > 0 {
			evalTopN = viper.GetInt("top")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.govctl/config.yaml)")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(threatsCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
}

// ── evaluate ─────────────────────────────────────────────────────────────────

var (
	evalMode   string
	evalTopN   int
	evalFormat string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <metrics.json>",
	Short: "Evaluate a metrics file and print the risk assessment",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evalMode, "mode", "summary", "output mode: summary, detailed, or full")
	evaluateCmd.Flags().IntVar(&evalTopN, "top", 0, "number of top threats to include (default 5)")
	evaluateCmd.Flags().StringVar(&evalFormat, "format", "text", "output format: text or json")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read metrics file: %w", err)
	}

	// Malformed files evaluate as empty input; the engine reports the
	// degradation through its uncertainty notes.
	var metrics map[string]any
	if err := json.Unmarshal(raw, &metrics); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s is not a JSON object; evaluating as empty input\n", args[0])
		metrics = nil
	}

	mode := governance.OutputMode(evalMode)
	switch mode {
	case governance.ModeSummary, governance.ModeDetailed, governance.ModeFull:
	default:
		return fmt.Errorf("invalid mode %q: must be summary, detailed, or full", evalMode)
	}

	opts := []governance.Option{governance.WithOutputMode(mode)}
	if evalTopN > 0 {
		opts = append(opts, governance.WithTopN(evalTopN))
	}

	engine := governance.NewEngine(nil, zap.NewNop())
	result := engine.Evaluate(metrics, opts...)

	if evalFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result)
	return nil
}

func printResult(result *governance.Result) {
	s := result.DatasetRiskSummary

	fmt.Printf("Overall risk: %s\n", s.OverallRiskLevel)
	fmt.Printf("%s\n\n", s.SummaryText)

	if len(s.TopThreats) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "THREAT\tSEVERITY\tPROPERTY\tCONFIDENCE\tPRIORITY")
		for _, tt := range s.TopThreats {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\t%.2f\n",
				tt.ThreatID, tt.Severity, tt.ImpactedProperty, tt.Confidence, tt.PriorityScore)
		}
		w.Flush()
		fmt.Println()
	}

	if len(s.EscalationReasons) > 0 {
		fmt.Printf("Escalation: %s\n", s.EscalationReasons[0])
	}

	if result.HasUncertainty && len(result.UncertaintyNotes) > 0 {
		fmt.Println("\nUncertainty notes:")
		for _, note := range result.UncertaintyNotes {
			fmt.Printf("  - %s\n", note)
		}
	}

	for _, t := range result.Threats {
		fmt.Printf("\n%s (%s, %s severity, confidence %.3f)\n",
			t.ThreatName, t.ThreatID, t.Severity, t.Confidence)
		for _, trigger := range t.TriggeredBy {
			fmt.Printf("  triggered by: %s\n", trigger)
		}
	}
}

// ── threats ──────────────────────────────────────────────────────────────────

var threatsCmd = &cobra.Command{
	Use:   "threats [id]",
	Short: "List the threat catalog, or show one threat in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := threat.DefaultCatalog()

		if len(args) == 1 {
			def, ok := catalog.ByID(args[0])
			if !ok {
				return fmt.Errorf("unknown threat id %q", args[0])
			}
			fmt.Printf("%s — %s\n", def.ID, def.Name)
			fmt.Printf("Attack type:       %s\n", def.AttackType)
			fmt.Printf("Impacted property: %s\n", def.ImpactedProperty)
			fmt.Printf("Description:       %s\n", def.Description)
			fmt.Printf("Relevant metrics:  %v\n", def.Metrics)

			names := make([]string, 0, len(def.Thresholds))
			for name := range def.Thresholds {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Println("Thresholds:")
			for _, name := range names {
				fmt.Printf("  %s = %g\n", name, def.Thresholds[name])
			}
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPROPERTY\tATTACK TYPE")
		for _, def := range catalog.All() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", def.ID, def.Name, def.ImpactedProperty, def.AttackType)
		}
		return w.Flush()
	},
}

// ── rules ────────────────────────────────────────────────────────────────────

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the risk escalation rules per level",
	Run: func(cmd *cobra.Command, args []string) {
		rules := risk.ExplainRules()
		for _, level := range []risk.Level{risk.LevelCritical, risk.LevelWarning, risk.LevelLow} {
			fmt.Printf("%s — %s\n", level, risk.LevelDescription(level))
			for _, reason := range rules[string(level)] {
				fmt.Printf("  - %s\n", reason)
			}
			fmt.Println()
		}
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print govctl and engine versions",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("govctl %s (engine %s)\n", version, governance.EngineVersion)
	},
}
