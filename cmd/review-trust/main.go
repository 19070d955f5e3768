// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the review-trust CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/review-trust/internal/secrets"
	"github.com/pdiddy/review-trust/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials read from the secrets directory at startup.
var loadedSecrets map[string]string

var rootCmd = &cobra.Command{
	Use:   "review-trust",
	Short: "Score how far a reviewer's history can be trusted",
	Long: `review-trust fetches a reviewer's public profile, reads their review
history, and turns it into a 0-100 trust score with a grade and the signals
behind it.

Requests go through a single paced queue. If the site answers with a robot
check, every queued request is abandoned and traffic stays locked for a
while; "review-trust status" shows the lock and "review-trust unlock"
clears it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(cmd.ErrOrStderr(), "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./review-trust.yaml or ~/.config/review-trust/config.yaml)")
	pf.String("secrets-dir", ".secrets/", "directory of credential files (session-cookie, user-agent)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("kv-driver", "", "kv backend: sqlite, postgres, memory")
	pf.String("kv-dsn", "", "postgres connection string")
	pf.String("kv-path", "", "sqlite database file")
	pf.Bool("ephemeral", false, "keep cache and lock in memory for this run only")

	_ = viper.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("kv.driver", pf.Lookup("kv-driver"))
	_ = viper.BindPFlag("kv.dsn", pf.Lookup("kv-dsn"))
	_ = viper.BindPFlag("kv.path", pf.Lookup("kv-path"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	setDefaults(viper.GetViper(), types.DefaultConfig())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("review-trust")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "review-trust"))
		}
	}

	viper.SetEnvPrefix("REVIEW_TRUST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every configuration key so env overrides reach
// Unmarshal.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("source.base_url", d.Source.BaseURL)
	v.SetDefault("source.primary_path", d.Source.PrimaryPath)
	v.SetDefault("source.secondary_path", d.Source.SecondaryPath)

	v.SetDefault("network.min_interval", d.Network.MinInterval)
	v.SetDefault("network.jitter", d.Network.Jitter)
	v.SetDefault("network.timeout", d.Network.Timeout)
	v.SetDefault("network.lock_duration", d.Network.LockDuration)
	v.SetDefault("network.user_agent", d.Network.UserAgent)
	v.SetDefault("network.robot_markers", d.Network.RobotMarkers)

	v.SetDefault("cache.prefix", d.Cache.Prefix)
	v.SetDefault("cache.ttl_success", d.Cache.TTLSuccess)
	v.SetDefault("cache.ttl_fail", d.Cache.TTLFail)

	v.SetDefault("scoring.base", d.Scoring.Base)
	v.SetDefault("scoring.bonus.diversity", d.Scoring.Bonus.Diversity)
	v.SetDefault("scoring.bonus.detail", d.Scoring.Bonus.Detail)
	v.SetDefault("scoring.bonus.image", d.Scoring.Bonus.Image)
	v.SetDefault("scoring.bonus.helpful_max", d.Scoring.Bonus.HelpfulMax)
	v.SetDefault("scoring.bonus.gold_max", d.Scoring.Bonus.GoldMax)
	v.SetDefault("scoring.penalty.all_five", d.Scoring.Penalty.AllFive)
	v.SetDefault("scoring.penalty.thin", d.Scoring.Penalty.Thin)
	v.SetDefault("scoring.penalty.swarm", d.Scoring.Penalty.Swarm)
	v.SetDefault("scoring.penalty.gap", d.Scoring.Penalty.Gap)
	v.SetDefault("scoring.context.unverified", d.Scoring.Context.Unverified)
	v.SetDefault("scoring.context.vine", d.Scoring.Context.Vine)
	v.SetDefault("scoring.grades.s", d.Scoring.Grades.S)
	v.SetDefault("scoring.grades.a", d.Scoring.Grades.A)
	v.SetDefault("scoring.grades.b", d.Scoring.Grades.B)
	v.SetDefault("scoring.grades.c", d.Scoring.Grades.C)
	v.SetDefault("scoring.thresholds.few", d.Scoring.Thresholds.Few)
	v.SetDefault("scoring.thresholds.short_length", d.Scoring.Thresholds.ShortLength)
	v.SetDefault("scoring.thresholds.thin_short_count", d.Scoring.Thresholds.ThinShortCount)
	v.SetDefault("scoring.thresholds.thin_mean_length", d.Scoring.Thresholds.ThinMeanLength)
	v.SetDefault("scoring.thresholds.swarm_max_length", d.Scoring.Thresholds.SwarmMaxLength)
	v.SetDefault("scoring.thresholds.swarm_min_helpful", d.Scoring.Thresholds.SwarmMinHelpful)
	v.SetDefault("scoring.thresholds.swarm_min_count", d.Scoring.Thresholds.SwarmMinCount)
	v.SetDefault("scoring.thresholds.diverse_min_count", d.Scoring.Thresholds.DiverseMinCount)
	v.SetDefault("scoring.thresholds.gap_min_camo_length", d.Scoring.Thresholds.GapMinCamoLength)
	v.SetDefault("scoring.thresholds.gap_ratio", d.Scoring.Thresholds.GapRatio)
	v.SetDefault("scoring.thresholds.deep_mean_length", d.Scoring.Thresholds.DeepMeanLength)
	v.SetDefault("scoring.thresholds.image_min_ratio", d.Scoring.Thresholds.ImageMinRatio)
	v.SetDefault("scoring.thresholds.gold_min_length", d.Scoring.Thresholds.GoldMinLength)
	v.SetDefault("scoring.thresholds.gold_min_helpful", d.Scoring.Thresholds.GoldMinHelpful)
	v.SetDefault("scoring.thresholds.gold_label_min", d.Scoring.Thresholds.GoldLabelMin)
	v.SetDefault("scoring.thresholds.helpful_label_mean", d.Scoring.Thresholds.HelpfulLabelMean)

	v.SetDefault("markers.helpful_patterns", d.Markers.HelpfulPatterns)
	v.SetDefault("markers.vine_markers", d.Markers.VineMarkers)
	v.SetDefault("markers.hidden_markers", d.Markers.HiddenMarkers)
	v.SetDefault("markers.private_markers", d.Markers.PrivateMarkers)

	v.SetDefault("kv.driver", d.KV.Driver)
	v.SetDefault("kv.path", d.KV.Path)
	v.SetDefault("kv.dsn", d.KV.DSN)
	v.SetDefault("kv.table", d.KV.Table)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("workers", d.Workers)
}

// loadConfig returns the effective configuration.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
