package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/rankgo"
	"github.com/hupe1980/rankgo/internal/config"
	"github.com/hupe1980/rankgo/source"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:           "rankgo",
		Short:         "Weighted PageRank over edge-list topics",
		Long:          "rankgo reads one JSON-lines edge list per topic, ranks every topic with weighted PageRank and writes the ranks to a local directory, S3 or MinIO.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return initConfig(v, cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default .rankgo.yaml)")
	flags.Float64("alpha", float64(rankgo.DefaultAlpha), "damping factor in (0, 1)")
	flags.Bool("dangling-nodes", true, "redistribute the rank of nodes without out-edges")
	flags.Bool("node-bias", false, "use per-node bias from the input")
	flags.Bool("edge-disk-cache", false, "spill edges to disk above the caching threshold")
	flags.Int64("edge-cache-threshold", rankgo.DefaultEdgeCachingThreshold, "edges kept in memory before spilling")
	flags.String("spill-dir", "", "directory for spill files (default system temp dir)")
	flags.String("spill-compression", "none", "spill compression: none, lz4 or zstd")
	flags.Int("max-iterations", rankgo.DefaultMaxIterations, "iteration cap per topic")
	flags.Float64("tolerance", rankgo.DefaultTolerance, "stop once the total rank change is at most this")
	flags.Int64("max-nodes-and-edges", source.DefaultMaxNodesAndEdges, "reject topics larger than this (negative disables)")
	flags.Int64("workers", 1, "topics ranked concurrently")
	flags.Int64("memory-limit", 0, "input bytes admitted concurrently (0 disables)")
	flags.Int64("io-limit", 0, "spill and output bytes per second (0 disables)")
	flags.String("codec", "go-json", "record codec: json or go-json")
	flags.String("out", "ranks", "local output directory when no object store is configured")
	flags.String("output-prefix", "", "prefix for output blob names")
	flags.String("metrics-addr", "", "serve status and metrics on this address")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "console", "log format: console, text or json")

	for _, name := range []string{
		"alpha", "dangling-nodes", "node-bias", "edge-disk-cache", "edge-cache-threshold",
		"spill-dir", "spill-compression", "max-iterations", "tolerance", "max-nodes-and-edges",
		"workers", "memory-limit", "io-limit", "codec", "out", "output-prefix",
		"metrics-addr", "log-level", "log-format",
	} {
		_ = v.BindPFlag(flagKey(name), flags.Lookup(name))
	}

	root.AddCommand(
		newRunCmd(v),
		newWatchCmd(v),
		newConfigCmd(v),
		newVersionCmd(),
	)
	return root
}

// flagKey maps a flag name to its config key.
func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func initConfig(v *viper.Viper, cfgFile string) error {
	// A missing .env is fine.
	_ = godotenv.Load()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".rankgo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	config.BindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}
