package main

import (
	"fmt"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var log = logging.Logger("cmd")

const version = "0.1.0-dev"

// config is the server configuration assembled by viper from flags, the
// GOTLFS_ environment and an optional TOML file.
type config struct {
	Index indexConfig `mapstructure:"index"`
	LFS   lfsConfig   `mapstructure:"lfs"`
	Pool  poolConfig  `mapstructure:"pool"`
	Log   logConfig   `mapstructure:"log"`
}

type indexConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
}

type lfsConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Disabled []string `mapstructure:"disabled"`
}

type poolConfig struct {
	Parents map[string]string `mapstructure:"parents"`
}

type logConfig struct {
	Level string `mapstructure:"level"`
}

// app carries the per-invocation configuration shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "got-lfs",
		Short: "Reject pushes that reference large objects missing from storage",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "Path to a TOML config file")
	flags.String("index-backend", "sqlite", "Presence index backend: sqlite, badger or remote")
	flags.String("index-path", "got-lfs.db", "Database file (sqlite) or directory (badger) of the presence index")
	flags.String("index-url", "", "Base URL of a presence server (remote backend)")
	flags.String("index-token", "", "Bearer token for the presence server")
	flags.String("log-level", "", "Log level for every subsystem (debug, info, warn, error)")
	a.bindFlag("index.backend", flags.Lookup("index-backend"))
	a.bindFlag("index.path", flags.Lookup("index-path"))
	a.bindFlag("index.url", flags.Lookup("index-url"))
	a.bindFlag("index.token", flags.Lookup("index-token"))
	a.bindFlag("log.level", flags.Lookup("log-level"))

	a.v.SetDefault("lfs.enabled", true)
	a.v.SetDefault("lfs.disabled", []string{})
	a.v.SetDefault("pool.parents", map[string]string{})

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newCheckCmd(a))
	root.AddCommand(newPreReceiveCmd(a))
	root.AddCommand(newObjectsCmd(a))
	root.AddCommand(newForkCmd(a))
	root.AddCommand(newFeatureCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newPointersCmd())
	root.AddCommand(newAuditCmd(a))
	return root
}

func (a *app) bindFlag(key string, f *pflag.Flag) {
	cobra.CheckErr(a.v.BindPFlag(key, f))
}

func (a *app) loadConfig() error {
	// index.path is read from GOTLFS_INDEX_PATH
	a.v.SetEnvPrefix("GOTLFS")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		a.v.SetConfigType("toml")
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", a.cfgFile, err)
		}
	}
	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if a.cfg.Log.Level != "" {
		lvl, err := logging.LevelFromString(a.cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("log level %q: %w", a.cfg.Log.Level, err)
		}
		logging.SetAllLoggers(lvl)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "got-lfs %s\n", version)
		},
	}
}
