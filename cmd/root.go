package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"selectproxy/config"
	"selectproxy/core"
	"selectproxy/database"
	"selectproxy/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile          string
	dbPath           string
	appLogPathFlag   string
	proxyLogPathFlag string
	logLevelFlag     string
)

func expandTildeCmd(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

var rootCmd = &cobra.Command{
	Use:   "selectproxy",
	Short: "Selective proxy manager: per-domain proxy rules with slow-host detection",
	Long: `selectproxy manages an outbound proxy configuration based on per-domain
rules and watches outgoing requests to spot hosts that are slow or failing,
so they can be promoted into rules and routed through the proxy.

It runs a local forwarding proxy (the interception engine), an HTTP API for
rule and settings management, and a CLI for scripting both.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(cfgFile, appLogPathFlag, proxyLogPathFlag, logLevelFlag); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		finalDBPath := dbPath
		if finalDBPath != "" {
			expandedPath, err := expandTildeCmd(finalDBPath)
			if err != nil {
				logger.Error("Error expanding tilde in --dbpath flag '%s': %v. Using original.", finalDBPath, err)
			} else {
				finalDBPath = expandedPath
			}
		} else {
			finalDBPath = config.AppConfig.Database.Path
			expandedPath, err := expandTildeCmd(finalDBPath)
			if err != nil {
				logger.Error("Error expanding tilde in config DB path '%s': %v. Using original.", finalDBPath, err)
			} else {
				finalDBPath = expandedPath
			}
		}
		if finalDBPath == "" {
			logger.Error("Database path is empty after checking flag and config. Falling back to 'selectproxy.db' in CWD.")
			finalDBPath = "selectproxy.db"
		}

		if err := database.InitDB(finalDBPath); err != nil {
			return fmt.Errorf("failed to initialize database at %s: %w", finalDBPath, err)
		}

		if cmd.Name() != "completion" &&
			cmd.Name() != cobra.ShellCompRequestCmd &&
			cmd.Name() != cobra.ShellCompNoDescRequestCmd {
			logger.Debug("Database initialized at: %s", finalDBPath)
		}
		return nil
	},
}

// newApp builds the service graph over the database-backed collaborators.
func newApp() *core.App {
	return core.NewApp(
		database.RuleStore{},
		database.GetGeneralSettings,
		database.SetGeneralSettings,
		core.LogBadge{},
	)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/selectproxy/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "dbpath", "", "path to SQLite database file (overrides config/default)")
	rootCmd.PersistentFlags().StringVar(&appLogPathFlag, "app-log", "", "path for the application log file (overrides config/default)")
	rootCmd.PersistentFlags().StringVar(&proxyLogPathFlag, "proxy-log", "", "path for the proxy log file (overrides config/default)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: DEBUG, INFO, ERROR (overrides config/default)")
}
