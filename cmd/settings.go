package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"selectproxy/database"

	"github.com/spf13/cobra"
)

var (
	settingsThresholdFlag int
	settingsAddressFlag   string
	settingsPortFlag      int
	settingsSchemeFlag    string
	settingsUsernameFlag  string
	settingsPasswordFlag  string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and change the general settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current general settings as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := database.GetGeneralSettings()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(settings)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update general settings fields (unset flags keep their current value)",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := database.GetGeneralSettings()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}

		if cmd.Flags().Changed("threshold") {
			settings.ResponseTimeThreshold = settingsThresholdFlag
		}
		if cmd.Flags().Changed("address") {
			settings.ProxyServerAddress = settingsAddressFlag
		}
		if cmd.Flags().Changed("port") {
			settings.ProxyServerPort = settingsPortFlag
		}
		if cmd.Flags().Changed("scheme") {
			settings.ProxyServerScheme = settingsSchemeFlag
		}
		if cmd.Flags().Changed("username") {
			settings.ProxyUsername = settingsUsernameFlag
		}
		if cmd.Flags().Changed("password") {
			settings.ProxyPassword = settingsPasswordFlag
		}

		if err := settings.Validate(); err != nil {
			return err
		}
		if err := database.SetGeneralSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Println("Settings saved. Threshold: " + strconv.Itoa(settings.ResponseTimeThreshold) + "ms.")
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().IntVar(&settingsThresholdFlag, "threshold", 0, "response time threshold in milliseconds")
	settingsSetCmd.Flags().StringVar(&settingsAddressFlag, "address", "", "proxy server address")
	settingsSetCmd.Flags().IntVar(&settingsPortFlag, "port", 0, "proxy server port")
	settingsSetCmd.Flags().StringVar(&settingsSchemeFlag, "scheme", "", "proxy server scheme: http, https, socks4, socks5")
	settingsSetCmd.Flags().StringVar(&settingsUsernameFlag, "username", "", "proxy username")
	settingsSetCmd.Flags().StringVar(&settingsPasswordFlag, "password", "", "proxy password")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
