package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-worktime/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false,
		"Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.WriteDefault(path, configForce); err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "Wrote %s\n", expandPath(path))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := appConfig.Marshal()
	if err != nil {
		return err
	}
	if appConfig.File != "" {
		fmt.Fprintf(out(cmd), "# %s\n", appConfig.File)
	}
	_, err = out(cmd).Write(data)
	return err
}
