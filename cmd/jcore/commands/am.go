package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/julielab/jcore/am"
	"github.com/julielab/jcore/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage jcore configuration",
	Long: `am - Manage jcore configuration ("I am")

Display and manage jcore configuration settings.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (JCORE_* prefix)
3. Project config (./am.toml or ./config.toml, searched upward)
4. User config (~/.jcore/am.toml or ~/.jcore/config.toml)
5. System config (/etc/jcore/config.toml)
6. Default values

Examples:
  jcore am show                    # Show current configuration
  jcore am show --format json      # Show configuration in JSON format
  jcore am get embeddings.buffer_size
  jcore am validate                # Validate current configuration
  jcore am where                   # Show where each setting comes from
  jcore am init                    # Write the defaults to ./am.toml`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAmShow(configFormat, cmd.OutOrStdout())
	},
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., database.path, condense.marker_types)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAmGet(args[0], cmd.OutOrStdout())
	},
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAmValidate(cmd.OutOrStdout())
	},
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAmWhere(cmd.OutOrStdout())
	},
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "am.toml"
		if len(args) == 1 {
			path = args[0]
		}
		return runAmInit(path, initForce, cmd.OutOrStdout())
	},
}

var (
	configFormat string
	initForce    bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file (keeps .back1-.back3)")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
	AmCmd.AddCommand(amInitCmd)
}

func runAmShow(format string, w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Fprintf(w, "# jcore configuration\n%s", string(data))

	case "toml":
		data, err := am.Render(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "# jcore configuration\n%s", string(data))

	default:
		return fmt.Errorf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runAmGet(key string, w io.Writer) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	if !am.GetViper().IsSet(key) {
		return errors.NewNotFoundError("configuration key %q not found", key)
	}
	fmt.Fprintln(w, am.Get(key))
	return nil
}

func runAmValidate(w io.Writer) error {
	// Load validates
	if _, err := am.Load(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	fmt.Fprintln(w, pterm.Success.Sprint("Configuration is valid"))
	return nil
}

func runAmWhere(w io.Writer) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return fmt.Errorf("failed to get config introspection: %w", err)
	}

	fmt.Fprintln(w, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(w, "  1. [DEFAULT]  Built-in defaults")
	fmt.Fprintln(w, "  2. [SYSTEM]   /etc/jcore/config.toml")
	fmt.Fprintln(w, "  3. [USER]     ~/.jcore/config.toml, then ~/.jcore/am.toml")
	fmt.Fprintln(w, "  4. [PROJECT]  ./am.toml or ./config.toml (searches up directories)")
	fmt.Fprintln(w, "  5. [ENV]      "+am.EnvPrefix+"_* environment variables")
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(intro.Settings))
	for _, s := range intro.Settings {
		rows = append(rows, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	return renderTable(w, []string{"Key", "Value", "Source", "From"}, rows)
}

func runAmInit(path string, force bool, w io.Writer) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.WithHint(
			errors.NewInvalidRequestError("%s already exists", path),
			"use --force to overwrite it; the previous file is kept as .back1")
	}

	v := viper.New()
	am.SetDefaults(v)
	cfg, err := am.LoadWithViper(v)
	if err != nil {
		return err
	}
	if err := am.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintln(w, pterm.Success.Sprintf("Wrote default configuration to %s", path))
	return nil
}
