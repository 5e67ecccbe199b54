package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/julielab/jcore/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show jcore version information",
	Long:  `Display version, build time, commit hash, and platform information for the jcore binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return runVersion(jsonOutput, cmd.OutOrStdout())
	},
}

func init() {
	VersionCmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
}

func runVersion(jsonOutput bool, w io.Writer) error {
	info := version.Get()
	if jsonOutput {
		output, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("error formatting JSON: %w", err)
		}
		fmt.Fprintln(w, string(output))
		return nil
	}
	fmt.Fprintln(w, info.String())
	fmt.Fprintf(w, "Platform: %s\n", info.Platform)
	fmt.Fprintf(w, "Go: %s\n", info.GoVersion)
	return nil
}
