package commands

import (
	"io"

	"github.com/spf13/cobra"
)

// Version is the CLI version sent in the User-Agent header.
var Version = "dev"

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	Version = version

	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the blocks CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version string `json:"version" yaml:"version"`
				Commit  string `json:"commit" yaml:"commit"`
				Built   string `json:"built" yaml:"built"`
			}

			versionInfo := VersionInfo{
				Version: version,
				Commit:  commit,
				Built:   date,
			}

			return render(cmd, versionInfo, func(out io.Writer) error {
				table := newTable(out, "Property", "Value")
				_ = table.Append([]string{"Version", version})
				_ = table.Append([]string{"Commit", commit})
				_ = table.Append([]string{"Built", date})

				return renderTable(table)
			})
		},
	}
}
