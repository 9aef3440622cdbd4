package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const Name = "atlassian-webhook-api"

// Set at build time with -ldflags "-X github.com/ITestLab/atlassianwebhookapi/pkg/version.version=<version>"
var version = ""

// Create a new version subcommand that prints the version information
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information and exit",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), Info())
		},
	}
	return cmd
}

// Return the version of the binary
func Version() string {
	if version != "" {
		return version
	}
	buildinfo, ok := debug.ReadBuildInfo()
	if !ok || buildinfo.Main.Version == "" {
		return "devel"
	}
	return buildinfo.Main.Version
}

// Return a formatted string containing name, version and runtime information
func Info() string {
	result := Name + ":\n"
	result += "    Version: " + Version() + "\n"
	result += "    Commit:  " + commit() + "\n"
	result += "    Go:      " + runtime.Version() + "\n"
	return result
}

func commit() string {
	buildinfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, setting := range buildinfo.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return "unknown"
}
