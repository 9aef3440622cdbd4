package server

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ITestLab/atlassianwebhookapi/pkg/config"
	"github.com/ITestLab/atlassianwebhookapi/pkg/signature"
	"github.com/ITestLab/atlassianwebhookapi/pkg/version"
	"github.com/spf13/cobra"
)

const (
	flagNameConfig    = "config"
	flagNameLogLevel  = "log"
	flagNameEnv       = "env"
	flagNameSecret    = "secret"
	flagNameAlgorithm = "algorithm"
)

func Execute() {
	err := NewServerCmd().Execute()
	if err != nil {
		slog.Error("Failed to execute command", "err", err)
		os.Exit(1)
	}
}

func NewServerCmd() *cobra.Command {
	cobra.AddTemplateFunc(
		"ProgramName", func() string {
			return version.Name
		},
	)

	rootCmd := &cobra.Command{
		Use:   version.Name,
		Short: version.Name + " echoes request headers and validates x-hub-signature signed webhooks",
		Run: func(cmd *cobra.Command, args []string) {
			err := run(cmd)
			if err != nil {
				fmt.Println("Fatal: " + err.Error())
				os.Exit(1)
			}
		},
	}

	rootCmd.Flags().StringP(flagNameConfig, "c", "", "Config file to use")
	rootCmd.Flags().String(flagNameLogLevel, "", "Override the log level given in the config file")
	rootCmd.Flags().Bool(flagNameEnv, false, "Expand enviroment variables in the config file")

	rootCmd.AddCommand(
		version.NewCommand(),
		newSignCmd(),
	)

	return rootCmd
}

func run(cmd *cobra.Command) error {
	configPath, err := cmd.Flags().GetString(flagNameConfig)
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	logLevel, err := cmd.Flags().GetString(flagNameLogLevel)
	if err != nil {
		return fmt.Errorf("failed to get log level flag: %w", err)
	}
	env, err := cmd.Flags().GetBool(flagNameEnv)
	if err != nil {
		return fmt.Errorf("failed to get env flag: %w", err)
	}

	cfg, err := config.LoadConfig(configPath, env, logLevel)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	server := NewServer(cfg)

	return server.Run()
}

// Create the sign subcommand, printing the header value for a given body.
// Useful for sending test requests with curl.
func newSignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [file]",
		Short: "Print the x-hub-signature header value for a body read from file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := cmd.Flags().GetString(flagNameSecret)
			if err != nil {
				return fmt.Errorf("failed to get secret flag: %w", err)
			}
			if secret == "" {
				secret = os.Getenv(config.ENV_WEBHOOK_SECRET)
			}
			if secret == "" {
				secret = config.DEFAULT_WEBHOOK_SECRET
			}
			algorithm, err := cmd.Flags().GetString(flagNameAlgorithm)
			if err != nil {
				return fmt.Errorf("failed to get algorithm flag: %w", err)
			}

			var body []byte
			if len(args) == 1 {
				// #nosec G304 -- Local users can decide on their file path themselves.
				body, err = os.ReadFile(args[0])
			} else {
				body, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read body: %w", err)
			}

			digest, err := signature.Sign(algorithm, []byte(secret), body)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signature.FormatHeader(algorithm, digest))
			return nil
		},
	}

	cmd.Flags().String(flagNameSecret, "", "Secret used as HMAC key, defaults to $"+config.ENV_WEBHOOK_SECRET)
	cmd.Flags().StringP(flagNameAlgorithm, "a", "sha256", "Digest algorithm to use")

	return cmd
}
