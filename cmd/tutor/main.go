package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hydratutor/internal/client"
	"hydratutor/internal/config"
	"hydratutor/internal/constants"
	"hydratutor/internal/logging"
	"hydratutor/internal/utils"
)

type rootOptions struct {
	configPath string
	server     string
	verbose    bool
	trace      bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "tutor",
		Short: "Headless client for the hydra filter and tree tutors",
		Long: `tutor drives the hydra tutor backend from a terminal.

The filter tutor evaluates an input against a filter expression. The tree
tutor builds a tree from an input and a configuration, steps through it and
runs queries against it. Both keep a library ("stash") of saved sessions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.server != "" {
				cfg.ServerURL, cfg.SkipTLSVerify = utils.NormalizeServerURL(opts.server)
			}
			opts.cfg = cfg

			opts.logger, err = logging.New(cfg.LogLevel, opts.verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&opts.server, "server", "", "tutor backend URL (default "+constants.DefaultServerURL+")")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&opts.trace, "trace", false, "print every backend exchange")

	root.AddCommand(newWhoamiCmd(opts))
	root.AddCommand(newFilterCmd(opts))
	root.AddCommand(newTreeCmd(opts))
	root.AddCommand(newStashCmd(opts))
	return root
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the identity token, creating it on first use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			client.PrintField(out, "identity", a.id.Token, client.ColorCyan)
			status := "new"
			if a.id.Returning {
				status = "returning"
			}
			client.PrintField(out, "status", status, client.ColorReset)
			client.PrintField(out, "server", opts.cfg.ServerURL, client.ColorReset)
			client.PrintField(out, "cookies", opts.cfg.CookieJarPath(), client.ColorDim)
			if p := a.transcript.GetLogPath(); p != "" {
				client.PrintField(out, "transcript", p, client.ColorDim)
			}
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
