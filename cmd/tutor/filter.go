package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hydratutor/internal/client"
	"hydratutor/internal/constants"
	"hydratutor/internal/filter"
	"hydratutor/internal/stash"
)

func newFilterCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Filter tutor",
	}
	cmd.AddCommand(newFilterRunCmd(opts), newFilterResetCmd(opts), newFilterShellCmd(opts))
	return cmd
}

// readSource returns the contents of path, or stdin for "-".
func readSource(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func newFilterRunCmd(opts *rootOptions) *cobra.Command {
	var inputPath, filterPath, filterType string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit an input and a filter once and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readSource(inputPath, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			expr, err := readSource(filterPath, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read filter: %w", err)
			}

			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess := filter.New(a.client, stash.New(a.id.Token, constants.VariantFilter), a.log)
			sess.SetInput(input)
			sess.SetFilter(expr)
			if err := sess.SetFilterType(filterType); err != nil {
				return err
			}
			res, err := sess.Submit(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Output != "" {
				fmt.Fprintln(out, res.Output)
			}
			if res.Messages != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), res.Messages)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "input file, - for stdin")
	cmd.Flags().StringVarP(&filterPath, "filter", "f", "", "filter expression file")
	cmd.Flags().StringVarP(&filterType, "type", "t", constants.FilterTypeAuto, "filter type: auto, value or bundle")
	_ = cmd.MarkFlagRequired("filter")
	return cmd
}

func newFilterResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop the backend filter state of this identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.client.FilterReset(cmd.Context())
		},
	}
}

func newFilterShellCmd(opts *rootOptions) *cobra.Command {
	var withDashboard bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive filter tutor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			s, err := a.openStash(ctx, constants.VariantFilter)
			if err != nil {
				return err
			}
			sess := filter.New(a.client, s, a.log)
			defer sess.Wait()
			a.transcript.LogEvent("filter shell started")

			out := cmd.OutOrStdout()
			client.PrintBanner(out, "filter tutor")
			printSessionFields(out, a, s.Len())
			if withDashboard {
				startDashboard(out, a, s)
			}
			client.PrintSep(out)
			client.PrintHint(out, "type help for commands")

			in := lineReader(cmd, a, constants.VariantFilter)
			defer in.Close()
			return client.NewFilterShell(sess, in, out).Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&withDashboard, "dashboard", false, "serve a live view of the library")
	return cmd
}

func printSessionFields(out io.Writer, a *app, entries int) {
	client.PrintField(out, "server", a.cfg.ServerURL, client.ColorReset)
	client.PrintField(out, "identity", a.id.Token, client.ColorCyan)
	client.PrintField(out, "library", fmt.Sprintf("%d saved", entries), client.ColorReset)
	if p := a.transcript.GetLogPath(); p != "" {
		client.PrintField(out, "transcript", p, client.ColorDim)
	}
}

func startDashboard(out io.Writer, a *app, s *stash.Stash) {
	url, err := a.startDashboard(s)
	if err != nil {
		client.PrintError(out, err)
		return
	}
	client.PrintField(out, "dashboard", url, client.ColorPurple)
}

func lineReader(cmd *cobra.Command, a *app, variant string) client.LineReader {
	in, err := client.NewLineReader(a.cfg.HistoryPath(variant), cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		a.log.Debug("line editing unavailable", zap.Error(err))
	}
	return in
}
