package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hydratutor/internal/client"
	"hydratutor/internal/constants"
	"hydratutor/internal/stash"
	"hydratutor/internal/store"
)

func newStashCmd(opts *rootOptions) *cobra.Command {
	var variant string

	cmd := &cobra.Command{
		Use:   "stash",
		Short: "Manage the saved library",
		Long: `Manage the saved library. The filter library lives in the local store.
The tree library also lives on the backend: for a returning identity it is
read from there first, and changes are pushed back.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			switch variant {
			case constants.VariantFilter, constants.VariantTree:
				return nil
			default:
				return fmt.Errorf("--variant must be %s or %s, got %q", constants.VariantFilter, constants.VariantTree, variant)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&variant, "variant", constants.VariantFilter, "library to manage: filter or tree")

	// withStash opens the library, runs fn and, once fn changed anything,
	// brings the backend copy of a tree library up to date. Local writes are
	// flushed when the app closes.
	withStash := func(cmd *cobra.Command, fn func(s *stash.Stash) (bool, error)) error {
		a, err := newApp(opts, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		s, err := a.openStash(ctx, variant)
		if err != nil {
			return err
		}
		tree := variant == constants.VariantTree
		if tree && a.id.Returning {
			if err := a.adoptBackendLibrary(ctx, s); err != nil {
				a.log.Warn("backend library unavailable, using the local copy", zap.Error(err))
			}
		}

		changed, err := fn(s)
		if !changed || !tree {
			return err
		}
		msg, pushErr := a.pushTreeLibrary(ctx, s.Entries())
		if pushErr != nil {
			return errors.Join(err, fmt.Errorf("backend library not updated: %w", pushErr))
		}
		client.PrintMessage(cmd.OutOrStdout(), msg)
		return err
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStash(cmd, func(s *stash.Stash) (bool, error) {
				client.PrintBlock(cmd.OutOrStdout(), client.RenderLibrary(s.Snapshot()))
				return false, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id|n>...",
		Short: "Remove entries by id or library number",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStash(cmd, func(s *stash.Stash) (bool, error) {
				ids := make([]string, 0, len(args))
				for _, arg := range args {
					id, err := client.ResolveID(s, arg)
					if err != nil {
						return false, fmt.Errorf("%s: %w", arg, err)
					}
					ids = append(ids, id)
				}
				for i, id := range ids {
					if !s.Delete(id) {
						return i > 0, fmt.Errorf("%s: %w", id, stash.ErrNotFound)
					}
					client.PrintField(cmd.OutOrStdout(), "deleted", id, client.ColorRed)
				}
				return true, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if variant == constants.VariantTree {
				return withStash(cmd, func(s *stash.Stash) (bool, error) {
					s.Clear()
					return true, nil
				})
			}
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return clearLocal(cmd.Context(), a, variant)
		},
	})
	return cmd
}

func clearLocal(ctx context.Context, a *app, variant string) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	return st.Delete(ctx, store.Key{UID: a.id.Token, Variant: variant})
}
