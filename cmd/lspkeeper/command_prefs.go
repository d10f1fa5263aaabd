package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Strob0t/lspkeeper/internal/adapter/prefsfile"
	"github.com/Strob0t/lspkeeper/internal/domain/provision"
)

func newPrefsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show the provisioning preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := newPrefs(g.cfg)
			if err != nil {
				return err
			}
			p, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ns := g.cfg.Preferences.Namespace
			fmt.Fprintf(out, "# %s\n", store.Path())
			fmt.Fprintf(out, "%s.%s = %t\n", ns, provision.KeySuppressMissingLspWarning, p.SuppressMissingLspWarning)
			fmt.Fprintf(out, "%s.%s = %t\n", ns, provision.KeyDisableAutoupdate, p.DisableAutoupdate)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <true|false>",
		Short: "Persist a provisioning preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !prefsfile.Known(args[0]) {
				return fmt.Errorf("%w: %q (known: %s, %s)", prefsfile.ErrUnknownKey, args[0],
					provision.KeySuppressMissingLspWarning, provision.KeyDisableAutoupdate)
			}
			value, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("value must be true or false: %w", err)
			}
			store, err := newPrefs(g.cfg)
			if err != nil {
				return err
			}
			return store.Set(cmd.Context(), args[0], value)
		},
	})
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
