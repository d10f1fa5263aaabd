package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	lspDomain "github.com/Strob0t/lspkeeper/internal/domain/lsp"
)

func newRestartCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the language server of a running host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := newControlClient(g.cfg.Control.Addr).restart(cmd.Context())
			if err != nil {
				var apiErr *apiError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
					return errors.New("lsp client not initialized, cannot restart")
				}
				return err
			}
			if info.State != lspDomain.StateRunning {
				return fmt.Errorf("restart failed: client is %s: %s", info.State, info.LastError)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s restarted (pid %d)\n", info.Command, info.PID)
			return nil
		},
	}
}
