package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Strob0t/lspkeeper/internal/domain/provision"
)

func newLocateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "locate [command]",
		Short: "Print where the language server and the toolchain are installed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g.cfg, nil)
			if err != nil {
				return err
			}
			names := []string{g.cfg.Server.Command, g.cfg.Provision.Toolchain}
			if len(args) == 1 {
				names = args
			}

			out := cmd.OutOrStdout()
			missing := 0
			for _, name := range names {
				p, err := a.locator.Locate(cmd.Context(), provision.CommandName(name))
				if err != nil {
					return err
				}
				if !p.Found() {
					missing++
					fmt.Fprintf(out, "%s: not found\n", name)
					continue
				}
				fmt.Fprintf(out, "%s: %s\n", name, p)
			}
			if len(args) == 1 && missing > 0 {
				return fmt.Errorf("%s not found", args[0])
			}
			return nil
		},
	}
}

func newEnsureCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Apply the provisioning policy and print the server path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return provisionAndPrint(cmd, g, func(ctx context.Context, a *app, name provision.CommandName) (provision.ResolvedPath, error) {
				return a.provision.Ensure(ctx, name)
			})
		},
	}
}

func newInstallCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install or update the language server with the toolchain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return provisionAndPrint(cmd, g, func(ctx context.Context, a *app, name provision.CommandName) (provision.ResolvedPath, error) {
				return a.provision.Install(ctx, name)
			})
		},
	}
}

func provisionAndPrint(
	cmd *cobra.Command,
	g *globalFlags,
	fn func(context.Context, *app, provision.CommandName) (provision.ResolvedPath, error),
) error {
	a, err := newApp(g.cfg, nil)
	if err != nil {
		return err
	}
	name := provision.CommandName(g.cfg.Server.Command)
	p, err := fn(cmd.Context(), a, name)
	if err != nil {
		return err
	}
	if !p.Found() {
		return fmt.Errorf("%s is not available", name)
	}
	fmt.Fprintln(cmd.OutOrStdout(), p)
	return nil
}
