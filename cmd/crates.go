package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rsdoclab/rsdoc/internal/render"
	"github.com/rsdoclab/rsdoc/internal/workspace"
)

var (
	cratesTransitive bool
	cratesUsedBy     bool
	cratesKind       string
)

var cratesCmd = &cobra.Command{
	Use:   "crates [scope]",
	Short: "List workspace crates and their dependency relationships",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		sess := svc.Sessions.Create()
		if _, _, err := svc.SetWorkingDirectory(cmd.Context(), sess, dir); err != nil {
			return err
		}

		opts := workspace.ListOptions{
			Transitive: cratesTransitive,
			UsedBy:     cratesUsedBy,
			Kind:       workspace.CrateKind(cratesKind),
		}
		if len(args) > 0 {
			opts.Scope = args[0]
		}

		result, err := svc.ListCrates(cmd.Context(), sess, opts)
		if err != nil {
			return err
		}
		fmt.Print(render.CrateList(result, opts.Scope))
		return nil
	},
}

func init() {
	cratesCmd.Flags().BoolVar(&cratesTransitive, "transitive", false, "mark transitive dependencies of the scope")
	cratesCmd.Flags().BoolVar(&cratesUsedBy, "used-by", false, "show which members depend on each crate")
	cratesCmd.Flags().StringVar(&cratesKind, "kind", "", "restrict to one crate kind: lib, bin or proc-macro")
}
