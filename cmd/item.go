package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rsdoclab/rsdoc/internal/index"
	"github.com/rsdoclab/rsdoc/internal/render"
)

var (
	itemCrate        string
	itemIncludeImpls bool
)

var itemCmd = &cobra.Command{
	Use:   "item <path>",
	Short: "Look up a documentation item by path or id",
	Long: `Look up one item, e.g. "rsdoc item tokio::sync::Mutex". Module
paths list their children; leaf items print full detail. Builds the
crate's documentation on first access.`,
	Args: cobra.ExactArgs(1),
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

		result, err := svc.GetItem(cmd.Context(), sess, itemCrate, args[0],
			index.DetailFlags{IncludeImpls: itemIncludeImpls})
		if err != nil {
			return err
		}
		fmt.Print(render.Lookup(itemCrate, args[0], result))
		return nil
	},
}

func init() {
	itemCmd.Flags().StringVar(&itemCrate, "crate", "", "crate to look in (defaults to the scoped crate)")
	itemCmd.Flags().BoolVar(&itemIncludeImpls, "impls", false, "expand trait and inherent impl blocks")
}
