package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rsdoclab/rsdoc/internal/render"
	"github.com/rsdoclab/rsdoc/internal/search"
	"github.com/rsdoclab/rsdoc/internal/service"
	"github.com/rsdoclab/rsdoc/internal/workspace"
)

var (
	searchCrate string
	searchKind  string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search documentation by name, path or doc text",
	Args:  cobra.ExactArgs(1),
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

		searchKind := search.NormalizeKind(searchKind)
		if searchKind != "" && !search.Kinds[searchKind] {
			return fmt.Errorf("unknown kind %q", searchKind)
		}

		// A one-shot CLI run starts with empty caches; index the
		// target crates first so the query has something to read.
		if searchCrate != "" {
			if err := svc.EnsureIndexed(cmd.Context(), sess, searchCrate); err != nil {
				return err
			}
		} else {
			listing, err := svc.ListCrates(cmd.Context(), sess, workspace.ListOptions{})
			if err != nil {
				return err
			}
			for _, crate := range listing.Crates {
				if err := svc.EnsureIndexed(cmd.Context(), sess, crate.Name); err != nil {
					return err
				}
			}
		}

		q := service.SearchQuery{
			Crate: searchCrate,
			Query: search.Query{Text: args[0], Kind: searchKind, Limit: searchLimit},
		}
		results, err := svc.Search(cmd.Context(), sess, q)
		if err != nil {
			return err
		}
		fmt.Print(render.SearchResults(args[0], results.Collect()))
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchCrate, "crate", "", "crate to search in (defaults to the scoped crate)")
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "restrict to one item kind, e.g. struct, trait, function")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum number of results")
}
