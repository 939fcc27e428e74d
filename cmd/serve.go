package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/rsdoclab/rsdoc/internal/config"
	"github.com/rsdoclab/rsdoc/internal/mcp"
	"github.com/rsdoclab/rsdoc/internal/service"
)

var rootCmd = &cobra.Command{
	Use:   "rsdoc",
	Short: "Rust documentation query MCP server",
	RunE:  runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.AddCommand(cratesCmd)
	rootCmd.AddCommand(itemCmd)
	rootCmd.AddCommand(searchCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return mcp.NewServer(cfg).Run()
}

// newService builds a service for the one-shot CLI subcommands.
func newService() (*service.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return service.New(cfg), nil
}
