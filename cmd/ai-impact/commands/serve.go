package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ai-impact/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info().Msg("MCP Server starting Stdio loop")
		server := mcp.NewServer(phases, store)
		return server.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
