package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/iocache"
	"github.com/huangsam/hypeplot/internal/mcp"
)

// baseSetup validates everything but the fetch inputs. Each MCP tool call
// supplies its own term, years and sources.
func baseSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := contract.ProcessBase(cfg, input); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the HypePlot MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents list sources, preview
buckets, fetch counts and run full HypePlot jobs via standard tools.`,
	// Progress and summaries are suppressed per tool call so stdio stays
	// reserved for the protocol.
	PreRunE: baseSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
