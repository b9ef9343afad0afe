// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/hypeplot/core"
	"github.com/huangsam/hypeplot/internal/contract"
)

// NewMCPServer initializes and configures the HypePlot MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"HypePlot Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg:  baseCfg,
		mgr:      mgr,
		registry: core.Sources,
	}

	// --- 1. Tool: list_sources ---
	s.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List the data sources HypePlot can query, with their credential and metric columns."),
	), h.handleListSources)

	// --- 2. Tool: generate_buckets ---
	s.AddTool(mcp.NewTool("generate_buckets",
		mcp.WithDescription("Preview the time buckets that cover a year range."),
		mcp.WithNumber("start_year", mcp.Description("First year (YYYY)."), mcp.Required()),
		mcp.WithNumber("end_year", mcp.Description("Last year (YYYY)."), mcp.Required()),
		mcp.WithString("bucket", mcp.Description("Bucket width: yearly, quarterly, monthly or days:N. Defaults to yearly.")),
	), h.handleGenerateBuckets)

	// --- 3. Tool: fetch_source_counts ---
	s.AddTool(mcp.NewTool("fetch_source_counts",
		mcp.WithDescription("Fetch keyword occurrence counts from one source for every bucket of a year range. No files are written."),
		mcp.WithString("term", mcp.Description("Search term."), mcp.Required()),
		mcp.WithString("source", mcp.Description("Source name, e.g. github or arxiv."), mcp.Required()),
		mcp.WithNumber("start_year", mcp.Description("First year (YYYY)."), mcp.Required()),
		mcp.WithNumber("end_year", mcp.Description("Last year (YYYY)."), mcp.Required()),
		mcp.WithString("bucket", mcp.Description("Bucket width: yearly, quarterly, monthly or days:N.")),
	), h.handleFetchSourceCounts)

	// --- 4. Tool: run_hypeplot ---
	s.AddTool(mcp.NewTool("run_hypeplot",
		mcp.WithDescription("Run a full fetch across sources and write CSV, chart and manifest artifacts."),
		mcp.WithString("term", mcp.Description("Search term."), mcp.Required()),
		mcp.WithNumber("start_year", mcp.Description("First year (YYYY)."), mcp.Required()),
		mcp.WithNumber("end_year", mcp.Description("Last year (YYYY)."), mcp.Required()),
		mcp.WithString("sources", mcp.Description("Comma-separated sources, or all. Defaults to all.")),
		mcp.WithString("formats", mcp.Description("Comma-separated formats: csv, html, png, parquet. Defaults to csv.")),
		mcp.WithString("bucket", mcp.Description("Bucket width: yearly, quarterly, monthly or days:N.")),
		mcp.WithBoolean("topic", mcp.Description("Resolve the term to a Google Trends topic.")),
	), h.handleRunHypePlot)

	return s
}

// StartMCPServer starts the HypePlot MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
