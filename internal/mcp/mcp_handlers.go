package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/hypeplot/core"
	"github.com/huangsam/hypeplot/internal/bucket"
	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/source"
	"github.com/huangsam/hypeplot/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg  *contract.Config
	mgr      contract.CacheManager
	registry *source.Registry
}

type sourceView struct {
	Name         string          `json:"name"`
	Credential   string          `json:"credential,omitempty"`
	DelaySeconds float64         `json:"delay_seconds"`
	Columns      []schema.Column `json:"columns"`
}

type bucketView struct {
	Period    string `json:"period"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

type rowView struct {
	Period    string         `json:"period"`
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Metrics   schema.Metrics `json:"metrics"`
}

type countsView struct {
	Term     string           `json:"term"`
	Source   string           `json:"source"`
	Bucket   string           `json:"bucket"`
	Columns  []schema.Column  `json:"columns"`
	Rows     []rowView        `json:"rows"`
	Report   core.FetchReport `json:"report"`
	Warnings int              `json:"warnings"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// rawInput maps the common tool arguments onto the CLI's raw config input.
func rawInput(request mcp.CallToolRequest) *contract.ConfigRawInput {
	return &contract.ConfigRawInput{
		TermStr:  request.GetString("term", ""),
		StartStr: strconv.Itoa(request.GetInt("start_year", 0)),
		EndStr:   strconv.Itoa(request.GetInt("end_year", 0)),
		Bucket:   request.GetString("bucket", ""),
		Source:   request.GetString("sources", request.GetString("source", "")),
		Format:   request.GetString("formats", ""),
		Topic:    request.GetBool("topic", false),
	}
}

func (h *toolHandler) handleListSources(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := h.registry.Describe()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list sources failed: %v", err)), nil
	}
	views := make([]sourceView, 0, len(infos))
	for _, info := range infos {
		views = append(views, sourceView{
			Name:         info.Name,
			Credential:   info.Credential,
			DelaySeconds: info.Delay.Seconds(),
			Columns:      info.Columns,
		})
	}
	return jsonResult(views)
}

func (h *toolHandler) handleGenerateBuckets(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input := rawInput(request)
	start, err := contract.ParseYear(input.StartStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid start_year: %v", err)), nil
	}
	end, err := contract.ParseYear(input.EndStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid end_year: %v", err)), nil
	}
	spec := input.Bucket
	if spec == "" {
		spec = contract.DefaultBucket
	}
	w, err := bucket.Parse(spec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid bucket: %v", err)), nil
	}

	buckets, err := bucket.Collect(start, end, w)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	views := make([]bucketView, 0, len(buckets))
	for _, b := range buckets {
		views = append(views, bucketView{
			Period:    b.Label,
			StartDate: schema.FormatDate(b.Start),
			EndDate:   schema.FormatDate(b.End),
			Days:      b.Days(),
		})
	}
	return jsonResult(views)
}

func (h *toolHandler) handleFetchSourceCounts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	input := rawInput(request)
	if input.Source == "" || input.Source == contract.AllSources {
		return mcp.NewToolResultError("source is required and must name a single source"), nil
	}
	if err := contract.RevalidateFetch(cfg, h.registry, input); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if len(cfg.Sources) != 1 {
		return mcp.NewToolResultError("source must name a single source"), nil
	}
	name := cfg.Sources[0]

	src, err := h.registry.New(name, source.OptionsFromConfig(cfg))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("source %s: %v", name, err)), nil
	}

	fetcher := &core.RangeFetcher{Refresh: cfg.Refresh}
	if h.mgr != nil {
		fetcher.Cache = h.mgr.GetFetchStore()
	}
	rows, report, err := fetcher.FetchWithReport(ctx, src, cfg.Term, cfg.StartYear, cfg.EndYear, cfg.Bucket)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetch failed: %v", err)), nil
	}

	view := countsView{
		Term:     cfg.Term,
		Source:   name,
		Bucket:   cfg.Bucket.String(),
		Columns:  src.Columns(),
		Rows:     make([]rowView, 0, len(rows)),
		Report:   report,
		Warnings: report.Warnings,
	}
	for _, r := range rows {
		view.Rows = append(view.Rows, rowView{
			Period:    r.Period,
			StartDate: schema.FormatDate(r.StartDate),
			EndDate:   schema.FormatDate(r.EndDate),
			Metrics:   r.Metrics,
		})
	}
	return jsonResult(view)
}

func (h *toolHandler) handleRunHypePlot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := contract.RevalidateFetch(cfg, h.registry, rawInput(request)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	cfg.OpenBrowser = false

	orch := core.NewOrchestrator(h.mgr)
	orch.Registry = h.registry
	manifest, err := orch.Run(core.WithQuiet(ctx), cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run failed: %v", err)), nil
	}
	return jsonResult(manifest)
}
