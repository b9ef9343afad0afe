package core

import "github.com/huangsam/hypeplot/internal/source"

// Sources is the registry used by the CLI and the MCP server.
var Sources = source.NewRegistry()

// displayNames are the headings used in progress output and chart titles.
var displayNames = map[string]string{
	"arxiv":    "arXiv preprint",
	"github":   "GitHub repository",
	"grants":   "NSF grant",
	"news":     "News article",
	"packages": "Package registry",
	"patents":  "Patent filing",
	"reddit":   "Reddit discussion",
	"scholar":  "Google Scholar",
	"trends":   "Google Trends",
	"twitter":  "Twitter/X mention",
	"youtube":  "YouTube video",
}

func displayName(source string) string {
	if name, ok := displayNames[source]; ok {
		return name
	}
	return source
}
