package site

import (
	"html/template"
	"path"
	"strings"
)

type pageData struct {
	Topics []Topic
	Prefix string
}

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"href": func(prefix, rel string) string {
		if prefix == "" || prefix == "." {
			return rel
		}
		return path.Join(prefix, rel)
	},
	"title": FormatTopicName,
	"join":  strings.Join,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>HypePlot Showcase</title>
    <style>
        body { font-family: sans-serif; margin: 0 auto; max-width: 960px; padding: 0 16px; }
        .showcase-card { border: 1px solid #ddd; border-radius: 8px; margin: 16px 0; padding: 12px 16px; }
        .button { display: inline-block; margin: 4px; padding: 6px 12px; border-radius: 4px; text-decoration: none; }
        .primary { background: #1f6feb; color: #fff; }
        .secondary { background: #eaeef2; color: #24292f; }
        .disabled { background: #f6f8fa; color: #8c959f; }
    </style>
</head>
<body>
    <header>
        <h1>📊 HypePlot</h1>
        <p>Keyword occurrence counts across web sources, bucketed over time.</p>
    </header>
    <main>
        <h2>📚 Showcase Examples</h2>
        {{- if not .Topics}}
        <p>No outputs yet. Run <code>hypeplot &lt;term&gt; &lt;start&gt; &lt;end&gt; plot</code> to generate some.</p>
        {{- end}}
        {{- $prefix := .Prefix}}
        {{- range .Topics}}
        <div class="showcase-card">
            <h3>{{.Display}}</h3>
            <p class="chart-description">Data from {{join .SourceNames ", "}} sources</p>
            <div class="button-group">
                {{- range .Sources}}
                {{- if .HTML}}
                <a href="{{href $prefix .HTML}}" class="button primary">{{title .Name}} Chart</a>
                {{- else if .CSV}}
                <span class="button disabled" title="Visualization not generated">{{title .Name}} (CSV only)</span>
                {{- end}}
                {{- end}}
                {{- if .HasCSV}}
                <br>
                {{- range .Sources}}
                {{- if .CSV}}
                <a href="{{href $prefix .CSV}}" class="button secondary" download>{{title .Name}} CSV</a>
                {{- end}}
                {{- end}}
                {{- end}}
            </div>
        </div>
        {{- end}}
    </main>
</body>
</html>
`
