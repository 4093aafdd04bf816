// Package report renders a finished run as a markdown document.
package report

// reportTemplate is the text/template used for the run report.
const reportTemplate = `# Run {{.Meta.RunID}}

| | |
|---|---|
| Status | {{.Meta.Status}} |
| Mode | {{.Meta.Mode}} |
| Target | {{code .Meta.Target}} |
{{- if .Meta.ForcedProfile}}
| Forced profile | {{.Meta.ForcedProfile}} |
{{- end}}
| Started | {{.Meta.StartedAt.Format "2006-01-02 15:04:05 MST"}} |
| Duration | {{.Duration}} |
{{- if .Meta.DryRun}}
| Dry run | yes, no files were written |
{{- end}}

## Totals

| Metric | Count |
|---|---:|
| Files scanned | {{.Meta.Stats.FilesScanned}} |
| Files matched | {{.Meta.Stats.FilesMatched}} |
| Files skipped | {{.Meta.Stats.FilesSkipped}} |
| Files modified | {{.Meta.Stats.FilesModified}} |
| File errors | {{.Meta.Stats.FileErrors}} |
| Rows seen | {{.Meta.Stats.RowsSeen}} |
| Rows updated | {{.Meta.Stats.Changes}} |
| Overflows | {{.Meta.Stats.Overflows}} |
{{if .Profiles}}
## By profile

| Profile | Rows updated | Overflows |
|---|---:|---:|
{{- range .Profiles}}
| {{.Name}} | {{.Changes}} | {{.Overflows}} |
{{- end}}
{{end}}
{{- if .Overflows}}
## Overflows

| File | Row | Width | Limit |
|---|---|---:|---:|
{{- range .Overflows}}
| {{code .File}} | {{.RowID}} | {{.Width}} | {{.Limit}} |
{{- end}}
{{- if .MoreOverflows}}

...and {{.MoreOverflows}} more, see overflow.log.
{{- end}}
{{end}}
{{- if .Errors}}
## Errors
{{range .Errors}}
- {{code .File}}: {{.Message}}
{{- end}}
{{end}}`
