package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/spend-atlas/pkg/models/domain"
)

type Format string

const (
	FormatTable Format = "table"
	FormatPlain Format = "plain"
)

type TableConfig struct {
	NameWidth        int
	ValueWidth       int
	UnitWidth        int
	DescriptionWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:        32,
		ValueWidth:       14,
		UnitWidth:        5,
		DescriptionWidth: 64,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
	format Format
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
		format: FormatTable,
	}
}

// WithFormat returns a copy of the reporter rendering in f.
func (c *Reporter) WithFormat(f Format) (*Reporter, error) {
	switch f {
	case FormatTable, FormatPlain:
	default:
		return nil, fmt.Errorf("unknown output format %q, expected %q or %q", f, FormatTable, FormatPlain)
	}
	r := *c
	r.format = f
	return &r, nil
}

const header = `
{{.Title}} ({{.Period.Duration}} days)
Period: {{.Period.Start.Format "2006-01-02"}} to {{.Period.End.Format "2006-01-02"}}
Total Amount: {{.Currency}} {{printf "%.2f" .TotalAmount}}
`

const tableTmpl = header + `{{range .Sections}}
=== {{.Title}} ===
{{range .Summary}}{{.Key}}: {{.Value}}
{{end}}{{if .Details}}
{{separator}}
{{formatRow "Name" "Value" "Unit" "Description"}}
{{separator}}
{{range .Details}}{{formatRow .Name .Value .Unit .Description}}
{{end}}{{separator}}
{{else}}(none)
{{end}}{{end}}`

const plainTmpl = header + `{{range .Sections}}
=== {{.Title}} ===
{{range .Summary}}{{.Key}}: {{.Value}}
{{end}}{{range .Details}}- {{.Name}}: {{.Value}}{{if .Unit}} {{.Unit}}{{end}}
{{if .Description}}  {{.Description}}
{{end}}{{end}}{{end}}`

func (c *Reporter) Handle(report *domain.Report) error {
	funcMap := template.FuncMap{
		"formatRow": func(name string, value interface{}, unit string, desc string) string {
			return fmt.Sprintf("| %-*s | %-*v | %-*s | %-*s |",
				c.config.NameWidth, truncate(name, c.config.NameWidth),
				c.config.ValueWidth, value,
				c.config.UnitWidth, unit,
				c.config.DescriptionWidth, truncate(desc, c.config.DescriptionWidth))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.UnitWidth+2),
				strings.Repeat("-", c.config.DescriptionWidth+2))
		},
	}

	tmpl := tableTmpl
	if c.format == FormatPlain {
		tmpl = plainTmpl
	}

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
