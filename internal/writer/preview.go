package writer

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"github.com/go-scripts/headlines/internal/types"
)

// PreviewRows is how many records Preview shows by default
const PreviewRows = 5

const headlineWidth = 60

// Preview renders the first n records as a table
func Preview(w io.Writer, records []types.HeadlineRecord, n int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Published", "Headline"})

	for i, r := range records {
		if i == n {
			break
		}
		t.AppendRow(table.Row{r.Index, r.PublishedAt, runewidth.Truncate(r.Headline, headlineWidth, "…")})
	}
	if len(records) > n {
		t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d more", len(records)-n)})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}
