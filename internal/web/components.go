package web

// components.go holds the templ components for the table UI. They receive
// a fully computed table.View and only turn it into markup.

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvtable/internal/table"
)

// PageData is everything the full page needs.
type PageData struct {
	Tables []table.Info
	Active table.Info
	Status LoadStatus
	View   table.View
}

// esc is shorthand for templ.EscapeString.
func esc(s string) string { return templ.EscapeString(s) }

// tablePath builds an escaped path under /table/{key}.
func tablePath(key string, parts ...string) string {
	p := "/table/" + url.PathEscape(key)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// Page renders the whole document around TablePartial.
func Page(d PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		fmt.Fprintf(&b, `<title>%s</title>`, esc(d.Active.Label))
		b.WriteString(`<link rel="stylesheet" href="/static/table.css">`)
		b.WriteString(`<script src="/static/table.js" defer></script></head><body>`)

		b.WriteString(`<nav class="tables"><ul>`)
		for _, info := range d.Tables {
			class := ""
			if info.Key == d.Active.Key {
				class = ` class="active"`
			}
			fmt.Fprintf(&b, `<li%s><a href="%s">%s</a></li>`, class, esc(tablePath(info.Key)), esc(info.Label))
		}
		b.WriteString(`</ul></nav>`)

		fmt.Fprintf(&b, `<main><h1>%s</h1><div id="table-root">`, esc(d.Active.Label))
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := TablePartial(d.Active.Key, d.Status, d.View).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div></main></body></html>`)
		return err
	})
}

// TablePartial renders the search box, the table and the page links. It
// is the fragment swapped into #table-root after each interaction.
func TablePartial(key string, status LoadStatus, v table.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		fmt.Fprintf(&b, `<form class="search" method="post" action="%s" data-swap>`, esc(tablePath(key, "filter")))
		fmt.Fprintf(&b, `<input id="search-input" type="search" name="q" value="%s" placeholder="Search">`, esc(v.Filter.Query))
		b.WriteString(`<button type="submit">Search</button></form>`)

		switch status {
		case StatusPending:
			b.WriteString(`<p class="notice">Loading data…</p>`)
		case StatusFailed:
			b.WriteString(`<p class="notice error">The data file could not be read.</p>`)
		}
		if v.Filter.Query != "" {
			fmt.Fprintf(&b, `<p class="matches">%d matching rows</p>`, v.Filter.MatchCount)
		}

		b.WriteString(`<table class="table table-striped"><thead><tr>`)
		for _, h := range v.Headers {
			fmt.Fprintf(&b, `<th class="%s">`, esc(joinClasses(h.Class, h.SortClass)))
			fmt.Fprintf(&b, `<form method="post" action="%s" data-swap>`, esc(tablePath(key, "sort", h.Name)))
			fmt.Fprintf(&b, `<button type="submit" class="sort">%s</button></form></th>`, esc(h.Label))
		}
		b.WriteString(`</tr></thead><tbody>`)
		for _, row := range v.Rows {
			fmt.Fprintf(&b, `<tr data-index="%d">`, row.Index)
			for _, c := range row.Cells {
				fmt.Fprintf(&b, `<td class="%s">`, esc(c.Class))
				if c.Title != "" {
					fmt.Fprintf(&b, `<abbr title="%s">%s</abbr>`, esc(c.Title), esc(c.Text))
				} else {
					b.WriteString(esc(c.Text))
				}
				b.WriteString(`</td>`)
			}
			b.WriteString(`</tr>`)
		}
		b.WriteString(`</tbody></table>`)

		writePagination(&b, key, v)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writePagination(b *strings.Builder, key string, v table.View) {
	b.WriteString(`<nav class="pagination"><ul>`)
	for _, link := range v.Links {
		var classes []string
		if link.Current {
			classes = append(classes, "active")
		}
		if !link.Enabled {
			classes = append(classes, "disabled")
		}
		fmt.Fprintf(b, `<li class="%s">`, esc(strings.Join(classes, " ")))
		fmt.Fprintf(b, `<form method="post" action="%s" data-swap>`, esc(tablePath(key, "page", strconv.Itoa(link.Index))))
		disabled := ""
		if !link.Enabled {
			disabled = " disabled"
		}
		fmt.Fprintf(b, `<button type="submit" data-kind="%s"%s>%s</button></form></li>`, esc(string(link.Kind)), disabled, esc(link.Label))
	}
	b.WriteString(`</ul>`)
	if v.Page.TotalRows > 0 {
		fmt.Fprintf(b, `<p class="range">Rows %d-%d of %d</p>`, v.Page.FirstRowIndex+1, v.Page.LastRowIndex, v.Page.TotalRows)
	}
	b.WriteString(`</nav>`)
}

// ErrorAlert renders a dismissible error fragment.
func ErrorAlert(msg UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert alert-error" role="alert"><strong>%s</strong> <span>%s</span> <code>%s</code></div>`,
			esc(msg.Message), esc(msg.Action), esc(msg.Code))
		return err
	})
}

func joinClasses(classes ...string) string {
	var out []string
	for _, c := range classes {
		if c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, " ")
}
