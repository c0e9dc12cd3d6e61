// Package render builds the plain-text WhatsApp message bodies: numbered
// menus, product cards and prices. Everything here is pure.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	currency = "$"
	// es-CO grouping: "." thousands, "," decimals, no decimal digits.
	priceFormat = "#.###,"
)

// Option is a control entry appended after the numbered items, e.g. {"0", "Cancelar"}.
type Option struct {
	Key   string
	Label string
}

// Menu renders labels as a 1-based numbered list, followed by a blank line and
// the control options. header, when non-empty, goes on the first line.
func Menu(header string, labels []string, controls ...Option) string {
	items := make([]string, len(labels))
	for i, l := range labels {
		items[i] = fmt.Sprintf("%d. %s", i+1, l)
	}
	body := joinBlocks(strings.Join(items, "\n"), controlBlock(controls))
	if header == "" {
		return body
	}
	return header + "\n" + body
}

// ProductCard renders "*name variant*" and the price on the next line.
func ProductCard(name, variant, price string) string {
	title := name
	if variant != "" {
		title += " " + variant
	}
	return "*" + title + "*\n" + price
}

// ProductList joins cards under a bold title and appends the control options.
func ProductList(title string, cards []string, controls ...Option) string {
	return "*" + title + "*\n\n" + joinBlocks(strings.Join(cards, "\n\n"), controlBlock(controls))
}

// Price keeps only the digits of raw and renders them as a grouped integer
// amount, e.g. "12345abc" → "$ 12.345". No digits renders as "".
func Price(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return ""
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// overflow: show the digits ungrouped rather than a wrong amount
		return currency + " " + strings.TrimLeftFunc(digits, func(r rune) bool { return r == '0' })
	}
	return currency + " " + humanize.FormatInteger(priceFormat, int(n))
}

// Date renders t as dd/mm/yyyy.
func Date(t time.Time) string {
	return t.Format("02/01/2006")
}

func controlBlock(controls []Option) string {
	lines := make([]string, len(controls))
	for i, c := range controls {
		lines[i] = c.Key + ". " + c.Label
	}
	return strings.Join(lines, "\n")
}

// joinBlocks separates the non-empty blocks with a blank line.
func joinBlocks(blocks ...string) string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b != "" {
			out = append(out, b)
		}
	}
	return strings.Join(out, "\n\n")
}
