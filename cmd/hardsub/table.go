package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// listing builds the rounded tables printed by the catalog and history
// commands. Column numbers are 1-based, as in go-pretty.
type listing struct {
	tw      table.Writer
	columns int
	configs map[int]table.ColumnConfig
}

func newListing(headers ...string) *listing {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return &listing{tw: tw, columns: len(headers), configs: map[int]table.ColumnConfig{}}
}

// row appends cells, padding or truncating to the header width.
func (l *listing) row(cells ...string) {
	r := make(table.Row, l.columns)
	for i := range l.columns {
		if i < len(cells) {
			r[i] = cells[i]
		} else {
			r[i] = ""
		}
	}
	l.tw.AppendRow(r)
}

func (l *listing) separator() {
	l.tw.AppendSeparator()
}

func (l *listing) alignRight(columns ...int) {
	for _, n := range columns {
		cfg := l.config(n)
		cfg.Align = text.AlignRight
		l.configs[n] = cfg
	}
}

// merge collapses repeated adjacent values in columns into one cell.
func (l *listing) merge(columns ...int) {
	for _, n := range columns {
		cfg := l.config(n)
		cfg.AutoMerge = true
		l.configs[n] = cfg
	}
}

func (l *listing) config(n int) table.ColumnConfig {
	if cfg, ok := l.configs[n]; ok {
		return cfg
	}
	return table.ColumnConfig{Number: n, AlignHeader: text.AlignLeft}
}

func (l *listing) render() string {
	if l.columns == 0 {
		return ""
	}
	configs := make([]table.ColumnConfig, 0, len(l.configs))
	for n := 1; n <= l.columns; n++ {
		if cfg, ok := l.configs[n]; ok {
			configs = append(configs, cfg)
		}
	}
	l.tw.SetColumnConfigs(configs)
	return l.tw.Render()
}
