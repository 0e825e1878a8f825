package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aluiziolira/cnki-crawler/models"
	"github.com/jedib0t/go-pretty/v6/table"
)

func printBatchSummary(w io.Writer, result *models.BatchResult, outputFile string) {
	duration := result.EndTime.Sub(result.StartTime)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Enrichment complete")
	t.AppendRows([]table.Row{
		{"Records", len(result.Records)},
		{"Enriched", result.Enriched},
		{"Failed", result.Failed},
		{"Canceled", result.Canceled},
		{"Duration", duration.Round(time.Millisecond)},
		{"Output file", outputFile},
	})
	for _, label := range sortedKeys(result.ErrorsByType) {
		t.AppendRow(table.Row{"Errors: " + label, result.ErrorsByType[label]})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	if result.Failed == 0 {
		return
	}
	failures := table.NewWriter()
	failures.SetOutputMirror(w)
	failures.AppendHeader(table.Row{"#", "Title", "Reason"})
	for _, o := range result.Outcomes {
		if o.Status != models.StatusFailed {
			continue
		}
		failures.AppendRow(table.Row{o.Index + 1, result.Records[o.Index].Title(), o.Reason})
	}
	failures.SetStyle(table.StyleRounded)
	failures.Render()
}

func printTopicSummary(w io.Writer, result *models.TopicResult, metrics map[string]interface{}, outputFile string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Topic %q", result.Topic))
	t.AppendRows([]table.Row{
		{"Total results", result.Summary.TotalCount},
		{"Total pages", result.Summary.TotalPages},
		{"Pages visited", result.PagesVisited},
		{"Rows extracted", result.RowCount},
	})
	if processed, ok := metrics["processed_rows"].(int64); ok {
		t.AppendRow(table.Row{"Rows written", processed})
	}
	if validation, ok := metrics["validation_errors"].(map[string]int); ok {
		for _, kind := range sortedKeys(validation) {
			t.AppendRow(table.Row{"Skipped: " + kind, validation[kind]})
		}
	}
	if result.Canceled {
		t.AppendRow(table.Row{"Canceled", true})
	}
	t.AppendRow(table.Row{"Duration", result.EndTime.Sub(result.StartTime).Round(time.Millisecond)})
	t.AppendRow(table.Row{"Output file", outputFile})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(result.PageErrors) == 0 {
		return
	}
	pages := make([]int, 0, len(result.PageErrors))
	for page := range result.PageErrors {
		pages = append(pages, page)
	}
	sort.Ints(pages)

	errs := table.NewWriter()
	errs.SetOutputMirror(w)
	errs.AppendHeader(table.Row{"Page", "Error"})
	for _, page := range pages {
		errs.AppendRow(table.Row{page + 1, result.PageErrors[page]})
	}
	errs.SetStyle(table.StyleRounded)
	errs.Render()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
