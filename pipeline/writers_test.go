package pipeline

import (
	"bufio"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/cnki-crawler/models"
	"github.com/google/go-cmp/cmp"
)

var testHeader = []string{"title", "source", "note"}

func TestCSVWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "records.csv")

	writer, err := NewCSVWriter(path, testHeader)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := writer.Write([][]string{{"标题", "期刊", "a,b"}}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := [][]string{testHeader, {"标题", "期刊", "a,b"}}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("csv (-want +got):\n%s", diff)
	}
}

func TestJSONWriterKeepsHeaderOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")

	writer, err := NewJSONWriter(path, testHeader)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := writer.Write([][]string{{"T1", "S1", "<b>"}, {"T2"}}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	want := []string{
		`{"title":"T1","source":"S1","note":"<b>"}`,
		`{"title":"T2","source":"","note":""}`,
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("jsonl (-want +got):\n%s", diff)
	}
}

func TestJSONWriterValidateEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	writer, err := NewJSONWriter(path, testHeader)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}
	if err := writer.Validate(); err == nil {
		t.Fatalf("expected empty json file to fail validation")
	}
}

func TestDualWriterWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	writer, err := CreateWriter("dual", filepath.Join(dir, "listing.csv"), testHeader)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	if err := writer.Write([][]string{{"T", "S", "N"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, name := range []string{"listing.csv", "listing.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestCreateWriterUnsupported(t *testing.T) {
	if _, err := CreateWriter("parquet", filepath.Join(t.TempDir(), "x"), testHeader); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestExportRecordsRoundTripXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.xlsx")
	header := []string{"id", models.ColumnTitle, models.ColumnSource}

	enriched := models.NewRecord(header, []string{"1", "Found", "Journal A"})
	enriched.Enrich(models.DetailMetadata{Authors: []string{"张三", "李四"}, AuthorCount: 2, ReleaseDate: "2021-03-05"})
	missing := models.NewRecord(header, []string{"2", "Missing", "Journal B"})

	if err := ExportRecords("xlsx", path, []*models.Record{enriched, missing}); err != nil {
		t.Fatalf("export: %v", err)
	}

	records, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	wantColumns := []string{"id", "title", "source", "authors", "author_count", "release_date"}
	if diff := cmp.Diff(wantColumns, records[0].Columns); diff != "" {
		t.Fatalf("columns (-want +got):\n%s", diff)
	}
	if got := records[0].Get(models.ColumnAuthors); got != "张三,李四" {
		t.Fatalf("authors=%q", got)
	}
	if got := records[0].Get(models.ColumnAuthorCount); got != "2" {
		t.Fatalf("author_count=%q", got)
	}
	if got := records[1].Get(models.ColumnAuthors); got != "" {
		t.Fatalf("unenriched record should have empty authors, got %q", got)
	}
	if got := records[1].Title(); got != "Missing" {
		t.Fatalf("order not preserved: second title=%q", got)
	}
}

func TestReadRecordsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	content := "\ufefftitle,source\nA,S1\n,\nB,S2,extra\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	records, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2 (blank row skipped)", len(records))
	}
	if records[0].Title() != "A" || records[1].Source() != "S2" {
		t.Fatalf("unexpected records: %+v %+v", records[0], records[1])
	}
}

func TestReadRecordsErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "missing file", path: filepath.Join(dir, "absent.xlsx"), want: "open xlsx"},
		{name: "unsupported", path: filepath.Join(dir, "input.txt"), want: "unsupported input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRecords(tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err=%v, want containing %q", err, tt.want)
			}
		})
	}
}
