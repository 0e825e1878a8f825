package parser

import (
	"strings"
	"testing"

	"github.com/aluiziolira/cnki-crawler/models"
)

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *models.Record
		wantErr bool
	}{
		{
			name:   "valid record",
			record: models.NewRecord([]string{"title", "source"}, []string{"A", "S1"}),
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: true,
		},
		{
			name:    "missing title",
			record:  models.NewRecord([]string{"title", "source"}, []string{"  ", "S1"}),
			wantErr: true,
		},
		{
			name:    "missing source column",
			record:  models.NewRecord([]string{"title"}, []string{"A"}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCleanAuthorName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "footnote marker", input: "张三1", expected: "张三"},
		{name: "footnote list", input: "李四1,2", expected: "李四"},
		{name: "latin name with space", input: " Wang Wu 3 ", expected: "Wang Wu"},
		{name: "no marker", input: "赵六", expected: "赵六"},
		{name: "only marker", input: "12", expected: ""},
		{name: "fullwidth separator", input: "孙七2，3", expected: "孙七"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanAuthorName(tt.input)
			if got != tt.expected {
				t.Fatalf("CleanAuthorName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			if again := CleanAuthorName(got); again != got {
				t.Fatalf("CleanAuthorName not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestBuildDetailMetadata(t *testing.T) {
	meta := BuildDetailMetadata([]string{"张三1", "李四2", "3", "Wang Wu"}, "  2021-05-06 ")

	if meta.AuthorCount != 3 {
		t.Fatalf("author count = %d, want 3", meta.AuthorCount)
	}
	if got := meta.AuthorsField(); got != "张三,李四,Wang Wu" {
		t.Fatalf("authors = %q", got)
	}
	if got := len(strings.Split(meta.AuthorsField(), ",")); got != meta.AuthorCount {
		t.Fatalf("split length %d != author count %d", got, meta.AuthorCount)
	}
	if meta.ReleaseDate != "2021-05-06" {
		t.Fatalf("release date = %q", meta.ReleaseDate)
	}
}

func TestParsePageMark(t *testing.T) {
	tests := []struct {
		input       string
		wantCurrent int
		wantTotal   int
		wantErr     bool
	}{
		{input: "3/120", wantCurrent: 3, wantTotal: 120},
		{input: "1/1", wantCurrent: 1, wantTotal: 1},
		{input: " 2 / 7 ", wantCurrent: 2, wantTotal: 7},
		{input: "120", wantErr: true},
		{input: "a/b", wantErr: true},
		{input: "1/2/3", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			current, total, err := ParsePageMark(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePageMark(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if current != tt.wantCurrent || total != tt.wantTotal {
				t.Fatalf("ParsePageMark(%q) = %d/%d, want %d/%d", tt.input, current, total, tt.wantCurrent, tt.wantTotal)
			}
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{input: "12,345", expected: 12345},
		{input: " 7 ", expected: 7},
		{input: "", expected: 0},
		{input: "—", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseCount(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseCount(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.expected {
			t.Fatalf("ParseCount(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}
