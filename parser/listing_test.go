package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const listingSnapshot = `<tbody>
<tr>
  <td class="seq">1</td>
  <td class="name"><a href="/kcms2/article/abstract?v=abc" target="_blank"> 图书情报 研究 </a></td>
  <td class="author"><a href="/kcms2/author/detail?v=a1">张三</a>; <a href="/kcms2/author/detail?v=a2">李四</a></td>
  <td class="source"><a href="https://navi.cnki.net/knavi/journals/TSQB">图书情报工作</a></td>
  <td class="date">2021-05-06</td>
  <td class="data">期刊</td>
  <td class="quote"><a href="/kcms2/ref?v=abc">1,024</a></td>
  <td class="download"><a href="javascript:void(0)">37</a></td>
</tr>
<tr>
  <td class="seq">2</td>
  <td class="name"><a href="/kcms2/article/abstract?v=def">Second</a></td>
  <td class="author">王五;赵六</td>
  <td class="source">Some Journal</td>
  <td class="date"> 2020-01-01 </td>
  <td class="quote"></td>
  <td class="download">5</td>
</tr>
</tbody>`

func TestExtractListingRows(t *testing.T) {
	rows, err := ExtractListingRows("https://kns.cnki.net/kns8s/defaultresult/index", listingSnapshot, 2)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(rows))
	}

	first := rows[0]
	if first.Title != "图书情报 研究" {
		t.Fatalf("title=%q", first.Title)
	}
	if first.ArticleURL != "https://kns.cnki.net/kcms2/article/abstract?v=abc" {
		t.Fatalf("article url=%q", first.ArticleURL)
	}
	if diff := cmp.Diff([]string{"张三", "李四"}, first.Authors); diff != "" {
		t.Fatalf("authors (-want +got):\n%s", diff)
	}
	if first.AuthorURLs[1] != "https://kns.cnki.net/kcms2/author/detail?v=a2" {
		t.Fatalf("author url=%q", first.AuthorURLs[1])
	}
	if first.Source != "图书情报工作" || first.SourceURL != "https://navi.cnki.net/knavi/journals/TSQB" {
		t.Fatalf("source=%q url=%q", first.Source, first.SourceURL)
	}
	if first.ReferenceCount != 1024 || first.ReferenceURL != "https://kns.cnki.net/kcms2/ref?v=abc" {
		t.Fatalf("reference=%d url=%q", first.ReferenceCount, first.ReferenceURL)
	}
	if first.DownloadCount != 37 || first.DownloadURL != "" {
		t.Fatalf("download=%d url=%q", first.DownloadCount, first.DownloadURL)
	}
	if first.Page != 2 || first.Index != 0 || first.ScrapedAt.IsZero() {
		t.Fatalf("position page=%d index=%d scraped=%v", first.Page, first.Index, first.ScrapedAt)
	}

	second := rows[1]
	if diff := cmp.Diff([]string{"王五", "赵六"}, second.Authors); diff != "" {
		t.Fatalf("plain-text authors (-want +got):\n%s", diff)
	}
	if second.ReleaseDate != "2020-01-01" || second.ReferenceCount != 0 || second.DownloadCount != 5 {
		t.Fatalf("second row: %+v", second)
	}
	if second.Index != 1 {
		t.Fatalf("second index=%d", second.Index)
	}
}

func TestExtractListingRowsEmptyBody(t *testing.T) {
	rows, err := ExtractListingRows("https://kns.cnki.net/", "<tbody></tbody>", 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows=%d, want 0", len(rows))
	}
}

func TestExtractListingRowsBadURL(t *testing.T) {
	if _, err := ExtractListingRows("://bad", "<tbody></tbody>", 0); err == nil {
		t.Fatalf("expected url parse error")
	}
}
