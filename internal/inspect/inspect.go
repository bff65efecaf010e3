// Package inspect produces a diagnostic report about a fetched timetable document.
//
// When extraction fails the first question is what the upstream actually sent.
// Inspect parses the document with goquery and reports whether the container is
// present, which other tables exist, and how many rows carry times or a today
// highlight.
package inspect

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pfrederiksen/bonetider/internal/prayer"
)

var tableContext = &html.Node{Type: html.ElementNode, Data: "table", DataAtom: atom.Table}

func findContainer(doc *goquery.Document, containerID string) *goquery.Selection {
	return doc.Find("[id]").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		id, _ := sel.Attr("id")
		return id == containerID
	}).First()
}

// parseTableFragment parses document as the content of a <table> element.
func parseTableFragment(document string) (*goquery.Document, error) {
	nodes, err := html.ParseFragment(strings.NewReader(document), tableContext)
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// PreviewLength is the number of leading characters included in a report
const PreviewLength = 500

// Report describes a document
type Report struct {
	Length           int      `json:"length"`
	Preview          string   `json:"preview"`
	ContainerID      string   `json:"container_id"`
	ContainerFound   bool     `json:"container_found"`
	Rows             int      `json:"rows"`
	TimedRows        int      `json:"timed_rows"`
	TodayRows        []string `json:"today_rows,omitempty"`
	OtherTables      []string `json:"other_tables,omitempty"`
	OtherTableBodies []string `json:"other_tbodies,omitempty"`
}

// Inspect analyses document looking for the element with id containerID.
func Inspect(document, containerID string) (*Report, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	report := &Report{
		Length:      len(document),
		Preview:     preview(document),
		ContainerID: containerID,
	}

	container := findContainer(doc, containerID)
	if container.Length() == 0 {
		// A bare <tbody> or <tr> outside a table is dropped by the document
		// parser, so retry in table context.
		if fragment, err := parseTableFragment(document); err == nil {
			if found := findContainer(fragment, containerID); found.Length() > 0 {
				doc, container = fragment, found
			}
		}
	}

	if container.Length() > 0 {
		report.ContainerFound = true

		container.Find("tr").Each(func(_ int, row *goquery.Selection) {
			report.Rows++

			cells := row.Find("td")
			if cells.Length() > 1 && prayer.IsClock(strings.TrimSpace(cells.Eq(1).Text())) {
				report.TimedRows++
			}

			if row.HasClass("today") {
				report.TodayRows = append(report.TodayRows, strings.Join(cells.Map(cellText), " "))
			}
		})
	}

	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		if sel.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			id, _ := s.Attr("id")
			return id == containerID
		}).Length() > 0 {
			return
		}
		report.OtherTables = append(report.OtherTables, describe(sel))
	})

	doc.Find("tbody").Each(func(_ int, sel *goquery.Selection) {
		if id, _ := sel.Attr("id"); id == containerID {
			return
		}
		report.OtherTableBodies = append(report.OtherTableBodies, describe(sel))
	})

	return report, nil
}

func cellText(_ int, sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

// describe renders an element's opening tag the way it appears in markup.
func describe(sel *goquery.Selection) string {
	var b strings.Builder
	b.WriteString("<" + goquery.NodeName(sel))
	for _, attr := range sel.Nodes[0].Attr {
		fmt.Fprintf(&b, " %s=%q", attr.Key, attr.Val)
	}
	b.WriteString(">")
	return b.String()
}

func preview(document string) string {
	runes := []rune(document)
	if len(runes) <= PreviewLength {
		return document
	}
	return string(runes[:PreviewLength])
}

// WriteText writes a human-readable report
func (r *Report) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Response length: %d\n", r.Length)
	fmt.Fprintf(w, "First %d characters of response:\n%s\n\n", PreviewLength, r.Preview)

	if r.ContainerFound {
		fmt.Fprintf(w, "Found container with id=%q\n", r.ContainerID)
		fmt.Fprintf(w, "  Rows: %d (with times: %d)\n", r.Rows, r.TimedRows)
		if len(r.TodayRows) == 0 {
			fmt.Fprintln(w, "  No row is marked as today")
		}
		for _, row := range r.TodayRows {
			fmt.Fprintf(w, "  Today: %s\n", row)
		}
	} else {
		fmt.Fprintf(w, "Container with id=%q not found\n", r.ContainerID)
	}

	for _, t := range r.OtherTables {
		fmt.Fprintf(w, "Found other table: %s\n", t)
	}
	for _, t := range r.OtherTableBodies {
		fmt.Fprintf(w, "Found tbody: %s\n", t)
	}

	return nil
}
