package onenote

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"okeears-server/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

type PatchAction string

const (
	ActionAppend  PatchAction = "append"
	ActionReplace PatchAction = "replace"
)

// Reserved patch targets. "body" is the first div on the page.
const (
	TargetBody  = "body"
	TargetTitle = "title"
)

// PatchOperation is one entry of a page content PATCH. The store applies
// operations in order.
type PatchOperation struct {
	Target  string      `json:"target"`
	Action  PatchAction `json:"action"`
	Content string      `json:"content"`
}

func appendTo(target, content string) PatchOperation {
	return PatchOperation{Target: target, Action: ActionAppend, Content: content}
}

func replace(target, content string) PatchOperation {
	return PatchOperation{Target: target, Action: ActionReplace, Content: content}
}

func nodeID(sel *goquery.Selection) (string, error) {
	id, ok := sel.Attr("id")
	if !ok || id == "" {
		return "", fmt.Errorf("%w: <%s>", ErrMissingNodeID, goquery.NodeName(sel))
	}
	return id, nil
}

func renderKeyResultItems(krs []domain.KeyResult) string {
	if len(krs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<ul>")
	for _, kr := range krs {
		fmt.Fprintf(&b, `<li data-id="%s">%s</li>`, html.EscapeString(kr.ID), html.EscapeString(kr.Statement))
	}
	b.WriteString("</ul>")
	return b.String()
}

func renderObjectiveItem(obj *domain.Objective) string {
	return fmt.Sprintf(`<li data-id="%s"><p>%s</p>%s</li>`,
		html.EscapeString(obj.ID), html.EscapeString(obj.Statement), renderKeyResultItems(obj.KeyResults))
}

// BuildCreateObjectiveList appends obj to the page's objective list. The
// first objective on a page also creates the list. doc may be nil for a page
// that was just created from the template.
func BuildCreateObjectiveList(doc *goquery.Document, obj *domain.Objective) ([]PatchOperation, error) {
	item := renderObjectiveItem(obj)

	if doc == nil {
		return []PatchOperation{appendTo(TargetBody, "<ul>"+item+"</ul>")}, nil
	}

	list := objectiveListNode(doc)
	if list.Length() == 0 {
		return []PatchOperation{appendTo(TargetBody, "<ul>"+item+"</ul>")}, nil
	}

	id, err := nodeID(list)
	if err != nil {
		return nil, err
	}
	return []PatchOperation{appendTo(id, item)}, nil
}

// BuildUpdateObjectiveList rewrites one objective item. Replacing a node
// that still has children makes the store copy those children next to the
// replacement, so the existing key results are emptied first (deepest rows
// first), then their list, and only then the item itself. The order matters.
func BuildUpdateObjectiveList(doc *goquery.Document, obj *domain.Objective) ([]PatchOperation, error) {
	item := objectiveItem(doc, obj.ID)
	if item.Length() == 0 {
		return nil, fmt.Errorf("%w: objective %s", ErrNotFound, obj.ID)
	}
	itemID, err := nodeID(item)
	if err != nil {
		return nil, err
	}

	var ops []PatchOperation

	if sub := item.Find("ul, ol").First(); sub.Length() > 0 {
		subID, err := nodeID(sub)
		if err != nil {
			return nil, err
		}

		type row struct {
			id    string
			depth int
		}
		var rows []row
		var rowErr error
		sub.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
			id, err := nodeID(li)
			if err != nil {
				rowErr = err
				return false
			}
			rows = append(rows, row{id: id, depth: li.ParentsUntilSelection(sub).Length()})
			return true
		})
		if rowErr != nil {
			return nil, rowErr
		}

		sort.SliceStable(rows, func(i, j int) bool { return rows[i].depth > rows[j].depth })
		for _, r := range rows {
			ops = append(ops, replace(r.id, "<li></li>"))
		}
		ops = append(ops, replace(subID, "<"+goquery.NodeName(sub)+"></"+goquery.NodeName(sub)+">"))
	}

	ops = append(ops, replace(itemID, renderObjectiveItem(obj)))
	return ops, nil
}

// BuildDeleteObjectiveList empties the objective's item. The store drops
// empty nodes, which is the only way to delete content.
func BuildDeleteObjectiveList(doc *goquery.Document, objectiveID string) ([]PatchOperation, error) {
	item := objectiveItem(doc, objectiveID)
	if item.Length() == 0 {
		return nil, fmt.Errorf("%w: objective %s", ErrNotFound, objectiveID)
	}
	id, err := nodeID(item)
	if err != nil {
		return nil, err
	}
	return []PatchOperation{replace(id, "<li></li>")}, nil
}

// RenderKeyResultTable serialises key results as the table of an objective
// page. The header row keeps the table present when there are no key results.
func RenderKeyResultTable(krs []domain.KeyResult) string {
	var b strings.Builder
	b.WriteString(`<table border="1">`)
	b.WriteString(`<tr data-id="` + headerRowID + `"><th>Key result</th><th>Progress</th><th>Notes</th></tr>`)
	for _, kr := range krs {
		fmt.Fprintf(&b, `<tr data-id="%s"><td>%s</td><td>%s</td><td>%s</td></tr>`,
			html.EscapeString(kr.ID),
			html.EscapeString(kr.Statement),
			strconv.Itoa(kr.Percent)+"%",
			html.EscapeString(kr.Description))
	}
	b.WriteString("</table>")
	return b.String()
}

// BuildUpdateObjectiveTable rewrites a table layout page: the title holds the
// statement and the body holds the key result table.
func BuildUpdateObjectiveTable(obj *domain.Objective) []PatchOperation {
	return []PatchOperation{
		replace(TargetTitle, html.EscapeString(obj.Statement)),
		replace(TargetBody, RenderKeyResultTable(obj.KeyResults)),
	}
}

// RenderObjectivePage is the XHTML of a new table layout page.
func RenderObjectivePage(obj *domain.Objective) string {
	return "<!DOCTYPE html><html><head><title>" + html.EscapeString(obj.Statement) + "</title></head>" +
		"<body><div>" + RenderKeyResultTable(obj.KeyResults) + "</div></body></html>"
}

// RenderListPage is the XHTML of a new, empty list layout page.
func RenderListPage(title string) string {
	return "<!DOCTYPE html><html><head><title>" + html.EscapeString(title) + "</title></head>" +
		"<body><div></div></body></html>"
}
