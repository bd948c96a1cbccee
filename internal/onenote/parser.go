package onenote

import (
	"strconv"
	"strings"

	"okeears-server/internal/domain"
	"okeears-server/pkg/shortid"

	"github.com/PuerkitoBio/goquery"
)

const dataIDAttr = "data-id"

// headerRowID marks the header row of a key result table. OneNote returns
// header cells as td, so the row is recognised by this id and not its tags.
const headerRowID = "okeears-header"

// rootContainer is the first div of the page body, which is where OneNote
// places appended content. Pages without one fall back to the body itself.
func rootContainer(doc *goquery.Document) *goquery.Selection {
	if div := doc.Find("body > div").First(); div.Length() > 0 {
		return div
	}
	return doc.Find("body").First()
}

func objectiveListNode(doc *goquery.Document) *goquery.Selection {
	return rootContainer(doc).Find("ul, ol").First()
}

// objectiveItem finds an objective's list item. Attribute values are
// compared directly so that ids never end up inside a selector string.
func objectiveItem(doc *goquery.Document, id string) *goquery.Selection {
	return objectiveListNode(doc).ChildrenFiltered("li").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(dataIDAttr)
		return ok && v == id
	}).First()
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

// ParseObjectiveList reads every objective of a list layout page. A page
// without a list has no objectives yet.
func ParseObjectiveList(doc *goquery.Document, newID shortid.Generator) []*domain.Objective {
	objectives := []*domain.Objective{}
	if doc == nil {
		return objectives
	}

	list := objectiveListNode(doc)
	if list.Length() == 0 {
		return objectives
	}

	list.ChildrenFiltered("li").Each(func(_ int, item *goquery.Selection) {
		id, ok := item.Attr(dataIDAttr)
		if !ok {
			return
		}

		statement := text(item)
		if p := item.ChildrenFiltered("p").First(); p.Length() > 0 {
			statement = text(p)
		}

		keyResults := []domain.KeyResult{}
		item.Find("li").Each(func(_ int, row *goquery.Selection) {
			kr := domain.KeyResult{Statement: text(row)}
			if rowID, ok := row.Attr(dataIDAttr); ok && rowID != "" {
				kr.ID = rowID
			} else {
				kr.ID = newID()
				kr.Pending = true
			}
			keyResults = append(keyResults, kr)
		})

		objectives = append(objectives, &domain.Objective{
			ID:         id,
			Statement:  statement,
			KeyResults: keyResults,
		})
	})

	return objectives
}

// ParseKeyResultTable reads the key results of a table layout page. Every
// row with cells is a key result except the header row.
func ParseKeyResultTable(doc *goquery.Document, newID shortid.Generator) []domain.KeyResult {
	keyResults := []domain.KeyResult{}
	if doc == nil {
		return keyResults
	}

	table := rootContainer(doc).Find("table").First()
	if table.Length() == 0 {
		return keyResults
	}

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if id, _ := row.Attr(dataIDAttr); id == headerRowID {
			return
		}
		cells := row.ChildrenFiltered("td, th")
		if cells.Length() == 0 {
			return
		}

		kr := domain.KeyResult{
			Statement:   text(cells.Eq(0)),
			Percent:     parsePercent(text(cells.Eq(1))),
			Description: text(cells.Eq(2)),
		}
		if id, ok := row.Attr(dataIDAttr); ok && id != "" {
			kr.ID = id
		} else {
			kr.ID = newID()
			kr.Pending = true
		}
		keyResults = append(keyResults, kr)
	})

	return keyResults
}

// parsePercent accepts "40" or "40%". Anything else reads as 0.
func parsePercent(s string) int {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
