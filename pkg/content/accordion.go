package content

import (
	"strconv"
	"strings"
)

// faqStride separates category ids: question q of category c has id
// c*faqStride+q.
const faqStride = 100

// FAQID returns the accordion id of a question.
func FAQID(category, question int) int {
	return category*faqStride + question
}

// Accordion tracks which FAQ entry is expanded. At most one entry is open.
// The zero value has everything closed.
type Accordion struct {
	open   int
	isOpen bool
}

// OpenAccordion returns an accordion with id expanded.
func OpenAccordion(id int) Accordion {
	if id < 0 {
		return Accordion{}
	}
	return Accordion{open: id, isOpen: true}
}

// ParseAccordion reads the accordion state from a query value. Anything that
// is not a non-negative integer means closed.
func ParseAccordion(raw string) Accordion {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Accordion{}
	}
	return OpenAccordion(id)
}

// Toggle opens id, or closes it when it is already the open entry.
func (a Accordion) Toggle(id int) Accordion {
	if a.IsOpen(id) {
		return Accordion{}
	}
	return OpenAccordion(id)
}

// IsOpen reports whether id is the expanded entry.
func (a Accordion) IsOpen(id int) bool {
	return a.isOpen && a.open == id
}

// Open returns the expanded id.
func (a Accordion) Open() (int, bool) {
	return a.open, a.isOpen
}

// Query encodes the state for a link; closed encodes as "".
func (a Accordion) Query() string {
	if !a.isOpen {
		return ""
	}
	return strconv.Itoa(a.open)
}

// FAQItem is a question as drawn by a page.
type FAQItem struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Open     bool   `json:"open"`
	// Toggle is the accordion query a click on this item should produce.
	Toggle string `json:"toggle"`
}

// FAQGroup is a category of FAQItems.
type FAQGroup struct {
	Category string    `json:"category"`
	Items    []FAQItem `json:"items"`
}

// FAQView lays out the site FAQ for the given accordion state.
func (s Site) FAQView(acc Accordion) []FAQGroup {
	groups := make([]FAQGroup, 0, len(s.FAQ))
	for catIdx, cat := range s.FAQ {
		group := FAQGroup{Category: cat.Category, Items: make([]FAQItem, 0, len(cat.Questions))}
		for qIdx, q := range cat.Questions {
			id := FAQID(catIdx, qIdx)
			group.Items = append(group.Items, FAQItem{
				ID:       id,
				Question: q.Q,
				Answer:   q.A,
				Open:     acc.IsOpen(id),
				Toggle:   acc.Toggle(id).Query(),
			})
		}
		groups = append(groups, group)
	}
	return groups
}
