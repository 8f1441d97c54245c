package vanilla_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-leadform/pkg/content"
	"github.com/goliatone/go-leadform/pkg/render"
	"github.com/goliatone/go-leadform/pkg/renderers/vanilla"
	"github.com/goliatone/go-leadform/pkg/testsupport"
)

func newPages(t *testing.T) *vanilla.Pages {
	t.Helper()
	pages, err := vanilla.NewPages(vanilla.WithSite(vanilla.Site{
		Brand: "Dogfood Digital",
		Title: "Dogfood Digital",
		Year:  2026,
		Nav:   []vanilla.NavLink{{Label: "Pricing", Href: "/#pricing"}},
	}))
	if err != nil {
		t.Fatalf("new pages: %v", err)
	}
	return pages
}

func TestPages_Landing(t *testing.T) {
	pages := newPages(t)
	site := content.MustDefault()

	out, err := pages.Render(context.Background(), vanilla.PageLanding, "", map[string]any{
		"content":  site,
		"faq":      site.FAQView(content.OpenAccordion(content.FAQID(2, 0))),
		"book_url": "/?book=1#booking",
	}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render landing: %v", err)
	}
	html := string(out)

	assertContains(t, html,
		"<title>Dogfood Digital</title>",
		"&copy; 2026 Dogfood Digital",
		`href="/#pricing">Pricing</a>`,
		"makers of RubyOnVibes",
		"$1,000",
		"Growth Build",
		`id="faq-200"`,
		"How much does it cost to build an app?",
		"MVP builds start at $1,000 for simple projects",
		`href="/?faq=#faq-200"`,
		`href="/?faq=201#faq-201"`,
		"<svg",
	)
	assertNotContains(t, html, "We work with startups, founders", `role="dialog"`)
}

func TestPages_LandingWithModal(t *testing.T) {
	pages := newPages(t)
	modal := newRenderer(t, vanilla.LayoutModal)
	s := testsupport.NewSession(t)
	fragment, err := modal.Render(context.Background(), s.View(), render.RenderOptions{CloseURL: "/"})
	if err != nil {
		t.Fatalf("render modal: %v", err)
	}

	site := content.MustDefault()
	out, err := pages.Render(context.Background(), vanilla.PageLanding, site.Title, map[string]any{
		"content":    site,
		"faq":        site.FAQView(content.Accordion{}),
		"modal_html": string(fragment),
	}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render landing: %v", err)
	}
	assertContains(t, string(out), `role="dialog"`, `id="step-name"`)
}

func TestPages_StartProjectErrors(t *testing.T) {
	pages := newPages(t)
	site := content.MustDefault()
	result := content.ContactResult{
		Form:   content.ContactForm{Name: "Ada", Project: "growth"},
		Fields: site.Validate(content.ContactForm{Name: "Ada", Project: "growth"}),
		Errors: []string{"form is closed"},
	}

	out, err := pages.Render(context.Background(), vanilla.PageStartProject, "Start a Project", map[string]any{
		"content": site,
		"result":  result,
	}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render start-project: %v", err)
	}
	html := string(out)
	assertContains(t, html,
		`name="name" value="Ada"`,
		`<option value="growth" selected>`,
		"Email is required.",
		"Message is required.",
		"form is closed",
	)
	assertNotContains(t, html, "Name is required.")
}

func TestPages_StartProjectSent(t *testing.T) {
	pages := newPages(t)
	site := content.MustDefault()

	out, err := pages.Render(context.Background(), vanilla.PageStartProject, "", map[string]any{
		"content": site,
		"result":  content.ContactResult{Sent: true},
	}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render start-project: %v", err)
	}
	assertContains(t, string(out), "Thanks for reaching out!")
	assertNotContains(t, string(out), `action="/start-project"`)
}

func TestPages_Apply(t *testing.T) {
	pages := newPages(t)
	out, err := pages.Render(context.Background(), vanilla.PageApply, "", map[string]any{
		"content": content.MustDefault(),
	}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render apply: %v", err)
	}
	assertContains(t, string(out), "Free Strategy Session", `href="/apply/form"`)
}

func TestPages_RejectsTraversal(t *testing.T) {
	pages := newPages(t)
	if _, err := pages.Render(context.Background(), vanilla.Page("../document"), "", nil, render.RenderOptions{}); err == nil {
		t.Fatalf("expected invalid page name to fail")
	}
}
