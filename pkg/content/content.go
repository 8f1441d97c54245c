package content

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var embeddedSite []byte

// Link is a labelled href.
type Link struct {
	Label string `yaml:"label" json:"label"`
	Href  string `yaml:"href" json:"href"`
}

// Hero is the landing page banner.
type Hero struct {
	Heading   string `yaml:"heading" json:"heading"`
	Highlight string `yaml:"highlight" json:"highlight"`
	Body      string `yaml:"body" json:"body"`
	Primary   Link   `yaml:"primary" json:"primary"`
	Secondary Link   `yaml:"secondary" json:"secondary"`
}

// Stat is one figure in the stats strip.
type Stat struct {
	Value    string `yaml:"value" json:"value"`
	Label    string `yaml:"label" json:"label"`
	Sublabel string `yaml:"sublabel" json:"sublabel"`
}

// Section is a heading with a paragraph.
type Section struct {
	Heading string `yaml:"heading" json:"heading"`
	Body    string `yaml:"body" json:"body"`
}

// Card is one "how we work" stage.
type Card struct {
	Title       string `yaml:"title" json:"title"`
	Subtitle    string `yaml:"subtitle" json:"subtitle"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon,omitempty" json:"icon,omitempty"`
}

// HowWeWork lists the delivery stages.
type HowWeWork struct {
	Section `yaml:",inline"`
	Steps   []Card `yaml:"steps" json:"steps"`
}

// Plan is a pricing card.
type Plan struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Tagline  string   `yaml:"tagline" json:"tagline"`
	Price    string   `yaml:"price" json:"price"`
	Cadence  string   `yaml:"cadence" json:"cadence"`
	Note     string   `yaml:"note,omitempty" json:"note,omitempty"`
	Featured bool     `yaml:"featured,omitempty" json:"featured"`
	CTA      Link     `yaml:"cta" json:"cta"`
	Features []string `yaml:"features" json:"features"`
}

// Pricing holds the plans in display order.
type Pricing struct {
	Section `yaml:",inline"`
	Plans   []Plan `yaml:"plans" json:"plans"`
}

// Feature is a "why choose us" entry.
type Feature struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Why groups the selling points.
type Why struct {
	Heading  string    `yaml:"heading" json:"heading"`
	Features []Feature `yaml:"features" json:"features"`
}

// Question is a single FAQ entry.
type Question struct {
	Q string `yaml:"q" json:"q"`
	A string `yaml:"a" json:"a"`
}

// FAQCategory groups questions under a heading.
type FAQCategory struct {
	Category  string     `yaml:"category" json:"category"`
	Questions []Question `yaml:"questions" json:"questions"`
}

// ApplyIntro is the strategy session landing copy.
type ApplyIntro struct {
	Section `yaml:",inline"`
	CTA     Link   `yaml:"cta" json:"cta"`
	Note    string `yaml:"note" json:"note"`
}

// ProjectOption is one choice of the contact form's project select.
type ProjectOption struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// ContactCopy is the start-project page copy.
type ContactCopy struct {
	Section         `yaml:",inline"`
	SubmitLabel     string          `yaml:"submitLabel" json:"submit_label"`
	SubmittingLabel string          `yaml:"submittingLabel" json:"submitting_label"`
	SuccessHeading  string          `yaml:"successHeading" json:"success_heading"`
	SuccessBody     string          `yaml:"successBody" json:"success_body"`
	Projects        []ProjectOption `yaml:"projects" json:"projects"`
}

// Site is every piece of static copy the marketing pages draw.
type Site struct {
	Title     string        `yaml:"title" json:"title"`
	Brand     string        `yaml:"brand" json:"brand"`
	Nav       []Link        `yaml:"nav" json:"nav"`
	Hero      Hero          `yaml:"hero" json:"hero"`
	Stats     []Stat        `yaml:"stats" json:"stats"`
	About     Section       `yaml:"about" json:"about"`
	HowWeWork HowWeWork     `yaml:"howWeWork" json:"how_we_work"`
	Pricing   Pricing       `yaml:"pricing" json:"pricing"`
	Why       Why           `yaml:"why" json:"why"`
	FAQ       []FAQCategory `yaml:"faq" json:"faq"`
	Apply     ApplyIntro    `yaml:"apply" json:"apply"`
	Contact   ContactCopy   `yaml:"contact" json:"contact"`
}

// Parse decodes site copy and sanitises any inline icon markup.
func Parse(data []byte) (Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return Site{}, fmt.Errorf("content: parse site: %w", err)
	}
	if strings.TrimSpace(site.Brand) == "" {
		return Site{}, fmt.Errorf("content: site brand is required")
	}
	for idx := range site.HowWeWork.Steps {
		site.HowWeWork.Steps[idx].Icon = SanitizeIcon(site.HowWeWork.Steps[idx].Icon)
	}
	for catIdx, cat := range site.FAQ {
		if len(cat.Questions) >= faqStride {
			return Site{}, fmt.Errorf("content: faq category %q has %d questions, limit is %d", cat.Category, len(cat.Questions), faqStride-1)
		}
		if strings.TrimSpace(cat.Category) == "" {
			return Site{}, fmt.Errorf("content: faq category %d has no name", catIdx)
		}
	}
	return site, nil
}

// Default returns the embedded site copy.
func Default() (Site, error) {
	return Parse(embeddedSite)
}

// MustDefault is Default for package initialisation; it panics on error.
func MustDefault() Site {
	site, err := Default()
	if err != nil {
		panic(err)
	}
	return site
}

// Project looks up a project option by value.
func (s Site) Project(value string) (ProjectOption, bool) {
	for _, option := range s.Contact.Projects {
		if option.Value == value {
			return option, true
		}
	}
	return ProjectOption{}, false
}

// Plan looks up a pricing plan by id.
func (s Site) Plan(id string) (Plan, bool) {
	for _, plan := range s.Pricing.Plans {
		if plan.ID == id {
			return plan, true
		}
	}
	return Plan{}, false
}
