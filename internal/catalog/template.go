package catalog

import (
	"fmt"
	"strings"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/week"
)

// ChecklistTemplate is a named, ordered list of checklist items.
type ChecklistTemplate struct {
	name  string
	items []string
}

// NewChecklistTemplate validates and builds a checklist template.
func NewChecklistTemplate(name string, items []string) (ChecklistTemplate, error) {
	if strings.TrimSpace(name) == "" {
		return ChecklistTemplate{}, fmt.Errorf("%w: checklist name is empty", model.ErrInvalidTemplate)
	}
	return ChecklistTemplate{name: name, items: copyStrings(items)}, nil
}

func (c ChecklistTemplate) Name() string { return c.name }

// Items returns the checklist items in order.
func (c ChecklistTemplate) Items() []string { return copyStrings(c.items) }

// CardSpec holds the raw values a CardTemplate is built from.
type CardSpec struct {
	Title       string
	DayOfWeek   string
	Hour        int
	Minute      int
	Labels      []string
	Description string
	Checklists  []ChecklistTemplate
}

// CardTemplate describes one recurring card. Values are validated once by
// NewCardTemplate and cannot change afterwards.
type CardTemplate struct {
	title       string
	weekday     week.Weekday
	hour        int
	minute      int
	labels      []string
	description string
	checklists  []ChecklistTemplate
}

// NewCardTemplate validates spec and builds the template.
func NewCardTemplate(spec CardSpec) (CardTemplate, error) {
	if strings.TrimSpace(spec.Title) == "" {
		return CardTemplate{}, fmt.Errorf("%w: title is empty", model.ErrInvalidTemplate)
	}

	wd, err := week.ParseWeekday(spec.DayOfWeek)
	if err != nil {
		return CardTemplate{}, err
	}

	if spec.Hour < 0 || spec.Hour > 23 {
		return CardTemplate{}, fmt.Errorf("%w: hour %d must be between 0 and 23", model.ErrInvalidTemplate, spec.Hour)
	}

	if spec.Minute < 0 || spec.Minute > 59 {
		return CardTemplate{}, fmt.Errorf("%w: minute %d must be between 0 and 59", model.ErrInvalidTemplate, spec.Minute)
	}

	checklists := make([]ChecklistTemplate, len(spec.Checklists))
	copy(checklists, spec.Checklists)

	return CardTemplate{
		title:       spec.Title,
		weekday:     wd,
		hour:        spec.Hour,
		minute:      spec.Minute,
		labels:      copyStrings(spec.Labels),
		description: spec.Description,
		checklists:  checklists,
	}, nil
}

func (c CardTemplate) Title() string         { return c.title }
func (c CardTemplate) Weekday() week.Weekday { return c.weekday }
func (c CardTemplate) Hour() int             { return c.hour }
func (c CardTemplate) Minute() int           { return c.minute }
func (c CardTemplate) Description() string   { return c.description }

// Labels returns the label names in template order.
func (c CardTemplate) Labels() []string { return copyStrings(c.labels) }

// Checklists returns the checklists in template order.
func (c CardTemplate) Checklists() []ChecklistTemplate {
	out := make([]ChecklistTemplate, len(c.checklists))
	copy(out, c.checklists)
	return out
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
