package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrCatalogNotFound indica que o arquivo de cards não existe
var ErrCatalogNotFound = errors.New("cards configuration not found")

type fileFormat struct {
	Cards []cardEntry `yaml:"cards"`
}

type cardEntry struct {
	Title       string           `yaml:"title"`
	DayOfWeek   string           `yaml:"day_of_week"`
	Hour        *int             `yaml:"hour"`
	Minute      int              `yaml:"minute"`
	Labels      []string         `yaml:"labels"`
	Description string           `yaml:"description"`
	Checklists  []checklistEntry `yaml:"checklists"`
}

type checklistEntry struct {
	Name  string   `yaml:"name"`
	Items []string `yaml:"items"`
}

// Load reads the card catalog from a YAML file.
func Load(path string) ([]CardTemplate, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	cards, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cards, nil
}

// Parse decodes a YAML catalog. Every entry is validated; the first invalid
// one fails the whole catalog.
func Parse(r io.Reader) ([]CardTemplate, error) {
	var doc fileFormat
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	cards := make([]CardTemplate, 0, len(doc.Cards))
	for i, entry := range doc.Cards {
		card, err := entry.template()
		if err != nil {
			return nil, fmt.Errorf("card %d (%q): %w", i+1, entry.Title, err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (e cardEntry) template() (CardTemplate, error) {
	if e.Hour == nil {
		return CardTemplate{}, fmt.Errorf("%w: hour is required", model.ErrInvalidTemplate)
	}

	checklists := make([]ChecklistTemplate, 0, len(e.Checklists))
	for j, cl := range e.Checklists {
		tmpl, err := NewChecklistTemplate(cl.Name, cl.Items)
		if err != nil {
			return CardTemplate{}, fmt.Errorf("checklist %d: %w", j+1, err)
		}
		checklists = append(checklists, tmpl)
	}

	return NewCardTemplate(CardSpec{
		Title:       e.Title,
		DayOfWeek:   e.DayOfWeek,
		Hour:        *e.Hour,
		Minute:      e.Minute,
		Labels:      e.Labels,
		Description: e.Description,
		Checklists:  checklists,
	})
}
