package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/catalog"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/logger"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/metrics"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/week"
)

// Run outcomes
const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped"
	OutcomePreview = "preview"
	OutcomeFailed  = "failed"
)

// List positions accepted by Trello
const (
	PositionTop    = "top"
	PositionBottom = "bottom"
)

// ValidatePosition checks an insertion position
func ValidatePosition(position string) error {
	switch position {
	case PositionTop, PositionBottom:
		return nil
	}
	return fmt.Errorf("%w: position %q must be top or bottom", model.ErrInvalidConfiguration, position)
}

// Options configura uma execução do WeeklyListService.
// Week zero means the week is computed from Now; Next selects the week after.
type Options struct {
	WeekStart string
	Position  string
	Week      int
	Next      bool
	DryRun    bool

	Now      func() time.Time
	Metrics  *metrics.Metrics
	Progress ProgressReporter
	RunID    string
}

// PlannedChecklist is a checklist as it will be created
type PlannedChecklist struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// PlannedCard is a card with its due date computed for the target week
type PlannedCard struct {
	Title       string             `json:"title"`
	Weekday     string             `json:"weekday"`
	Due         time.Time          `json:"due"`
	Labels      []string           `json:"labels"`
	Description string             `json:"description,omitempty"`
	Checklists  []PlannedChecklist `json:"checklists,omitempty"`
}

// RunResult reports what a run did. On failure it still holds what was
// created before the error.
type RunResult struct {
	Outcome      string        `json:"outcome"`
	ListName     string        `json:"list_name"`
	ListID       string        `json:"list_id,omitempty"`
	Week         int           `json:"week"`
	WeekStart    time.Time     `json:"week_start"`
	Position     string        `json:"position"`
	Planned      []PlannedCard `json:"planned"`
	CardsCreated int           `json:"cards_created"`
}

// WeeklyListService cria a lista semanal e seus cards no board
type WeeklyListService struct {
	gateway  BoardGateway
	start    week.StartDay
	position string
	week     int
	next     bool
	dryRun   bool
	now      func() time.Time
	metrics  *metrics.Metrics
	progress ProgressReporter
	runID    string
}

// NewWeeklyListService validates opts and builds the service. An empty
// WeekStart means monday and an empty Position means top.
func NewWeeklyListService(gateway BoardGateway, opts Options) (*WeeklyListService, error) {
	startName := opts.WeekStart
	if startName == "" {
		startName = week.StartMonday.String()
	}
	start, err := week.ParseStartDay(startName)
	if err != nil {
		return nil, err
	}

	position := strings.ToLower(strings.TrimSpace(opts.Position))
	if position == "" {
		position = PositionTop
	}
	if err := ValidatePosition(position); err != nil {
		return nil, err
	}

	if opts.Week != 0 {
		if err := week.ValidateNumber(opts.Week); err != nil {
			return nil, err
		}
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Progress == nil {
		opts.Progress = NopReporter{}
	}

	return &WeeklyListService{
		gateway:  gateway,
		start:    start,
		position: position,
		week:     opts.Week,
		next:     opts.Next,
		dryRun:   opts.DryRun,
		now:      opts.Now,
		metrics:  opts.Metrics,
		progress: opts.Progress,
		runID:    opts.RunID,
	}, nil
}

// Target returns the week this service provisions
func (s *WeeklyListService) Target() week.Target {
	now := s.now()
	switch {
	case s.week != 0:
		return week.Target{Number: s.week, Reference: now}
	case s.next:
		return week.NextWeek(s.start, now)
	default:
		return week.CurrentWeek(s.start, now)
	}
}

// Plan computes every card of the target week without calling the board
func (s *WeeklyListService) Plan(cards []catalog.CardTemplate) *RunResult {
	return s.plan(s.Target(), cards)
}

func (s *WeeklyListService) plan(target week.Target, cards []catalog.CardTemplate) *RunResult {
	planned := make([]PlannedCard, 0, len(cards))
	for _, card := range cards {
		checklists := make([]PlannedChecklist, 0, len(card.Checklists()))
		for _, cl := range card.Checklists() {
			checklists = append(checklists, PlannedChecklist{Name: cl.Name(), Items: cl.Items()})
		}
		planned = append(planned, PlannedCard{
			Title:       card.Title(),
			Weekday:     card.Weekday().String(),
			Due:         week.DueDate(target.Number, s.start, card.Weekday(), card.Hour(), card.Minute(), target.Reference),
			Labels:      card.Labels(),
			Description: card.Description(),
			Checklists:  checklists,
		})
	}

	return &RunResult{
		Outcome:   OutcomePreview,
		ListName:  week.ListName(target.Number),
		Week:      target.Number,
		WeekStart: week.WeekStart(target.Number, s.start, target.Reference),
		Position:  s.position,
		Planned:   planned,
	}
}

// Run executa a criação da lista semanal. A list that already exists ends
// the run as skipped; preview mode makes no remote call at all. Errors stop
// the run and nothing created so far is removed.
func (s *WeeklyListService) Run(ctx context.Context, cards []catalog.CardTemplate) (*RunResult, error) {
	if s.runID != "" {
		ctx = logger.WithRunID(ctx, s.runID)
	}
	log := logger.Get(ctx)

	result := s.plan(s.Target(), cards)
	result.Outcome = ""

	s.metrics.IncrementRunStarted()
	s.publish(model.EventRunStarted, result, "", "")
	logger.Audit(ctx, logger.AuditEvent{
		Action:   logger.AuditActionRunStart,
		Resource: "list",
		Success:  true,
		Details: map[string]interface{}{
			"list_name":  result.ListName,
			"week":       result.Week,
			"week_start": s.start.String(),
			"position":   s.position,
			"dry_run":    s.dryRun,
			"cards":      len(cards),
		},
	})
	log.Info().
		Str("list_name", result.ListName).
		Int("week", result.Week).
		Msg("Starting weekly list creation")

	if s.dryRun {
		return s.preview(ctx, result), nil
	}

	exists, err := s.gateway.ListExists(ctx, result.ListName)
	if err != nil {
		return s.fail(ctx, result, fmt.Errorf("check existing lists: %w", err))
	}
	if exists {
		log.Warn().
			Str("list_name", result.ListName).
			Msg("List already exists, skipping creation")
		result.Outcome = OutcomeSkipped
		s.finish(ctx, result, logger.AuditActionRunSkipped)
		return result, nil
	}

	listID, err := s.gateway.CreateList(ctx, result.ListName, s.position)
	if err != nil {
		return s.fail(ctx, result, fmt.Errorf("create list %q: %w", result.ListName, err))
	}
	result.ListID = listID
	s.metrics.IncrementListCreated()
	logger.AuditMutation(ctx, logger.AuditActionListCreate, "list", listID, map[string]interface{}{
		"name":     result.ListName,
		"position": s.position,
	})
	log.Info().Str("list_id", listID).Msg("List created")
	s.publish(model.EventListCreated, result, "", "")

	boardLabels, err := s.gateway.ListLabels(ctx)
	if err != nil {
		return s.fail(ctx, result, fmt.Errorf("fetch board labels: %w", err))
	}

	for i, card := range result.Planned {
		if err := s.createCard(ctx, listID, card, boardLabels); err != nil {
			return s.fail(ctx, result, fmt.Errorf("card %d (%q): %w", i+1, card.Title, err))
		}
		result.CardsCreated++
		s.publish(model.EventCardCreated, result, card.Title, "")
	}

	result.Outcome = OutcomeCreated
	log.Info().
		Str("list_name", result.ListName).
		Int("cards_created", result.CardsCreated).
		Msg("Successfully created weekly list")
	s.finish(ctx, result, logger.AuditActionRunComplete)
	return result, nil
}

func (s *WeeklyListService) preview(ctx context.Context, result *RunResult) *RunResult {
	log := logger.Get(ctx)
	log.Info().Msgf("[DRY-RUN] Would create list: %s at position: %s", result.ListName, result.Position)
	for _, card := range result.Planned {
		log.Info().Msgf("[DRY-RUN] Would create card: %s (due: %s)", card.Title, card.Due.Format("2006-01-02 15:04"))
	}
	log.Info().Msgf("[DRY-RUN] Would create %d cards total", len(result.Planned))

	result.Outcome = OutcomePreview
	s.finish(ctx, result, logger.AuditActionRunPreview)
	return result
}

// createCard creates one card followed by its checklists and items in order
func (s *WeeklyListService) createCard(ctx context.Context, listID string, card PlannedCard, boardLabels map[string]string) error {
	labelIDs := ResolveLabels(ctx, card.Labels, boardLabels)
	for range card.Labels[len(labelIDs):] {
		s.metrics.IncrementLabelMissing()
	}

	cardID, err := s.gateway.CreateCard(ctx, model.CardRequest{
		ListID:      listID,
		Title:       card.Title,
		Due:         card.Due,
		LabelIDs:    labelIDs,
		Description: card.Description,
	})
	if err != nil {
		return err
	}
	s.metrics.IncrementCardCreated()
	logger.AuditMutation(ctx, logger.AuditActionCardCreate, "card", cardID, map[string]interface{}{
		"title": card.Title,
		"due":   card.Due.Format(time.RFC3339),
	})

	for _, cl := range card.Checklists {
		checklistID, err := s.gateway.CreateChecklist(ctx, cardID, cl.Name)
		if err != nil {
			return fmt.Errorf("checklist %q: %w", cl.Name, err)
		}
		s.metrics.IncrementChecklistCreated()
		logger.AuditMutation(ctx, logger.AuditActionChecklistCreate, "checklist", checklistID, map[string]interface{}{
			"name":    cl.Name,
			"card_id": cardID,
		})

		for _, item := range cl.Items {
			itemID, err := s.gateway.AddChecklistItem(ctx, checklistID, item)
			if err != nil {
				return fmt.Errorf("checklist %q item %q: %w", cl.Name, item, err)
			}
			s.metrics.IncrementCheckItemCreated()
			logger.AuditMutation(ctx, logger.AuditActionCheckItemCreate, "check_item", itemID, map[string]interface{}{
				"checklist_id": checklistID,
			})
		}
	}
	return nil
}

// fail records a failed run. A list created before the failure stays on
// the board and later runs will skip it.
func (s *WeeklyListService) fail(ctx context.Context, result *RunResult, err error) (*RunResult, error) {
	log := logger.Get(ctx)
	if result.ListID != "" {
		log.Error().
			Str("list_id", result.ListID).
			Str("list_name", result.ListName).
			Int("cards_created", result.CardsCreated).
			Int("cards_planned", len(result.Planned)).
			Msg("List is partially populated; later runs will skip it until it is removed")
	}
	log.Error().Err(err).Msg("Weekly list creation failed")

	result.Outcome = OutcomeFailed
	s.metrics.RecordRunOutcome(OutcomeFailed)
	s.publish(model.EventRunFailed, result, "", err.Error())
	logger.Audit(ctx, logger.AuditEvent{
		Action:     logger.AuditActionRunFailed,
		Resource:   "list",
		ResourceID: result.ListID,
		Success:    false,
		Error:      err.Error(),
		Details: map[string]interface{}{
			"list_name":     result.ListName,
			"cards_created": result.CardsCreated,
		},
	})
	return result, err
}

func (s *WeeklyListService) finish(ctx context.Context, result *RunResult, action logger.AuditAction) {
	s.metrics.RecordRunOutcome(result.Outcome)
	s.publish(model.EventRunFinished, result, "", "")
	logger.Audit(ctx, logger.AuditEvent{
		Action:     action,
		Resource:   "list",
		ResourceID: result.ListID,
		Success:    true,
		Details: map[string]interface{}{
			"list_name":     result.ListName,
			"outcome":       result.Outcome,
			"cards_created": result.CardsCreated,
		},
	})
}

func (s *WeeklyListService) publish(eventType string, result *RunResult, card, errMsg string) {
	s.progress.Publish(model.ProgressEvent{
		Type:         eventType,
		RunID:        s.runID,
		ListName:     result.ListName,
		Week:         result.Week,
		Outcome:      result.Outcome,
		Card:         card,
		CardsCreated: result.CardsCreated,
		TotalCards:   len(result.Planned),
		Error:        errMsg,
		Timestamp:    time.Now(),
	})
}
