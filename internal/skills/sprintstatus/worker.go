// ABOUTME: Sprint status skill: active sprint progress, blockers and per-person tickets from Jira
// ABOUTME: Business logic only; credentials are injected by the skill bus
package sprintstatus

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/WildEllie/t3nets/internal/logging"
	"github.com/WildEllie/t3nets/internal/models"
)

// Name is the registered skill name
const Name = "sprint_status"

// Integration is the secrets integration the skill needs
const Integration = "jira"

// Actions
const (
	ActionStatus   = "status"
	ActionBlockers = "blockers"
	ActionMine     = "mine"
)

// LargeTicketPoints is the story point size at which an unstarted ticket is called out
const LargeTicketPoints = 5

// Status categories as Jira names them
const (
	CategoryTodo       = "To Do"
	CategoryInProgress = "In Progress"
	CategoryDone       = "Done"
)

// Ticket is a sprint issue reduced to what the report needs
type Ticket struct {
	Key            string  `json:"key"`
	Summary        string  `json:"summary"`
	Status         string  `json:"status"`
	StatusCategory string  `json:"status_category"`
	Assignee       string  `json:"assignee"`
	AssigneeEmail  string  `json:"assignee_email"`
	Priority       string  `json:"priority"`
	StoryPoints    float64 `json:"story_points"`
	Flagged        bool    `json:"flagged"`
}

// SprintInfo describes the active sprint
type SprintInfo struct {
	Name          string `json:"name"`
	Goal          string `json:"goal"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	DaysRemaining *int   `json:"days_remaining"`
	State         string `json:"state"`
}

// Progress counts tickets and points by category
type Progress struct {
	TotalTickets       int     `json:"total_tickets"`
	Done               int     `json:"done"`
	InProgress         int     `json:"in_progress"`
	Todo               int     `json:"todo"`
	PercentDoneTickets int     `json:"percent_done_tickets"`
	TotalStoryPoints   float64 `json:"total_story_points"`
	DoneStoryPoints    float64 `json:"done_story_points"`
	PercentDonePoints  int     `json:"percent_done_points"`
}

// TicketsByCategory groups the sprint's tickets
type TicketsByCategory struct {
	Done       []Ticket `json:"done"`
	InProgress []Ticket `json:"in_progress"`
	Todo       []Ticket `json:"todo"`
}

// Worker runs sprint status queries
type Worker struct {
	http       *http.Client
	now        func() time.Time
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

// Option configures a Worker
type Option func(*Worker)

// WithHTTPClient sets the client used to call Jira
func WithHTTPClient(c *http.Client) Option {
	return func(w *Worker) {
		w.http = c
	}
}

// WithRetry sets how often transient Jira failures are retried
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(w *Worker) {
		w.maxRetries = maxRetries
		w.retryDelay = delay
	}
}

// New creates a sprint status worker
func New(opts ...Option) *Worker {
	w := &Worker{
		http:       &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
		maxRetries: 2,
		retryDelay: 500 * time.Millisecond,
		logger:     logging.Get("skills.sprint_status"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Execute runs the requested action. Missing input yields an error result;
// Jira failures are returned as errors.
func (w *Worker) Execute(ctx context.Context, params map[string]any, secrets map[string]string) (models.SkillResult, error) {
	creds, missing := credentialsFrom(secrets)
	if len(missing) > 0 {
		return models.ErrorResult("Missing Jira credentials: " + strings.Join(missing, ", ")), nil
	}

	action, _ := params["action"].(string)
	if action == "" || action == "default" {
		action = ActionStatus
	}
	email, _ := params["assignee_email"].(string)

	switch action {
	case ActionStatus, ActionBlockers:
	case ActionMine:
		if strings.TrimSpace(email) == "" {
			return models.ErrorResult("assignee_email required for 'mine' action"), nil
		}
	default:
		return models.ErrorResult("Unknown action: " + action), nil
	}

	client := &jiraClient{http: w.http, creds: creds, maxRetries: w.maxRetries, retryDelay: w.retryDelay}
	active, err := client.activeSprint(ctx)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return models.ErrorResult("No active sprint found"), nil
	}
	raw, err := client.sprintIssues(ctx, active.ID)
	if err != nil {
		return nil, err
	}
	tickets := parseIssues(raw)

	w.logger.Debug().Str("action", action).Str("sprint", active.Name).Int("tickets", len(tickets)).Msg("Fetched sprint")

	switch action {
	case ActionBlockers:
		return models.SkillResult{
			"sprint":   active.Name,
			"blockers": blockers(tickets),
		}, nil
	case ActionMine:
		return models.SkillResult{
			"sprint":   active.Name,
			"assignee": email,
			"tickets":  assignedTo(tickets, email),
		}, nil
	default:
		return buildReport(active, tickets, w.now()), nil
	}
}

func parseIssues(issues []issue) []Ticket {
	out := make([]Ticket, 0, len(issues))
	for _, is := range issues {
		f := is.Fields
		t := Ticket{
			Key:            is.Key,
			Summary:        f.Summary,
			Status:         "Unknown",
			StatusCategory: "Unknown",
			Assignee:       "Unassigned",
			Priority:       "Medium",
		}
		if f.Status != nil {
			t.Status = f.Status.Name
			if f.Status.StatusCategory != nil {
				t.StatusCategory = f.Status.StatusCategory.Name
			}
		}
		if f.Assignee != nil {
			t.Assignee = f.Assignee.DisplayName
			t.AssigneeEmail = f.Assignee.EmailAddress
		}
		if f.Priority != nil {
			t.Priority = f.Priority.Name
		}
		if f.StoryPoints != nil {
			t.StoryPoints = *f.StoryPoints
		}
		for _, label := range f.Labels {
			if strings.EqualFold(label, "impediment") {
				t.Flagged = true
				break
			}
		}
		out = append(out, t)
	}
	return out
}

func blockers(tickets []Ticket) []Ticket {
	out := []Ticket{}
	for _, t := range tickets {
		if t.Flagged {
			out = append(out, t)
		}
	}
	return out
}

func assignedTo(tickets []Ticket, email string) []Ticket {
	needle := strings.ToLower(strings.TrimSpace(email))
	out := []Ticket{}
	for _, t := range tickets {
		if strings.Contains(strings.ToLower(t.AssigneeEmail), needle) {
			out = append(out, t)
		}
	}
	return out
}

func buildReport(s *sprint, tickets []Ticket, now time.Time) models.SkillResult {
	info := SprintInfo{
		Name:      s.Name,
		Goal:      s.Goal,
		StartDate: datePart(s.StartDate),
		EndDate:   datePart(s.EndDate),
		State:     s.State,
	}
	if info.Name == "" {
		info.Name = "Unknown"
	}
	if info.State == "" {
		info.State = "active"
	}
	if end, err := time.Parse("2006-01-02", info.EndDate); err == nil {
		days := int(math.Floor(end.Sub(now).Hours() / 24))
		days = max(days, 0)
		info.DaysRemaining = &days
	}

	byCat := TicketsByCategory{Done: []Ticket{}, InProgress: []Ticket{}, Todo: []Ticket{}}
	var totalPoints, donePoints float64
	largeUnstarted := []Ticket{}
	for _, t := range tickets {
		totalPoints += t.StoryPoints
		switch t.StatusCategory {
		case CategoryDone:
			byCat.Done = append(byCat.Done, t)
			donePoints += t.StoryPoints
		case CategoryInProgress:
			byCat.InProgress = append(byCat.InProgress, t)
		case CategoryTodo:
			byCat.Todo = append(byCat.Todo, t)
			if t.StoryPoints >= LargeTicketPoints {
				largeUnstarted = append(largeUnstarted, t)
			}
		}
	}

	progress := Progress{
		TotalTickets:       len(tickets),
		Done:               len(byCat.Done),
		InProgress:         len(byCat.InProgress),
		Todo:               len(byCat.Todo),
		PercentDoneTickets: percent(float64(len(byCat.Done)), float64(len(tickets))),
		TotalStoryPoints:   totalPoints,
		DoneStoryPoints:    donePoints,
		PercentDonePoints:  percent(donePoints, totalPoints),
	}

	return models.SkillResult{
		"sprint":          info,
		"progress":        progress,
		"blockers":        blockers(tickets),
		"large_unstarted": largeUnstarted,
		"tickets":         byCat,
	}
}

func percent(part, total float64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(part / total * 100))
}

// datePart keeps the YYYY-MM-DD prefix of a Jira timestamp
func datePart(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}

