// Package generate materializes a campaign template into backend boards,
// groups and tasks.
package generate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promodesk/campaignd/internal/backend"
	"github.com/promodesk/campaignd/internal/models"
	"github.com/promodesk/campaignd/internal/templates"
)

// ErrDependencyResolution indicates a template references a dependency
// that cannot be resolved. Checked before any backend object is created.
var ErrDependencyResolution = errors.New("dependency resolution failed")

// DependencyResolutionError reports which task referenced which
// unresolvable dependency.
type DependencyResolutionError struct {
	TaskName   string
	Dependency string
}

func (e *DependencyResolutionError) Error() string {
	return fmt.Sprintf("task %q depends on unknown or later task %q", e.TaskName, e.Dependency)
}

func (e *DependencyResolutionError) Unwrap() error {
	return ErrDependencyResolution
}

// Result holds everything a generation pass created, ready for
// registration in the store.
type Result struct {
	Board  models.Board
	Groups []models.Group
	Tasks  []models.Task
}

// Generator creates backend objects from a template. All backend traffic
// goes through the injected ProjectBackend, normally the rate-limited
// adapter.
type Generator struct {
	backend backend.ProjectBackend
	logger  *zap.Logger

	// Test hook
	now func() time.Time
}

// New creates a generator.
func New(pb backend.ProjectBackend, logger *zap.Logger) *Generator {
	return &Generator{
		backend: pb,
		logger:  logger,
		now:     time.Now,
	}
}

// validateDependencies walks the template in declaration order and
// checks every dependency names a task declared earlier. Runs before any
// backend call so a bad template creates nothing.
func validateDependencies(tmpl *templates.BoardTemplate) error {
	seen := make(map[string]bool)
	for _, group := range tmpl.Groups {
		for _, task := range group.Tasks {
			for _, dep := range task.DependsOn {
				if !seen[dep] {
					return &DependencyResolutionError{TaskName: task.Name, Dependency: dep}
				}
			}
			seen[task.Name] = true
		}
	}
	return nil
}

// Generate materializes the template for a brief. Groups and tasks are
// created in declaration order; due dates are the reference date plus
// each task's offset. A task creation failure aborts the pass and leaves
// already created backend objects in place.
func (g *Generator) Generate(ctx context.Context, b *models.CampaignBrief, tmpl *templates.BoardTemplate, campaignID string) (*Result, error) {
	if err := validateDependencies(tmpl); err != nil {
		return nil, err
	}

	now := g.now().UTC()
	reference := b.ReleaseDate
	if reference.IsZero() {
		reference = now.Truncate(24 * time.Hour)
	}

	boardName := tmpl.RenderBoardName(b)
	ref, err := g.backend.CreateBoard(ctx, boardName, tmpl.Description)
	if err != nil {
		return nil, fmt.Errorf("creating board %q: %w", boardName, err)
	}

	result := &Result{
		Board: models.Board{
			ID:        uuid.New().String(),
			BackendID: ref.ID,
			Name:      boardName,
			URL:       ref.URL,
		},
	}

	// Template task name -> created task, for dependency resolution.
	created := make(map[string]*models.Task)

	for pos, groupTmpl := range tmpl.Groups {
		backendGroupID, err := g.backend.CreateGroup(ctx, ref.ID, groupTmpl.Title, groupTmpl.Color)
		if err != nil {
			return nil, fmt.Errorf("creating group %q: %w", groupTmpl.Title, err)
		}

		group := models.Group{
			ID:        uuid.New().String(),
			BackendID: backendGroupID,
			BoardID:   result.Board.ID,
			Title:     groupTmpl.Title,
			Position:  pos,
		}
		result.Groups = append(result.Groups, group)

		for _, taskTmpl := range groupTmpl.Tasks {
			task, err := g.createTask(ctx, b, campaignID, ref.ID, &group, taskTmpl, reference, now, created)
			if err != nil {
				return nil, fmt.Errorf("creating task %q: %w", taskTmpl.Name, err)
			}
			created[task.Name] = task
			result.Tasks = append(result.Tasks, *task)
		}
	}

	g.logger.Info("campaign materialized",
		zap.String("campaign_id", campaignID),
		zap.String("board", ref.ID),
		zap.String("template", tmpl.Key),
		zap.Int("groups", len(result.Groups)),
		zap.Int("tasks", len(result.Tasks)))

	return result, nil
}

func (g *Generator) createTask(ctx context.Context, b *models.CampaignBrief, campaignID, backendBoardID string,
	group *models.Group, tmpl templates.TaskTemplate, reference, now time.Time, created map[string]*models.Task) (*models.Task, error) {

	due := reference.AddDate(0, 0, tmpl.OffsetDays)

	task := &models.Task{
		ID:          uuid.New().String(),
		CampaignID:  campaignID,
		GroupID:     group.ID,
		Name:        tmpl.Name,
		Description: templates.Description(tmpl.Name, b),
		Status:      models.TaskStatusNotStarted,
		Priority:    tmpl.Priority,
		DueDate:     due,
		Milestone:   tmpl.Type == templates.TypeMilestone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var dependsOnBackend []string
	for _, dep := range tmpl.DependsOn {
		// Pre-validated, so the dependency always exists here.
		depTask := created[dep]
		task.DependsOn = append(task.DependsOn, depTask.ID)
		dependsOnBackend = append(dependsOnBackend, depTask.BackendID)
	}

	if tmpl.Type == templates.TypeRecurring && tmpl.Frequency != "" {
		task.Frequency = tmpl.Frequency
		next := due
		task.NextDueDate = &next
	}
	if tmpl.Type == templates.TypeOngoing && tmpl.DurationDays > 0 {
		end := due.AddDate(0, 0, tmpl.DurationDays)
		task.EndDate = &end
	}

	backendID, err := g.backend.CreateTask(ctx, backendBoardID, group.BackendID, backend.TaskSpec{
		Name:        task.Name,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     due.Format("2006-01-02"),
		Assignee:    tmpl.Assignee,
	})
	if err != nil {
		return nil, err
	}
	task.BackendID = backendID

	if len(dependsOnBackend) > 0 {
		err = g.backend.UpdateTaskFields(ctx, backendBoardID, backendID, map[string]string{
			"dependencies": strings.Join(dependsOnBackend, ","),
		})
		if err != nil {
			return nil, fmt.Errorf("linking dependencies: %w", err)
		}
	}

	return task, nil
}

// ComputeTimeline derives the schedule envelope of a template anchored
// at the release date.
func ComputeTimeline(tmpl *templates.BoardTemplate, releaseDate, now time.Time) models.Timeline {
	earliest, latest := releaseDate, releaseDate
	var milestones []models.Milestone

	for _, group := range tmpl.Groups {
		for _, task := range group.Tasks {
			due := releaseDate.AddDate(0, 0, task.OffsetDays)
			if due.Before(earliest) {
				earliest = due
			}
			if due.After(latest) {
				latest = due
			}
			if task.DurationDays > 0 {
				if end := due.AddDate(0, 0, task.DurationDays); end.After(latest) {
					latest = end
				}
			}
			if task.Type == templates.TypeMilestone && due.After(now) {
				milestones = append(milestones, models.Milestone{Name: task.Name, DueDate: due})
			}
		}
	}

	tl := models.Timeline{
		CampaignStart:    earliest,
		CampaignEnd:      latest,
		DurationDays:     int(latest.Sub(earliest).Hours() / 24),
		DaysUntilRelease: int(releaseDate.Sub(now).Hours() / 24),
	}

	if len(milestones) > 0 {
		sort.Slice(milestones, func(i, j int) bool {
			return milestones[i].DueDate.Before(milestones[j].DueDate)
		})
		next := milestones[0]
		tl.NextMilestone = &next
	}
	return tl
}
