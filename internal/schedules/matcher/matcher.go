// Package matcher finds the provider job that already represents a schedule.
package matcher

import (
	"context"
	"fmt"
	"strings"

	"scheduling_backend/internal/schedules/domain"
	"scheduling_backend/internal/zuper"
)

// minLastNameLen guards against false positives on short surnames.
const minLastNameLen = 3

// MatchKind says which rule produced a match.
type MatchKind string

const (
	MatchNone        MatchKind = ""
	MatchTag         MatchKind = "tag"
	MatchProjectCode MatchKind = "project_code"
	MatchLastName    MatchKind = "last_name"
)

// JobSearcher is the provider search capability the matcher needs.
type JobSearcher interface {
	SearchJobs(ctx context.Context, q zuper.JobQuery) ([]zuper.Job, error)
}

// Criteria describes the job being looked for.
type Criteria struct {
	Category    zuper.Category
	Tag         string
	ProjectCode string
	LastName    string
}

// Matcher runs tag-first, heuristic-second job matching.
type Matcher struct {
	searcher JobSearcher
}

// New creates a Matcher over searcher.
func New(searcher JobSearcher) *Matcher {
	return &Matcher{searcher: searcher}
}

// CategoryFor maps a schedule type onto the provider category.
func CategoryFor(t domain.ScheduleType) zuper.Category {
	switch t {
	case domain.ScheduleTypeSurvey:
		return zuper.CategorySurvey
	case domain.ScheduleTypeInstallation:
		return zuper.CategoryInstallation
	case domain.ScheduleTypeInspection:
		return zuper.CategoryInspection
	}
	return zuper.CategoryUnknown
}

// ProjectTag builds the "<source>-<projectId>" tag stamped on provider jobs.
func ProjectTag(source, projectID string) string {
	return strings.TrimSpace(source) + "-" + strings.TrimSpace(projectID)
}

// CriteriaFor derives match criteria from a schedule record.
func CriteriaFor(rec *domain.ScheduleRecord, tagSource string) Criteria {
	parts := domain.ParseProjectName(rec.ProjectName)
	return Criteria{
		Category:    CategoryFor(rec.ScheduleType),
		Tag:         ProjectTag(tagSource, rec.ProjectID),
		ProjectCode: parts.Code,
		LastName:    parts.CustomerLastName(),
	}
}

// Find returns the matching job, or nil when none exists. No match is not an error.
func (m *Matcher) Find(ctx context.Context, c Criteria) (*zuper.Job, MatchKind, error) {
	tagged, err := m.searcher.SearchJobs(ctx, zuper.JobQuery{Category: c.Category, Tag: c.Tag})
	if err != nil {
		return nil, MatchNone, fmt.Errorf("search jobs by tag: %w", err)
	}
	if job := matchByTag(tagged, c); job != nil {
		return job, MatchTag, nil
	}

	// The provider filters by keyword server-side, so the code and the last
	// name each need their own search before the heuristics can see a job.
	jobs := tagged
	for _, text := range searchTerms(c) {
		candidates, err := m.searcher.SearchJobs(ctx, zuper.JobQuery{Category: c.Category, Text: text})
		if err != nil {
			return nil, MatchNone, fmt.Errorf("search jobs by text: %w", err)
		}
		jobs = mergeJobs(jobs, candidates)
		if job, kind := Select(jobs, c); job != nil {
			return job, kind, nil
		}
	}
	return nil, MatchNone, nil
}

func searchTerms(c Criteria) []string {
	var terms []string
	if code := strings.TrimSpace(c.ProjectCode); code != "" {
		terms = append(terms, code)
	}
	if lastName := strings.TrimSpace(c.LastName); len(lastName) >= minLastNameLen {
		terms = append(terms, lastName)
	}
	return terms
}

// Select applies the matching rules to an already-fetched job list.
// A tag match always wins over heuristic matches.
func Select(jobs []zuper.Job, c Criteria) (*zuper.Job, MatchKind) {
	if job := matchByTag(jobs, c); job != nil {
		return job, MatchTag
	}
	return matchByHeuristic(jobs, c)
}

func matchByTag(jobs []zuper.Job, c Criteria) *zuper.Job {
	if c.Tag == "" {
		return nil
	}
	for i := range jobs {
		if jobs[i].Category != c.Category {
			continue
		}
		for _, tag := range jobs[i].Tags {
			if strings.EqualFold(strings.TrimSpace(tag), c.Tag) {
				return &jobs[i]
			}
		}
	}
	return nil
}

func matchByHeuristic(jobs []zuper.Job, c Criteria) (*zuper.Job, MatchKind) {
	code := normalizeCode(c.ProjectCode)
	lastName := strings.ToLower(strings.TrimSpace(c.LastName))
	useLastName := len(lastName) >= minLastNameLen

	if code == "" && !useLastName {
		return nil, MatchNone
	}

	for i := range jobs {
		if jobs[i].Category != c.Category {
			continue
		}
		if code != "" && strings.Contains(normalizeCode(jobs[i].Title), code) {
			return &jobs[i], MatchProjectCode
		}
	}
	if !useLastName {
		return nil, MatchNone
	}
	for i := range jobs {
		if jobs[i].Category != c.Category {
			continue
		}
		title := strings.ToLower(strings.TrimSpace(jobs[i].Title))
		if strings.HasPrefix(title, lastName+",") || strings.HasPrefix(title, lastName+" ") ||
			strings.Contains(title, lastName+",") || strings.Contains(title, lastName+" ") {
			return &jobs[i], MatchLastName
		}
	}
	return nil, MatchNone
}

// normalizeCode uppercases and removes whitespace so "proj 1001" matches "PROJ1001".
func normalizeCode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func mergeJobs(lists ...[]zuper.Job) []zuper.Job {
	seen := make(map[string]bool)
	var out []zuper.Job
	for _, list := range lists {
		for _, job := range list {
			if job.UID != "" && seen[job.UID] {
				continue
			}
			seen[job.UID] = true
			out = append(out, job)
		}
	}
	return out
}
