package matcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"scheduling_backend/internal/schedules/domain"
	"scheduling_backend/internal/zuper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	byTag  []zuper.Job
	byText []zuper.Job
	err    error
	calls  []zuper.JobQuery
}

func (s *stubSearcher) SearchJobs(_ context.Context, q zuper.JobQuery) ([]zuper.Job, error) {
	s.calls = append(s.calls, q)
	if s.err != nil {
		return nil, s.err
	}
	if q.Tag != "" {
		return s.byTag, nil
	}
	return s.byText, nil
}

func surveyCriteria() Criteria {
	return Criteria{
		Category:    zuper.CategorySurvey,
		Tag:         "hubspot-12345",
		ProjectCode: "PROJ-1001",
		LastName:    "Smith",
	}
}

func TestSelectPrefersTagOverLastName(t *testing.T) {
	jobs := []zuper.Job{
		{UID: "by-name", Title: "Smith, John - Site Survey", Category: zuper.CategorySurvey},
		{UID: "by-tag", Title: "Unrelated title", Tags: []string{"HubSpot-12345"}, Category: zuper.CategorySurvey},
	}

	job, kind := Select(jobs, surveyCriteria())
	require.NotNil(t, job)
	assert.Equal(t, "by-tag", job.UID)
	assert.Equal(t, MatchTag, kind)
}

func TestSelectTagRequiresSameCategory(t *testing.T) {
	jobs := []zuper.Job{
		{UID: "install", Tags: []string{"hubspot-12345"}, Category: zuper.CategoryInstallation},
	}

	job, kind := Select(jobs, surveyCriteria())
	assert.Nil(t, job)
	assert.Equal(t, MatchNone, kind)
}

func TestSelectProjectCodeBeforeLastName(t *testing.T) {
	jobs := []zuper.Job{
		{UID: "name", Title: "Smith, Jane", Category: zuper.CategorySurvey},
		{UID: "code", Title: "proj-1001 | Survey", Category: zuper.CategorySurvey},
	}

	job, kind := Select(jobs, surveyCriteria())
	require.NotNil(t, job)
	assert.Equal(t, "code", job.UID)
	assert.Equal(t, MatchProjectCode, kind)
}

func TestSelectLastNameVariants(t *testing.T) {
	c := Criteria{Category: zuper.CategorySurvey, LastName: "Smith"}

	for _, title := range []string{"Smith, John", "Smith John survey", "Survey for Smith, J", "Survey - Smith residence"} {
		job, kind := Select([]zuper.Job{{UID: "j", Title: title, Category: zuper.CategorySurvey}}, c)
		require.NotNil(t, job, title)
		assert.Equal(t, MatchLastName, kind)
	}

	job, _ := Select([]zuper.Job{{UID: "j", Title: "Smithson residence", Category: zuper.CategorySurvey}}, c)
	assert.Nil(t, job)
}

func TestSelectIgnoresShortLastNames(t *testing.T) {
	c := Criteria{Category: zuper.CategorySurvey, LastName: "Li"}
	job, kind := Select([]zuper.Job{{UID: "j", Title: "Li, Wei", Category: zuper.CategorySurvey}}, c)
	assert.Nil(t, job)
	assert.Equal(t, MatchNone, kind)
}

func TestFindReturnsTagMatchWithoutTextSearch(t *testing.T) {
	searcher := &stubSearcher{
		byTag: []zuper.Job{{UID: "tagged", Tags: []string{"hubspot-12345"}, Category: zuper.CategorySurvey}},
	}

	job, kind, err := New(searcher).Find(context.Background(), surveyCriteria())
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "tagged", job.UID)
	assert.Equal(t, MatchTag, kind)
	assert.Len(t, searcher.calls, 1)
}

func TestFindFallsBackToHeuristic(t *testing.T) {
	searcher := &stubSearcher{
		byText: []zuper.Job{{UID: "heuristic", Title: "PROJ-1001 Smith", Category: zuper.CategorySurvey}},
	}

	job, kind, err := New(searcher).Find(context.Background(), surveyCriteria())
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "heuristic", job.UID)
	assert.Equal(t, MatchProjectCode, kind)
	require.Len(t, searcher.calls, 2)
	assert.Equal(t, "PROJ-1001", searcher.calls[1].Text)
}

// keywordSearcher filters by title keyword the way the provider does.
type keywordSearcher struct {
	jobs  []zuper.Job
	texts []string
}

func (s *keywordSearcher) SearchJobs(_ context.Context, q zuper.JobQuery) ([]zuper.Job, error) {
	if q.Tag != "" {
		return nil, nil
	}
	s.texts = append(s.texts, q.Text)
	var out []zuper.Job
	for _, job := range s.jobs {
		if strings.Contains(strings.ToLower(job.Title), strings.ToLower(q.Text)) {
			out = append(out, job)
		}
	}
	return out, nil
}

func TestFindSearchesByLastNameWhenCodeFindsNothing(t *testing.T) {
	searcher := &keywordSearcher{jobs: []zuper.Job{
		{UID: "smith", Title: "Smith, John - Site Survey", Category: zuper.CategorySurvey},
	}}

	job, kind, err := New(searcher).Find(context.Background(), surveyCriteria())
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "smith", job.UID)
	assert.Equal(t, MatchLastName, kind)
	assert.Equal(t, []string{"PROJ-1001", "Smith"}, searcher.texts)
}

func TestFindSkipsLastNameSearchWhenCodeMatches(t *testing.T) {
	searcher := &keywordSearcher{jobs: []zuper.Job{
		{UID: "coded", Title: "PROJ-1001 Site Survey", Category: zuper.CategorySurvey},
		{UID: "smith", Title: "Smith, John - Site Survey", Category: zuper.CategorySurvey},
	}}

	job, kind, err := New(searcher).Find(context.Background(), surveyCriteria())
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "coded", job.UID)
	assert.Equal(t, MatchProjectCode, kind)
	assert.Equal(t, []string{"PROJ-1001"}, searcher.texts)
}

func TestFindSkipsShortLastNameSearch(t *testing.T) {
	searcher := &keywordSearcher{jobs: []zuper.Job{
		{UID: "ng", Title: "Ng, Kim - Site Survey", Category: zuper.CategorySurvey},
	}}
	c := surveyCriteria()
	c.LastName = "Ng"

	job, _, err := New(searcher).Find(context.Background(), c)
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.Equal(t, []string{"PROJ-1001"}, searcher.texts)
}

func TestFindNoMatchIsNotAnError(t *testing.T) {
	job, kind, err := New(&stubSearcher{}).Find(context.Background(), surveyCriteria())
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.Equal(t, MatchNone, kind)
}

func TestFindPropagatesSearchErrors(t *testing.T) {
	_, _, err := New(&stubSearcher{err: errors.New("timeout")}).Find(context.Background(), surveyCriteria())
	require.Error(t, err)
}

func TestCriteriaFor(t *testing.T) {
	rec := &domain.ScheduleRecord{
		ScheduleType: domain.ScheduleTypeInstallation,
		ProjectID:    "555",
		ProjectName:  "PROJ-2002 | Garcia, Maria | 9 Elm St",
	}

	c := CriteriaFor(rec, "hubspot")
	assert.Equal(t, zuper.CategoryInstallation, c.Category)
	assert.Equal(t, "hubspot-555", c.Tag)
	assert.Equal(t, "PROJ-2002", c.ProjectCode)
	assert.Equal(t, "Garcia", c.LastName)
}
