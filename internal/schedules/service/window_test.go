package service

import (
	"testing"

	"scheduling_backend/internal/schedules/domain"
	"scheduling_backend/internal/schedules/timezone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

func TestComputeWindowSurveyDefaultsToOneHour(t *testing.T) {
	rec := &domain.ScheduleRecord{
		ScheduleType:  domain.ScheduleTypeInspection,
		ProjectName:   "PROJ-1 | Doe, Jane | Boulder",
		ScheduledDate: "2025-01-15",
	}

	w, err := ComputeWindow(rec)
	require.NoError(t, err)
	assert.Equal(t, "America/Denver", w.Zone)
	assert.Equal(t, "08:00", w.LocalStart)
	assert.Equal(t, "2025-01-15 15:00:00", w.StartUTC)
	assert.Equal(t, "2025-01-15 16:00:00", w.EndUTC)
	assert.Equal(t, timezone.SourceZoneDatabase, w.Source)
}

func TestComputeWindowLateSurveyRollsIntoNextDay(t *testing.T) {
	rec := &domain.ScheduleRecord{
		ScheduleType:   domain.ScheduleTypeSurvey,
		ProjectName:    "PROJ-2 | Doe, Jane | San Luis Obispo",
		ScheduledDate:  "2025-01-31",
		ScheduledStart: "23:30",
	}

	w, err := ComputeWindow(rec)
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", w.Zone)
	assert.Equal(t, "2025-02-01 07:30:00", w.StartUTC)
	assert.Equal(t, "2025-02-01 08:30:00", w.EndUTC)
}

func TestComputeWindowInstallationSpansDays(t *testing.T) {
	rec := &domain.ScheduleRecord{
		ScheduleType:   domain.ScheduleTypeInstallation,
		ProjectName:    "PROJ-3 | Roe, Sam | Golden",
		ScheduledDate:  "2025-06-30",
		ScheduledStart: "7:00",
		ScheduledDays:  float(2.5),
	}

	w, err := ComputeWindow(rec)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-30 13:00:00", w.StartUTC)
	assert.Equal(t, "2025-07-02 23:00:00", w.EndUTC)
}

func TestComputeWindowHonorsTypedTimezone(t *testing.T) {
	zone := "America/Los_Angeles"
	rec := &domain.ScheduleRecord{
		ScheduleType:   domain.ScheduleTypeSurvey,
		ProjectName:    "PROJ-4 | Poe, Al | Denver",
		ScheduledDate:  "2025-03-09",
		ScheduledStart: "10:00",
		ScheduledEnd:   "11:30",
		Timezone:       &zone,
	}

	w, err := ComputeWindow(rec)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-09 17:00:00", w.StartUTC)
	assert.Equal(t, "2025-03-09 18:30:00", w.EndUTC)
}

func TestComputeWindowRejectsMalformedDate(t *testing.T) {
	_, err := ComputeWindow(&domain.ScheduleRecord{ScheduleType: domain.ScheduleTypeSurvey, ScheduledDate: "06/10/2025"})
	require.Error(t, err)
}

func TestInstallSpanDays(t *testing.T) {
	assert.Equal(t, 1, InstallSpanDays(nil))
	assert.Equal(t, 1, InstallSpanDays(float(0)))
	assert.Equal(t, 1, InstallSpanDays(float(0.5)))
	assert.Equal(t, 1, InstallSpanDays(float(1)))
	assert.Equal(t, 2, InstallSpanDays(float(1.2)))
	assert.Equal(t, 3, InstallSpanDays(float(3)))
}

func TestCanConfirm(t *testing.T) {
	assert.True(t, CanConfirm([]string{"sales"}, domain.ScheduleTypeSurvey))
	assert.False(t, CanConfirm([]string{"sales"}, domain.ScheduleTypeInstallation))
	assert.True(t, CanConfirm([]string{"viewer", "Tech_Ops"}, domain.ScheduleTypeInspection))
	assert.False(t, CanConfirm(nil, domain.ScheduleTypeSurvey))
}
