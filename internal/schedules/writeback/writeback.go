// Package writeback mirrors a confirmed schedule onto the CRM deal and
// verifies the write. Every problem becomes a warning.
package writeback

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"scheduling_backend/internal/schedules/domain"
	"scheduling_backend/platform/logger"
)

const dateLayout = "2006-01-02"

// SurveyorProperty holds the assigned surveyor on survey deals.
const SurveyorProperty = "site_surveyor"

// dateProperties lists the primary property first, then its legacy alias.
var dateProperties = map[domain.ScheduleType][]string{
	domain.ScheduleTypeSurvey:       {"site_survey_date", "site_survey_schedule_date"},
	domain.ScheduleTypeInstallation: {"install_schedule_date", "construction_schedule_date"},
	domain.ScheduleTypeInspection:   {"inspections_schedule_date", "inspection_schedule_date"},
}

// CRM is the deal property API used by the writeback.
type CRM interface {
	UpdateProperties(ctx context.Context, dealID string, props map[string]string) (bool, error)
	ReadProperties(ctx context.Context, dealID string, keys []string) (map[string]string, error)
}

// Request describes one writeback.
type Request struct {
	DealID       string
	ScheduleType domain.ScheduleType
	Date         string
	Assignee     string
}

// Writer performs CRM writebacks.
type Writer struct {
	crm CRM
	log *logger.Logger
}

// New creates a Writer. A nil crm disables writeback.
func New(crm CRM, log *logger.Logger) *Writer {
	return &Writer{crm: crm, log: log}
}

// PropertiesFor returns the properties written for req.
func PropertiesFor(req Request) map[string]string {
	props := make(map[string]string)
	for _, key := range dateProperties[req.ScheduleType] {
		props[key] = req.Date
	}
	if req.ScheduleType == domain.ScheduleTypeSurvey && strings.TrimSpace(req.Assignee) != "" {
		props[SurveyorProperty] = strings.TrimSpace(req.Assignee)
	}
	return props
}

// Apply writes and verifies the deal properties. It never fails; the
// returned warnings describe everything that did not verify.
func (w *Writer) Apply(ctx context.Context, req Request) (warnings []string) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("crm writeback panicked", "deal_id", req.DealID, "panic", fmt.Sprint(r))
			warnings = append(warnings, fmt.Sprintf("HubSpot writeback aborted: %v", r))
		}
	}()

	if disabled(w.crm) {
		return nil
	}
	if strings.TrimSpace(req.DealID) == "" {
		return []string{"HubSpot writeback skipped: record has no deal id"}
	}

	props := PropertiesFor(req)
	ok, err := w.crm.UpdateProperties(ctx, req.DealID, props)
	if err != nil {
		w.log.ExternalCallFailed("hubspot", "update_properties", err)
		return append(warnings, fmt.Sprintf("HubSpot update failed for deal %s: %v", req.DealID, err))
	}
	if !ok {
		return append(warnings, fmt.Sprintf("HubSpot rejected the schedule update for deal %s", req.DealID))
	}

	return append(warnings, w.verify(ctx, req, props)...)
}

func (w *Writer) verify(ctx context.Context, req Request, written map[string]string) []string {
	keys := make([]string, 0, len(written))
	keys = append(keys, dateProperties[req.ScheduleType]...)
	if req.ScheduleType == domain.ScheduleTypeSurvey {
		keys = append(keys, SurveyorProperty)
	}

	got, err := w.crm.ReadProperties(ctx, req.DealID, keys)
	if err != nil {
		w.log.ExternalCallFailed("hubspot", "read_properties", err)
		return []string{fmt.Sprintf("HubSpot verification read failed for deal %s: %v", req.DealID, err)}
	}

	var warnings []string
	dateOK := false
	observed := make([]string, 0, len(dateProperties[req.ScheduleType]))
	for _, key := range dateProperties[req.ScheduleType] {
		value := got[key]
		observed = append(observed, fmt.Sprintf("%s=%q", key, value))
		if sameDate(value, req.Date) {
			dateOK = true
		}
	}
	if !dateOK {
		warnings = append(warnings, fmt.Sprintf("HubSpot %s date did not verify for deal %s: expected %s, found %s",
			req.ScheduleType, req.DealID, req.Date, strings.Join(observed, ", ")))
	}
	if req.ScheduleType == domain.ScheduleTypeSurvey && strings.TrimSpace(got[SurveyorProperty]) == "" {
		warnings = append(warnings, fmt.Sprintf("HubSpot %s is blank for deal %s", SurveyorProperty, req.DealID))
	}
	return warnings
}

// sameDate compares a read-back value against the written date. The CRM
// returns date properties either as YYYY-MM-DD or as epoch milliseconds of
// UTC midnight.
func sameDate(value, want string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if value == want {
		return true
	}
	if len(value) > len(dateLayout) && strings.HasPrefix(value, want) {
		return true
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false
	}
	return time.UnixMilli(ms).UTC().Format(dateLayout) == want
}

// disabled also catches a typed nil client stored in the interface.
func disabled(c CRM) bool {
	if c == nil {
		return true
	}
	type configured interface{ Configured() bool }
	if cc, ok := c.(configured); ok {
		return !cc.Configured()
	}
	return false
}
