package zuper

import "fmt"

// Job is the subset of a provider job the confirmation flow reads.
type Job struct {
	UID           string         `json:"job_uid"`
	Title         string         `json:"job_title"`
	Tags          []string       `json:"job_tags"`
	Category      Category       `json:"job_category"`
	AssignedTo    []AssignedUser `json:"assigned_to,omitempty"`
	AssignedTeams []AssignedTeam `json:"assigned_to_team,omitempty"`
}

// AssignedUser is a user assignment on a job.
type AssignedUser struct {
	User struct {
		UserUID string `json:"user_uid"`
	} `json:"user"`
}

// AssignedTeam is a team assignment on a job.
type AssignedTeam struct {
	Team struct {
		TeamUID string `json:"team_uid"`
	} `json:"team"`
}

// User is a provider user account.
type User struct {
	UID       string `json:"user_uid"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// FullName returns "First Last".
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// JobQuery filters a job search. Empty fields are not sent.
type JobQuery struct {
	Category Category
	Tag      string
	Text     string
}

// RescheduleRequest moves a job to a new UTC window and optionally reassigns it.
type RescheduleRequest struct {
	JobUID   string
	StartUTC string
	EndUTC   string
	UserUIDs []string
	TeamUID  string
}

// APIError is a non-success response from the provider.
type APIError struct {
	Operation string
	Status    int
	Message   string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("zuper %s: status %d: %s", e.Operation, e.Status, e.Message)
	}
	return fmt.Sprintf("zuper %s: status %d", e.Operation, e.Status)
}

type listEnvelope[T any] struct {
	Type       string `json:"type"`
	Data       []T    `json:"data"`
	Message    string `json:"message"`
	TotalPages int    `json:"total_pages"`
}

type actionEnvelope struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type scheduleBody struct {
	JobUID   string `json:"job_uid"`
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

type assignUser struct {
	UserUID string `json:"user_uid"`
}

type assignBody struct {
	JobUID  string       `json:"job_uid"`
	Users   []assignUser `json:"users,omitempty"`
	TeamUID string       `json:"team_uid,omitempty"`
}
