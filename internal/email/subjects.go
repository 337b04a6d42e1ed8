package email

const (
	subjectScheduleConfirmedFmt = "%s confirmed: %s on %s"
)
