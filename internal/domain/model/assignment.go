package model

// Sentinel values substituted for assignment fields the calendar markup does
// not expose. The scraped site is unversioned and theme-dependent; a partially
// extracted record is more useful to the student than no record at all.
// User-facing strings follow the deployed site's locale.
const (
	// DueDateUnknown replaces a due date the extractor could not locate.
	DueDateUnknown = "Date inconnue"

	// NoLink replaces a missing activity link.
	NoLink = "#"

	// GenericTitle names a card-view activity with no heading.
	GenericTitle = "Activité"

	// CourseEvent is the course placeholder for event-list entries; the
	// upcoming view does not expose the course name reliably.
	CourseEvent = "Moodle Event"

	// CourseCard is the course placeholder for card-view entries.
	CourseCard = "UVCI"
)

// Assignment is one upcoming calendar entry scraped from the platform.
// DueDate is free-form display text in the site's locale, not a parsed time.
// Assignments are produced fresh on every extraction and never persisted:
// notification downstream is at-least-once, with no dedup against earlier runs.
type Assignment struct {
	Title   string
	Course  string
	DueDate string
	Link    string
}
