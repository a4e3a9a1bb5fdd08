package moodle

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/knguessan/moodlewatch/internal/domain/model"
)

// cardStatePhrases are the labels the Moodle 4 card view renders for an
// activity that is about to open or close. Locale-bound, like the login marker.
var cardStatePhrases = []string{"se termine", "s'ouvre"}

// extractStrategy tries one known calendar shape. An empty result means the
// shape was not recognized and the next strategy should run.
type extractStrategy func(doc *goquery.Document) []model.Assignment

// Ordered fallback chain. The event list is the standard Boost theme shape;
// the card scan only runs when no event containers matched.
var strategies = []extractStrategy{extractEvents, extractCards}

// Extract parses a calendar page into assignment records. It is a pure
// function over the response text and never fails: a malformed or
// unrecognized document yields an empty slice, and missing optional fields
// degrade to sentinels. Records without an extractable title are dropped.
func Extract(html string) []model.Assignment {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	for _, strategy := range strategies {
		if records := strategy(doc); len(records) > 0 {
			return records
		}
	}
	return nil
}

// extractEvents handles div.event containers with an h3.name title and a
// div.date timestamp.
func extractEvents(doc *goquery.Document) []model.Assignment {
	var records []model.Assignment
	doc.Find("div.event").Each(func(_ int, event *goquery.Selection) {
		title := strings.TrimSpace(event.Find("h3.name").First().Text())
		if title == "" {
			return
		}

		date := strings.TrimSpace(event.Find("div.date").First().Text())
		if date == "" {
			date = scanRowsForDate(event)
		}

		link := model.NoLink
		if href, ok := event.Find("h3.name a").First().Attr("href"); ok && href != "" {
			link = href
		}

		records = append(records, model.Assignment{
			Title:   title,
			Course:  model.CourseEvent,
			DueDate: date,
			Link:    link,
		})
	})
	return records
}

// scanRowsForDate falls back to the Bootstrap grid: on some themes the date
// is bare text inside a div.row rather than a dedicated date node.
func scanRowsForDate(event *goquery.Selection) string {
	date := model.DueDateUnknown
	event.Find("div.row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		text := strings.TrimSpace(row.Text())
		if looksLikeDate(text) {
			date = text
			return false
		}
		return true
	})
	return date
}

// looksLikeDate is the heuristic for date-like text: at least one digit plus
// a time separator.
func looksLikeDate(text string) bool {
	return strings.ContainsRune(text, ':') && strings.ContainsFunc(text, unicode.IsDigit)
}

// extractCards handles the Moodle 4 card view, keeping only cards whose text
// mentions an opening or closing activity. A card without a heading still
// produces a record under a generic title.
func extractCards(doc *goquery.Document) []model.Assignment {
	var records []model.Assignment
	doc.Find("div.card").Each(func(_ int, card *goquery.Selection) {
		if !containsStatePhrase(card.Text()) {
			return
		}

		title := strings.TrimSpace(card.Find("h3").First().Text())
		if title == "" {
			title = model.GenericTitle
		}

		date := strings.TrimSpace(card.Find("div.text-muted").First().Text())
		if date == "" {
			date = model.DueDateUnknown
		}

		records = append(records, model.Assignment{
			Title:   title,
			Course:  model.CourseCard,
			DueDate: date,
			Link:    model.NoLink,
		})
	})
	return records
}

func containsStatePhrase(text string) bool {
	for _, phrase := range cardStatePhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
