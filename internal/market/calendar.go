package market

import (
	"fmt"
	"time"

	"github.com/gorilla/feeds"
)

// Importance tiers of an indicator release.
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

// CalendarSource labels generated calendar events.
const CalendarSource = "Mock Calendar"

// CalendarEvent is one upcoming indicator release.
type CalendarEvent struct {
	Datetime   string     `json:"datetime"`
	Indicator  string     `json:"indicator"`
	Code       string     `json:"code"`
	Consensus  *float64   `json:"consensus"`
	Previous   *float64   `json:"previous"`
	Importance Importance `json:"importance"`
	Country    string     `json:"country"`
	Source     string     `json:"source"`

	at time.Time
}

// At is the release time.
func (e CalendarEvent) At() time.Time { return e.at }

var releases = []struct {
	code       string
	name       string
	importance Importance
}{
	{"CPI", "소비자물가지수", ImportanceHigh},
	{"Unemployment", "실업률", ImportanceMedium},
	{"GDP", "GDP 성장률", ImportanceHigh},
	{"Retail Sales", "소매판매", ImportanceMedium},
	{"Policy Rate", "기준금리 결정", ImportanceHigh},
}

// MockCalendar returns one release per day over the five days after now.
func MockCalendar(now time.Time, country string) []CalendarEvent {
	if country == "" {
		country = "KR"
	}
	events := make([]CalendarEvent, 0, len(releases))
	for i, r := range releases {
		at := now.AddDate(0, 0, i+1)
		events = append(events, CalendarEvent{
			Datetime:   at.Format("2006-01-02 15:04"),
			Indicator:  r.name,
			Code:       r.code,
			Importance: r.importance,
			Country:    country,
			Source:     CalendarSource,
			at:         at,
		})
	}
	return events
}

// CalendarFeed renders events as an RSS 2.0 document. link is the public
// URL of the dashboard calendar.
func CalendarFeed(events []CalendarEvent, link string, now time.Time) (string, error) {
	feed := &feeds.Feed{
		Title:       "경제지표 발표 일정",
		Link:        &feeds.Link{Href: link},
		Description: "Upcoming economic indicator releases",
		Created:     now,
	}
	for _, e := range events {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          fmt.Sprintf("%s-%s-%s", e.Country, e.Code, e.at.Format("20060102")),
			Title:       fmt.Sprintf("[%s] %s", e.Country, e.Indicator),
			Link:        &feeds.Link{Href: link},
			Description: fmt.Sprintf("%s 발표 예정 (중요도: %s)", e.Datetime, e.Importance),
			Created:     e.at,
		})
	}
	return feed.ToRss()
}
