// Package ical renders calendar events as RFC 5545 iCalendar documents.
package ical

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/whenworks/calendar-api/internal/models"
)

const prodID = "-//whenworks//calendar-api//EN"

// WriteCalendar encodes the events as a single VCALENDAR stream.
func WriteCalendar(w io.Writer, events []models.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)

	for i := range events {
		cal.Children = append(cal.Children, toVEvent(&events[i]))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

// toVEvent converts an Event row into a VEVENT component. UIDs are derived
// from the row id so re-exports stay stable for subscribing clients.
func toVEvent(event *models.Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, fmt.Sprintf("event-%d@whenworks", event.ID))
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime)

	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}
	return ve
}
