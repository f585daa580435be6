package validator

import (
	"time"
)

// Business rules that cannot be expressed as struct tags.

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

func invalidField(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message}}
}

// ValidateClassSchedule checks that the end of a class does not precede its
// start. Times are only compared when both dates fall on the same day.
func (v *Validator) ValidateClassSchedule(startDate, endDate, startTime, endTime string) error {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return invalidField("start_date", "start_date must be formatted as YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return invalidField("end_date", "end_date must be formatted as YYYY-MM-DD")
	}
	if end.Before(start) {
		return invalidField("end_date", "end_date must not be before start_date")
	}

	if !start.Equal(end) {
		return nil
	}

	st, err := time.Parse(timeLayout, clipSeconds(startTime))
	if err != nil {
		return invalidField("start_time", "start_time must be formatted as HH:MM")
	}
	et, err := time.Parse(timeLayout, clipSeconds(endTime))
	if err != nil {
		return invalidField("end_time", "end_time must be formatted as HH:MM")
	}
	if !et.After(st) {
		return invalidField("end_time", "end_time must be after start_time")
	}
	return nil
}

func clipSeconds(value string) string {
	if len(value) > 5 {
		return value[:5]
	}
	return value
}
