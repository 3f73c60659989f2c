package planner

import (
	"github.com/google/uuid"
)

// Sources that derive planner items.
const (
	SourceCalendar = "calendar"
	SourceTemplate = "template"
	SourceWeekday  = "weekday"
)

var derivedNamespace = uuid.MustParse("7b0c3f52-3f7e-4f2c-9c55-0c1d5e9a6a41")

// DerivedID returns the identity of the item a source link materializes as in
// a period. The same link in the same period always yields the same identity.
func DerivedID(period, source, ref string) string {
	return uuid.NewSHA1(derivedNamespace, []byte(period+"/"+source+"/"+ref)).String()
}

// NewID returns a fresh identity for a user-created item.
func NewID() string {
	return uuid.NewString()
}
