package enum

// WorkStatus marks whether a staff contributor was on site for the day
type WorkStatus string

const (
	WorkStatusPresent WorkStatus = "present"
	WorkStatusAbsent  WorkStatus = "absent"
)

// ParseWorkStatus maps free-form input onto a valid status; anything that is
// not recognizably "absent" counts as present.
func ParseWorkStatus(s string) WorkStatus {
	if s == string(WorkStatusAbsent) {
		return WorkStatusAbsent
	}
	return WorkStatusPresent
}

func (s WorkStatus) IsValid() bool {
	return s == WorkStatusPresent || s == WorkStatusAbsent
}
