package constants

const (
	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"
)
