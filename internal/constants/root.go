package constants

import "time"

const (
	AppName = "habittasker"

	// Snapshot file layout, relative to the data directory
	DataDirName      = "HabitTasker"
	SnapshotFileName = "habits.json"

	// ExportFilePrefix and ExportFileSuffix frame the suggested export file name:
	// HabitTasker-YYYY-MM-DD.json
	ExportFilePrefix = "HabitTasker-"
	ExportFileSuffix = ".json"

	// SchemaVersion is the only snapshot version this build reads or writes.
	SchemaVersion = 1

	// SaveDelay is the idle time before a debounced snapshot write.
	SaveDelay = 800 * time.Millisecond

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habits-"

	// Notify constants
	NotifierLockfileName   = "habittasker-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.habittasker"
	TrayProcessPrefix      = "habittasker-tray"
	ReminderTitle          = "HabitTasker"
	ReminderBody           = "Time to close out today's habits 👌"

	// Reminder defaults
	DefaultReminderTime = "19:30"

	// Stats periods, in days including today
	WeekDays  = 7
	MonthDays = 30
	YearDays  = 365

	// Dot strips
	WeekDotsCount  = 7
	StatsDotsCount = 14

	// FallbackColorHex is rendered when a habit's stored color cannot be parsed.
	FallbackColorHex = "50C878"
)

// Habit form defaults
const (
	DefaultHabitIcon  = "⭐️"
	DefaultHabitColor = "FFD60A"
	MaxIconGraphemes  = 2
)

// ColorPalette is offered by the habit form.
var ColorPalette = []string{
	"0A84FF", "34C759", "FFD60A", "FF375F", "AF52DE", "FF9F0A", "00C7BE",
	"FF453A", "BF5AF2", "30D158", "64D2FF", "FFB340", "8E8E93", "FFFFFF",
}
