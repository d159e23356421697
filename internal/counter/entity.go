package counter

// Well-known counter names.
const (
	NameTasks          = "tasks"
	NameLastNotionSync = "lastNotionSync"
)

// Counter is a named sequence value. The tasks counter is the task-number
// high-water mark; lastNotionSync stores a unix-millisecond timestamp.
type Counter struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}
