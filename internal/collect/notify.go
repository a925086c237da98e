package collect

// Notifier shows user facing notices.
type Notifier interface {
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

// NoopNotifier doesn't show anything.
const NoopNotifier = noopNotifier(0)

type noopNotifier int

func (noopNotifier) Success(msg string) {}
func (noopNotifier) Warning(msg string) {}
func (noopNotifier) Error(msg string)   {}
