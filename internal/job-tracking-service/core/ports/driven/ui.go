package driven

// Notifier surfaces toasts and the passive connection badge.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
	ConnStatus(status ConnStatus)
}

// Navigator switches the current screen.
type Navigator interface {
	Navigate(route string)
}
