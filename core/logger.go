package core

// Logger is the application logger.
// args may carry errors, extra fields (map[string]interface{}) and the Caller the log entry is about.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Caller identifies the authenticated operator behind a request.
type Caller struct {
	ID   string
	Name string
}
