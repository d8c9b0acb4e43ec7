package blog

import "fmt"

// Logger is the minimal logging surface commands and controllers need
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// NewLogger returns a stdout logger with the given tag
func NewLogger(tag string) Logger {
	return prefixLogger{tag: tag}
}

type prefixLogger struct {
	tag string
}

func (l prefixLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] "+l.tag+" "+newline(format), args...)
}

func (l prefixLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] "+l.tag+" "+newline(format), args...)
}

func (l prefixLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] "+l.tag+" "+newline(format), args...)
}

func (l prefixLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] "+l.tag+" "+newline(format), args...)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] BLOG "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] BLOG "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] BLOG "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] BLOG "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
