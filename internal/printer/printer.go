package printer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	// Out and Err are where messages go; tests swap them for buffers.
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr

	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(Out, msg)
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Fprintf(Out, format, a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprint(Err, msg)
}

// Error prints a title, explanation and suggestions to Err and returns an
// error carrying only the title, for Cobra's SilenceErrors mode.
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error with key/value context lines printed between
// the explanation and the suggestions. Context keys print in the order
// given by keys when set, otherwise in map order.
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string, keys ...string) error {
	red.Fprintf(Err, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(Err, "%s\n", explanation)
	}

	if len(context) > 0 {
		fmt.Fprintf(Err, "\n")
		if len(keys) == 0 {
			for key := range context {
				keys = append(keys, key)
			}
		}
		for _, key := range keys {
			if value, ok := context[key]; ok {
				fmt.Fprintf(Err, "  %s: %s\n", key, value)
			}
		}
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(Err, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(Err, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(Err, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(Err, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	return &reportedError{title: title}
}

// reportedError is returned once a message has been printed, so callers
// can avoid printing it twice.
type reportedError struct {
	title string
}

func (e *reportedError) Error() string {
	return e.title
}

// IsReported reports whether err came from Error or ErrorWithContext and
// has therefore already been shown to the user.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// Report prints err unless it has already been reported.
func Report(err error) {
	if err == nil || IsReported(err) {
		return
	}
	red.Fprintf(Err, "Error: %v\n", err)
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Fprintf(Out, "→ %s", fmt.Sprintf(format, a...))
}

// Hint prints a de-emphasised follow-up line, such as the next command to run.
func Hint(format string, a ...any) {
	faint.Fprintf(Out, format, a...)
}

// Status colors a verification or audit status for inline use: verified
// and successful states green, failures red, everything else yellow.
func Status(s string) string {
	switch s {
	case "user_verified", "source_verified", "system_verified", "success", "complete":
		return green.Sprint(s)
	case "verification_failed", "failure", "error":
		return red.Sprint(s)
	default:
		return yellow.Sprint(s)
	}
}

// Println prints a plain message (for output that doesn't need coloring)
func Println(a ...any) {
	fmt.Fprintln(Out, a...)
}

// Printf prints a plain formatted message (for output that doesn't need coloring)
func Printf(format string, a ...any) {
	fmt.Fprintf(Out, format, a...)
}
