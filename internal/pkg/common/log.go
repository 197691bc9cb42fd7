package common

import (
	"fmt"
	"io"
)

type LogWriter struct {
	traces []string
	errors []error
}

func (l *LogWriter) Trace(format string, args ...any) {
	l.traces = append(l.traces, fmt.Sprintf(format, args...))
}

func (l *LogWriter) Err(err error) {
	l.errors = append(l.errors, err)
}

func (l *LogWriter) HasErrors() bool {
	return len(l.errors) > 0
}

func (l *LogWriter) Flush(traceOut, errOut io.Writer) {
	for _, t := range l.traces {
		_, _ = fmt.Fprintln(traceOut, t)
	}
	for _, e := range l.errors {
		_, _ = fmt.Fprint(errOut, e.Error())
	}
	l.traces = nil
	l.errors = nil
}
