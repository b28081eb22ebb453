package clubctl

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/goliatone/go-print"
	signup "github.com/goliatone/go-signup"
)

// jsonOutput prints every view and notification as one JSON document.
type jsonOutput struct {
	w io.Writer
}

func (j jsonOutput) RenderCatalog(view signup.CatalogView) error {
	return j.write(view)
}

func (j jsonOutput) RenderCatalogFailure(notice string) error {
	return j.write(map[string]string{"error": notice})
}

func (j jsonOutput) RenderGate(view signup.GateView) error {
	return j.write(view)
}

func (j jsonOutput) ShowNotification(msg signup.NotificationMessage) error {
	return j.write(map[string]any{"kind": msg.Kind, "text": msg.Text})
}

func (j jsonOutput) HideNotification(signup.NotificationMessage) error {
	return nil
}

func (j jsonOutput) write(v any) error {
	_, err := fmt.Fprintln(j.w, print.MaybePrettyJSON(v))
	return err
}

type writerLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func newWriterLogger(w io.Writer) *writerLogger {
	return &writerLogger{w: w}
}

func (l *writerLogger) Debug(format string, args ...any) { l.log("DBG", format, args...) }
func (l *writerLogger) Info(format string, args ...any)  { l.log("INF", format, args...) }
func (l *writerLogger) Warn(format string, args ...any)  { l.log("WRN", format, args...) }
func (l *writerLogger) Error(format string, args ...any) { l.log("ERR", format, args...) }

func (l *writerLogger) log(level, format string, args ...any) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "["+level+"] CLUBCTL "+format, args...)
}
