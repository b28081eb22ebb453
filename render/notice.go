package render

import (
	"fmt"
	"io"
	"strings"

	signup "github.com/goliatone/go-signup"
)

var _ signup.NotificationDisplay = &Notice{}

// Notice prints each shown notification on its own line. Hiding is silent
// unless Verbose is set.
type Notice struct {
	W       io.Writer
	Verbose bool
}

// NewNotice returns a display writing to w.
func NewNotice(w io.Writer) *Notice {
	return &Notice{W: w}
}

func (n *Notice) ShowNotification(msg signup.NotificationMessage) error {
	_, err := fmt.Fprintf(n.W, "[%s] %s\n", strings.ToUpper(string(msg.Kind)), msg.Text)
	return err
}

func (n *Notice) HideNotification(msg signup.NotificationMessage) error {
	if !n.Verbose {
		return nil
	}
	_, err := fmt.Fprintf(n.W, "[%s] (dismissed) %s\n", strings.ToUpper(string(msg.Kind)), msg.Text)
	return err
}
