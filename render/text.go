package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	signup "github.com/goliatone/go-signup"
)

var (
	_ signup.RosterRenderer = &Text{}
	_ signup.GateRenderer   = &Text{}
)

// Text writes the catalog and the auth gate as plain text.
type Text struct {
	mu sync.Mutex
	w  io.Writer
}

// NewText returns a renderer writing to w.
func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) RenderCatalog(view signup.CatalogView) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(view.Activities) == 0 {
		_, err := fmt.Fprintln(t.w, "No activities available.")
		return err
	}

	for i, a := range view.Activities {
		if i > 0 {
			fmt.Fprintln(t.w)
		}
		fmt.Fprintf(t.w, "%s\n", a.Name)

		tw := tabwriter.NewWriter(t.w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "  Description:\t%s\n", a.Description)
		fmt.Fprintf(tw, "  Schedule:\t%s\n", a.Schedule)
		fmt.Fprintf(tw, "  Availability:\t%d spots left\n", a.SpotsLeft)
		if err := tw.Flush(); err != nil {
			return err
		}

		if len(a.Participants) == 0 {
			fmt.Fprintln(t.w, "  Participants: none yet")
			continue
		}
		fmt.Fprintf(t.w, "  Participants (%d/%d):\n", len(a.Participants), a.MaxParticipants)
		for _, p := range a.Participants {
			fmt.Fprintf(t.w, "    - %s\n", p.Email)
		}
	}
	return nil
}

func (t *Text) RenderCatalogFailure(notice string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.w, notice)
	return err
}

func (t *Text) RenderGate(view signup.GateView) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !view.Authenticated {
		_, err := fmt.Fprintln(t.w, "Not logged in. Use `login` or `register`.")
		return err
	}

	fmt.Fprintf(t.w, "Logged in as %s", view.UserEmail)
	if view.Role != "" {
		fmt.Fprintf(t.w, " (%s)", view.Role)
	}
	fmt.Fprintln(t.w)

	if view.DashboardVisible {
		fmt.Fprintln(t.w, view.DashboardLabel)
		fmt.Fprintln(t.w, strings.Repeat("=", len(view.DashboardLabel)))
	}
	if view.NavigationVisible {
		tw := tabwriter.NewWriter(t.w, 0, 4, 2, ' ', 0)
		for _, link := range view.Navigation {
			fmt.Fprintf(tw, "  %s\t#%s\n", link.Label, link.Route)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
