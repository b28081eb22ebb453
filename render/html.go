package render

import (
	"io"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/hashid/pkg/hashid"
)

var (
	_ signup.RosterRenderer = &HTML{}
	_ signup.GateRenderer   = &HTML{}
)

const catalogTemplate = `<div id="activities-list">
{% for a in activities %}<div class="activity-card" id="{{ a.id }}">
  <h4>{{ a.name }}</h4>
  <p>{{ a.description }}</p>
  <p><strong>Schedule:</strong> {{ a.schedule }}</p>
  <p><strong>Availability:</strong> {{ a.spots_left }} spots left</p>
  <div class="participants-section">
    <p><strong>Participants:</strong></p>
    {% if a.participants %}<ul class="participants-list">
    {% for p in a.participants %}<li id="{{ p.id }}"><span class="participant-email">{{ p.email }}</span><button class="delete-btn" data-activity="{{ p.activity }}" data-email="{{ p.email }}">&times;</button></li>
    {% endfor %}</ul>{% else %}<p class="no-participants">No participants yet</p>{% endif %}
  </div>
</div>
{% empty %}<p>No activities available.</p>
{% endfor %}</div>
<select id="activity">
{% for o in options %}<option value="{{ o.value }}">{{ o.label }}</option>
{% endfor %}</select>
`

const failureTemplate = `<div id="activities-list"><p>{{ notice }}</p></div>
`

const gateTemplate = `<div id="auth-gate">
{% if view.Authenticated %}<div id="user-info"><span id="user-email">{{ view.UserEmail }}</span>{% if view.Role %} <span id="user-role">{{ view.Role }}</span>{% endif %}<button id="logout-btn">Logout</button></div>
{% if view.DashboardVisible %}<h2 id="dashboard-title">{{ view.DashboardLabel }}</h2>
{% endif %}{% if view.NavigationVisible %}<nav id="main-nav">
{% for link in view.Navigation %}<a href="#{{ link.Route }}">{{ link.Label }}</a>
{% endfor %}</nav>
{% endif %}{% else %}{% if view.LoginFormVisible %}<form id="login-form"><input type="email" id="login-email" required><input type="password" id="login-password" required><button type="submit">Login</button></form>
{% endif %}{% if view.RegisterFormVisible %}<form id="register-form"><input type="email" id="register-email" required><input type="password" id="register-password" required><button type="submit">Register</button></form>
{% endif %}{% endif %}</div>
`

var (
	catalogTpl = pongo2.Must(pongo2.FromString(catalogTemplate))
	failureTpl = pongo2.Must(pongo2.FromString(failureTemplate))
	gateTpl    = pongo2.Must(pongo2.FromString(gateTemplate))
)

// HTML writes escaped HTML fragments. Every render replaces the previous
// fragment for the same region.
type HTML struct {
	mu sync.Mutex
	w  io.Writer
}

// NewHTML returns a renderer writing fragments to w.
func NewHTML(w io.Writer) *HTML {
	return &HTML{w: w}
}

func (h *HTML) RenderCatalog(view signup.CatalogView) error {
	return h.write(catalogTpl, CatalogContext(view))
}

func (h *HTML) RenderCatalogFailure(notice string) error {
	return h.write(failureTpl, pongo2.Context{"notice": notice})
}

func (h *HTML) RenderGate(view signup.GateView) error {
	return h.write(gateTpl, pongo2.Context{"view": view})
}

func (h *HTML) write(tpl *pongo2.Template, ctx pongo2.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return tpl.ExecuteWriter(ctx, h.w)
}

// CatalogHTML renders the catalog fragment to a string.
func CatalogHTML(view signup.CatalogView) (string, error) {
	return catalogTpl.Execute(CatalogContext(view))
}

// GateHTML renders the auth gate fragment to a string.
func GateHTML(view signup.GateView) (string, error) {
	return gateTpl.Execute(pongo2.Context{"view": view})
}

// CatalogContext flattens view into template data with stable element ids.
func CatalogContext(view signup.CatalogView) pongo2.Context {
	activities := make([]map[string]any, 0, len(view.Activities))
	for _, a := range view.Activities {
		participants := make([]map[string]any, 0, len(a.Participants))
		for _, p := range a.Participants {
			participants = append(participants, map[string]any{
				"id":       ElementID("participant", p.Activity+"|"+p.Email),
				"email":    p.Email,
				"activity": p.Activity,
			})
		}
		activities = append(activities, map[string]any{
			"id":           ElementID("activity", a.Name),
			"name":         a.Name,
			"description":  a.Description,
			"schedule":     a.Schedule,
			"spots_left":   a.SpotsLeft,
			"participants": participants,
		})
	}

	options := make([]map[string]any, 0, len(view.Options))
	for _, o := range view.Options {
		options = append(options, map[string]any{"value": o.Value, "label": o.Label})
	}

	return pongo2.Context{
		"activities": activities,
		"options":    options,
	}
}

// ElementID derives a DOM id from seed that is stable across renders.
func ElementID(prefix, seed string) string {
	id, err := hashid.NewUUID(seed)
	if err != nil {
		return prefix + "-" + strings.ToLower(strings.Join(strings.Fields(seed), "-"))
	}
	return prefix + "-" + strings.ReplaceAll(id.String(), "-", "")[:12]
}
