package signup

// GateView is the visibility of every session dependent UI region.
type GateView struct {
	Authenticated       bool      `json:"authenticated"`
	LoginFormVisible    bool      `json:"login_form_visible"`
	RegisterFormVisible bool      `json:"register_form_visible"`
	LogoutVisible       bool      `json:"logout_visible"`
	DashboardVisible    bool      `json:"dashboard_visible"`
	DashboardLabel      string    `json:"dashboard_label,omitempty"`
	NavigationVisible   bool      `json:"navigation_visible"`
	Navigation          []NavLink `json:"navigation,omitempty"`
	DefaultRoute        string    `json:"default_route,omitempty"`
	UserEmail           string    `json:"user_email,omitempty"`
	Role                Role      `json:"role,omitempty"`
}

// GateRenderer draws a GateView. Implementations replace whatever they drew
// before; views are never patched.
type GateRenderer interface {
	RenderGate(view GateView) error
}

// GateRendererFunc adapts a function to the GateRenderer interface.
type GateRendererFunc func(view GateView) error

// RenderGate implements GateRenderer.
func (f GateRendererFunc) RenderGate(view GateView) error {
	if f == nil {
		return nil
	}
	return f(view)
}

// DeriveGate computes the full GateView for session. It has no state of its
// own and is recomputed from scratch on every session change.
func DeriveGate(session Session) GateView {
	if !session.IsAuthenticated() {
		return GateView{
			LoginFormVisible:    true,
			RegisterFormVisible: true,
		}
	}

	view := GateView{
		Authenticated: true,
		LogoutVisible: true,
		UserEmail:     session.User.Email,
		Role:          session.User.Role,
	}

	role := session.User.Role
	if !role.IsValid() {
		return view
	}

	view.DashboardVisible = true
	view.DashboardLabel = role.Title() + " Dashboard"
	view.Navigation = NavigationFor(role)
	view.NavigationVisible = len(view.Navigation) > 0
	view.DefaultRoute = DefaultRouteFor(role)

	return view
}
