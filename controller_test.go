package signup_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/apitest"
	"github.com/goliatone/go-signup/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateLog struct {
	mu    sync.Mutex
	views []signup.GateView
}

func (g *gateLog) RenderGate(view signup.GateView) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.views = append(g.views, view)
	return nil
}

func (g *gateLog) Last() signup.GateView {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.views) == 0 {
		return signup.GateView{}
	}
	return g.views[len(g.views)-1]
}

type harness struct {
	srv      *apitest.Server
	tokens   *tokenstore.Memory
	clock    *fakeClock
	notifier *signup.Notifier
	roster   *RecordingRoster
	gate     *gateLog
	ctrl     *signup.Controller
}

func newHarness(t *testing.T, persisted string) *harness {
	t.Helper()
	h := &harness{
		srv:    apitest.New(),
		tokens: tokenstore.NewMemory(persisted),
		clock:  newFakeClock(),
		roster: &RecordingRoster{},
		gate:   &gateLog{},
	}

	client := signup.NewClient(apitest.BaseURL,
		signup.WithHTTPDoer(h.srv),
		signup.WithClientLogger(signup.NopLogger{}),
	)
	h.notifier = signup.NewNotifier(
		signup.WithNotifierClock(h.clock.Now),
		signup.WithNotifierScheduler(h.clock.AfterFunc),
		signup.WithNotifierLogger(signup.NopLogger{}),
	)
	session := signup.NewSessionStore(client, h.tokens, signup.WithSessionLogger(signup.NopLogger{}))
	roster := signup.NewRosterView(client, session, h.notifier,
		signup.WithRosterRenderer(h.roster),
		signup.WithRosterLogger(signup.NopLogger{}),
	)
	h.ctrl = signup.NewController(session, roster, h.notifier,
		signup.WithGateRenderer(h.gate),
		signup.WithControllerLogger(signup.NopLogger{}),
	)
	return h
}

func (h *harness) persisted(t *testing.T) string {
	t.Helper()
	token, err := h.tokens.Load(context.Background())
	require.NoError(t, err)
	return token
}

func (h *harness) notification() (signup.NotificationMessage, bool) {
	return h.notifier.Current()
}

func (h *harness) login(t *testing.T, email, password string) {
	t.Helper()
	require.NoError(t, h.ctrl.Dispatch(context.Background(), signup.LoginMessage{Email: email, Password: password}))
}

func TestStartWithoutSessionLoadsCatalog(t *testing.T) {
	h := newHarness(t, "")
	h.ctrl.Start(context.Background())

	assert.False(t, h.gate.Last().Authenticated)
	assert.True(t, h.gate.Last().LoginFormVisible)

	views := h.roster.Views()
	require.Len(t, views, 1)
	assert.Len(t, views[0].Options, len(apitest.SeedActivities())+1)
	assert.Equal(t, 0, h.srv.Calls(apitest.RouteMe))
}

func TestStartWithRevokedTokenExpiresSilently(t *testing.T) {
	h := newHarness(t, "revoked-token")
	h.ctrl.Start(context.Background())

	assert.Equal(t, signup.StateLoggedOut, h.ctrl.Session().State())
	assert.Empty(t, h.persisted(t))
	assert.False(t, h.gate.Last().Authenticated)
	assert.Equal(t, 1, h.srv.Calls(apitest.RouteMe))

	_, visible := h.notification()
	assert.False(t, visible)
}

func TestStartRestoresValidSession(t *testing.T) {
	h := newHarness(t, "")
	token := h.srv.IssueSession("supervisor@mergington.edu")
	require.NoError(t, h.tokens.Save(context.Background(), token))

	h.ctrl.Start(context.Background())

	gate := h.ctrl.Gate()
	assert.True(t, gate.Authenticated)
	assert.Equal(t, "Supervisor Dashboard", gate.DashboardLabel)
	assert.Equal(t, "supervisor-dashboard", gate.DefaultRoute)
	assert.Equal(t, gate, h.gate.Last())
}

func TestLoginRendersRoleGate(t *testing.T) {
	for _, tc := range []struct {
		email, password string
		role            signup.Role
	}{
		{"member@mergington.edu", "member123", signup.RoleMember},
		{"admin@mergington.edu", "admin123", signup.RoleAdmin},
		{"supervisor@mergington.edu", "supervisor123", signup.RoleSupervisor},
	} {
		t.Run(string(tc.role), func(t *testing.T) {
			h := newHarness(t, "")
			h.ctrl.Start(context.Background())
			h.login(t, tc.email, tc.password)

			gate := h.gate.Last()
			assert.True(t, gate.Authenticated)
			assert.Equal(t, signup.NavigationFor(tc.role), gate.Navigation)
			assert.Equal(t, signup.DefaultRouteFor(tc.role), gate.DefaultRoute)
			assert.NotEmpty(t, h.persisted(t))

			msg, ok := h.notification()
			require.True(t, ok)
			assert.Equal(t, "Login successful", msg.Text)
			assert.Equal(t, signup.NotificationSuccess, msg.Kind)
		})
	}
}

func TestLoginWithUnknownRoleHidesDashboard(t *testing.T) {
	h := newHarness(t, "")
	h.srv.AddUser("janitor@mergington.edu", "pw", "janitor")
	h.login(t, "janitor@mergington.edu", "pw")

	gate := h.gate.Last()
	assert.True(t, gate.LogoutVisible)
	assert.False(t, gate.DashboardVisible)
	assert.False(t, gate.NavigationVisible)
}

func TestLoginFailureShowsServerReason(t *testing.T) {
	h := newHarness(t, "")
	err := h.ctrl.Dispatch(context.Background(), signup.LoginMessage{Email: "member@mergington.edu", Password: "wrong"})
	require.Error(t, err)

	msg, ok := h.notification()
	require.True(t, ok)
	assert.Equal(t, "Invalid email or password", msg.Text)
	assert.Equal(t, signup.NotificationError, msg.Kind)
	assert.Equal(t, signup.StateLoggedOut, h.ctrl.Session().State())
	assert.False(t, h.gate.Last().Authenticated)
}

func TestLoginInvalidInputSkipsNetwork(t *testing.T) {
	h := newHarness(t, "")
	err := h.ctrl.Dispatch(context.Background(), signup.LoginMessage{Email: "nobody", Password: ""})
	assertTextCode(t, err, signup.TextCodeInvalidInput)
	assert.Equal(t, 0, h.srv.Calls(apitest.RouteLogin))

	msg, ok := h.notification()
	require.True(t, ok)
	assert.Equal(t, signup.NotificationError, msg.Kind)
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	h := newHarness(t, "")
	h.login(t, "admin@mergington.edu", "admin123")

	h.srv.FailNext(apitest.RouteLogout, http.StatusInternalServerError, "boom")
	require.NoError(t, h.ctrl.Dispatch(context.Background(), signup.LogoutMessage{}))

	assert.Equal(t, signup.StateLoggedOut, h.ctrl.Session().State())
	assert.Empty(t, h.persisted(t))
	assert.True(t, h.gate.Last().LoginFormVisible)

	msg, ok := h.notification()
	require.True(t, ok)
	assert.Equal(t, "You have been logged out.", msg.Text)
}

func TestLogoutTwiceIsNoop(t *testing.T) {
	h := newHarness(t, "")
	h.login(t, "member@mergington.edu", "member123")

	require.NoError(t, h.ctrl.Dispatch(context.Background(), signup.LogoutMessage{}))
	h.notifier.Hide()
	require.NoError(t, h.ctrl.Dispatch(context.Background(), signup.LogoutMessage{}))

	assert.Equal(t, 1, h.srv.Calls(apitest.RouteLogout))
	_, visible := h.notification()
	assert.False(t, visible)
}

func TestRegisterDoesNotLogIn(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.ctrl.Dispatch(context.Background(), signup.RegisterMessage{Email: " New@Mergington.edu ", Password: "pw"}))

	msg, ok := h.notification()
	require.True(t, ok)
	assert.Equal(t, "Registration successful", msg.Text)
	assert.Equal(t, signup.StateLoggedOut, h.ctrl.Session().State())

	h.login(t, "new@mergington.edu", "pw")
	assert.Equal(t, signup.RoleMember, h.ctrl.Session().Session().User.Role)
}

func TestSignupDefaultsToSessionEmailAndReloads(t *testing.T) {
	h := newHarness(t, "")
	h.ctrl.Start(context.Background())
	h.login(t, "member@mergington.edu", "member123")

	require.NoError(t, h.ctrl.Dispatch(context.Background(), signup.SignupMessage{Activity: "Chess Club"}))

	assert.Contains(t, h.srv.Participants("Chess Club"), "member@mergington.edu")
	details, ok := h.ctrl.Roster().Catalog().Get("Chess Club")
	require.True(t, ok)
	assert.True(t, details.HasParticipant("member@mergington.edu"))
	assert.Equal(t, 2, h.srv.Calls(apitest.RouteActivities))

	msg, _ := h.notification()
	assert.Equal(t, "Signed up member@mergington.edu for Chess Club", msg.Text)
}

func TestAdminSignupReducesSpotsLeft(t *testing.T) {
	h := newHarness(t, "")
	h.ctrl.Start(context.Background())
	h.login(t, "admin@mergington.edu", "admin123")

	before, _ := h.ctrl.Roster().Catalog().Get("Chess Club")
	require.NoError(t, h.ctrl.Dispatch(context.Background(), signup.SignupMessage{Email: "a@b.com", Activity: "Chess Club"}))
	after, _ := h.ctrl.Roster().Catalog().Get("Chess Club")

	assert.True(t, after.HasParticipant("a@b.com"))
	assert.Equal(t, before.SpotsLeft()-1, after.SpotsLeft())

	require.NoError(t, h.ctrl.Dispatch(context.Background(), signup.UnregisterMessage{Email: "a@b.com", Activity: "Chess Club"}))
	final, _ := h.ctrl.Roster().Catalog().Get("Chess Club")
	assert.False(t, final.HasParticipant("a@b.com"))
}

func TestSignupWithoutSessionNeverCallsBackend(t *testing.T) {
	h := newHarness(t, "")
	err := h.ctrl.Dispatch(context.Background(), signup.SignupMessage{Email: "a@b.com", Activity: "Chess Club"})
	assert.ErrorIs(t, err, signup.ErrNoSession)
	assert.Equal(t, 0, h.srv.Calls(apitest.RouteSignup))

	msg, ok := h.notification()
	require.True(t, ok)
	assert.Equal(t, signup.NotificationError, msg.Kind)
}

func TestMemberCannotSignUpSomeoneElse(t *testing.T) {
	h := newHarness(t, "")
	h.ctrl.Start(context.Background())
	h.login(t, "member@mergington.edu", "member123")

	err := h.ctrl.Dispatch(context.Background(), signup.SignupMessage{Email: "other@mergington.edu", Activity: "Chess Club"})
	require.Error(t, err)

	msg, _ := h.notification()
	assert.Equal(t, "Members can only sign themselves up", msg.Text)
	assert.Equal(t, 1, h.srv.Calls(apitest.RouteActivities))
}

func TestCatalogFailureIsInline(t *testing.T) {
	h := newHarness(t, "")
	h.srv.FailNext(apitest.RouteActivities, http.StatusInternalServerError, "db down")

	h.ctrl.Start(context.Background())
	assert.Equal(t, []string{signup.CatalogFailureNotice}, h.roster.Failures())

	_, visible := h.notification()
	assert.False(t, visible)
}

func TestRefreshAfterServerRevocationLogsOut(t *testing.T) {
	h := newHarness(t, "")
	h.login(t, "member@mergington.edu", "member123")
	h.notifier.Hide()

	h.srv.RevokeSession(h.ctrl.Session().Token())
	err := h.ctrl.Dispatch(context.Background(), signup.RefreshSessionMessage{})
	assert.ErrorIs(t, err, signup.ErrSessionExpired)

	assert.False(t, h.gate.Last().Authenticated)
	assert.Empty(t, h.persisted(t))
	_, visible := h.notification()
	assert.False(t, visible)
}

func TestDispatchAsyncDoesNotDeduplicate(t *testing.T) {
	h := newHarness(t, "")
	h.ctrl.Start(context.Background())
	h.login(t, "admin@mergington.edu", "admin123")

	msg := signup.SignupMessage{Email: "twice@mergington.edu", Activity: "Math Club"}
	first := h.ctrl.DispatchAsync(context.Background(), msg)
	second := h.ctrl.DispatchAsync(context.Background(), msg)

	errs := []error{<-first, <-second}
	assert.Equal(t, 2, h.srv.Calls(apitest.RouteSignup))

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, []string{"james@mergington.edu", "benjamin@mergington.edu", "twice@mergington.edu"}, h.srv.Participants("Math Club"))
}

type unknownMessage struct{}

func (unknownMessage) Type() string { return "unknown" }

func (unknownMessage) Validate() error { return nil }

func TestDispatchUnknownMessage(t *testing.T) {
	h := newHarness(t, "")
	err := h.ctrl.Dispatch(context.Background(), unknownMessage{})
	assert.ErrorIs(t, err, signup.ErrUnknownCommand)
}
