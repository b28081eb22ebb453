package signup_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	signup "github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func chessCatalog(participants ...string) *signup.Catalog {
	return signup.NewCatalog(signup.Activity{
		Name: "Chess Club",
		ActivityDetails: signup.ActivityDetails{
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    participants,
		},
	})
}

func newRoster(api signup.API, token string) (*signup.RosterView, *RecordingNotifier, *RecordingRoster) {
	notifier := &RecordingNotifier{}
	renderer := &RecordingRoster{}
	roster := signup.NewRosterView(api, staticToken(token), notifier,
		signup.WithRosterRenderer(renderer),
		signup.WithRosterLogger(signup.NopLogger{}),
	)
	return roster, notifier, renderer
}

func TestLoadCatalogRendersServerOrderWithPlaceholder(t *testing.T) {
	api := &MockAPI{}
	catalog := signup.NewCatalog(
		signup.Activity{Name: "Zebra Club"},
		signup.Activity{Name: "Art Club"},
		signup.Activity{Name: "Math Club"},
	)
	api.On("ListActivities", mock.Anything).Return(catalog, nil).Once()

	roster, _, renderer := newRoster(api, "")
	require.NoError(t, roster.LoadCatalog(context.Background()))

	views := renderer.Views()
	require.Len(t, views, 1)
	options := views[0].Options
	require.Len(t, options, 4)
	assert.Equal(t, signup.SelectOption{Value: "", Label: signup.CatalogPlaceholder}, options[0])
	assert.Equal(t, "Zebra Club", options[1].Value)
	assert.Equal(t, "Art Club", options[2].Value)
	assert.Equal(t, "Math Club", options[3].Value)
	assert.Same(t, catalog, roster.Catalog())
}

func TestLoadCatalogFailureRendersInlineNotice(t *testing.T) {
	api := &MockAPI{}
	previous := chessCatalog()
	api.On("ListActivities", mock.Anything).Return(previous, nil).Once()
	api.On("ListActivities", mock.Anything).Return(nil, errors.New("boom")).Once()

	roster, notifier, renderer := newRoster(api, "")
	require.NoError(t, roster.LoadCatalog(context.Background()))

	err := roster.LoadCatalog(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{signup.CatalogFailureNotice}, renderer.Failures())
	assert.Empty(t, notifier.Messages())
	assert.Same(t, previous, roster.Catalog())
}

func TestOverfullActivityShowsNegativeSpots(t *testing.T) {
	view := signup.BuildCatalogView(signup.NewCatalog(signup.Activity{
		Name: "Tiny",
		ActivityDetails: signup.ActivityDetails{
			MaxParticipants: 1,
			Participants:    []string{"a@b.com", "c@d.com", "e@f.com"},
		},
	}))

	require.Len(t, view.Activities, 1)
	assert.Equal(t, -2, view.Activities[0].SpotsLeft)
	require.Len(t, view.Activities[0].Participants, 3)
	assert.Equal(t, "Tiny", view.Activities[0].Participants[2].Activity)
}

func TestBuildCatalogViewOfNilCatalog(t *testing.T) {
	view := signup.BuildCatalogView(nil)
	assert.Empty(t, view.Activities)
	assert.Len(t, view.Options, 1)
}

func TestSignupWithoutSessionSkipsNetwork(t *testing.T) {
	api := &MockAPI{}
	roster, notifier, _ := newRoster(api, "")

	err := roster.Signup(context.Background(), "a@b.com", "Chess Club")
	assert.ErrorIs(t, err, signup.ErrNoSession)

	err = roster.Unregister(context.Background(), "a@b.com", "Chess Club")
	assert.ErrorIs(t, err, signup.ErrNoSession)

	messages := notifier.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, signup.NotificationError, messages[0].Kind)
	assert.Equal(t, "You must be logged in to sign up for an activity.", messages[0].Text)
	api.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "Unregister", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "ListActivities", mock.Anything)
}

func TestSignupSuccessReloadsCatalog(t *testing.T) {
	api := &MockAPI{}
	before := chessCatalog("michael@mergington.edu")
	after := chessCatalog("michael@mergington.edu", "a@b.com")

	api.On("ListActivities", mock.Anything).Return(before, nil).Once()
	api.On("Signup", mock.Anything, "tok", "Chess Club", "a@b.com").
		Return("Signed up a@b.com for Chess Club", nil).Once()
	api.On("ListActivities", mock.Anything).Return(after, nil).Once()

	roster, notifier, renderer := newRoster(api, "tok")
	require.NoError(t, roster.LoadCatalog(context.Background()))
	spotsBefore := renderer.Views()[0].Activities[0].SpotsLeft

	require.NoError(t, roster.Signup(context.Background(), "a@b.com", "Chess Club"))

	details, ok := roster.Catalog().Get("Chess Club")
	require.True(t, ok)
	assert.True(t, details.HasParticipant("a@b.com"))

	views := renderer.Views()
	require.Len(t, views, 2)
	assert.Equal(t, spotsBefore-1, views[1].Activities[0].SpotsLeft)

	last := notifier.Last()
	assert.Equal(t, signup.NotificationSuccess, last.Kind)
	assert.Equal(t, "Signed up a@b.com for Chess Club", last.Text)
	api.AssertExpectations(t)
}

func TestSignupFailureShowsServerDetailAndKeepsCatalog(t *testing.T) {
	api := &MockAPI{}
	catalog := chessCatalog("a@b.com")
	api.On("ListActivities", mock.Anything).Return(catalog, nil).Once()
	api.On("Signup", mock.Anything, "tok", "Chess Club", "a@b.com").
		Return("", &signup.APIError{Status: 400, Detail: "Student is already signed up"}).Once()

	roster, notifier, renderer := newRoster(api, "tok")
	require.NoError(t, roster.LoadCatalog(context.Background()))

	err := roster.Signup(context.Background(), "a@b.com", "Chess Club")
	require.Error(t, err)

	assert.Equal(t, "Student is already signed up", notifier.Last().Text)
	assert.Equal(t, signup.NotificationError, notifier.Last().Kind)
	assert.Len(t, renderer.Views(), 1)
	assert.Same(t, catalog, roster.Catalog())
	api.AssertNumberOfCalls(t, "ListActivities", 1)
}

func TestUnregisterTransportFailureUsesFallback(t *testing.T) {
	api := &MockAPI{}
	api.On("Unregister", mock.Anything, "tok", "Chess Club", "a@b.com").
		Return("", errors.New("connection reset")).Once()

	roster, notifier, _ := newRoster(api, "tok")
	require.Error(t, roster.Unregister(context.Background(), "a@b.com", "Chess Club"))
	assert.Equal(t, "Failed to unregister. Please try again.", notifier.Last().Text)
}

func TestSignupRejectsInvalidInputLocally(t *testing.T) {
	api := &MockAPI{}
	roster, notifier, _ := newRoster(api, "tok")

	err := roster.Signup(context.Background(), "not-an-email", "Chess Club")
	assertTextCode(t, err, signup.TextCodeInvalidInput)

	err = roster.Signup(context.Background(), "a@b.com", "  ")
	assertTextCode(t, err, signup.TextCodeInvalidInput)

	assert.Len(t, notifier.Messages(), 2)
	api.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// catalogReader reads the view back while rendering.
type catalogReader struct {
	view *signup.RosterView
	seen []*signup.Catalog
}

func (c *catalogReader) RenderCatalog(signup.CatalogView) error {
	c.seen = append(c.seen, c.view.Catalog())
	return nil
}

func (c *catalogReader) RenderCatalogFailure(string) error {
	c.seen = append(c.seen, c.view.Catalog())
	return nil
}

func TestRendererCanReadCatalogWhileRendering(t *testing.T) {
	api := &MockAPI{}
	catalog := chessCatalog()
	api.On("ListActivities", mock.Anything).Return(catalog, nil).Once()
	api.On("ListActivities", mock.Anything).Return(nil, errors.New("boom")).Once()

	reader := &catalogReader{}
	roster := signup.NewRosterView(api, staticToken(""), &RecordingNotifier{},
		signup.WithRosterRenderer(reader),
		signup.WithRosterLogger(signup.NopLogger{}),
	)
	reader.view = roster

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = roster.LoadCatalog(context.Background())
		_ = roster.LoadCatalog(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("LoadCatalog blocked while the renderer read the catalog")
	}

	require.Len(t, reader.seen, 2)
	assert.Same(t, catalog, reader.seen[0])
	assert.Same(t, catalog, reader.seen[1])
}

func TestCatalogTransportFailureLogsOneError(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	logger := &RecordingLogger{}
	client := signup.NewClient(url, signup.WithClientLogger(logger))
	roster := signup.NewRosterView(client, staticToken(""), &RecordingNotifier{},
		signup.WithRosterLogger(logger),
	)

	require.Error(t, roster.LoadCatalog(context.Background()))
	assert.Len(t, logger.Lines("error"), 1)
	assert.Len(t, logger.Lines("debug"), 1)
}
