// Package apitest runs an in-process signup backend on fiber. It honours the
// same routes, status codes and error bodies as the real service and can be
// plugged into signup.Client as its HTTPDoer.
package apitest

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	signup "github.com/goliatone/go-signup"
	"github.com/google/uuid"
)

// BaseURL is the origin used with the in-process doer. Any host works.
const BaseURL = "http://signup.test"

// Route keys used by Calls and FailNext.
const (
	RouteActivities = "GET /activities"
	RouteSignup     = "POST /activities/:name/signup"
	RouteUnregister = "DELETE /activities/:name/unregister"
	RouteRegister   = "POST /auth/register"
	RouteLogin      = "POST /auth/login"
	RouteLogout     = "POST /auth/logout"
	RouteMe         = "GET /auth/me"
)

var _ signup.HTTPDoer = &Server{}

type account struct {
	password string
	role     string
}

type failure struct {
	status int
	detail string
}

// Option customizes the server.
type Option func(*Server)

// WithTokenMinter replaces the opaque session token generator.
func WithTokenMinter(mint func(email string) string) Option {
	return func(s *Server) {
		if mint != nil {
			s.mint = mint
		}
	}
}

// WithCatalog replaces the seeded catalog.
func WithCatalog(activities ...signup.Activity) Option {
	return func(s *Server) {
		s.names = nil
		s.activities = map[string]*signup.ActivityDetails{}
		for _, a := range activities {
			s.addActivity(a)
		}
	}
}

// Server is the fake backend. All state lives in memory.
type Server struct {
	app *fiber.App

	mu         sync.Mutex
	names      []string
	activities map[string]*signup.ActivityDetails
	users      map[string]account
	sessions   map[string]string
	calls      map[string]int
	failures   map[string][]failure
	lastHeader map[string]http.Header
	mint       func(email string) string
}

// New returns a server seeded with the Mergington catalog and one account per
// role.
func New(opts ...Option) *Server {
	s := &Server{
		activities: map[string]*signup.ActivityDetails{},
		users: map[string]account{
			"member@mergington.edu":     {password: "member123", role: "member"},
			"admin@mergington.edu":      {password: "admin123", role: "admin"},
			"supervisor@mergington.edu": {password: "supervisor123", role: "supervisor"},
		},
		sessions:   map[string]string{},
		calls:      map[string]int{},
		failures:   map[string][]failure{},
		lastHeader: map[string]http.Header{},
		mint:       func(string) string { return uuid.NewString() },
	}
	for _, a := range SeedActivities() {
		s.addActivity(a)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.app = fiber.New(fiber.Config{
		UnescapePath:          true,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.routes()
	return s
}

// App exposes the fiber application, e.g. to Listen on a real address.
func (s *Server) App() *fiber.App {
	return s.app
}

// Do serves req in process. It satisfies signup.HTTPDoer.
func (s *Server) Do(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	return s.app.Test(req, -1)
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops a Listen call.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// AddUser creates or replaces an account. role is stored as given.
func (s *Server) AddUser(email, password, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(email)] = account{password: password, role: role}
}

// IssueSession creates a session for email without a login call.
func (s *Server) IssueSession(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.mint(email)
	s.sessions[token] = strings.ToLower(email)
	return token
}

// RevokeSession drops token as if it had expired server side.
func (s *Server) RevokeSession(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// FailNext makes the next call to route answer status with detail instead of
// running the handler. Calls queue up.
func (s *Server) FailNext(route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, detail: detail})
}

// Calls returns how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastHeaders returns the headers of the most recent request to route.
func (s *Server) LastHeaders(route string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeader[route].Clone()
}

// Participants returns the current roster of activity.
func (s *Server) Participants(activity string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	details, ok := s.activities[activity]
	if !ok {
		return nil
	}
	out := make([]string, len(details.Participants))
	copy(out, details.Participants)
	return out
}

func (s *Server) addActivity(a signup.Activity) {
	details := a.ActivityDetails
	details.Participants = append([]string{}, a.Participants...)
	if _, exists := s.activities[a.Name]; !exists {
		s.names = append(s.names, a.Name)
	}
	s.activities[a.Name] = &details
}

func (s *Server) catalogLocked() *signup.Catalog {
	list := make([]signup.Activity, 0, len(s.names))
	for _, name := range s.names {
		details := *s.activities[name]
		details.Participants = append([]string{}, details.Participants...)
		list = append(list, signup.Activity{Name: name, ActivityDetails: details})
	}
	return signup.NewCatalog(list...)
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	return c.Status(status).JSON(fiber.Map{"detail": err.Error()})
}

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}

type fieldIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func unprocessable(c *fiber.Ctx, loc []string, msg string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"detail": []fieldIssue{{Loc: loc, Msg: msg, Type: "value_error"}},
	})
}

func validEmail(email string) bool {
	return validation.Validate(email, validation.Required, is.Email) == nil
}
