package apitest

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var roles = []string{"member", "admin", "supervisor"}

type principal struct {
	email string
	role  string
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) routes() {
	s.app.Get("/activities", s.track(RouteActivities, s.listActivities))
	s.app.Post("/activities/:name/signup", s.track(RouteSignup, s.signup))
	s.app.Delete("/activities/:name/unregister", s.track(RouteUnregister, s.unregister))
	s.app.Post("/auth/register", s.track(RouteRegister, s.register))
	s.app.Post("/auth/login", s.track(RouteLogin, s.login))
	s.app.Post("/auth/logout", s.track(RouteLogout, s.logout))
	s.app.Get("/auth/me", s.track(RouteMe, s.me))
}

// track counts the call, records headers and serves any queued failure.
func (s *Server) track(route string, next fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s.mu.Lock()
		s.calls[route]++
		headers := http.Header{}
		c.Request().Header.VisitAll(func(k, v []byte) {
			headers.Add(string(k), string(v))
		})
		s.lastHeader[route] = headers

		var fail *failure
		if queue := s.failures[route]; len(queue) > 0 {
			fail = &queue[0]
			s.failures[route] = queue[1:]
		}
		s.mu.Unlock()

		if fail != nil {
			return detail(c, fail.status, fail.detail)
		}
		return next(c)
	}
}

func (s *Server) listActivities(c *fiber.Ctx) error {
	s.mu.Lock()
	catalog := s.catalogLocked()
	s.mu.Unlock()
	return c.JSON(catalog)
}

func (s *Server) register(c *fiber.Ctx) error {
	var payload credentials
	if err := c.BodyParser(&payload); err != nil {
		return unprocessable(c, []string{"body"}, "invalid request body")
	}
	if !validEmail(payload.Email) {
		return unprocessable(c, []string{"body", "email"}, "value is not a valid email address")
	}

	email := strings.ToLower(payload.Email)
	role := strings.ToLower(payload.Role)
	if role == "" {
		role = "member"
	}

	if !slices.Contains(roles, role) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid role")
	}
	if role != "member" {
		return fiber.NewError(fiber.StatusForbidden, "Self-registration only supports member role")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[email]; exists {
		return fiber.NewError(fiber.StatusBadRequest, "User already exists")
	}
	s.users[email] = account{password: payload.Password, role: role}

	return c.JSON(fiber.Map{"message": "Registration successful", "email": email, "role": role})
}

func (s *Server) login(c *fiber.Ctx) error {
	var payload credentials
	if err := c.BodyParser(&payload); err != nil {
		return unprocessable(c, []string{"body"}, "invalid request body")
	}
	if !validEmail(payload.Email) {
		return unprocessable(c, []string{"body", "email"}, "value is not a valid email address")
	}

	email := strings.ToLower(payload.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok || user.password != payload.Password {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
	}

	token := s.mint(email)
	s.sessions[token] = email

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    fiber.Map{"email": email, "role": user.role},
	})
}

func (s *Server) logout(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	who, err := s.authenticateLocked(c)
	if err != nil {
		return err
	}
	delete(s.sessions, bearer(c))
	return c.JSON(fiber.Map{"message": "Logged out " + who.email})
}

func (s *Server) me(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	who, err := s.authenticateLocked(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"email": who.email, "role": who.role})
}

func (s *Server) signup(c *fiber.Ctx) error {
	return s.mutate(c, func(who principal, name, target string) error {
		details := s.activities[name]
		if who.role == "member" && target != who.email {
			return fiber.NewError(fiber.StatusForbidden, "Members can only sign themselves up")
		}
		if slices.Contains(details.Participants, target) {
			return fiber.NewError(fiber.StatusBadRequest, "Student is already signed up")
		}
		if len(details.Participants) >= details.MaxParticipants {
			return fiber.NewError(fiber.StatusBadRequest, "Activity is full")
		}
		details.Participants = append(details.Participants, target)
		return c.JSON(fiber.Map{"message": "Signed up " + target + " for " + name})
	})
}

func (s *Server) unregister(c *fiber.Ctx) error {
	return s.mutate(c, func(who principal, name, target string) error {
		details := s.activities[name]
		if who.role == "member" && target != who.email {
			return fiber.NewError(fiber.StatusForbidden, "Members can only unregister themselves")
		}
		idx := slices.Index(details.Participants, target)
		if idx < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Student is not signed up for this activity")
		}
		details.Participants = slices.Delete(details.Participants, idx, idx+1)
		return c.JSON(fiber.Map{"message": "Unregistered " + target + " from " + name})
	})
}

// mutate runs the checks shared by signup and unregister in the order the
// service applies them.
func (s *Server) mutate(c *fiber.Ctx, apply func(who principal, name, target string) error) error {
	name := c.Params("name")
	email := c.Query("email")

	s.mu.Lock()
	defer s.mu.Unlock()

	who, err := s.authenticateLocked(c)
	if err != nil {
		return err
	}
	if !slices.Contains(roles, who.role) {
		return fiber.NewError(fiber.StatusForbidden, "You do not have permission for this action")
	}
	if !validEmail(email) {
		return unprocessable(c, []string{"query", "email"}, "value is not a valid email address")
	}
	if _, ok := s.activities[name]; !ok {
		return fiber.NewError(fiber.StatusNotFound, "Activity not found")
	}

	return apply(who, name, strings.ToLower(email))
}

func (s *Server) authenticateLocked(c *fiber.Ctx) (principal, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return principal{}, fiber.NewError(fiber.StatusUnauthorized, "Missing or invalid authorization header")
	}

	email, ok := s.sessions[bearer(c)]
	if !ok {
		return principal{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired session token")
	}

	user, ok := s.users[email]
	if !ok {
		return principal{}, fiber.NewError(fiber.StatusUnauthorized, "User not found")
	}
	return principal{email: email, role: user.role}, nil
}

func bearer(c *fiber.Ctx) string {
	return strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
}
