package signup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// UserProfile is the identity a token resolves to. Replaced wholesale, never patched.
type UserProfile struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserProfile `json:"user"`
}

// Session pairs the token with the profile it was last validated against.
// Both fields are set and cleared together.
type Session struct {
	Token string
	User  *UserProfile
}

// IsAuthenticated reports whether the session carries a validated user.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

// ActivityDetails describes one activity and its roster.
type ActivityDetails struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// SpotsLeft may be zero or negative when the backend over-fills an activity.
func (a ActivityDetails) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

// HasParticipant reports whether email is on the roster.
func (a ActivityDetails) HasParticipant(email string) bool {
	for _, p := range a.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// Activity is a named catalog entry.
type Activity struct {
	Name string
	ActivityDetails
}

// Catalog keeps activities in the order the server sent them.
type Catalog struct {
	names   []string
	details map[string]ActivityDetails
}

// NewCatalog builds a catalog from ordered entries. Later duplicates replace
// earlier details but keep the first position.
func NewCatalog(activities ...Activity) *Catalog {
	c := &Catalog{details: make(map[string]ActivityDetails, len(activities))}
	for _, a := range activities {
		c.set(a.Name, a.ActivityDetails)
	}
	return c
}

func (c *Catalog) set(name string, details ActivityDetails) {
	if c.details == nil {
		c.details = map[string]ActivityDetails{}
	}
	if _, exists := c.details[name]; !exists {
		c.names = append(c.names, name)
	}
	c.details[name] = details
}

// Len returns the number of activities.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Names returns activity names in server order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Get returns the details for name.
func (c *Catalog) Get(name string) (ActivityDetails, bool) {
	if c == nil {
		return ActivityDetails{}, false
	}
	d, ok := c.details[name]
	return d, ok
}

// Activities returns all entries in server order.
func (c *Catalog) Activities() []Activity {
	if c == nil {
		return nil
	}
	out := make([]Activity, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, Activity{Name: name, ActivityDetails: c.details[name]})
	}
	return out
}

// UnmarshalJSON decodes the name->details object while keeping key order.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("catalog: expected object, got %v", tok)
	}

	out := Catalog{details: map[string]ActivityDetails{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("catalog: expected activity name, got %v", tok)
		}

		var details ActivityDetails
		if err := dec.Decode(&details); err != nil {
			return fmt.Errorf("catalog: activity %q: %w", name, err)
		}
		out.set(name, details)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = out
	return nil
}

// MarshalJSON writes the catalog as an object in server order.
func (c Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range c.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		details := c.details[name]
		if details.Participants == nil {
			details.Participants = []string{}
		}
		val, err := json.Marshal(details)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NotificationKind is the severity of a transient message.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
	NotificationInfo    NotificationKind = "info"
)

// NotificationMessage is the single visible status message.
type NotificationMessage struct {
	ID        string
	Text      string
	Kind      NotificationKind
	ShownAt   time.Time
	ExpiresAt time.Time
}
