package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"taskflow/internal/service"
)

// ErrIDRequired indicates no task id was provided.
var ErrIDRequired = errors.New("task id required")

// optString is a string flag that remembers whether it was given, so an
// empty value can be told apart from an absent one.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string {
	if o == nil {
		return ""
	}
	return o.value
}

func (o *optString) Set(s string) error {
	o.value = s
	o.set = true
	return nil
}

// ptr returns the value, or nil when the flag was not given.
func (o *optString) ptr() *string {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// parseStatusArg parses an optional status flag. Empty means All.
func parseStatusArg(s string) (service.Status, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return service.ParseStatus(s)
}

// parseDue parses a due date in YYYY-MM-DD form.
func parseDue(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date: %s (want YYYY-MM-DD)", s)
	}
	return d, nil
}

// taskIDAndStatus splits "<id> <status...>". The status may span several
// arguments, as in: status t1 in progress.
func taskIDAndStatus(args []string) (string, service.Status, error) {
	if len(args) == 0 {
		return "", "", ErrIDRequired
	}
	if len(args) == 1 {
		return "", "", errors.New("status required")
	}
	status, err := service.ParseStatus(strings.Join(args[1:], " "))
	if err != nil {
		return "", "", err
	}
	return args[0], status, nil
}

// resolveUser finds a user by exact id, then by email, then by name.
// Email and name comparisons ignore case. Several users sharing a name
// make the reference ambiguous.
func resolveUser(users []service.User, ref string) (service.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return service.User{}, errors.New("user required")
	}
	for _, u := range users {
		if u.ID == ref {
			return u, nil
		}
	}

	fold := cases.Fold()
	want := fold.String(ref)
	for _, u := range users {
		if fold.String(u.Email) == want {
			return u, nil
		}
	}

	var matches []service.User
	for _, u := range users {
		if fold.String(u.Name) == want {
			matches = append(matches, u)
		}
	}
	switch len(matches) {
	case 0:
		return service.User{}, fmt.Errorf("user not found: %s", ref)
	case 1:
		return matches[0], nil
	}
	return service.User{}, fmt.Errorf("ambiguous user name: %s (use the email)", ref)
}
