package restapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"taskflow/internal/service"
)

// wireUser accepts both "_id" and "id".
type wireUser struct {
	ID    string `json:"id"`
	OID   string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u wireUser) toUser() service.User {
	id := u.ID
	if id == "" {
		id = u.OID
	}
	return service.User{ID: id, Name: u.Name, Email: u.Email, Role: service.Role(u.Role)}
}

// wireRef is an assignee: a bare ID string, a populated user object, or null.
type wireRef service.UserRef

func (r *wireRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = wireRef{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = wireRef{ID: id}
		return nil
	}
	var u wireUser
	if err := json.Unmarshal(data, &u); err != nil {
		return fmt.Errorf("assignedTo: %w", err)
	}
	user := u.toUser()
	*r = wireRef{ID: user.ID, Name: user.Name, Email: user.Email}
	return nil
}

// wireDate is a nullable due date in RFC 3339 or YYYY-MM-DD form.
type wireDate struct {
	t *time.Time
}

func (d *wireDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.t = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("dueDate: %w", err)
	}
	if s == "" {
		d.t = nil
		return nil
	}
	t, err := parseDate(s)
	if err != nil {
		return fmt.Errorf("dueDate: %w", err)
	}
	d.t = &t
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

type wireTask struct {
	OID         string   `json:"_id"`
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	AssignedTo  wireRef  `json:"assignedTo"`
	DueDate     wireDate `json:"dueDate"`
}

// toTask validates the enumerations; the backend is not trusted to send
// only known values.
func (w wireTask) toTask() (service.Task, error) {
	id := w.OID
	if id == "" {
		id = w.ID
	}
	status, err := service.ParseStatus(w.Status)
	if err != nil {
		return service.Task{}, fmt.Errorf("task %s: %w", id, err)
	}
	priority, err := service.ParsePriority(w.Priority)
	if err != nil {
		return service.Task{}, fmt.Errorf("task %s: %w", id, err)
	}
	return service.Task{
		ID:          id,
		Title:       w.Title,
		Description: w.Description,
		Status:      status,
		Priority:    priority,
		Assignee:    service.UserRef(w.AssignedTo),
		DueDate:     w.DueDate.t,
	}, nil
}

func toTasks(ws []wireTask) ([]service.Task, error) {
	out := make([]service.Task, 0, len(ws))
	for _, w := range ws {
		t, err := w.toTask()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// listOf decodes either a bare JSON array or an {"items": [...]} envelope.
type listOf[T any] []T

func (l *listOf[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var env struct {
		Items []T `json:"items"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*l = env.Items
	return nil
}

type wirePage struct {
	Items []wireTask `json:"items"`
	Page  int        `json:"page"`
	Pages int        `json:"pages"`
	Total int        `json:"total"`
	Limit int        `json:"limit"`
}

type wireCredentials struct {
	Token string   `json:"token"`
	User  wireUser `json:"user"`
}

// inputBody renders a task payload. Only set fields are sent; a cleared due
// date is sent as null.
func inputBody(in service.TaskInput) map[string]any {
	body := make(map[string]any)
	if in.Title != nil {
		body["title"] = *in.Title
	}
	if in.Description != nil {
		body["description"] = *in.Description
	}
	if in.Status != nil {
		body["status"] = *in.Status
	}
	if in.Priority != nil {
		body["priority"] = *in.Priority
	}
	if in.AssignedTo != nil {
		body["assignedTo"] = *in.AssignedTo
	}
	switch {
	case in.DueDate != nil:
		body["dueDate"] = in.DueDate.Format(time.DateOnly)
	case in.ClearDueDate:
		body["dueDate"] = nil
	}
	return body
}
