// Package guard gates screens on session presence and role.
package guard

import (
	"taskflow/internal/service"
	"taskflow/internal/session"
)

// Route identifies a screen.
type Route string

const (
	RouteLogin   Route = "/login"
	RouteAdmin   Route = "/admin"
	RouteMyTasks Route = "/my-tasks"
)

// Decision is the outcome of a guard check. A redirect always replaces the
// current history entry, so logging out never allows navigating back into
// guarded content.
type Decision struct {
	Allowed  bool
	Redirect Route
	Replace  bool
}

func allow() Decision { return Decision{Allowed: true} }

func redirect(to Route) Decision { return Decision{Redirect: to, Replace: true} }

// Guard decides whether a session may see a screen.
type Guard interface {
	Check(sess session.Session, ok bool) Decision
}

// Public lets everyone through.
type Public struct{}

func (Public) Check(session.Session, bool) Decision { return allow() }

// RequireAuth admits any authenticated user.
type RequireAuth struct{}

func (RequireAuth) Check(_ session.Session, ok bool) Decision {
	if !ok {
		return redirect(RouteLogin)
	}
	return allow()
}

// RequireRole admits authenticated users with Role; others go to their home.
type RequireRole struct {
	Role service.Role
}

func (g RequireRole) Check(sess session.Session, ok bool) Decision {
	if !ok {
		return redirect(RouteLogin)
	}
	if sess.User.Role != g.Role {
		return redirect(RouteMyTasks)
	}
	return allow()
}

// RequireAdmin is RequireRole for managers.
var RequireAdmin = RequireRole{Role: service.RoleAdmin}

// HomeFor returns the landing screen of user after login.
func HomeFor(user service.User) Route {
	if user.IsAdmin() {
		return RouteAdmin
	}
	return RouteMyTasks
}
