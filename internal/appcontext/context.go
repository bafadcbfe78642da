// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package appcontext provides the custom Echo context.
package appcontext

import (
	"github.com/LanceVShoot/FFB-Garage/internal/services/session"
	"github.com/labstack/echo/v4"
)

// Context is a custom Echo context carrying the request's session holder.
type Context struct {
	echo.Context
	Session *session.Holder
}

// New wraps c with an anonymous session.
func New(c echo.Context) *Context {
	return &Context{Context: c, Session: session.NewHolder()}
}

// From returns the app context for c. Handlers reached without the session
// middleware get an anonymous session.
func From(c echo.Context) *Context {
	if ac, ok := c.(*Context); ok {
		if ac.Session == nil {
			ac.Session = session.NewHolder()
		}
		return ac
	}
	return New(c)
}

// IsAuthenticated returns true if the session holds a verified email.
func (c *Context) IsAuthenticated() bool {
	return c.Session != nil && c.Session.IsAuthenticated()
}

// Email returns the verified email, or "" when anonymous.
func (c *Context) Email() string {
	if c.Session == nil {
		return ""
	}
	return c.Session.Email()
}
