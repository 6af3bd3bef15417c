package authflow

import (
	"github.com/MrEthical07/authflow/api"
	"github.com/MrEthical07/authflow/flow"
	"github.com/MrEthical07/authflow/session"
)

// TokenPair is the access/refresh credential bundle of a session.
type TokenPair = session.TokenPair

// Storage is the durable backend of the token record.
type Storage = session.Storage

// User is the authenticated user's profile.
type User = api.User

// LoginRequest is the login form.
type LoginRequest = api.LoginRequest

// Navigator performs route changes.
type Navigator = flow.Navigator

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc = flow.NavigatorFunc
