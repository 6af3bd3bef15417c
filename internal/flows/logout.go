package flows

import "context"

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Request func(ctx context.Context) error
	Clear   func()
}

// RunLogout notifies the backend and then clears local state whatever the
// backend answered. The request error is returned for callers that want it.
func RunLogout(ctx context.Context, deps LogoutDeps) error {
	var err error
	if deps.Request != nil {
		err = deps.Request(ctx)
	}
	deps.Clear()
	return err
}
