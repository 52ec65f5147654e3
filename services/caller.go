package services

// Caller is the already-authenticated identity on whose behalf an engine
// operation runs. The engine never reads session state on its own.
type Caller struct {
	UserID uint
	Role   string
	System bool
}

// SystemCaller is used by scheduled jobs.
var SystemCaller = Caller{Role: "system", System: true}

func (c Caller) authenticated() error {
	if c.System || c.UserID != 0 {
		return nil
	}
	return ErrUnauthenticated
}
