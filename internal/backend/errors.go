package backend

import (
	"fmt"
	"strings"
)

// Error is a failed exchange with the tutor backend. The backend reports
// most failures as a 200 with a plain-text body, so Body is what the user
// should see.
type Error struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *Error) Error() string {
	if e.Body != "" {
		return e.Body
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errorPrefix marks plain-text failure bodies from text endpoints.
const errorPrefix = "There was an error"

func isErrorText(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), errorPrefix)
}
