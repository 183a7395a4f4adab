package analysis

import (
	"errors"
	"fmt"
)

// FallbackMessage is shown when no error text can be taken from the service.
const FallbackMessage = "A network or server error occurred."

// NetworkError means the request could not be sent or no response arrived,
// timeouts included.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("analysis service unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx answer. Message is empty when the body carried no
// decodable error field.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analysis service returned status %d", e.Status)
	}
	return fmt.Sprintf("analysis service returned status %d: %s", e.Status, e.Message)
}

// MalformedResponse is a 2xx answer whose body does not match the report schema.
type MalformedResponse struct {
	Err error
}

func (e *MalformedResponse) Error() string {
	return fmt.Sprintf("malformed analysis response: %v", e.Err)
}

func (e *MalformedResponse) Unwrap() error { return e.Err }

// Message maps any analysis error to the text shown to the user.
func Message(err error) string {
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return FallbackMessage
}
