package types

import "fmt"

// CustomError is an HTTP error with a machine readable type, rendered by the server error handler
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// Temporary reports whether retrying the request could succeed
func (e *CustomError) Temporary() bool {
	return e.Code >= 500 || e.Code == 429
}
