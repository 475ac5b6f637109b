package httpserver

const (
	ErrInvalidJSON = "invalid json"
	ErrBadRequest  = "bad request"
	ErrDependency  = "dependency error"
	ErrNotFound    = "not found"
)
