package errors

// Result is returned by auth and cart mutations at the container boundary.
// Callers check Success instead of handling a Go error.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// OK is the successful result.
func OK() Result {
	return Result{Success: true}
}

// Fail converts err into a failed Result carrying the user-facing message.
func Fail(err error) Result {
	res := Result{Error: UserMessage(err)}
	if se := GetServiceError(err); se != nil {
		res.Code = se.Code
	} else {
		res.Code = CodeNetwork
	}
	return res
}

// FromError returns OK for a nil error and Fail otherwise.
func FromError(err error) Result {
	if err == nil {
		return OK()
	}
	return Fail(err)
}
