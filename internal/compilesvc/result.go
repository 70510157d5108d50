package compilesvc

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// errorResponse is the JSON body written for any non-2xx Result.
type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// Result is one endpoint outcome: an HTTP status plus a JSON body,
// deferred until PrepareMarshaledResponse/WriteResponse so an endpoint
// can build it without touching http.ResponseWriter directly.
type Result struct {
	Status      int
	IsErr       bool
	InternalMsg string

	resp interface{}
	hdrs [][2]string

	respJSONBytes []byte
}

// OK returns an HTTP-200 Result wrapping respObj.
func OK(respObj interface{}, internalMsg ...interface{}) Result {
	return response(http.StatusOK, respObj, "OK", internalMsg...)
}

// Created returns an HTTP-201 Result wrapping respObj.
func Created(respObj interface{}, internalMsg ...interface{}) Result {
	return response(http.StatusCreated, respObj, "created", internalMsg...)
}

// BadRequest returns an HTTP-400 error Result.
func BadRequest(userMsg string, internalMsg ...interface{}) Result {
	return errResult(http.StatusBadRequest, userMsg, "bad request", internalMsg...)
}

// Unauthorized returns an HTTP-401 error Result with a WWW-Authenticate
// header naming the bearer scheme this service expects.
func Unauthorized(userMsg string, internalMsg ...interface{}) Result {
	if userMsg == "" {
		userMsg = "a valid bearer token is required"
	}
	return errResult(http.StatusUnauthorized, userMsg, "unauthorized", internalMsg...).
		WithHeader("WWW-Authenticate", `Bearer realm="yunic compile service"`)
}

// Forbidden returns an HTTP-403 error Result.
func Forbidden(internalMsg ...interface{}) Result {
	return errResult(http.StatusForbidden, "you don't have permission to do that", "forbidden", internalMsg...)
}

// NotFound returns an HTTP-404 error Result.
func NotFound(internalMsg ...interface{}) Result {
	return errResult(http.StatusNotFound, "the requested resource was not found", "not found", internalMsg...)
}

// Conflict returns an HTTP-409 error Result.
func Conflict(userMsg string, internalMsg ...interface{}) Result {
	return errResult(http.StatusConflict, userMsg, "conflict", internalMsg...)
}

// InternalServerError returns an HTTP-500 error Result.
func InternalServerError(internalMsg ...interface{}) Result {
	return errResult(http.StatusInternalServerError, "an internal server error occurred", "internal server error", internalMsg...)
}

func response(status int, respObj interface{}, internalMsg string, v ...interface{}) Result {
	return Result{Status: status, InternalMsg: fmt.Sprintf(internalMsg, v...), resp: respObj}
}

func errResult(status int, userMsg, internalMsg string, v ...interface{}) Result {
	return Result{
		Status:      status,
		IsErr:       true,
		InternalMsg: fmt.Sprintf(internalMsg, v...),
		resp:        errorResponse{Error: userMsg, Status: status},
	}
}

// WithHeader returns a copy of r with an additional response header set.
func (r Result) WithHeader(name, val string) Result {
	cp := r
	cp.hdrs = append(append([][2]string{}, r.hdrs...), [2]string{name, val})
	return cp
}

// PrepareMarshaledResponse marshals resp to JSON ahead of time so
// WriteResponse cannot fail partway through writing the header.
func (r *Result) PrepareMarshaledResponse() error {
	if r.respJSONBytes != nil {
		return nil
	}
	if r.Status == http.StatusNoContent {
		return nil
	}
	data, err := json.Marshal(r.resp)
	if err != nil {
		return err
	}
	r.respJSONBytes = data
	return nil
}

// WriteResponse writes the prepared JSON response to w.
func (r Result) WriteResponse(w http.ResponseWriter) {
	if r.Status == 0 {
		panic("compilesvc: result not populated")
	}
	if err := r.PrepareMarshaledResponse(); err != nil {
		panic(fmt.Sprintf("compilesvc: could not marshal response: %s", err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	for _, h := range r.hdrs {
		w.Header().Set(h[0], h[1])
	}
	w.WriteHeader(r.Status)
	if r.Status != http.StatusNoContent {
		w.Write(r.respJSONBytes)
	}
}
