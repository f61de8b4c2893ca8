package model

import "net/http"

// Response is the uniform result envelope returned by every engine and
// service operation. Status mirrors conventional HTTP codes so the
// transport layer can map it 1:1 onto the wire.
type Response[T any] struct {
	Status  int    `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func OK[T any](data T, message string) Response[T] {
	return Response[T]{Status: http.StatusOK, Data: data, Message: message}
}

func Created[T any](data T, message string) Response[T] {
	return Response[T]{Status: http.StatusCreated, Data: data, Message: message}
}

func BadRequest[T any](message string) Response[T] {
	return Response[T]{Status: http.StatusBadRequest, Message: message}
}

func NotFound[T any](message string) Response[T] {
	return Response[T]{Status: http.StatusNotFound, Message: message}
}

func Conflict[T any](message string) Response[T] {
	return Response[T]{Status: http.StatusConflict, Message: message}
}

func Unauthorized[T any](message string) Response[T] {
	return Response[T]{Status: http.StatusUnauthorized, Message: message}
}

func Forbidden[T any](message string) Response[T] {
	return Response[T]{Status: http.StatusForbidden, Message: message}
}

func Internal[T any](message string) Response[T] {
	return Response[T]{Status: http.StatusInternalServerError, Message: message}
}

// IsSuccess reports whether the envelope carries a 2xx status.
func (r Response[T]) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}
