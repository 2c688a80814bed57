package utils

import "github.com/gin-gonic/gin"

// JSONResponse defines the uniform structure for API responses.
// Error repeats the message for rejections whose reason is part of the contract.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, 200, 0, "success", data)
}

// Created returns a standard 201 response.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, 201, 0, "created", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// Reject returns an error response carrying the reason under "error" too.
func Reject(ctx *gin.Context, status int, code int, reason string) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: reason,
		Error:   reason,
	})
}

// FieldErrors returns a validation failure with per-field messages.
func FieldErrors(ctx *gin.Context, status int, code int, fields map[string]string) {
	Respond(ctx, status, code, "validation failed", gin.H{"fields": fields})
}
