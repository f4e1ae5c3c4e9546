package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prateekraiger/buildmeCV/internal/errcode"
)

// ErrorResponse 是所有失败响应的统一结构。
type ErrorResponse struct {
	Error     string   `json:"error"`
	Code      int      `json:"code"`
	Retryable bool     `json:"retryable"`
	Missing   []string `json:"missing,omitempty"`
}

func Error(c *gin.Context, status, code int, msg string) {
	c.JSON(status, ErrorResponse{Error: msg, Code: code, Retryable: errcode.Retryable(code)})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: errcode.ValidationFailed})
}

func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, errcode.ValidationFailed, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, errcode.ResourceMissing, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, errcode.Busy, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, errcode.SystemError, msg) }

// Unprocessable 报告导出前校验失败，附带缺失字段。
func Unprocessable(c *gin.Context, msg string, missing []string) {
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   msg,
		Code:    errcode.ValidationFailed,
		Missing: missing,
	})
}
