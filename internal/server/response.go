package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorResponse is the JSON body of every failed API call.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func fail(c *gin.Context, code int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, errorResponse{Code: code, Message: err.Error()})
}

func badRequest(c *gin.Context, err error) { fail(c, http.StatusBadRequest, err) }
