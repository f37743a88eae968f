package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// atoiQuery parses an integer query parameter
func atoiQuery(c *gin.Context, name string) (int, error) {
	return strconv.Atoi(c.Query(name))
}
