package util

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

func ParamsToMap[T any](c *gin.Context) (T, error) {
	var params T

	if err := c.ShouldBindJSON(&params); err != nil {
		return params, err
	}

	return params, nil
}

// ParamID parses a 32-bit integer path parameter. Ids that were never assigned are left to the
// store to report as not found.
func ParamID(c *gin.Context, name string) (int, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)

	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}

	return int(id), nil
}
