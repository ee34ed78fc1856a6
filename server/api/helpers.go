// Package api
package api

import (
	"strconv"

	"github.com/labstack/echo"

	"github.com/bountyboard/bounty-backend/types"
	"github.com/bountyboard/bounty-backend/utils"
)

func checkPagination() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, key := range []string{"page", "limit"} {
				if v := c.QueryParam(key); v != "" {
					if n, err := strconv.Atoi(v); err != nil || n < 0 {
						return Invalid.Build(c)
					}
				}
			}
			return next(c)
		}
	}
}

func getPagingOption(c echo.Context) (*types.Pagination, int, int) {
	pageParams := c.QueryParam("page")
	limitParams := c.QueryParam("limit")
	page, err := strconv.Atoi(pageParams)
	if err != nil || page < 1 {
		page = 1
	}
	page = page - 1
	limit, err := strconv.Atoi(limitParams)
	if err != nil {
		limit = 25
	}
	pagination := &types.Pagination{
		Skip:  page * limit,
		Limit: limit,
	}
	pagination.Sanitize()
	return pagination, page + 1, pagination.Limit
}

func bountyID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil
}

func addressParam(c echo.Context) (string, bool) {
	raw := c.Param("address")
	if !utils.IsValidAddress("0x" + utils.CleanUpHex(raw)) {
		return "", false
	}
	addr, err := utils.ValidateAccount(raw)
	return addr, err == nil
}
