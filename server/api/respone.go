// Package api
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo"

	"github.com/bountyboard/bounty-backend/driver"
	"github.com/bountyboard/bounty-backend/types"
)

var (
	OK             = EchoResponse{StatusCode: http.StatusOK, Code: 1000, Msg: "Success"}
	InternalServer = EchoResponse{StatusCode: http.StatusInternalServerError, Code: 1100, Msg: "Server busy..."}
	Invalid        = EchoResponse{StatusCode: http.StatusBadRequest, Code: 1101, Msg: "Bad request"}
	NotFound       = EchoResponse{StatusCode: http.StatusNotFound, Code: 1102, Msg: "Not found"}
	Conflict       = EchoResponse{StatusCode: http.StatusConflict, Code: 1103, Msg: "Record exist"}
	ContractError  = EchoResponse{StatusCode: http.StatusBadGateway, Code: 1104, Msg: "Contract call failed"}
	ExternalError  = EchoResponse{StatusCode: http.StatusBadGateway, Code: 1105, Msg: "External service failed"}
	Unavailable    = EchoResponse{StatusCode: http.StatusServiceUnavailable, Code: 1106, Msg: "Service unavailable"}
	Unauthorized   = EchoResponse{StatusCode: http.StatusUnauthorized, Code: 401, Msg: "Unauthorized"}
)

type PagingResponse struct {
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total uint64      `json:"total"`
	Data  interface{} `json:"data"`
}

type EchoResponse struct {
	StatusCode int         `json:"-"`
	Code       int         `json:"code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data,omitempty"`
}

// SetData returns a copy, the package level responses are shared between requests.
func (r EchoResponse) SetData(data interface{}) *EchoResponse {
	r.Data = data
	return &r
}

func (r EchoResponse) Build(c echo.Context) error {
	return c.JSON(r.StatusCode, r)
}

// ErrorResponse maps a component error to its response.
func ErrorResponse(err error) EchoResponse {
	var res EchoResponse
	switch {
	case errors.Is(err, types.ErrNotFound), errors.Is(err, driver.ErrNotFound):
		res = NotFound
	case errors.Is(err, types.ErrRecordExist):
		res = Conflict
	case errors.Is(err, types.ErrContractCall):
		res = ContractError
	case errors.Is(err, types.ErrExternalService):
		res = ExternalError
	case errors.Is(err, types.ErrConnection), errors.Is(err, types.ErrNetworkMismatch):
		res = Unavailable
	default:
		return InternalServer
	}
	var e *types.Error
	if errors.As(err, &e) && e.Message != "" {
		res.Msg = e.Message
	}
	return res
}
