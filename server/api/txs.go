// Package api
package api

import (
	"strings"

	"github.com/labstack/echo"
	"go.uber.org/zap"
)

// TxByHash returns the last recorded lifecycle state of a write sent through bountyctl.
func (s *Server) TxByHash(c echo.Context) error {
	if s.dbClient == nil {
		return Unavailable.Build(c)
	}
	hash := strings.ToLower(strings.TrimSpace(c.Param("txHash")))
	if !strings.HasPrefix(hash, "0x") || len(hash) != 66 {
		return Invalid.Build(c)
	}
	tx, err := s.dbClient.TxByHash(c.Request().Context(), hash)
	if err != nil {
		s.lgr("TxByHash").Debug("Cannot get tx", zap.String("hash", hash), zap.Error(err))
		return ErrorResponse(err).Build(c)
	}
	return OK.SetData(tx).Build(c)
}
