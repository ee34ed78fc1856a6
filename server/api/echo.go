/*
 *  Copyright 2018 KardiaChain
 *  This file is part of the go-kardia library.
 *
 *  The go-kardia library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The go-kardia library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 *  GNU Lesser General Public License for more details.
 *
 *  You should have received a copy of the GNU Lesser General Public License
 *  along with the go-kardia library. If not, see <http://www.gnu.org/licenses/>.
 */

package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bountyboard/bounty-backend/cfg"
)

type restDefinition struct {
	method      string
	path        string
	fn          func(c echo.Context) error
	middlewares []echo.MiddlewareFunc
}

func bind(gr *echo.Group, srv RestServer) {
	apis := []restDefinition{
		{
			method:      echo.GET,
			path:        "/ping",
			fn:          srv.Ping,
			middlewares: nil,
		},
		{
			method: echo.GET,
			path:   "/status",
			fn:     srv.ServerStatus,
		},
		{
			method: echo.PUT,
			path:   "/status",
			fn:     srv.UpdateServerStatus,
		},
		// Bounties
		{
			method: echo.GET,
			// Query params: ?search=logo&sort=deadline&status=open
			path: "/bounties",
			fn:   srv.Bounties,
		},
		{
			method: echo.GET,
			// Query params: ?viewer=0x...
			path: "/bounties/:id",
			fn:   srv.Bounty,
		},
		{
			method: echo.GET,
			path:   "/bounties/:id/proofs",
			fn:     srv.ProofsByBounty,
			// Query params: ?page=1&limit=25
			middlewares: []echo.MiddlewareFunc{checkPagination()},
		},
		// Users
		{
			method: echo.GET,
			path:   "/users/:address/bounties",
			fn:     srv.UserBounties,
		},
		{
			method: echo.GET,
			path:   "/users/:address/submissions",
			fn:     srv.UserSubmissions,
		},
		{
			method: echo.GET,
			path:   "/users/:address/reputation",
			fn:     srv.UserReputation,
		},
		// Proofs
		{
			method: echo.POST,
			path:   "/proofs",
			fn:     srv.UploadProof,
		},
		{
			method: echo.GET,
			path:   "/proofs/:cid",
			fn:     srv.Proof,
		},
		{
			method: echo.GET,
			path:   "/txs/:txHash",
			fn:     srv.TxByHash,
		},
		{
			method:      echo.GET,
			path:        "/analyses",
			fn:          srv.Analyses,
			middlewares: []echo.MiddlewareFunc{checkPagination()},
		},
	}
	for _, api := range apis {
		gr.Add(api.method, api.path, api.fn, api.middlewares...)
	}
	bindAnalysisAPIs(gr, srv)
}

// bindAnalysisAPIs registers the routes served both under /api/v1 and at the root.
func bindAnalysisAPIs(gr *echo.Group, srv RestServer) {
	apis := []restDefinition{
		{
			method: echo.POST,
			path:   "/analyze-bounty",
			fn:     srv.AnalyzeBounty,
		},
		{
			method: echo.POST,
			path:   "/analyze-quality",
			fn:     srv.AnalyzeQuality,
		},
		{
			method: echo.POST,
			path:   "/check-quality",
			fn:     srv.AnalyzeQuality,
		},
		{
			method: echo.GET,
			path:   "/bounties/:id/submissions",
			fn:     srv.BountySubmissions,
		},
	}
	for _, api := range apis {
		gr.Add(api.method, api.path, api.fn, api.middlewares...)
	}
}

func requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// NewEcho builds the router without starting it.
func NewEcho(srv *Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(requestID())
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Gzip())
	e.Use(middleware.Recover())

	bind(e.Group("/api/v1"), srv)
	bindAnalysisAPIs(e.Group(""), srv)
	if srv.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(srv.metrics.Registry(), promhttp.HandlerOpts{})))
	}
	return e
}

func Start(e *echo.Echo, cfg cfg.BountyConfig) error {
	e.Server.ReadTimeout = cfg.DefaultAPITimeout
	e.Server.WriteTimeout = cfg.DefaultAPITimeout
	return e.Start(cfg.Port)
}
