// Package api
package api

import (
	"github.com/labstack/echo"
)

// RestServer define all API expose
type RestServer interface {
	// General
	Ping(c echo.Context) error
	ServerStatus(c echo.Context) error
	UpdateServerStatus(c echo.Context) error

	IBounty
	IAnalysis
	IProof

	TxByHash(c echo.Context) error
}

type IBounty interface {
	Bounties(c echo.Context) error
	Bounty(c echo.Context) error
	BountySubmissions(c echo.Context) error
	UserBounties(c echo.Context) error
	UserSubmissions(c echo.Context) error
	UserReputation(c echo.Context) error
}

type IAnalysis interface {
	AnalyzeBounty(c echo.Context) error
	AnalyzeQuality(c echo.Context) error
	Analyses(c echo.Context) error
}

type IProof interface {
	UploadProof(c echo.Context) error
	Proof(c echo.Context) error
	ProofsByBounty(c echo.Context) error
}
