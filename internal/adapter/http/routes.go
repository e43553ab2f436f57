package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts every route. mutating wraps the POST endpoints (idempotency).
func Register(e *echo.Echo, h *Handler, lh *LedgerHandler, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/loans/:loan_id", lh.GetLoan)
	e.GET("/loans/:loan_id/events", lh.LoanEvents)
	e.GET("/accounts/:account_id/loans", lh.UserLoans)

	e.POST("/loans", lh.OpenLoan, mutating...)
	e.POST("/loans/:loan_id/settle", lh.SettleInterest, mutating...)
	e.POST("/loans/:loan_id/liquidation", lh.EvaluateLiquidation, mutating...)
	e.POST("/loans/:loan_id/repay", lh.RepayLoan, mutating...)
	e.POST("/liquidations/scan", lh.ScanLiquidations, mutating...)
}
