package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// Route names as registered on the HTTP router.
const (
	RouteHealth              = "health"
	RouteMetrics             = "metrics"
	RouteSubmitReading       = "submit-reading"
	RouteVoidReading         = "void-reading"
	RouteSubmitCashReport    = "submit-cash-report"
	RouteRunReconciliation   = "run-reconciliation"
	RouteCloseDay            = "close-day"
	RouteGetReconciliation   = "get-reconciliation"
	RouteCreditorBalance     = "creditor-balance"
	RouteRecordCreditPayment = "record-credit-payment"
)

// EndpointSecurityConfig maps routes to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	RouteHealth:  SecurityPublic,
	RouteMetrics: SecurityPublic,

	RouteSubmitReading:       SecurityAccess,
	RouteVoidReading:         SecurityAccess,
	RouteSubmitCashReport:    SecurityAccess,
	RouteRunReconciliation:   SecurityAccess,
	RouteCloseDay:            SecurityAccess,
	RouteGetReconciliation:   SecurityAccess,
	RouteCreditorBalance:     SecurityAccess,
	RouteRecordCreditPayment: SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
