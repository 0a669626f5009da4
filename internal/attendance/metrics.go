package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var claimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "attendance_claims_total",
	Help: "Attendance claim decisions by outcome.",
}, []string{"outcome"})

const (
	outcomeAccepted            = "accepted"
	outcomeExpired             = "expired"
	outcomeTooEarly            = "too_early"
	outcomeGeofence            = "geofence"
	outcomeLocationUnavailable = "location_unavailable"
	outcomePinMismatch         = "pin_mismatch"
	outcomeError               = "error"
)
