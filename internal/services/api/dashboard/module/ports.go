package module

import (
	dashsvc "insightboard/internal/services/api/dashboard/service"
)

// Ports is what the dashboard module exposes to other modules
// passed to New through modkit.WithPorts, a set Service or Options override the defaults
type Ports struct {
	Service dashsvc.Service
	Options *Options
}
