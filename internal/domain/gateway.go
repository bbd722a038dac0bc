package domain

import "time"

// Gateway is a configured PSP credential set. Credentials are opaque to the
// core and only handed to the matching adapter.
type Gateway struct {
	ID            string
	Provider      string
	Credentials   map[string]string
	IsActive      bool
	Priority      int
	SuccessRate   float64
	MonthlyLimit  int64
	CurrentVolume int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GatewayAssignment is the client<->gateway edge used by rotation.
type GatewayAssignment struct {
	ID            string
	ClientID      string
	GatewayID     string
	RotationOrder int
	IsActive      bool
	Weight        float64
	DailyLimit    int64
	DailyUsage    int64
	LastUsedAt    *time.Time
	Gateway       *Gateway
}

// GatewayHealth is the latest probe result for a gateway.
type GatewayHealth struct {
	GatewayID string
	IsOnline  bool
	LatencyMs int64
	CheckedAt time.Time
}

type GatewayRepository interface {
	GetGatewayByID(gatewayID string) (*Gateway, error)
	GetActiveGateways() ([]*Gateway, error)
	GetAssignmentsByClientID(clientID string) ([]*GatewayAssignment, error)

	// ReserveAssignment atomically consumes amount from the assignment's
	// daily window. Fails with ErrCapacityExceeded when the window is full.
	ReserveAssignment(assignmentID string, amount int64) error
	// ReserveGatewayVolume atomically consumes amount from the gateway's
	// monthly window.
	ReserveGatewayVolume(gatewayID string, amount int64) error
	// ReserveCapacity consumes both windows in one store transaction, so a
	// selection either claims all its capacity or none of it. assignmentID
	// may be empty for priority mode, which tracks only monthly volume.
	ReserveCapacity(assignmentID, gatewayID string, amount int64) error
	ResetDailyUsage() (int64, error)
}

type GatewayHealthRepository interface {
	RecordProbe(health *GatewayHealth) error
	LatestByGateway() (map[string]*GatewayHealth, error)
}
