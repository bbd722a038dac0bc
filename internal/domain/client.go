package domain

import "time"

type RotationMode string

const (
	RotationRoundRobin RotationMode = "round_robin"
	RotationPriority   RotationMode = "priority"
	RotationSmart      RotationMode = "smart"
)

// Client is a merchant identity. Clients are never deleted, only deactivated.
type Client struct {
	ID               string
	ClientKey        string
	ClientSalt       string
	FeePercent       float64
	SuspendThreshold int64
	RotationMode     RotationMode
	RotationPosition int
	TotalAssigned    int
	DailyResetOn     bool
	WebhookURL       string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ClientRepository interface {
	GetClientByKey(clientKey string) (*Client, error)
	GetClientByID(clientID string) (*Client, error)
	// AdvanceRotation moves the rotation cursor from expected to next.
	// Returns ErrRotationConflict if the cursor moved under us.
	AdvanceRotation(clientID string, expected, next int) error
}
