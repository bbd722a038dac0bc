package models

import "time"

type GatewayModel struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	Provider      string `gorm:"index:idx_gateway_provider"`
	Credentials   string `gorm:"type:jsonb"`
	IsActive      bool   `gorm:"default:true;index:idx_gateway_active"`
	Priority      int
	SuccessRate   float64
	MonthlyLimit  int64
	CurrentVolume int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (GatewayModel) TableName() string {
	return "payment_gateways"
}

type GatewayAssignmentModel struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	ClientID      string `gorm:"type:uuid;index:idx_assignment_client"`
	GatewayID     string `gorm:"type:uuid"`
	Gateway       GatewayModel `gorm:"foreignKey:GatewayID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	RotationOrder int
	IsActive      bool `gorm:"default:true"`
	Weight        float64
	DailyLimit    int64
	DailyUsage    int64
	LastUsedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (GatewayAssignmentModel) TableName() string {
	return "gateway_assignments"
}

type GatewayHealthModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	GatewayID string `gorm:"type:uuid;index:idx_health_gateway"`
	IsOnline  bool
	LatencyMs int64
	CheckedAt time.Time `gorm:"index:idx_health_checked"`
}

func (GatewayHealthModel) TableName() string {
	return "gateway_health_metrics"
}
