package models

import "time"

type ClientModel struct {
	ID               string `gorm:"primaryKey;type:uuid"`
	ClientKey        string `gorm:"uniqueIndex:idx_client_key"`
	ClientSalt       string
	FeePercent       float64
	SuspendThreshold int64
	RotationMode     string `gorm:"default:round_robin"`
	RotationPosition int
	TotalAssigned    int
	DailyResetOn     bool `gorm:"default:true"`
	WebhookURL       string
	IsActive         bool `gorm:"default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (ClientModel) TableName() string {
	return "clients"
}
