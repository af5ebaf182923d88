package notification

import "time"

type Status string

var (
	Active   Status = "active"
	Inactive Status = "inactive"
)

const CategorySubscriptionSuccess = "subscription_success"

// EmailTemplate is an owner-customised message. The body may carry
// {{amount}}, {{status}}, {{duration}}, {{gateway}} and {{app_name}}
// placeholders.
type EmailTemplate struct {
	ID          string    `gorm:"column:id;primaryKey"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
	OwnerUserID string    `gorm:"column:owner_user_id"`
	Category    string    `gorm:"column:category"`
	Subject     string    `gorm:"column:subject"`
	Body        string    `gorm:"column:body"`
	Status      Status    `gorm:"column:status"`
}

func (EmailTemplate) TableName() string {
	return "email_templates"
}

// Setting is a per-owner key/value option.
type Setting struct {
	ID          string    `gorm:"column:id;primaryKey"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
	OwnerUserID string    `gorm:"column:owner_user_id"`
	Key         string    `gorm:"column:key"`
	Value       string    `gorm:"column:value"`
}

func (Setting) TableName() string {
	return "settings"
}

// Option keys.
const (
	OptionSendEmailStatus = "send_email_status"
	OptionAppName         = "app_name"
)
