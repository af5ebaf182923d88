package account

import "time"

type Role string

var (
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

func (r Role) String() string {
	switch r {
	case RoleAdmin, RoleOwner:
		return string(r)
	default:
		return ""
	}
}

type User struct {
	ID        string    `gorm:"column:id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	Role      Role      `gorm:"column:role"`
	Name      string    `gorm:"column:name"`
	Email     string    `gorm:"column:email"`
}

func (User) TableName() string {
	return "users"
}
