package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:100" json:"name"`
	Address      string    `gorm:"size:255" json:"address"`
	HouseNumber  string    `gorm:"size:20" json:"house_number"`
	Phone        string    `gorm:"size:30" json:"phone"`
	HouseType    *string   `gorm:"size:30" json:"house_type,omitempty"` // 住户自填，可能为空或不规范
	IsAdmin      bool      `gorm:"default:false;index" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate 未指定 ID 时生成 UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// HouseTypeLabel 返回房屋类型原始值，未填写时为空串
func (u *User) HouseTypeLabel() string {
	if u.HouseType == nil {
		return ""
	}
	return *u.HouseType
}
