package model

import "time"

// 用户角色
const (
	RoleAdmin  = "admin"
	RoleWriter = "writer"
)

// User 用户表 — 对应 users
type User struct {
	UserID             string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name               string     `gorm:"type:varchar(100);not null"                     json:"name"`
	Email              string     `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash       string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               string     `gorm:"type:varchar(20);not null;default:'writer'"     json:"role"` // admin | writer
	IsApproved         bool       `gorm:"not null;default:false"                         json:"is_approved"`
	IsActive           bool       `gorm:"not null;default:true"                          json:"is_active"`
	IsPlaceholder      bool       `gorm:"not null;default:false"                         json:"is_placeholder"` // 邀请占位账号
	TokenVersion       int        `gorm:"not null;default:0"                             json:"-"`
	ResetCode          *string    `gorm:"type:varchar(10)"                               json:"-"`
	ResetCodeExpiresAt *time.Time `json:"-"`
	InviteToken        *string    `gorm:"type:varchar(64);index"                         json:"-"`
	InviteExpiresAt    *time.Time `json:"-"`
	BaseModel

	// 关联
	Writer *Writer `gorm:"foreignKey:UserID;references:UserID" json:"writer,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
