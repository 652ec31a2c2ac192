package model

// SystemConfig 系统配置表 — 对应 system_config（单行强类型）
// 管理员可在线调整；缺失时回退到配置文件默认值
type SystemConfig struct {
	Singleton       bool `gorm:"primaryKey;default:true" json:"-"`
	DefaultMaxPages int  `gorm:"not null;default:20"     json:"default_max_pages"`
	ProbationDays   int  `gorm:"not null;default:7"      json:"probation_days"`
	SuspensionDays  int  `gorm:"not null;default:30"     json:"suspension_days"`
	AuditModel
}

// TableName 指定表名
func (SystemConfig) TableName() string { return "system_config" }
