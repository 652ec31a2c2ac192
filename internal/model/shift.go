package model

import "time"

// Shift 班次表 — 对应 shifts（任一时刻至多一条 is_active=true）
type Shift struct {
	ShiftID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	StartTime        time.Time `gorm:"not null"                                       json:"start_time"`
	EndTime          time.Time `gorm:"not null"                                       json:"end_time"`
	MaxPagesPerShift int       `gorm:"not null;default:20"                            json:"max_pages_per_shift"`
	IsActive         bool      `gorm:"not null;default:false"                         json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// IsExpired now 已超过班次结束时间
func (s *Shift) IsExpired(now time.Time) bool {
	return now.After(s.EndTime)
}

// ShiftWindow 计算包含 now 的班次窗口
// start 为 now 之前（含）最近一次 boundaryHour 整点，end = start + 1 天 − 1 秒
func ShiftWindow(now time.Time, boundaryHour int, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), boundaryHour, 0, 0, 0, loc)
	if start.After(local) {
		start = start.AddDate(0, 0, -1)
	}
	end = start.AddDate(0, 0, 1).Add(-time.Second)
	return start, end
}
