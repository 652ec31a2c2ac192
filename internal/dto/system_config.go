package dto

// ── 系统配置模块 DTO ──

// UpdateSystemConfigRequest 更新系统配置请求
type UpdateSystemConfigRequest struct {
	DefaultMaxPages *int `json:"default_max_pages" binding:"omitempty,min=1,max=1000"`
	ProbationDays   *int `json:"probation_days"    binding:"omitempty,min=1,max=365"`
	SuspensionDays  *int `json:"suspension_days"   binding:"omitempty,min=1,max=365"`
}

// SystemConfigResponse 系统配置响应
type SystemConfigResponse struct {
	DefaultMaxPages int    `json:"default_max_pages"`
	ProbationDays   int    `json:"probation_days"`
	SuspensionDays  int    `json:"suspension_days"`
	UpdatedAt       string `json:"updated_at"`
}
