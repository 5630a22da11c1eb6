package dto

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

// UserInfo 用户信息（返回给前端）
type UserInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	HouseNumber string `json:"house_number"`
	Phone       string `json:"phone"`
	HouseType   string `json:"house_type,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateUserRequest 管理员创建住户
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50"`
	Password    string `json:"password" binding:"required,min=8,max=64"`
	Name        string `json:"name" binding:"required,max=100"`
	Address     string `json:"address" binding:"omitempty,max=255"`
	HouseNumber string `json:"house_number" binding:"omitempty,max=20"`
	Phone       string `json:"phone" binding:"omitempty,max=30"`
	HouseType   string `json:"house_type" binding:"omitempty,max=30"`
	IsAdmin     bool   `json:"is_admin"`
}
