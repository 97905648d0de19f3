package models

import (
	"time"

	"github.com/turtacn/authgate/pkg/constants"
)

// PrincipalID identifies an authenticated user. It is the value of the
// user_id claim carried by every token.
// PrincipalID 标识已认证的用户，即每个令牌中 user_id 声明的值。
type PrincipalID int64

// User is the principal record consulted by the enforcer for role checks.
// User 是授权执行器进行角色检查时查询的主体记录。
type User struct {
	ID        PrincipalID    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"type:varchar(255);not null" json:"email"`
	Role      constants.Role `gorm:"type:varchar(32);not null;default:'user'" json:"role"`
	Deleted   bool           `gorm:"not null;default:false;index" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	Credential *Credential `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName pins the table name.
func (User) TableName() string { return "users" }

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...constants.Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Credential holds both stored digests of a user's password. Either digest
// authenticates; the MD5 column exists for records created before SHA-256.
// Credential 保存用户密码的两种摘要，任一匹配即可认证。
type Credential struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID       PrincipalID `gorm:"uniqueIndex;not null" json:"user_id"`
	MD5Digest    string      `gorm:"column:md5_password;type:char(32)" json:"-"`
	SHA256Digest string      `gorm:"column:sha256_password;type:char(64)" json:"-"`
}

// TableName pins the table name.
func (Credential) TableName() string { return "passwords" }

// Product is a catalogue entry owned by a principal.
type Product struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string      `gorm:"type:varchar(255);not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Price       float64     `gorm:"not null" json:"price"`
	State       string      `gorm:"type:varchar(64)" json:"state"`
	OwnerID     PrincipalID `gorm:"index;not null" json:"owner_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName pins the table name.
func (Product) TableName() string { return "products" }
