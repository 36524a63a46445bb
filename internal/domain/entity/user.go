package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UserRole is the closed set of roles stored in the user_role enum type.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleUser    UserRole = "user"
	RoleViewer  UserRole = "viewer"
)

// UserRoles lists every role in the order the enum type declares them.
func UserRoles() []UserRole {
	return []UserRole{RoleAdmin, RoleManager, RoleUser, RoleViewer}
}

// ParseUserRole accepts a role name in any case.
func ParseUserRole(s string) (UserRole, error) {
	r := UserRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown user role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of UserRoles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser, RoleViewer:
		return true
	}
	return false
}

func (r UserRole) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid user role %q", string(r))
	}
	return string(r), nil
}

func (r *UserRole) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into UserRole", src)
	}
	parsed, err := ParseUserRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// JSONMap is a JSON object column (jsonb on Postgres, text elsewhere).
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
	out := JSONMap{}
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// User is a row of the users table.
type User struct {
	ID                   int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Email                string     `gorm:"column:email" json:"email"`
	Username             string     `gorm:"column:username" json:"username"`
	FullName             string     `gorm:"column:full_name" json:"full_name,omitempty"`
	HashedPassword       string     `gorm:"column:hashed_password" json:"-"`
	IsActive             bool       `gorm:"column:is_active" json:"is_active"`
	IsVerified           bool       `gorm:"column:is_verified" json:"is_verified"`
	Role                 UserRole   `gorm:"column:role" json:"role"`
	CompanyName          string     `gorm:"column:company_name" json:"company_name,omitempty"`
	CompanySector        string     `gorm:"column:company_sector" json:"company_sector,omitempty"`
	CompanySize          string     `gorm:"column:company_size" json:"company_size,omitempty"`
	Preferences          JSONMap    `gorm:"column:preferences" json:"preferences"`
	NotificationSettings JSONMap    `gorm:"column:notification_settings" json:"notification_settings"`
	LastLogin            *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`
	FailedLoginAttempts  int        `gorm:"column:failed_login_attempts" json:"-"`
	APIKey               *string    `gorm:"column:api_key" json:"-"`
	CreatedAt            time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for User.
func (User) TableName() string {
	return "users"
}
