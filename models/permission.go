package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PermissionAction is one grantable action string.
type PermissionAction string

const (
	ActionRead    PermissionAction = "read"
	ActionWrite   PermissionAction = "write"
	ActionDelete  PermissionAction = "delete"
	ActionAdmin   PermissionAction = "admin"
	ActionMigrate PermissionAction = "migrate"
)

// Role is a named bundle of actions. Three roles are seeded at bootstrap:
// viewer {read}, editor {read,write}, admin {read,write,delete,admin,migrate}.
type Role struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"type:varchar(50);not null;uniqueIndex:ix_role_name"`
	Description string    `json:"description" gorm:"type:varchar(255)"`
}

func (Role) TableName() string { return "role" }

// RolePermission is one (role, action) row.
type RolePermission struct {
	RoleID uuid.UUID        `json:"role_id" gorm:"type:uuid;primary_key"`
	Action PermissionAction `json:"action" gorm:"type:varchar(50);primary_key"`
}

func (RolePermission) TableName() string { return "role_permission" }

// ActionList is a JSONB-stored set of action strings, used for the optional
// per-permission override of the role's default action set.
type ActionList []PermissionAction

func (a ActionList) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (a *ActionList) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported actions_override type %T", value)
	}
}

// Contains reports membership of action in the list.
func (a ActionList) Contains(action PermissionAction) bool {
	for _, x := range a {
		if x == action {
			return true
		}
	}
	return false
}

// Permission binds one subject to one role on one collection. When
// ActionsOverride is non-nil it replaces the role's action set entirely.
// (collection_id, subject) is unique.
type Permission struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CollectionID    uuid.UUID  `json:"collection_id" gorm:"type:uuid;not null;uniqueIndex:ix_permission_collection_subject"`
	Subject         string     `json:"subject" gorm:"type:varchar(255);not null;uniqueIndex:ix_permission_collection_subject"`
	RoleID          uuid.UUID  `json:"role_id" gorm:"type:uuid;not null"`
	ActionsOverride ActionList `json:"actions_override,omitempty" gorm:"type:jsonb"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (Permission) TableName() string { return "permission" }

type AssignPermissionRequest struct {
	Subject         string     `json:"subject" binding:"required"`
	Role            string     `json:"role" binding:"required"`
	ActionsOverride ActionList `json:"actions_override,omitempty"`
}

type PermissionListResponse struct {
	Items []Permission `json:"items"`
}
