package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sex is the sex stratum used by reference ranges and patient demographics.
// SexBoth doubles as "unknown" for a patient.
type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
	SexBoth   Sex = "Both"
)

// ParseSex matches Male, Female or Both case-insensitively.
func ParseSex(s string) (Sex, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male":
		return SexMale, true
	case "female":
		return SexFemale, true
	case "both":
		return SexBoth, true
	}
	return "", false
}

func (s Sex) IsValid() bool {
	switch s {
	case SexMale, SexFemale, SexBoth:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleClinician Role = "clinician"
	RoleService   Role = "service"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleClinician, RoleService:
		return true
	}
	return false
}

type AuditAction string

const (
	ActionAnalyze         AuditAction = "analyze"
	ActionReferenceImport AuditAction = "reference_import"
)

// AuditLog never carries patient names, values or document text; the
// patient identifier is stored only as a keyed pseudonym inside Changes.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	// Who
	Subject   string `gorm:"column:subject;type:varchar(255);index"`
	UserRole  Role   `gorm:"column:user_role;type:varchar(30)"`
	IPAddress string `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(30);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	RequestID string `gorm:"column:request_id;type:varchar(50);index"`

	Changes string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

type Claims struct {
	Subject string `json:"sub"`
	Role    Role   `json:"role"`
}
