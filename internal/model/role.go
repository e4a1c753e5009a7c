package model

// Permission is a grantable admin capability code.
type Permission string

const (
	PermissionCompaniesRead    Permission = "companies:read"
	PermissionCompaniesWrite   Permission = "companies:write"
	PermissionAssessmentsRead  Permission = "assessments:read"
	PermissionAssessmentsWrite Permission = "assessments:write"
	PermissionSectionsRead     Permission = "sections:read"
	PermissionSectionsWrite    Permission = "sections:write"
	PermissionQuestionsRead    Permission = "questions:read"
	PermissionQuestionsWrite   Permission = "questions:write"
	PermissionUsersRead        Permission = "users:read"
	PermissionUsersWrite       Permission = "users:write"
	PermissionAttemptsRead     Permission = "attempts:read"
)

// AllPermissions lists every known permission code, used by role management.
var AllPermissions = []Permission{
	PermissionCompaniesRead,
	PermissionCompaniesWrite,
	PermissionAssessmentsRead,
	PermissionAssessmentsWrite,
	PermissionSectionsRead,
	PermissionSectionsWrite,
	PermissionQuestionsRead,
	PermissionQuestionsWrite,
	PermissionUsersRead,
	PermissionUsersWrite,
	PermissionAttemptsRead,
}

// Role groups permissions for administrator accounts.
type Role struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}
