package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Operation names one RPC exposed by the service.
type Operation string

const (
	OpCreateReport    Operation = "createReport"
	OpListReports     Operation = "listReports"
	OpListMyReports   Operation = "listMyReports"
	OpCountAllReports Operation = "countAllReports"
	OpCountMyReports  Operation = "countMyReports"
	OpGetReport       Operation = "getReport"
	OpGetHistory      Operation = "getHistory"
	OpUpdateReport    Operation = "updateReport"
	OpPutOnHold       Operation = "putOnHold"
	OpResume          Operation = "resume"
	OpComplete        Operation = "complete"
	OpCancelReport    Operation = "cancelReport"
	OpGetUserRole     Operation = "getUserRole"
	OpGetStatistics   Operation = "getStatistics"
)

// allOperations is the exhaustive list the table is validated against.
var allOperations = []Operation{
	OpCreateReport, OpListReports, OpListMyReports,
	OpCountAllReports, OpCountMyReports,
	OpGetReport, OpGetHistory, OpUpdateReport,
	OpPutOnHold, OpResume, OpComplete, OpCancelReport,
	OpGetUserRole, OpGetStatistics,
}

// Permission is one static allow-list entry.
type Permission struct {
	Roles        []Role
	RequiresAuth bool
}

// Allows reports whether the role is in the allow-list.
func (p Permission) Allows(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

var anyRole = []Role{RoleReporter, RoleRescuer, RoleAdmin}
var operatorRoles = []Role{RoleRescuer, RoleAdmin}

// permissionTable is the static operation -> allowed-roles map. It is
// validated exhaustively at startup so an unconfigured operation fails
// fast instead of silently passing.
var permissionTable = map[Operation]Permission{
	OpCreateReport:    {Roles: anyRole, RequiresAuth: true},
	OpListReports:     {Roles: operatorRoles, RequiresAuth: true},
	OpListMyReports:   {Roles: anyRole, RequiresAuth: true},
	OpCountAllReports: {Roles: operatorRoles, RequiresAuth: true},
	OpCountMyReports:  {Roles: anyRole, RequiresAuth: true},
	OpGetReport:       {Roles: anyRole, RequiresAuth: true},
	OpGetHistory:      {Roles: anyRole, RequiresAuth: true},
	OpUpdateReport:    {Roles: anyRole, RequiresAuth: true},
	OpPutOnHold:       {Roles: operatorRoles, RequiresAuth: true},
	OpResume:          {Roles: operatorRoles, RequiresAuth: true},
	OpComplete:        {Roles: operatorRoles, RequiresAuth: true},
	OpCancelReport:    {Roles: anyRole, RequiresAuth: true},
	OpGetUserRole:     {Roles: anyRole, RequiresAuth: true},
	OpGetStatistics:   {Roles: operatorRoles, RequiresAuth: true},
}

// ValidatePermissionTable checks every known operation has a complete
// entry. Called once at server start.
func ValidatePermissionTable() error {
	for _, op := range allOperations {
		perm, ok := permissionTable[op]
		if !ok {
			return fmt.Errorf("operation %q has no permission entry", op)
		}
		if len(perm.Roles) == 0 {
			return fmt.Errorf("operation %q allows no roles", op)
		}
		for _, role := range perm.Roles {
			if !role.Valid() {
				return fmt.Errorf("operation %q allows unknown role %q", op, role)
			}
		}
	}
	if len(permissionTable) != len(allOperations) {
		return fmt.Errorf("permission table has %d entries for %d operations", len(permissionTable), len(allOperations))
	}
	return nil
}

// PermissionDeniedError names the roles the operation requires.
type PermissionDeniedError struct {
	Operation Operation
	Role      Role
	Required  []Role
}

func (e *PermissionDeniedError) Error() string {
	required := make([]string, len(e.Required))
	for i, r := range e.Required {
		required[i] = string(r)
	}
	return fmt.Sprintf("role %q may not call %s (requires one of: %s)",
		e.Role, e.Operation, strings.Join(required, ", "))
}

// Authorize checks the resolved role against the operation's
// allow-list. Stateless; re-executed on every call.
func Authorize(op Operation, role Role) error {
	perm, ok := permissionTable[op]
	if !ok {
		return fmt.Errorf("operation %q has no permission entry", op)
	}
	if !perm.Allows(role) {
		return &PermissionDeniedError{Operation: op, Role: role, Required: perm.Roles}
	}
	return nil
}

// RequireOperation resolves the caller's role and enforces the
// operation allow-list. Runs after AuthMiddleware; the resolved role
// is stored in the context for handlers.
func RequireOperation(op Operation, resolver RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetString(ContextKeyUserID)
		if subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"reason":  "UNAUTHENTICATED",
				"message": ErrUnauthenticated.Error(),
			})
			c.Abort()
			return
		}

		email := c.GetString(ContextKeyEmail)
		claimed := Role(c.GetString(ContextKeyRoleClaim))
		role, err := resolver.Resolve(c.Request.Context(), subject, email, claimed)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    500,
				"reason":  "INTERNAL",
				"message": "failed to resolve role",
				"detail":  err.Error(),
			})
			c.Abort()
			return
		}

		if err := Authorize(op, role); err != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"reason":  "PERMISSION_DENIED",
				"message": err.Error(),
			})
			c.Abort()
			return
		}

		c.Set(ContextKeyRole, string(role))
		c.Next()
	}
}
