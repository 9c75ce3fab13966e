package authz

const (
	RoleSeller   = 10
	RoleOperator = 20
	RoleAdmin    = 50
)

func IsElevated(roleID int) bool {
	return roleID == RoleOperator || roleID == RoleAdmin
}
