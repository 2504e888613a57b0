package constants

// Actor roles carried in the JWT role claim
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RolePilgrim  = "pilgrim"
	RoleDevice   = "device"
)
