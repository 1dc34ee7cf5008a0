package rbac

type Role string
type Action string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	// ActionRead covers the authenticated self-service endpoints.
	ActionRead Action = "read"
	// ActionManage covers content edits, imports, publishing and the
	// contact/subscriber listings.
	ActionManage Action = "manage"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleUser:
		return action == ActionRead
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleUser, RoleAdmin:
		return Role(role)
	default:
		return RoleUser
	}
}
