package authorization

// Level is a required access level inside an organization.
type Level int

const (
	LevelMember Level = iota + 1
	LevelManagerOrAdmin
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelMember:
		return "member"
	case LevelManagerOrAdmin:
		return "manager_or_admin"
	case LevelAdmin:
		return "admin"
	default:
		return "unknown"
	}
}
