package role

type Role int

const (
	User      Role = iota // 0 обычный пользователь (создатель заявок)
	Moderator             // 1 модератор
)

// FromModeratorFlag переводит флаг is_moderator из таблицы пользователей в роль
func FromModeratorFlag(isModerator bool) Role {
	if isModerator {
		return Moderator
	}
	return User
}

func (r Role) String() string {
	switch r {
	case Moderator:
		return "moderator"
	default:
		return "user"
	}
}
