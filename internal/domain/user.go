package domain

type UserRole struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsAdmin     bool   `json:"is_admin"`
}

type User struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	RoleID       int64  `json:"role_id"`
	PasswordHash string `json:"-"`
}

type UserWithRole struct {
	User
	Role UserRole `json:"role"`
}

type RoleCount struct {
	RoleID int64 `json:"role_id"`
	Count  int64 `json:"count"`
}

// UserField is the allow-list of columns users may be filtered or searched by.
type UserField string

const (
	UserFieldID        UserField = "userid"
	UserFieldFirstName UserField = "firstname"
	UserFieldLastName  UserField = "lastname"
	UserFieldRoleID    UserField = "userroleid"
)

func ParseUserField(s string) (UserField, bool) {
	switch f := UserField(s); f {
	case UserFieldID, UserFieldFirstName, UserFieldLastName, UserFieldRoleID:
		return f, true
	}
	return "", false
}

type SearchOperator string

const (
	OpEqual    SearchOperator = "="
	OpLess     SearchOperator = "<"
	OpGreater  SearchOperator = ">"
	OpNotEqual SearchOperator = "<>"
	OpRegex    SearchOperator = "~"
	OpLike     SearchOperator = "LIKE"
)

func ParseSearchOperator(s string) (SearchOperator, bool) {
	switch op := SearchOperator(s); op {
	case OpEqual, OpLess, OpGreater, OpNotEqual, OpRegex:
		return op, true
	}
	if s == "like" || s == "LIKE" {
		return OpLike, true
	}
	return "", false
}

// UserUpdate carries the optional fields of a partial update; nil means
// "leave as is".
type UserUpdate struct {
	FirstName    *string
	LastName     *string
	RoleID       *int64
	PasswordHash *string
}

func (u UserUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.RoleID == nil && u.PasswordHash == nil
}
