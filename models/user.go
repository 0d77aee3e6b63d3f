package models

import "time"

// UserRole - закрытый набор ролей клуба, значения совпадают с CHECK в таблице users.
type UserRole string

const (
	RolePresident UserRole = "PREZES"
	RoleCoach     UserRole = "TRENER"
	RolePlayer    UserRole = "ZAWODNIK"
)

func (r UserRole) Valid() bool {
	switch r {
	case RolePresident, RoleCoach, RolePlayer:
		return true
	}
	return false
}

// IsStaff - PREZES или TRENER.
func (r UserRole) IsStaff() bool {
	return r == RolePresident || r == RoleCoach
}

// Category - возрастная группа. CategoryNone ("BRAK") у событий означает "для всего клуба".
type Category string

const (
	CategoryU9     Category = "U9"
	CategoryU11    Category = "U11"
	CategoryU13    Category = "U13"
	CategoryU15    Category = "U15"
	CategoryU17    Category = "U17"
	CategoryU19    Category = "U19"
	CategorySenior Category = "SENIOR"
	CategoryNone   Category = "BRAK"
)

var AllCategories = []Category{
	CategoryU9, CategoryU11, CategoryU13, CategoryU15, CategoryU17, CategoryU19, CategorySenior, CategoryNone,
}

func (c Category) Valid() bool {
	for _, v := range AllCategories {
		if c == v {
			return true
		}
	}
	return false
}

type Position string

const (
	PositionGoalkeeper Position = "BRAMKARZ"
	PositionDefender   Position = "OBRONCA"
	PositionMidfielder Position = "POMOCNIK"
	PositionForward    Position = "NAPASTNIK"
)

var AllPositions = []Position{PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward}

func (p Position) Valid() bool {
	for _, v := range AllPositions {
		if p == v {
			return true
		}
	}
	return false
}

type User struct {
	ID            int        `json:"_id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          UserRole   `json:"rola"`
	Category      Category   `json:"kategoria"`
	Position      *Position  `json:"pozycja"`
	FirstName     string     `json:"imie"`
	LastName      string     `json:"nazwisko"`
	Phone         *string    `json:"telefon,omitempty"`
	Nationality   *string    `json:"narodowosc,omitempty"`
	ContractStart *time.Time `json:"contractStart,omitempty"`
	ContractEnd   *time.Time `json:"contractEnd,omitempty"`
	AvatarKey     *string    `json:"-"`
	AvatarURL     *string    `json:"avatarUrl,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
}

// FullName возвращает "Imię Nazwisko" или email, если имя не заполнено.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Email
}

// Summary - короткое представление для вложенных ответов (составы, участники, статистика).
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		Category:  u.Category,
		Position:  u.Position,
	}
}

type UserSummary struct {
	ID        int       `json:"_id"`
	FirstName string    `json:"imie"`
	LastName  string    `json:"nazwisko"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"rola"`
	Category  Category  `json:"kategoria"`
	Position  *Position `json:"pozycja,omitempty"`
}

// RoleScope ограничивает выборку пользователей одной ролью и, опционально, категорией.
type RoleScope struct {
	Role     UserRole
	Category *Category
}

// UserFilter - фильтры и пагинация для списка пользователей.
// Scope == nil означает отсутствие ограничений видимости; элементы Scope объединяются через OR.
type UserFilter struct {
	Scope    []RoleScope
	Role     *UserRole
	Category *Category
	Position *Position
	Limit    int
	Offset   int
}

// Principal - аутентифицированный пользователь запроса.
type Principal struct {
	ID       int
	Role     UserRole
	Category Category
	Email    string
}
