// Package access содержит правила доступа клуба: кто что видит и что может менять.
// Все функции чистые и не обращаются к хранилищу; неизвестная роль всегда получает отказ.
package access

import "github.com/Dosada05/club-system/models"

func isPresident(p models.Principal) bool { return p.Role == models.RolePresident }

func sameCategory(p models.Principal, c models.Category) bool { return p.Category == c }

// UserListScope возвращает ограничения видимости для списка пользователей.
// nil при ok == true означает "видны все".
func UserListScope(p models.Principal) (scope []models.RoleScope, ok bool) {
	cat := p.Category
	switch p.Role {
	case models.RolePresident:
		return nil, true
	case models.RoleCoach:
		return []models.RoleScope{
			{Role: models.RolePlayer, Category: &cat},
			{Role: models.RoleCoach},
			{Role: models.RolePresident},
		}, true
	case models.RolePlayer:
		return []models.RoleScope{
			{Role: models.RoleCoach, Category: &cat},
			{Role: models.RolePresident},
		}, true
	default:
		return nil, false
	}
}

// CanViewUser - просмотр профиля пользователя.
func CanViewUser(p models.Principal, target *models.User) bool {
	switch p.Role {
	case models.RolePresident:
		return true
	case models.RoleCoach:
		if target.ID == p.ID || target.Role != models.RolePlayer {
			return true
		}
		return sameCategory(p, target.Category)
	case models.RolePlayer:
		return target.ID == p.ID
	default:
		return false
	}
}

// CanSeeContract - даты контракта видят президент и сам владелец профиля.
func CanSeeContract(p models.Principal, target *models.User) bool {
	return isPresident(p) || p.ID == target.ID
}

// Redact убирает из профиля поля, которые p видеть не должен.
func Redact(p models.Principal, target *models.User) {
	if !CanSeeContract(p, target) {
		target.ContractStart = nil
		target.ContractEnd = nil
	}
}

// CanManageUsers - создание, изменение, удаление пользователей, смена роли/категории/позиции.
func CanManageUsers(p models.Principal) bool {
	return isPresident(p)
}

func CanChangeAvatar(p models.Principal, targetID int) bool {
	switch p.Role {
	case models.RolePresident:
		return true
	case models.RoleCoach, models.RolePlayer:
		return p.ID == targetID
	default:
		return false
	}
}

// EventCategories возвращает категории событий, видимые p. nil при ok == true - все события.
func EventCategories(p models.Principal) (cats []models.Category, ok bool) {
	switch p.Role {
	case models.RolePresident:
		return nil, true
	case models.RoleCoach, models.RolePlayer:
		if p.Category == models.CategoryNone {
			return []models.Category{models.CategoryNone}, true
		}
		return []models.Category{p.Category, models.CategoryNone}, true
	default:
		return nil, false
	}
}

func CanViewEvent(p models.Principal, e *models.Event) bool {
	switch p.Role {
	case models.RolePresident:
		return true
	case models.RoleCoach, models.RolePlayer:
		return e.IsClubWide() || sameCategory(p, e.Category)
	default:
		return false
	}
}

func CanCreateEvent(p models.Principal) bool {
	return p.Role.IsStaff()
}

// CanModifyEvent - редактирование и удаление: автор события или президент.
func CanModifyEvent(p models.Principal, e *models.Event) bool {
	switch p.Role {
	case models.RolePresident:
		return true
	case models.RoleCoach:
		return e.CreatedBy != nil && *e.CreatedBy == p.ID
	default:
		return false
	}
}

func CanViewParticipants(p models.Principal, e *models.Event) bool {
	return p.Role.IsStaff() && CanViewEvent(p, e)
}

// CanRespond - отметить свое участие может только игрок, которому событие видно.
func CanRespond(p models.Principal, e *models.Event) bool {
	return p.Role == models.RolePlayer && CanViewEvent(p, e)
}

// SquadCategory возвращает категорию, которой ограничен список составов (nil - без ограничений).
func SquadCategory(p models.Principal) (cat *models.Category, ok bool) {
	switch p.Role {
	case models.RolePresident:
		return nil, true
	case models.RoleCoach, models.RolePlayer:
		c := p.Category
		return &c, true
	default:
		return nil, false
	}
}

func CanViewSquad(p models.Principal, s *models.Squad) bool {
	switch p.Role {
	case models.RolePresident:
		return true
	case models.RoleCoach, models.RolePlayer:
		return sameCategory(p, s.Category)
	default:
		return false
	}
}

func CanCreateSquad(p models.Principal) bool {
	return p.Role.IsStaff()
}

func CanModifySquad(p models.Principal, s *models.Squad) bool {
	switch p.Role {
	case models.RolePresident:
		return true
	case models.RoleCoach:
		return s.CreatedBy != nil && *s.CreatedBy == p.ID
	default:
		return false
	}
}

// CanSelectPlayer - может ли p включить игрока в состав.
func CanSelectPlayer(p models.Principal, player *models.User) bool {
	if player.Role != models.RolePlayer {
		return false
	}
	switch p.Role {
	case models.RolePresident:
		return true
	case models.RoleCoach:
		return sameCategory(p, player.Category)
	default:
		return false
	}
}

// CanWriteStatistics - запись статистики игрока: президент или тренер его категории.
func CanWriteStatistics(p models.Principal, player *models.User) bool {
	switch p.Role {
	case models.RolePresident:
		return true
	case models.RoleCoach:
		return sameCategory(p, player.Category)
	default:
		return false
	}
}

func CanViewStatistics(p models.Principal, player *models.User) bool {
	switch p.Role {
	case models.RolePresident:
		return true
	case models.RoleCoach:
		return player.ID == p.ID || sameCategory(p, player.Category)
	case models.RolePlayer:
		return player.ID == p.ID
	default:
		return false
	}
}

// StatisticsCategory - ограничение по категории для списка статистики (только персонал).
func StatisticsCategory(p models.Principal) (cat *models.Category, ok bool) {
	switch p.Role {
	case models.RolePresident:
		return nil, true
	case models.RoleCoach:
		c := p.Category
		return &c, true
	default:
		return nil, false
	}
}

func CanGenerateReports(p models.Principal) bool {
	return isPresident(p)
}

// CanMessage - правила отправки писем через приложение.
// Тренер пишет игрокам своей категории, тренерам и президенту;
// игрок - только тренеру своей категории и президенту.
func CanMessage(p models.Principal, to *models.User) bool {
	switch p.Role {
	case models.RolePresident:
		return true
	case models.RoleCoach:
		switch to.Role {
		case models.RolePresident, models.RoleCoach:
			return true
		case models.RolePlayer:
			return sameCategory(p, to.Category)
		}
		return false
	case models.RolePlayer:
		switch to.Role {
		case models.RolePresident:
			return true
		case models.RoleCoach:
			return sameCategory(p, to.Category)
		}
		return false
	default:
		return false
	}
}

// CanMessageCategory - рассылка всем пользователям категории.
func CanMessageCategory(p models.Principal, c models.Category) bool {
	switch p.Role {
	case models.RolePresident:
		return true
	case models.RoleCoach:
		return sameCategory(p, c)
	default:
		return false
	}
}
