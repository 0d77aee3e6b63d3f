package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
// Тексты уходят клиенту как есть, поэтому они на польском.
var (
	// Ресурс не найден
	ErrNotFound          = errors.New("nie znaleziono zasobu")
	ErrUserNotFound      = errors.New("nie znaleziono użytkownika")
	ErrEventNotFound     = errors.New("nie znaleziono wydarzenia")
	ErrSquadNotFound     = errors.New("kadra nie znaleziona")
	ErrStatisticNotFound = errors.New("statystyki nie znalezione")

	// Ошибки валидации и бизнес-правил (400)
	ErrValidationFailed    = errors.New("błędne dane")
	ErrPasswordTooShort    = errors.New("hasło musi mieć min 8 znaków")
	ErrInvalidResetToken   = errors.New("token jest nieprawidłowy lub wygasł")
	ErrEventNotTraining    = errors.New("udział można oznaczać tylko dla TRENINGU")
	ErrEventInvalidDates   = errors.New("data końca nie może być wcześniejsza niż data rozpoczęcia")
	ErrSquadLineupTooLarge = errors.New("pierwsza jedenastka - maksymalnie 11 zawodników")
	ErrSquadBenchTooLarge  = errors.New("ławka rezerwowych - maksymalnie 7 zawodników")
	ErrSquadDuplicate      = errors.New("zawodnik może wystąpić w kadrze tylko raz")
	ErrSquadInvalidPlayer  = errors.New("kadra może zawierać tylko istniejących zawodników")
	ErrTargetNotPlayer     = errors.New("statystyki można zapisywać tylko dla zawodników")
	ErrInvalidReportFormat = errors.New("nieprawidłowy format. Użyj: json lub csv")
	ErrNoRecipients        = errors.New("brak prawidłowych odbiorców")
	ErrUnsupportedFile     = errors.New("nieobsługiwany typ pliku")

	// Конфликты (409)
	ErrUserEmailConflict = errors.New("użytkownik już istnieje")
	ErrStatisticConflict = errors.New("statystyki dla tego zawodnika i sezonu już istnieją")

	// Аутентификация и авторизация
	ErrInvalidCredentials   = errors.New("nieprawidłowe dane logowania")
	ErrWrongPassword        = errors.New("stare hasło jest nieprawidłowe")
	ErrAuthenticationFailed = errors.New("brak autoryzacji")
	ErrForbiddenOperation   = errors.New("dostęp zabroniony")

	// Инфраструктура
	ErrStorageDisabled = errors.New("przechowywanie plików nie jest skonfigurowane")
)
