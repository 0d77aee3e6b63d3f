package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/repositories"
	"github.com/Dosada05/club-system/storage"
)

// In-memory реализации репозиториев для тестов сервисов.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{nextID: 100, users: make(map[int]*models.User)}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repositories.ErrUserEmailConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) GetByResetTokenHash(_ context.Context, tokenHash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func matchesScope(u *models.User, scope []models.RoleScope) bool {
	if scope == nil {
		return true
	}
	for _, s := range scope {
		if u.Role == s.Role && (s.Category == nil || u.Category == *s.Category) {
			return true
		}
	}
	return false
}

func (r *fakeUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]models.User, 0)
	for _, u := range r.users {
		if !matchesScope(u, filter.Scope) {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Category != nil && u.Category != *filter.Category {
			continue
		}
		if filter.Position != nil && (u.Position == nil || *u.Position != *filter.Position) {
			continue
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	cp := *user
	cp.PasswordHash = existing.PasswordHash
	cp.ResetTokenHash = existing.ResetTokenHash
	cp.ResetTokenExpiresAt = existing.ResetTokenExpiresAt
	cp.AvatarKey = existing.AvatarKey
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
	return nil
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, id int, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) UpdateAvatarKey(_ context.Context, id int, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.AvatarKey = key
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type participantKey struct{ eventID, playerID int }

type fakeEventRepo struct {
	mu           sync.Mutex
	nextID       int
	events       map[int]*models.Event
	participants map[participantKey]models.AttendanceStatus
	users        *fakeUserRepo
	marked       []int
}

func newFakeEventRepo(users *fakeUserRepo, events ...*models.Event) *fakeEventRepo {
	r := &fakeEventRepo{
		nextID:       500,
		events:       make(map[int]*models.Event),
		participants: make(map[participantKey]models.AttendanceStatus),
		users:        users,
	}
	for _, e := range events {
		cp := *e
		r.events[e.ID] = &cp
	}
	return r
}

func (r *fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	event.ID = r.nextID
	cp := *event
	r.events[event.ID] = &cp
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id int) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	cp := *e
	cp.Participants = nil
	return &cp, nil
}

func (r *fakeEventRepo) List(_ context.Context, filter models.EventFilter) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Event, 0)
	for _, e := range r.events {
		if filter.Categories != nil {
			found := false
			for _, c := range filter.Categories {
				if e.Category == c {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		if filter.Type != nil && e.Type != *filter.Type {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r *fakeEventRepo) Update(_ context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return repositories.ErrEventNotFound
	}
	cp := *event
	r.events[event.ID] = &cp
	if event.Type != models.EventTraining {
		for k := range r.participants {
			if k.eventID == event.ID {
				delete(r.participants, k)
			}
		}
	}
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return repositories.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) UpsertParticipant(_ context.Context, eventID, playerID int, status models.AttendanceStatus) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[eventID]; !ok {
		return nil, repositories.ErrEventNotFound
	}
	r.participants[participantKey{eventID, playerID}] = status
	return &models.Participant{EventID: eventID, PlayerID: playerID, Status: status, UpdatedAt: time.Now()}, nil
}

func (r *fakeEventRepo) participant(eventID, playerID int, status models.AttendanceStatus) models.Participant {
	p := models.Participant{EventID: eventID, PlayerID: playerID, Status: status}
	if u, err := r.users.GetByID(context.Background(), playerID); err == nil {
		p.Player = u.Summary()
	}
	return p
}

func (r *fakeEventRepo) GetParticipant(_ context.Context, eventID, playerID int) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status, ok := r.participants[participantKey{eventID, playerID}]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	p := r.participant(eventID, playerID, status)
	return &p, nil
}

func (r *fakeEventRepo) ListParticipants(_ context.Context, eventID int) ([]models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Participant, 0)
	for k, status := range r.participants {
		if k.eventID == eventID {
			out = append(out, r.participant(k.eventID, k.playerID, status))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (r *fakeEventRepo) ListDueForReminder(_ context.Context, from, to time.Time) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Event, 0)
	for _, e := range r.events {
		if !e.ReminderSent && !e.StartsAt.Before(from) && !e.StartsAt.After(to) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeEventRepo) MarkReminderSent(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	e.ReminderSent = true
	r.marked = append(r.marked, id)
	return nil
}

type fakeSquadRepo struct {
	mu     sync.Mutex
	nextID int
	squads map[int]*models.Squad
}

func newFakeSquadRepo() *fakeSquadRepo {
	return &fakeSquadRepo{nextID: 700, squads: make(map[int]*models.Squad)}
}

func (r *fakeSquadRepo) Create(_ context.Context, squad *models.Squad) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	squad.ID = r.nextID
	cp := *squad
	r.squads[squad.ID] = &cp
	return nil
}

func (r *fakeSquadRepo) GetByID(_ context.Context, id int) (*models.Squad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.squads[id]
	if !ok {
		return nil, repositories.ErrSquadNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSquadRepo) List(_ context.Context, category *models.Category) ([]models.Squad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Squad, 0)
	for _, s := range r.squads {
		if category == nil || s.Category == *category {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeSquadRepo) Update(_ context.Context, squad *models.Squad) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.squads[squad.ID]; !ok {
		return repositories.ErrSquadNotFound
	}
	cp := *squad
	r.squads[squad.ID] = &cp
	return nil
}

func (r *fakeSquadRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.squads[id]; !ok {
		return repositories.ErrSquadNotFound
	}
	delete(r.squads, id)
	return nil
}

type fakeStatRepo struct {
	mu     sync.Mutex
	nextID int
	stats  map[int]*models.Statistic
}

func newFakeStatRepo() *fakeStatRepo {
	return &fakeStatRepo{nextID: 900, stats: make(map[int]*models.Statistic)}
}

func seasonKey(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *fakeStatRepo) findLocked(playerID int, season *string) *models.Statistic {
	for _, s := range r.stats {
		if s.PlayerID == playerID && seasonKey(s.Season) == seasonKey(season) {
			return s
		}
	}
	return nil
}

func (r *fakeStatRepo) Upsert(_ context.Context, playerID int, patch models.StatisticPatch) (*models.Statistic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	season := models.NormalizedSeason(patch.Season)
	stat := r.findLocked(playerID, season)
	if stat == nil {
		r.nextID++
		stat = &models.Statistic{ID: r.nextID, PlayerID: playerID, Season: season, CreatedAt: time.Now()}
		r.stats[stat.ID] = stat
	}
	patch.Apply(stat)
	stat.UpdatedAt = time.Now()
	cp := *stat
	return &cp, nil
}

func (r *fakeStatRepo) GetByID(_ context.Context, id int) (*models.Statistic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stats[id]
	if !ok {
		return nil, repositories.ErrStatisticNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStatRepo) GetForPlayer(_ context.Context, playerID int, season *string) (*models.Statistic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.findLocked(playerID, models.NormalizedSeason(season)); s != nil {
		cp := *s
		return &cp, nil
	}
	if season == nil {
		for _, s := range r.stats {
			if s.PlayerID == playerID {
				cp := *s
				return &cp, nil
			}
		}
	}
	return nil, repositories.ErrStatisticNotFound
}

func (r *fakeStatRepo) ListForPlayers(ctx context.Context, playerIDs []int, season *string) (map[int]*models.Statistic, error) {
	out := make(map[int]*models.Statistic)
	for _, id := range playerIDs {
		if s, err := r.GetForPlayer(ctx, id, season); err == nil {
			out[id] = s
		}
	}
	return out, nil
}

func (r *fakeStatRepo) List(_ context.Context, filter models.StatisticFilter) ([]models.Statistic, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Statistic, 0)
	for _, s := range r.stats {
		if filter.Season != nil && seasonKey(s.Season) != *filter.Season {
			continue
		}
		if filter.PlayerID != nil && s.PlayerID != *filter.PlayerID {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (r *fakeStatRepo) Update(_ context.Context, stat *models.Statistic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stats[stat.ID]; !ok {
		return repositories.ErrStatisticNotFound
	}
	for _, s := range r.stats {
		if s.ID != stat.ID && s.PlayerID == stat.PlayerID && seasonKey(s.Season) == seasonKey(stat.Season) {
			return repositories.ErrStatisticConflict
		}
	}
	cp := *stat
	r.stats[stat.ID] = &cp
	return nil
}

func (r *fakeStatRepo) Seasons(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]struct{})
	for _, s := range r.stats {
		if s.Season != nil {
			set[*s.Season] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

type sentMail struct {
	To      []string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendEmail(to []string, subject string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: append([]string(nil), to...), Subject: subject, Body: body})
	return nil
}

type broadcastCall struct {
	Room    string
	Message interface{}
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{Room: roomID, Message: message})
}

type fakeUploader struct {
	uploaded map[string][]byte
	deleted  []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(_ context.Context, key string, _ string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.uploaded[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	delete(u.uploaded, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.test/" + key
}

var errMailDown = errors.New("smtp down")
