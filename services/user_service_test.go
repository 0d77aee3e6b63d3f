package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/club-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(t *testing.T, users *fakeUserRepo, uploader *fakeUploader) (UserService, *fakeMailer) {
	t.Helper()
	mailer := &fakeMailer{}
	if uploader == nil {
		return NewUserService(users, mailer, newTestComposer(t), nil), mailer
	}
	return NewUserService(users, mailer, newTestComposer(t), uploader), mailer
}

func ids(users []models.User) []int {
	out := make([]int, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func TestPresidentCreatesPlayerVisibleOnlyToOwnCategoryCoach(t *testing.T) {
	users := seededUsers()
	svc, mailer := newTestUserService(t, users, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, principalOf(presidentUser), CreateUserInput{
		Email:    "a@b.com",
		Role:     models.RolePlayer,
		Category: ptr(models.CategoryU15),
	})
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Len(t, res.TemporaryPassword, temporaryPasswordSize)
	assert.Equal(t, models.CategoryU15, res.User.Category)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"a@b.com"}, mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, res.TemporaryPassword)

	page, err := svc.List(ctx, principalOf(coachU15User), UserListQuery{})
	require.NoError(t, err)
	assert.Contains(t, ids(page.Data), res.User.ID)

	page, err = svc.List(ctx, principalOf(coachU17User), UserListQuery{})
	require.NoError(t, err)
	assert.NotContains(t, ids(page.Data), res.User.ID)

	_, err = svc.Get(ctx, principalOf(coachU17User), res.User.ID)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	got, err := svc.Get(ctx, principalOf(coachU15User), res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got.Email)
}

func TestCreateUserWithPasswordSendsNoMail(t *testing.T) {
	svc, mailer := newTestUserService(t, seededUsers(), nil)

	res, err := svc.Create(context.Background(), principalOf(presidentUser), CreateUserInput{
		Email:    "trener@klub.pl",
		Password: ptr("sekret123"),
		Role:     models.RoleCoach,
	})
	require.NoError(t, err)
	assert.Empty(t, res.TemporaryPassword)
	assert.Equal(t, models.CategoryNone, res.User.Category)
	assert.Empty(t, mailer.sent)
}

func TestCreateUserRules(t *testing.T) {
	svc, _ := newTestUserService(t, seededUsers(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, principalOf(coachU15User), CreateUserInput{Email: "x@y.pl", Role: models.RolePlayer})
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = svc.Create(ctx, principalOf(presidentUser), CreateUserInput{Email: "x@y.pl", Role: "KIBIC"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Create(ctx, principalOf(presidentUser), CreateUserInput{Email: playerU15User.Email, Role: models.RolePlayer})
	assert.ErrorIs(t, err, ErrUserEmailConflict)
}

func TestListScopes(t *testing.T) {
	svc, _ := newTestUserService(t, seededUsers(), nil)
	ctx := context.Background()

	page, err := svc.List(ctx, principalOf(coachU15User), UserListQuery{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 6}, ids(page.Data))
	assert.Equal(t, 5, page.Total)

	page, err = svc.List(ctx, principalOf(playerU15User), UserListQuery{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, ids(page.Data))

	// Фильтры из запроса применяет только президент.
	role := models.RolePlayer
	page, err = svc.List(ctx, principalOf(presidentUser), UserListQuery{Role: &role})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{4, 5, 6}, ids(page.Data))

	page, err = svc.List(ctx, principalOf(playerU15User), UserListQuery{Role: &role})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, ids(page.Data))
}

func TestListPagination(t *testing.T) {
	svc, _ := newTestUserService(t, seededUsers(), nil)

	page, err := svc.List(context.Background(), principalOf(presidentUser), UserListQuery{Limit: 500, Skip: 4})
	require.NoError(t, err)
	assert.Equal(t, maxUserPageSize, page.Limit)
	assert.Equal(t, 4, page.Skip)
	assert.Equal(t, 6, page.Total)
	assert.Len(t, page.Data, 2)
}

func TestContractDatesRedaction(t *testing.T) {
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	player := *playerU15User
	player.ContractStart = &start
	coach := *coachU15User
	coach.ContractStart = &start
	svc, _ := newTestUserService(t, newFakeUserRepo(presidentUser, &coach, &player), nil)
	ctx := context.Background()

	got, err := svc.Get(ctx, principalOf(&coach), player.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ContractStart)

	got, err = svc.Get(ctx, principalOf(&coach), coach.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ContractStart)

	got, err = svc.Get(ctx, principalOf(presidentUser), player.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ContractStart)

	got, err = svc.Get(ctx, principalOf(&player), player.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ContractStart)

	_, err = svc.Get(ctx, principalOf(&player), coach.ID)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestChangeRoleCategoryPosition(t *testing.T) {
	users := seededUsers()
	svc, _ := newTestUserService(t, users, nil)
	ctx := context.Background()
	president := principalOf(presidentUser)

	_, err := svc.ChangeRole(ctx, principalOf(coachU15User), playerU15User.ID, models.RoleCoach)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = svc.ChangeRole(ctx, president, playerU15User.ID, "KIBIC")
	assert.ErrorIs(t, err, ErrValidationFailed)

	u, err := svc.ChangeRole(ctx, president, playerU15User.ID, models.RoleCoach)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCoach, u.Role)

	u, err = svc.ChangeCategory(ctx, president, playerU15User.ID, models.CategorySenior)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySenior, u.Category)

	u, err = svc.ChangePosition(ctx, president, playerU15User.ID, ptr(models.PositionGoalkeeper))
	require.NoError(t, err)
	require.NotNil(t, u.Position)
	assert.Equal(t, models.PositionGoalkeeper, *u.Position)

	u, err = svc.ChangePosition(ctx, president, playerU15User.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, u.Position)

	_, err = svc.ChangeCategory(ctx, president, 9999, models.CategoryU9)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newTestUserService(t, seededUsers(), nil)
	ctx := context.Background()

	u, err := svc.Update(ctx, principalOf(presidentUser), playerU15User.ID, UpdateUserInput{
		FirstName:     ptr("Robert"),
		Phone:         ptr(" 600100200 "),
		ContractStart: ptr("2025-07-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Robert", u.FirstName)
	assert.Equal(t, "600100200", *u.Phone)
	require.NotNil(t, u.ContractStart)
	assert.Equal(t, 2025, u.ContractStart.Year())

	u, err = svc.Update(ctx, principalOf(presidentUser), playerU15User.ID, UpdateUserInput{ContractStart: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, u.ContractStart)

	_, err = svc.Update(ctx, principalOf(presidentUser), playerU15User.ID, UpdateUserInput{ContractEnd: ptr("jutro")})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Update(ctx, principalOf(playerU15User), playerU15User.ID, UpdateUserInput{FirstName: ptr("X")})
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestDeleteUser(t *testing.T) {
	users := seededUsers()
	svc, _ := newTestUserService(t, users, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, principalOf(coachU15User), playerU15User.ID), ErrForbiddenOperation)
	require.NoError(t, svc.Delete(ctx, principalOf(presidentUser), playerU15User.ID))
	assert.ErrorIs(t, svc.Delete(ctx, principalOf(presidentUser), playerU15User.ID), ErrUserNotFound)
}

func TestUploadAvatar(t *testing.T) {
	ctx := context.Background()

	noStorage, _ := newTestUserService(t, seededUsers(), nil)
	_, err := noStorage.UploadAvatar(ctx, principalOf(playerU15User), playerU15User.ID, "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrStorageDisabled)

	uploader := newFakeUploader()
	svc, _ := newTestUserService(t, seededUsers(), uploader)

	_, err = svc.UploadAvatar(ctx, principalOf(playerU15User), player2U15.ID, "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = svc.UploadAvatar(ctx, principalOf(playerU15User), playerU15User.ID, "application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	first, err := svc.UploadAvatar(ctx, principalOf(playerU15User), playerU15User.ID, "image/png", strings.NewReader("png-1"))
	require.NoError(t, err)
	require.NotNil(t, first.AvatarURL)
	assert.Contains(t, *first.AvatarURL, "avatars/4/")
	assert.True(t, strings.HasSuffix(*first.AvatarURL, ".png"))

	second, err := svc.UploadAvatar(ctx, principalOf(presidentUser), playerU15User.ID, "image/jpeg", strings.NewReader("jpg-2"))
	require.NoError(t, err)
	assert.NotEqual(t, *first.AvatarURL, *second.AvatarURL)
	require.Len(t, uploader.deleted, 1)
	assert.Contains(t, *first.AvatarURL, uploader.deleted[0])
	assert.Len(t, uploader.uploaded, 1)
}
