package services

import (
	"testing"

	"github.com/Dosada05/club-system/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testFrontendURL = "http://front.test"

func ptr[T any](v T) *T { return &v }

func testUser(id int, role models.UserRole, cat models.Category, email string) *models.User {
	return &models.User{
		ID:        id,
		Email:     email,
		Role:      role,
		Category:  cat,
		FirstName: "Imie" + email[:1],
		LastName:  "Nazwisko",
	}
}

var (
	presidentUser = testUser(1, models.RolePresident, models.CategoryNone, "prezes@klub.pl")
	coachU15User  = testUser(2, models.RoleCoach, models.CategoryU15, "trener15@klub.pl")
	coachU17User  = testUser(3, models.RoleCoach, models.CategoryU17, "trener17@klub.pl")
	playerU15User = testUser(4, models.RolePlayer, models.CategoryU15, "gracz15@klub.pl")
	playerU17User = testUser(5, models.RolePlayer, models.CategoryU17, "gracz17@klub.pl")
	player2U15    = testUser(6, models.RolePlayer, models.CategoryU15, "drugi15@klub.pl")
)

func principalOf(u *models.User) models.Principal {
	return models.Principal{ID: u.ID, Role: u.Role, Category: u.Category, Email: u.Email}
}

func seededUsers() *fakeUserRepo {
	return newFakeUserRepo(presidentUser, coachU15User, coachU17User, playerU15User, playerU17User, player2U15)
}

func newTestComposer(t *testing.T) *MailComposer {
	t.Helper()
	c, err := NewMailComposer(testFrontendURL)
	require.NoError(t, err)
	return c
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}
