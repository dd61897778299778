package repository_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/port"
	"github.com/nikolayk812/course-checkout/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/text/currency"
)

type directoryRepositorySuite struct {
	suite.Suite

	courses port.CourseCatalog
	users   port.UserDirectory
	pool    *pgxpool.Pool
}

func TestDirectoryRepositorySuite(t *testing.T) {
	suite.Run(t, new(directoryRepositorySuite))
}

func (suite *directoryRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	_, connStr, err := startPostgres(ctx)
	suite.Require().NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.Require().NoError(err)

	suite.courses = repository.NewCourseCatalog(suite.pool)
	suite.users = repository.NewUserDirectory(suite.pool)
}

func (suite *directoryRepositorySuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
}

func (suite *directoryRepositorySuite) TestGetCourse() {
	t := suite.T()
	ctx := t.Context()

	courseID := randomID()
	require.NoError(t, insertCourse(ctx, suite.pool, courseID, "49.99", "USD"))

	course, err := suite.courses.GetCourse(ctx, courseID)
	require.NoError(t, err)

	assert.Equal(t, courseID, course.ID)
	assert.NotEmpty(t, course.Title)
	assert.NotEmpty(t, course.InstructorName)
	assert.True(t, decimal.RequireFromString("49.99").Equal(course.Price.Amount))
	assert.Equal(t, currency.USD.String(), course.Price.Currency.String())

	_, err = suite.courses.GetCourse(ctx, randomID())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func (suite *directoryRepositorySuite) TestUserContact() {
	t := suite.T()
	ctx := t.Context()

	userID := randomID()
	email := gofakeit.Email()
	require.NoError(t, insertUser(ctx, suite.pool, userID, email, true))

	user, err := suite.users.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, email, user.Email)
	assert.True(t, user.EmailVerified)

	originalName := user.Name

	err = suite.users.UpdateContact(ctx, userID, domain.ContactFields{
		Phone:      "+1-555-0100",
		PostalCode: "94105",
	})
	require.NoError(t, err)

	user, err = suite.users.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, originalName, user.Name, "empty fields are left untouched")
	assert.Equal(t, "+1-555-0100", user.Phone)
	assert.Equal(t, "94105", user.PostalCode)

	// nothing to update is not an error, even for an unknown user
	require.NoError(t, suite.users.UpdateContact(ctx, randomID(), domain.ContactFields{}))

	err = suite.users.UpdateContact(ctx, randomID(), domain.ContactFields{Name: "x"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = suite.users.GetUser(ctx, randomID())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
