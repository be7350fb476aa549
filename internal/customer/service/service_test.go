package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/membership/internal/auth/domain"
	"github.com/smallbiznis/membership/internal/clock"
	"github.com/smallbiznis/membership/internal/customer/domain"
	"github.com/smallbiznis/membership/internal/customer/repository"
	"github.com/smallbiznis/membership/internal/migration"
	subscriptiondomain "github.com/smallbiznis/membership/internal/subscription/domain"
	"github.com/smallbiznis/membership/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	owner snowflake.ID = 100
	other snowflake.ID = 200
)

type fixture struct {
	conn  *gorm.DB
	repo  domain.Repository
	svc   domain.Service
	clock *clock.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	now := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	for _, id := range []snowflake.ID{owner, other} {
		require.NoError(t, conn.Create(&authdomain.User{
			ID:           id,
			Name:         "owner",
			Email:        id.String() + "@owners.test",
			PasswordHash: "x",
			Role:         authdomain.RoleBusinessOwner,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}).Error)
	}

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	clk := clock.NewFakeClock(now)
	repo := repository.New(conn)
	return fixture{
		conn:  conn,
		repo:  repo,
		clock: clk,
		svc: New(Params{
			Log:   zap.NewNop(),
			GenID: node,
			Repo:  repo,
			Clock: clk,
		}),
	}
}

func TestCreateCustomerNormalizesFields(t *testing.T) {
	f := newFixture(t)
	birth := time.Date(1990, 7, 4, 15, 30, 0, 0, time.UTC)

	c, err := f.svc.CreateCustomer(context.Background(), domain.CreateCustomerRequest{
		Name:      "  Ana Souza ",
		Email:     " Ana@Example.com",
		Phone:     "",
		Document:  "12345678900",
		Address:   "   ",
		BirthDate: &birth,
	}, owner)
	require.NoError(t, err)

	assert.NotZero(t, c.ID)
	assert.Equal(t, "Ana Souza", c.Name)
	require.NotNil(t, c.Email)
	assert.Equal(t, "ana@example.com", *c.Email)
	assert.Nil(t, c.Phone)
	assert.Nil(t, c.Address)
	assert.Nil(t, c.Notes)
	require.NotNil(t, c.Document)
	assert.Equal(t, "12345678900", *c.Document)
	require.NotNil(t, c.BirthDate)
	assert.Equal(t, time.Date(1990, 7, 4, 0, 0, 0, 0, time.UTC), time.Time(*c.BirthDate))
	assert.True(t, c.IsActive)
	assert.Equal(t, owner, c.OwnerID)
	assert.Equal(t, f.clock.Now(), c.CreatedAt)
	assert.Equal(t, f.clock.Now(), c.UpdatedAt)
}

func TestCreateCustomerRequiresName(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateCustomer(context.Background(), domain.CreateCustomerRequest{Name: " "}, owner)
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = f.svc.CreateCustomer(context.Background(), domain.CreateCustomerRequest{Name: "Ana"}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidOwner)
}

func TestCreateCustomerConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{
		Name: "Ana", Email: "ana@x.com", Document: "111",
	}, owner)
	require.NoError(t, err)

	// Document is checked before email.
	_, err = f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{
		Name: "Dup", Email: "ana@x.com", Document: "111",
	}, owner)
	assert.ErrorIs(t, err, domain.ErrDocumentInUse)

	_, err = f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{
		Name: "Dup", Email: "ANA@x.com", Document: "222",
	}, owner)
	assert.ErrorIs(t, err, domain.ErrEmailInUse)

	// Another owner may reuse both values.
	_, err = f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{
		Name: "Ana", Email: "ana@x.com", Document: "111",
	}, other)
	assert.NoError(t, err)

	// Empty values never conflict.
	_, err = f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Bia"}, owner)
	require.NoError(t, err)
	_, err = f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Caio"}, owner)
	assert.NoError(t, err)
}

// racingRepo hides existing rows from the first n pre-checks, as if a
// concurrent request inserted them in between.
type racingRepo struct {
	domain.Repository
	blind int
}

func (r *racingRepo) ExistsDocument(ctx context.Context, ownerID snowflake.ID, document string, excludeID *snowflake.ID) (bool, error) {
	if r.blind > 0 {
		r.blind--
		return false, nil
	}
	return r.Repository.ExistsDocument(ctx, ownerID, document, excludeID)
}

func TestCreateCustomerMapsUniqueViolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Ana", Document: "111"}, owner)
	require.NoError(t, err)

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	racing := New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  &racingRepo{Repository: f.repo, blind: 1},
		Clock: f.clock,
	})

	_, err = racing.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Dup", Document: "111"}, owner)
	assert.ErrorIs(t, err, domain.ErrDocumentInUse)
}

func TestGetCustomerIsOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Ana"}, owner)
	require.NoError(t, err)

	got, err := f.svc.GetCustomer(ctx, c.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = f.svc.GetCustomer(ctx, c.ID, other)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.GetCustomer(ctx, snowflake.ID(123), owner)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ana, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{
		Name: "Ana", Email: "ana@x.com", Document: "111", Phone: "555",
	}, owner)
	require.NoError(t, err)
	_, err = f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{
		Name: "Bia", Email: "bia@x.com", Document: "222",
	}, owner)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)

	// Keeping its own document and email is not a conflict.
	updated, err := f.svc.UpdateCustomer(ctx, ana.ID, domain.UpdateCustomerRequest{
		Name: "Ana Maria", Email: "ana@x.com", Document: "111", Notes: "vip", IsActive: false,
	}, owner)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Nil(t, updated.Phone)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "vip", *updated.Notes)
	assert.False(t, updated.IsActive)
	assert.Equal(t, f.clock.Now(), updated.UpdatedAt)

	stored, err := f.repo.FindByIDAndOwner(ctx, ana.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", stored.Name)
	assert.False(t, stored.IsActive)
	assert.Nil(t, stored.Phone)

	_, err = f.svc.UpdateCustomer(ctx, ana.ID, domain.UpdateCustomerRequest{
		Name: "Ana", Document: "222", IsActive: true,
	}, owner)
	assert.ErrorIs(t, err, domain.ErrDocumentInUse)

	_, err = f.svc.UpdateCustomer(ctx, ana.ID, domain.UpdateCustomerRequest{
		Name: "Ana", Email: "bia@x.com", IsActive: true,
	}, owner)
	assert.ErrorIs(t, err, domain.ErrEmailInUse)

	_, err = f.svc.UpdateCustomer(ctx, ana.ID, domain.UpdateCustomerRequest{Name: "Ana", IsActive: true}, other)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCustomerCascadesSubscriptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Ana"}, owner)
	require.NoError(t, err)

	start := f.clock.Now()
	require.NoError(t, f.conn.Create(&subscriptiondomain.Subscription{
		ID:           1,
		Name:         "Basic",
		Price:        1000,
		BillingCycle: subscriptiondomain.BillingCycleAnnual,
		Status:       subscriptiondomain.SubscriptionStatusActive,
		StartDate:    start,
		NextDueDate:  start.AddDate(1, 0, 0),
		CustomerID:   c.ID,
		CreatedAt:    start,
		UpdatedAt:    start,
	}).Error)

	deleted, err := f.svc.DeleteCustomer(ctx, c.ID, other)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = f.svc.DeleteCustomer(ctx, c.ID, owner)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.svc.DeleteCustomer(ctx, c.ID, owner)
	require.NoError(t, err)
	assert.False(t, deleted)

	var remaining int64
	require.NoError(t, f.conn.Model(&subscriptiondomain.Subscription{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestListCustomers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Caio", "Ana", "Bia"} {
		_, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: name}, owner)
		require.NoError(t, err)
	}
	_, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Zed"}, other)
	require.NoError(t, err)

	list, err := f.svc.ListCustomers(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Ana", list[0].Name)
	assert.Equal(t, "Caio", list[2].Name)

	_, err = f.svc.UpdateCustomer(ctx, list[0].ID, domain.UpdateCustomerRequest{Name: "Ana", IsActive: false}, owner)
	require.NoError(t, err)

	active, err := f.svc.ListCustomers(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	withSubs, err := f.svc.ListCustomersWithSubscriptions(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, withSubs, 3)
}

func TestAvailabilityChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{
		Name: "Ana", Email: "ana@x.com", Document: "111",
	}, owner)
	require.NoError(t, err)

	inUse, err := f.svc.IsDocumentInUse(ctx, "111", owner, nil)
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = f.svc.IsDocumentInUse(ctx, "111", owner, &c.ID)
	require.NoError(t, err)
	assert.False(t, inUse)

	inUse, err = f.svc.IsDocumentInUse(ctx, "", owner, nil)
	require.NoError(t, err)
	assert.False(t, inUse)

	inUse, err = f.svc.IsEmailInUse(ctx, "ANA@x.com", owner, nil)
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = f.svc.IsEmailInUse(ctx, "ana@x.com", other, nil)
	require.NoError(t, err)
	assert.False(t, inUse)

	inUse, err = f.svc.IsEmailInUse(ctx, "  ", owner, nil)
	require.NoError(t, err)
	assert.False(t, inUse)
}
