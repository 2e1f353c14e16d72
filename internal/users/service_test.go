package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdeck/userdeck/internal/ability"
	"github.com/userdeck/userdeck/internal/platform/httpx"
	"github.com/userdeck/userdeck/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	byID    map[uuid.UUID]*User
	byEmail map[string]*User

	inserts int
	updates int
	removes int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		byID:    make(map[uuid.UUID]*User),
		byEmail: make(map[string]*User),
	}
}

func (m *mockRepository) seed(u User) User {
	stored := u
	m.byID[u.ID] = &stored
	m.byEmail[shared.NormalizeEmail(u.Email)] = &stored
	return stored
}

func (m *mockRepository) FindAll(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) Insert(ctx context.Context, user User) (*User, error) {
	if _, ok := m.byEmail[user.Email]; ok {
		return nil, httpx.ErrDuplicate
	}
	m.inserts++
	stored := m.seed(user)
	return &stored, nil
}

func (m *mockRepository) ApplyUpdate(ctx context.Context, id uuid.UUID, ch Changes) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	m.updates++
	if v, ok := ch[ability.FieldName]; ok {
		u.Name = v
	}
	if v, ok := ch[ability.FieldEmail]; ok {
		delete(m.byEmail, u.Email)
		u.Email = v
		m.byEmail[v] = u
	}
	if v, ok := ch[ability.FieldPassword]; ok {
		u.PasswordHash = v
	}
	if v, ok := ch[ability.FieldRole]; ok {
		u.Role = ability.Role(v)
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) Remove(ctx context.Context, id uuid.UUID) error {
	u, ok := m.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	m.removes++
	delete(m.byEmail, u.Email)
	delete(m.byID, id)
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

// ============================================================================
// FIXTURES
// ============================================================================

type fixture struct {
	repo    *mockRepository
	service *Service
	admin   ability.Principal
	manager ability.Principal
	alice   ability.Principal
	bob     ability.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepository()
	f := &fixture{repo: repo, service: NewService(repo, fakeHasher{})}

	admin := repo.seed(User{ID: uuid.New(), Name: "Root", Email: "root@x.com", PasswordHash: "hashed:root", Role: ability.RoleAdmin})
	manager := repo.seed(User{ID: uuid.New(), Name: "Mona", Email: "mona@x.com", PasswordHash: "hashed:mona", Role: ability.RoleManager})
	alice := repo.seed(User{ID: uuid.New(), Name: "Alice", Email: "alice@x.com", PasswordHash: "hashed:alice", Role: ability.RoleUser})
	bob := repo.seed(User{ID: uuid.New(), Name: "Bob", Email: "bob@x.com", PasswordHash: "hashed:bob", Role: ability.RoleUser})

	f.admin = ability.Principal{ID: admin.ID, Role: ability.RoleAdmin}
	f.manager = ability.Principal{ID: manager.ID, Role: ability.RoleManager}
	f.alice = ability.Principal{ID: alice.ID, Role: ability.RoleUser}
	f.bob = ability.Principal{ID: bob.ID, Role: ability.RoleUser}
	return f
}

// ============================================================================
// CREATE
// ============================================================================

func TestCreateAsAdmin(t *testing.T) {
	f := newFixture(t)

	u, err := f.service.Create(context.Background(), f.admin, CreateRequest{
		Name:     "Ana",
		Email:    "ana@x.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@x.com", u.Email)
	assert.Equal(t, ability.RoleUser, u.Role)
	assert.Empty(t, u.PasswordHash, "returned record must not carry password material")

	stored, err := f.repo.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed:secret1", stored.PasswordHash, "password must be hashed before persistence")
}

func TestCreateForbiddenForManagerAndUser(t *testing.T) {
	f := newFixture(t)

	for _, p := range []ability.Principal{f.manager, f.alice} {
		_, err := f.service.Create(context.Background(), p, CreateRequest{Email: "new@x.com", Password: "pw"})
		require.ErrorIs(t, err, httpx.ErrForbidden, "role %s", p.Role)
	}
	assert.Zero(t, f.repo.inserts, "denied create must never reach storage")
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), f.admin, CreateRequest{Password: "pw"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = f.service.Create(context.Background(), f.admin, CreateRequest{Email: "new@x.com"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = f.service.Create(context.Background(), f.admin, CreateRequest{Email: "new@x.com", Password: "pw", Role: "superuser"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	// Case and padding must not defeat duplicate detection.
	_, err := f.service.Create(context.Background(), f.admin, CreateRequest{Email: "  ALICE@X.COM ", Password: "pw"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	assert.Zero(t, f.repo.inserts)
}

// ============================================================================
// READ
// ============================================================================

func TestListPerRole(t *testing.T) {
	f := newFixture(t)

	for _, p := range []ability.Principal{f.admin, f.manager} {
		list, err := f.service.List(context.Background(), p)
		require.NoError(t, err, "role %s", p.Role)
		assert.Len(t, list, 4)
		for _, u := range list {
			assert.Empty(t, u.PasswordHash)
		}
	}

	_, err := f.service.List(context.Background(), f.alice)
	require.ErrorIs(t, err, httpx.ErrForbidden, "plain user must not list users")
}

func TestGetOwnershipShortCircuit(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Get(context.Background(), f.alice, f.bob.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Contains(t, err.Error(), "own record", "ownership refusal must be the precise one")

	u, err := f.service.Get(context.Background(), f.alice, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
}

func TestGetUnknownID(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Get(context.Background(), f.admin, uuid.New())
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestGetSelf(t *testing.T) {
	f := newFixture(t)

	for _, p := range []ability.Principal{f.admin, f.manager, f.alice} {
		u, err := f.service.GetSelf(context.Background(), p)
		require.NoError(t, err, "role %s", p.Role)
		assert.Equal(t, p.ID, u.ID)
	}
}

// ============================================================================
// UPDATE
// ============================================================================

func TestUpdateAdminChangesRole(t *testing.T) {
	f := newFixture(t)

	u, err := f.service.Update(context.Background(), f.admin, f.alice.ID, UpdateRequest{Role: strptr("manager")})
	require.NoError(t, err)
	assert.Equal(t, ability.RoleManager, u.Role)
	assert.Equal(t, 1, f.repo.updates)
}

func TestUpdateManagerFieldRestriction(t *testing.T) {
	f := newFixture(t)

	// name/email on a plain user succeed in isolation.
	u, err := f.service.Update(context.Background(), f.manager, f.alice.ID, UpdateRequest{
		Name:  strptr("Alice B"),
		Email: strptr("alice.b@x.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", u.Name)

	// Adding role to the same call fails the whole update.
	before := f.repo.updates
	_, err = f.service.Update(context.Background(), f.manager, f.bob.ID, UpdateRequest{
		Name: strptr("Bobby"),
		Role: strptr("manager"),
	})
	require.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Equal(t, before, f.repo.updates, "all-or-nothing: no partial apply")

	stored, err := f.repo.FindByID(context.Background(), f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", stored.Name)
	assert.Equal(t, ability.RoleUser, stored.Role)
}

func TestUpdateManagerCannotTouchPeersOrAdmins(t *testing.T) {
	f := newFixture(t)

	otherManager := f.repo.seed(User{ID: uuid.New(), Name: "Max", Email: "max@x.com", Role: ability.RoleManager})

	_, err := f.service.Update(context.Background(), f.manager, otherManager.ID, UpdateRequest{Name: strptr("Maxine")})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = f.service.Update(context.Background(), f.manager, f.admin.ID, UpdateRequest{Name: strptr("Rooty")})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	// Own record stays editable within the field set.
	u, err := f.service.Update(context.Background(), f.manager, f.manager.ID, UpdateRequest{Name: strptr("Mona Lisa")})
	require.NoError(t, err)
	assert.Equal(t, "Mona Lisa", u.Name)
}

func TestUpdateOwnershipShortCircuit(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), f.alice, f.bob.ID, UpdateRequest{Name: strptr("Hacked")})
	require.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Contains(t, err.Error(), "own record")
	assert.Zero(t, f.repo.updates)
}

func TestUpdateSelfByPlainUser(t *testing.T) {
	f := newFixture(t)

	u, err := f.service.Update(context.Background(), f.alice, f.alice.ID, UpdateRequest{
		Name:     strptr("Alicia"),
		Password: strptr("newsecret"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", u.Name)
	assert.Empty(t, u.PasswordHash)

	stored, err := f.repo.FindByID(context.Background(), f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed:newsecret", stored.PasswordHash)
}

func TestUpdateNoOpIssuesNoWrite(t *testing.T) {
	f := newFixture(t)

	u, err := f.service.Update(context.Background(), f.admin, f.alice.ID, UpdateRequest{
		Name:  strptr("Alice"),
		Email: strptr("alice@x.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.Zero(t, f.repo.updates, "identical payload must short-circuit to a read")
}

func TestUpdateEmptyPasswordRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), f.alice, f.alice.ID, UpdateRequest{
		Name:     strptr("Alicia"),
		Password: strptr(""),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Zero(t, f.repo.updates)
}

func TestUpdateUnknownID(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), f.admin, uuid.New(), UpdateRequest{Name: strptr("Ghost")})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

// ============================================================================
// DELETE
// ============================================================================

func TestDeletePerRole(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.service.Delete(context.Background(), f.admin, f.bob.ID))
	assert.Equal(t, 1, f.repo.removes)

	err := f.service.Delete(context.Background(), f.manager, f.alice.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	err = f.service.Delete(context.Background(), f.alice, f.alice.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden, "no self-delete rule exists for plain users")
	assert.Equal(t, 1, f.repo.removes)
}

func TestDeleteUnknownID(t *testing.T) {
	f := newFixture(t)

	err := f.service.Delete(context.Background(), f.admin, uuid.New())
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
