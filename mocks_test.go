package blog_test

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	blog "github.com/penmark/go-blog"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockRepositoryManager implements blog.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	var tx bun.Tx
	return f(ctx, tx)
}

func (m *MockRepositoryManager) Users() blog.Users {
	args := m.Called()
	return args.Get(0).(blog.Users)
}

func (m *MockRepositoryManager) Posts() blog.Posts {
	args := m.Called()
	return args.Get(0).(blog.Posts)
}

func (m *MockRepositoryManager) Tags() blog.Tags {
	args := m.Called()
	return args.Get(0).(blog.Tags)
}

// expectTx arms RunInTx; the mock runs the callback with a zero transaction
// and returns whatever the callback returns.
func expectTx(repo *MockRepositoryManager) *mock.Call {
	return repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil)
}

// MockUsers implements blog.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id uuid.UUID) (*blog.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.User), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*blog.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.User), args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*blog.User, error) {
	args := m.Called(ctx, tx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.User), args.Error(1)
}

func (m *MockUsers) EmailTakenTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	args := m.Called(ctx, tx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) PhoneTakenTx(ctx context.Context, tx bun.IDB, phone string) (bool, error) {
	args := m.Called(ctx, tx, phone)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) List(ctx context.Context) ([]*blog.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*blog.User), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *blog.User) (*blog.User, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.User), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *blog.User) (*blog.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.User), args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, record *blog.User) (*blog.User, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.User), args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *blog.User) (*blog.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.User), args.Error(1)
}

func (m *MockUsers) Activate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) CreateSuperuser(ctx context.Context, record *blog.User, password string) (*blog.User, error) {
	args := m.Called(ctx, record, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.User), args.Error(1)
}

// MockPosts implements blog.Posts
type MockPosts struct {
	mock.Mock
}

func (m *MockPosts) GetByID(ctx context.Context, id uuid.UUID) (*blog.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Post), args.Error(1)
}

func (m *MockPosts) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*blog.Post, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Post), args.Error(1)
}

func (m *MockPosts) List(ctx context.Context) ([]*blog.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*blog.Post), args.Error(1)
}

func (m *MockPosts) Create(ctx context.Context, record *blog.Post, tagIDs []uuid.UUID) (*blog.Post, error) {
	args := m.Called(ctx, record, tagIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Post), args.Error(1)
}

func (m *MockPosts) CreateTx(ctx context.Context, tx bun.IDB, record *blog.Post, tagIDs []uuid.UUID) (*blog.Post, error) {
	args := m.Called(ctx, tx, record, tagIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Post), args.Error(1)
}

func (m *MockPosts) Update(ctx context.Context, record *blog.Post, tagIDs []uuid.UUID) (*blog.Post, error) {
	args := m.Called(ctx, record, tagIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Post), args.Error(1)
}

func (m *MockPosts) UpdateTx(ctx context.Context, tx bun.IDB, record *blog.Post, tagIDs []uuid.UUID) (*blog.Post, error) {
	args := m.Called(ctx, tx, record, tagIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Post), args.Error(1)
}

// MockTags implements blog.Tags
type MockTags struct {
	mock.Mock
}

func (m *MockTags) List(ctx context.Context) ([]*blog.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*blog.Tag), args.Error(1)
}

func (m *MockTags) Create(ctx context.Context, record *blog.Tag) (*blog.Tag, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Tag), args.Error(1)
}

func (m *MockTags) CreateTx(ctx context.Context, tx bun.IDB, record *blog.Tag) (*blog.Tag, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blog.Tag), args.Error(1)
}

func (m *MockTags) ExistTx(ctx context.Context, tx bun.IDB, ids []uuid.UUID) (bool, error) {
	args := m.Called(ctx, tx, ids)
	return args.Bool(0), args.Error(1)
}

// MockNotifier implements blog.AccountNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendActivation(ctx context.Context, user *blog.User, token string) error {
	args := m.Called(ctx, user, token)
	return args.Error(0)
}

func (m *MockNotifier) SendPasswordReset(ctx context.Context, user *blog.User, token string) error {
	args := m.Called(ctx, user, token)
	return args.Error(0)
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}
