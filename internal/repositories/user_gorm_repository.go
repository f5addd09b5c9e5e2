package repositories

import (
	"context"

	"gorm.io/gorm"

	"querystack/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	store *GORMStore
}

// Create inserts a new user.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(user).Error; err != nil {
		return wrap(err, "User", "create")
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by email.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByUsername retrieves a user by username.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *GORMUserRepository) first(ctx context.Context, cond string, arg any) (*models.User, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := db.First(&user, cond, arg).Error; err != nil {
		return nil, wrap(err, "User", "get")
	}
	return &user, nil
}

// Update sets the given columns and returns the refreshed user.
func (r *GORMUserRepository) Update(ctx context.Context, id string, fields map[string]any) (*models.User, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	res := db.Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, wrap(res.Error, "User", "update")
	}
	if res.RowsAffected == 0 {
		return nil, wrap(errNotFound, "User", "update")
	}
	return r.GetByID(ctx, id)
}

// List pages through users matching a case-insensitive name, username or
// email search.
func (r *GORMUserRepository) List(ctx context.Context, q UserQuery) ([]models.User, int64, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, 0, err
	}
	query := db.Model(&models.User{})
	if q.Query != "" {
		p := likePattern(q.Query)
		query = query.Where(
			`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(username) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`,
			p, p, p,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "User", "count")
	}

	switch q.Filter {
	case "oldest":
		query = query.Order("created_at ASC").Order("id ASC")
	case "popular":
		query = query.Order("reputation DESC").Order("created_at DESC").Order("id DESC")
	default:
		query = query.Order("created_at DESC").Order("id DESC")
	}

	users := make([]models.User, 0)
	if err := query.Offset(q.Offset()).Limit(q.PageSize).Find(&users).Error; err != nil {
		return nil, 0, wrap(err, "User", "list")
	}
	return users, total, nil
}

// GORMAccountRepository is a GORM implementation of AccountRepository.
type GORMAccountRepository struct {
	store *GORMStore
}

// Create inserts a new account.
func (r *GORMAccountRepository) Create(ctx context.Context, account *models.Account) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(account).Error; err != nil {
		return wrap(err, "Account", "create")
	}
	return nil
}

// GetByProvider retrieves the account bound to a provider identity.
func (r *GORMAccountRepository) GetByProvider(ctx context.Context, provider, providerAccountID string) (*models.Account, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var account models.Account
	err = db.First(&account, "provider = ? AND provider_account_id = ?", provider, providerAccountID).Error
	if err != nil {
		return nil, wrap(err, "Account", "get")
	}
	return &account, nil
}
