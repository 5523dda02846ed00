package service

import (
	"context"
	"errors"

	"leaflens/backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCredentials    = errors.New("invalid credentials")
	ErrUserExists     = errors.New("email already registered")
	ErrAmbiguousLogin = errors.New("display name is not unique, log in with your email")
	ErrEmptyProfile   = errors.New("display name is required")
	ErrEmptySearch    = errors.New("search term is empty")
)

// UserService owns user accounts and profile search.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register creates a local-auth account with a freshly minted UID. Email
// is the unique login identity; display names may repeat (Firebase-mode
// profiles carry no uniqueness guarantee either), the email unique index
// backs the duplicate check under races.
func (s *UserService) Register(ctx context.Context, displayName, email, password string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	db := s.db.WithContext(ctx)

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		UID:          uuid.New().String(),
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: string(hashed),
	}
	user.Normalize()
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies a display-name-or-email plus password login. The
// email lookup wins; a display name shared by several accounts cannot be
// resolved and the caller is told to use their email instead.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("email = ?", login).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var matches []models.User
		if err := db.Where("display_name = ?", login).Limit(2).Find(&matches).Error; err != nil {
			return nil, err
		}
		switch len(matches) {
		case 0:
			return nil, ErrUserNotFound
		case 1:
			user = matches[0]
		default:
			return nil, ErrAmbiguousLogin
		}
	} else if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrCredentials
	}
	return &user, nil
}

// UpsertProfile merges an externally authenticated profile (Firebase mode)
// into the users table, refreshing the lowercase search columns. Mirrors
// the client's sign-in profile write: create on first sight, update after.
func (s *UserService) UpsertProfile(ctx context.Context, uid, displayName, email, photoURL string) (*models.User, error) {
	if displayName == "" {
		return nil, ErrEmptyProfile
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	user := models.User{
		UID:         uid,
		DisplayName: displayName,
		Email:       email,
		PhotoURL:    photoURL,
	}
	user.Normalize()

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "display_name_lower", "email", "email_lower", "photo_url", "updated_at",
		}),
	}).Create(&user).Error
	if err != nil {
		return nil, err
	}

	var saved models.User
	if err := s.db.WithContext(ctx).First(&saved, "uid = ?", uid).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetByUID fetches a single user.
func (s *UserService) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile edits the user's own display fields.
func (s *UserService) UpdateProfile(ctx context.Context, uid, displayName, photoURL string) (*models.User, error) {
	user, err := s.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if displayName != "" {
		user.DisplayName = displayName
	}
	if photoURL != "" {
		user.PhotoURL = photoURL
	}
	user.Normalize()

	ctx, cancel := withTimeout(ctx)
	defer cancel()
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Search does a case-insensitive prefix search over both lowercase search
// columns, excluding the caller, with pagination.
func (s *UserService) Search(ctx context.Context, term, excludeUID string, page, limit int) ([]models.User, int64, error) {
	if term == "" {
		return nil, 0, ErrEmptySearch
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	prefix := escapeLike(term) + "%"
	query := s.db.WithContext(ctx).Model(&models.User{}).
		Where("(display_name_lower LIKE ? OR email_lower LIKE ?)", prefix, prefix).
		Where("uid <> ?", excludeUID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.Order("display_name_lower ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	return users, total, err
}

// Delete removes an account and the social rows that reference it.
// Conversations and messages are kept as history; friend listings tolerate
// participants that no longer resolve.
func (s *UserService) Delete(ctx context.Context, uid string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("from_uid = ? OR to_uid = ?", uid, uid).Delete(&models.FriendRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_a_uid = ? OR user_b_uid = ?", uid, uid).Delete(&models.FriendEdge{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_uid = ?", uid).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_uid = ?", uid).Delete(&models.MonitoredPlant{}).Error; err != nil {
			return err
		}

		// Retract the user's likes first so the counters stay honest,
		// then drop their posts with the like rows those posts hold.
		var likedPostIDs []uint
		if err := tx.Model(&models.PostLike{}).Where("user_uid = ?", uid).Pluck("post_id", &likedPostIDs).Error; err != nil {
			return err
		}
		if len(likedPostIDs) > 0 {
			if err := tx.Where("user_uid = ?", uid).Delete(&models.PostLike{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Post{}).Where("id IN ? AND like_count > 0", likedPostIDs).
				Update("like_count", gorm.Expr("like_count - ?", 1)).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id IN (?)",
			tx.Model(&models.Post{}).Select("id").Where("author_uid = ?", uid),
		).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_uid = ?", uid).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_uid = ?", uid).Delete(&models.Story{}).Error; err != nil {
			return err
		}

		return tx.Where("uid = ?", uid).Delete(&models.User{}).Error
	})
}

func escapeLike(term string) string {
	out := make([]byte, 0, len(term))
	for i := 0; i < len(term); i++ {
		c := term[i]
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
