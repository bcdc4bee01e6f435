package repository

import (
	"time"

	"github.com/usenarra/narra-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Usage counter columns.
const (
	UsageProfileDiscoveries = "profile_discoveries_used"
	UsageTranscriptViews    = "transcript_views_used"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// UpsertIdentity inserts user, or on an id conflict overwrites only the identity
// columns. Subscription, plan and usage columns keep their stored values.
func (r *UserRepository) UpsertIdentity(user *models.User) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "image_url", "role", "updated_at"}),
	}).Create(user).Error
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Plan").Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByStripeCustomerID(customerID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByStripeSubscriptionID(subscriptionID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("stripe_subscription_id = ?", subscriptionID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateFields writes the given columns. Zero values are written as-is.
func (r *UserRepository) UpdateFields(id string, fields map[string]interface{}) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *UserRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.User{}).Error
}

func (r *UserRepository) List(page, limit int, search string) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := r.db.Model(&models.User{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Plan").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	return users, total, err
}

// ResetUsageBefore zeroes both usage counters on rows whose reset date is before
// now and moves their reset date to next.
func (r *UserRepository) ResetUsageBefore(now, next time.Time) (int64, error) {
	result := r.db.Model(&models.User{}).
		Where("usage_reset_date < ?", now).
		Updates(map[string]interface{}{
			UsageProfileDiscoveries: 0,
			UsageTranscriptViews:    0,
			"usage_reset_date":      next,
		})
	return result.RowsAffected, result.Error
}

// IncrementUsage adds one to a usage counter unless it already reached limit.
// A limit of 0 is unlimited. It reports whether the counter was incremented.
func (r *UserRepository) IncrementUsage(id, column string, limit int) (bool, error) {
	query := r.db.Model(&models.User{}).Where("id = ?", id)
	if limit > 0 {
		query = query.Where(column+" < ?", limit)
	}
	result := query.UpdateColumn(column, gorm.Expr(column+" + 1"))
	return result.RowsAffected == 1, result.Error
}

func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *UserRepository) CountByRole(role string) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

func (r *UserRepository) CountCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

type groupCount struct {
	Name  string
	Count int64
}

func (r *UserRepository) CountBySubscriptionStatus() (map[string]int64, error) {
	var rows []groupCount
	err := r.db.Model(&models.User{}).
		Select("subscription_status AS name, COUNT(*) AS count").
		Group("subscription_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMap(rows), nil
}

// CountByPlan groups users by plan slug; users without a plan are counted under "none".
func (r *UserRepository) CountByPlan() (map[string]int64, error) {
	var rows []groupCount
	err := r.db.Model(&models.User{}).
		Select("COALESCE(plans.slug, 'none') AS name, COUNT(*) AS count").
		Joins("LEFT JOIN plans ON plans.id = users.plan_id").
		Group("COALESCE(plans.slug, 'none')").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMap(rows), nil
}

func toMap(rows []groupCount) map[string]int64 {
	m := make(map[string]int64, len(rows))
	for _, row := range rows {
		m[row.Name] = row.Count
	}
	return m
}
