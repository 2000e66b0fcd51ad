package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"simagang/backend/internal/dto"
	"simagang/backend/internal/model"
	"simagang/backend/internal/repository"
	"simagang/backend/pkg/storage"
)

// ── 申请模块业务错误 ──

var (
	ErrRegistrationNotFound    = errors.New("申请不存在")
	ErrRegistrationExists      = errors.New("该邮箱已提交过实习申请")
	ErrRegistrationNotPending  = errors.New("只有待审核的申请可以进行审核决定")
	ErrReplyLetterRequired     = errors.New("通过申请必须上传回复函")
	ErrReviewCommentRequired   = errors.New("驳回或要求修改时必须填写审核意见")
	ErrRegistrationNotApproved = errors.New("申请尚未通过审核")
	ErrSupervisorNotAssigned   = errors.New("该申请未分配指导老师")
	ErrFinalReportMissing      = errors.New("尚未上传结项报告")
	ErrFinalReportNotVerified  = errors.New("结项报告尚未通过校验")
	ErrRegistrationForbidden   = errors.New("无权访问该申请")
	ErrDocumentNotFound        = errors.New("材料不存在")
)

// RegistrationService 实习申请业务接口
//
// 状态机：pending →（审核）approved | rejected | needs_correction
// rejected / needs_correction 经申请人编辑后回到 pending 重新排队
type RegistrationService interface {
	Submit(ctx context.Context, userID, email string, req *dto.SubmitRegistrationRequest, docs *dto.DocumentUploads) (*dto.RegistrationResponse, error)
	GetMine(ctx context.Context, userID string) (*dto.RegistrationResponse, error)
	GetByID(ctx context.Context, id, callerID, callerRole, callerEmail string) (*dto.RegistrationResponse, error)
	List(ctx context.Context, req *dto.RegistrationListRequest) ([]dto.RegistrationResponse, int64, error)
	Edit(ctx context.Context, userID string, req *dto.EditRegistrationRequest, docs *dto.DocumentUploads) (*dto.RegistrationResponse, error)
	Decide(ctx context.Context, callerID, id string, req *dto.DecideRegistrationRequest, replyLetter *dto.FileUpload) (*dto.RegistrationResponse, error)
	AssignSupervisor(ctx context.Context, callerID, id string, req *dto.AssignSupervisorRequest) (*dto.RegistrationResponse, error)
	UnassignSupervisor(ctx context.Context, callerID, id string) (*dto.RegistrationResponse, error)
	UploadFinalReport(ctx context.Context, userID string, file *dto.FileUpload) (*dto.RegistrationResponse, error)
	VerifyFinalReport(ctx context.Context, callerID, id string) (*dto.RegistrationResponse, error)
	UploadCertificate(ctx context.Context, callerID, id string, file *dto.FileUpload) (*dto.RegistrationResponse, error)
	PresignDocument(ctx context.Context, key, callerID, callerRole, callerEmail string) (string, error)
}

type registrationService struct {
	repo   *repository.Repository
	mail   Mailer
	blobs  BlobStore
	logger *zap.Logger
}

// NewRegistrationService 创建 RegistrationService 实例
func NewRegistrationService(repo *repository.Repository, mail Mailer, blobs BlobStore, logger *zap.Logger) RegistrationService {
	return &registrationService{repo: repo, mail: mail, blobs: blobs, logger: logger}
}

// ────────────────────── Submit ──────────────────────

func (s *registrationService) Submit(ctx context.Context, userID, email string, req *dto.SubmitRegistrationRequest, docs *dto.DocumentUploads) (*dto.RegistrationResponse, error) {
	if _, err := s.repo.Registration.GetByEmail(ctx, email); err == nil {
		return nil, ErrRegistrationExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询申请失败", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	reg := &model.Registration{
		UserID:      userID,
		Email:       email,
		Name:        req.Name,
		BirthPlace:  req.BirthPlace,
		BirthDate:   req.BirthDate,
		Gender:      req.Gender,
		Address:     req.Address,
		Phone:       req.Phone,
		Institution: req.Institution,
		Program:     req.Program,
		Degree:      req.Degree,
		Semester:    req.Semester,
		GPA:         req.GPA,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Objective:   req.Objective,
		Division:    req.Division,
		Status:      model.RegistrationStatusPending,
	}
	reg.CreatedBy = &userID
	reg.UpdatedBy = &userID

	if docs != nil {
		if err := s.uploadDocuments(ctx, reg, docs); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Registration.Create(ctx, reg); err != nil {
		s.logger.Error("创建申请失败", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	s.notify(reg.UserID, &reg.RegistrationID, model.NotificationTypeWelcome,
		"申请已提交", "您的实习申请已提交，请等待管理员审核。", reg.Email)

	return s.toRegistrationResponse(reg), nil
}

// ────────────────────── GetMine ──────────────────────

func (s *registrationService) GetMine(ctx context.Context, userID string) (*dto.RegistrationResponse, error) {
	reg, err := s.repo.Registration.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("查询申请失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.toRegistrationResponse(reg), nil
}

// ────────────────────── GetByID ──────────────────────

// GetByID 查询申请详情。
// 管理员可查任意申请；指导老师只能查分配给自己的申请；申请人只能查自己的。
func (s *registrationService) GetByID(ctx context.Context, id, callerID, callerRole, callerEmail string) (*dto.RegistrationResponse, error) {
	reg, err := s.getRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCanAccess(ctx, reg, callerID, callerRole, callerEmail); err != nil {
		return nil, err
	}
	return s.toRegistrationResponse(reg), nil
}

// ────────────────────── List ──────────────────────

func (s *registrationService) List(ctx context.Context, req *dto.RegistrationListRequest) ([]dto.RegistrationResponse, int64, error) {
	regs, total, err := s.repo.Registration.List(ctx, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出申请失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		result = append(result, *s.toRegistrationResponse(&regs[i]))
	}
	return result, total, nil
}

// ────────────────────── Edit ──────────────────────

// Edit 申请人修改自己的申请。任何修改都会把状态重置回 pending，
// 清空上一轮审核意见与时间戳；若此前已分配指导老师则同时解除分配，
// 保证"已分配指导老师的申请必然处于 approved"这一约束不被破坏。
func (s *registrationService) Edit(ctx context.Context, userID string, req *dto.EditRegistrationRequest, docs *dto.DocumentUploads) (*dto.RegistrationResponse, error) {
	reg, err := s.repo.Registration.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("查询申请失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	applyEdit(reg, req)

	var staleKeys []string
	if docs != nil {
		staleKeys, err = s.replaceDocuments(ctx, reg, docs)
		if err != nil {
			return nil, err
		}
	}

	prevSupervisor := reg.SupervisorID
	reg.Status = model.RegistrationStatusPending
	reg.ReviewComment = nil
	reg.ApprovedAt = nil
	reg.RejectedAt = nil
	reg.ApprovedBy = nil
	reg.SupervisorID = nil
	reg.Supervisor = nil
	reg.UpdatedBy = &userID

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Registration.Update(ctx, reg); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新申请失败", zap.String("id", reg.RegistrationID), zap.Error(err))
		return nil, err
	}
	if prevSupervisor != nil {
		if err := txRepo.Supervisor.DecrementStudentCount(ctx, *prevSupervisor); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("回减指导老师名额失败",
				zap.String("supervisor_id", *prevSupervisor), zap.Error(err))
			return nil, err
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	// 旧文件在引用切换成功后才删除
	s.releaseBlobs(staleKeys)

	return s.toRegistrationResponse(reg), nil
}

// ────────────────────── Decide ──────────────────────

func (s *registrationService) Decide(ctx context.Context, callerID, id string, req *dto.DecideRegistrationRequest, replyLetter *dto.FileUpload) (*dto.RegistrationResponse, error) {
	reg, err := s.getRegistration(ctx, id)
	if err != nil {
		return nil, err
	}

	if reg.Status != model.RegistrationStatusPending {
		return nil, ErrRegistrationNotPending
	}

	now := time.Now()
	reg.UpdatedBy = &callerID

	switch req.Decision {
	case model.RegistrationStatusApproved:
		if replyLetter == nil {
			return nil, ErrReplyLetterRequired
		}
		key := storage.GenerateKey("reply-letters", replyLetter.OriginalName)
		if err := s.blobs.Upload(ctx, key, replyLetter.ContentType, replyLetter.Reader, replyLetter.Size); err != nil {
			s.logger.Error("上传回复函失败", zap.String("id", id), zap.Error(err))
			return nil, err
		}
		oldKey := reg.ReplyLetterKey
		reg.ReplyLetterKey = &key
		reg.Status = model.RegistrationStatusApproved
		reg.ApprovedAt = &now
		reg.ApprovedBy = &callerID
		reg.RejectedAt = nil
		if req.Comment != "" {
			reg.ReviewComment = &req.Comment
		} else {
			reg.ReviewComment = nil
		}
		if err := s.repo.Registration.Update(ctx, reg); err != nil {
			s.logger.Error("更新申请失败", zap.String("id", id), zap.Error(err))
			return nil, err
		}
		if oldKey != nil {
			s.releaseBlobs([]string{*oldKey})
		}
		s.notify(reg.UserID, &reg.RegistrationID, model.NotificationTypeAccepted,
			"申请已通过", "恭喜，您的实习申请已通过审核，回复函已发放。", reg.Email)

	case model.RegistrationStatusRejected:
		if req.Comment == "" {
			return nil, ErrReviewCommentRequired
		}
		reg.Status = model.RegistrationStatusRejected
		reg.ReviewComment = &req.Comment
		reg.RejectedAt = &now
		reg.ApprovedAt = nil
		reg.ApprovedBy = nil
		if err := s.repo.Registration.Update(ctx, reg); err != nil {
			s.logger.Error("更新申请失败", zap.String("id", id), zap.Error(err))
			return nil, err
		}
		s.notify(reg.UserID, &reg.RegistrationID, model.NotificationTypeRejected,
			"申请未通过", fmt.Sprintf("很遗憾，您的实习申请未通过审核。审核意见：%s", req.Comment), reg.Email)

	case model.RegistrationStatusNeedsCorrection:
		if req.Comment == "" {
			return nil, ErrReviewCommentRequired
		}
		reg.Status = model.RegistrationStatusNeedsCorrection
		reg.ReviewComment = &req.Comment
		if err := s.repo.Registration.Update(ctx, reg); err != nil {
			s.logger.Error("更新申请失败", zap.String("id", id), zap.Error(err))
			return nil, err
		}
		s.notify(reg.UserID, &reg.RegistrationID, model.NotificationTypeNeedCorrection,
			"申请需要修改", fmt.Sprintf("您的实习申请需要修改后重新提交。审核意见：%s", req.Comment), reg.Email)
	}

	return s.toRegistrationResponse(reg), nil
}

// ────────────────────── AssignSupervisor ──────────────────────

// AssignSupervisor 为已通过的申请分配指导老师。
// 换绑时先回减原老师的名额再累加新老师，两次计数与引用更新放在同一事务内。
func (s *registrationService) AssignSupervisor(ctx context.Context, callerID, id string, req *dto.AssignSupervisorRequest) (*dto.RegistrationResponse, error) {
	reg, err := s.getRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.Status != model.RegistrationStatusApproved {
		return nil, ErrRegistrationNotApproved
	}

	sup, err := s.repo.Supervisor.GetByID(ctx, req.SupervisorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupervisorNotFound
		}
		s.logger.Error("查询指导老师失败", zap.String("id", req.SupervisorID), zap.Error(err))
		return nil, err
	}
	if sup.Status != model.SupervisorStatusActive {
		return nil, ErrSupervisorInactive
	}

	if reg.SupervisorID != nil && *reg.SupervisorID == sup.SupervisorID {
		return s.toRegistrationResponse(reg), nil
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	prev := reg.SupervisorID
	reg.SupervisorID = &sup.SupervisorID
	reg.Supervisor = nil
	reg.UpdatedBy = &callerID

	if err := txRepo.Registration.Update(ctx, reg); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if prev != nil {
		if err := txRepo.Supervisor.DecrementStudentCount(ctx, *prev); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("回减指导老师名额失败", zap.String("supervisor_id", *prev), zap.Error(err))
			return nil, err
		}
	}
	if err := txRepo.Supervisor.IncrementStudentCount(ctx, sup.SupervisorID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("累加指导老师名额失败", zap.String("supervisor_id", sup.SupervisorID), zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	reg.Supervisor = sup
	s.notify(reg.UserID, &reg.RegistrationID, model.NotificationTypeApproval,
		"已分配指导老师", fmt.Sprintf("您的实习指导老师为 %s。", sup.Name), reg.Email)

	return s.toRegistrationResponse(reg), nil
}

// ────────────────────── UnassignSupervisor ──────────────────────

func (s *registrationService) UnassignSupervisor(ctx context.Context, callerID, id string) (*dto.RegistrationResponse, error) {
	reg, err := s.getRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.SupervisorID == nil {
		return nil, ErrSupervisorNotAssigned
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	prev := *reg.SupervisorID
	reg.SupervisorID = nil
	reg.Supervisor = nil
	reg.UpdatedBy = &callerID

	if err := txRepo.Registration.Update(ctx, reg); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if err := txRepo.Supervisor.DecrementStudentCount(ctx, prev); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("回减指导老师名额失败", zap.String("supervisor_id", prev), zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	return s.toRegistrationResponse(reg), nil
}

// ────────────────────── UploadFinalReport ──────────────────────

func (s *registrationService) UploadFinalReport(ctx context.Context, userID string, file *dto.FileUpload) (*dto.RegistrationResponse, error) {
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

	key := storage.GenerateKey("final-reports", file.OriginalName)
	if err := s.blobs.Upload(ctx, key, file.ContentType, file.Reader, file.Size); err != nil {
		s.logger.Error("上传结项报告失败", zap.String("id", reg.RegistrationID), zap.Error(err))
		return nil, err
	}

	now := time.Now()
	oldKey := reg.FinalReportKey
	reg.FinalReportKey = &key
	reg.FinalReportUploadedAt = &now
	// 重新上传后需管理员重新校验
	reg.FinalReportVerified = false
	reg.FinalReportVerifiedAt = nil
	reg.UpdatedBy = &userID

	if err := s.repo.Registration.Update(ctx, reg); err != nil {
		s.logger.Error("更新申请失败", zap.String("id", reg.RegistrationID), zap.Error(err))
		return nil, err
	}
	if oldKey != nil {
		s.releaseBlobs([]string{*oldKey})
	}

	return s.toRegistrationResponse(reg), nil
}

// ────────────────────── VerifyFinalReport ──────────────────────

func (s *registrationService) VerifyFinalReport(ctx context.Context, callerID, id string) (*dto.RegistrationResponse, error) {
	reg, err := s.getRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.FinalReportKey == nil {
		return nil, ErrFinalReportMissing
	}

	now := time.Now()
	reg.FinalReportVerified = true
	reg.FinalReportVerifiedAt = &now
	reg.UpdatedBy = &callerID

	if err := s.repo.Registration.Update(ctx, reg); err != nil {
		s.logger.Error("更新申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.notify(reg.UserID, &reg.RegistrationID, model.NotificationTypeDocument,
		"结项报告已校验", "您提交的结项报告已通过管理员校验。", reg.Email)

	return s.toRegistrationResponse(reg), nil
}

// ────────────────────── UploadCertificate ──────────────────────

func (s *registrationService) UploadCertificate(ctx context.Context, callerID, id string, file *dto.FileUpload) (*dto.RegistrationResponse, error) {
	reg, err := s.getRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.Status != model.RegistrationStatusApproved {
		return nil, ErrRegistrationNotApproved
	}
	if !reg.FinalReportVerified {
		return nil, ErrFinalReportNotVerified
	}

	key := storage.GenerateKey("certificates", file.OriginalName)
	if err := s.blobs.Upload(ctx, key, file.ContentType, file.Reader, file.Size); err != nil {
		s.logger.Error("上传证书失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	oldKey := reg.CertificateKey
	reg.CertificateKey = &key
	reg.UpdatedBy = &callerID

	if err := s.repo.Registration.Update(ctx, reg); err != nil {
		s.logger.Error("更新申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if oldKey != nil {
		s.releaseBlobs([]string{*oldKey})
	}

	s.notify(reg.UserID, &reg.RegistrationID, model.NotificationTypeCertificate,
		"实习证书已发放", "您的实习证书已上传，可在申请详情中下载。", reg.Email)

	return s.toRegistrationResponse(reg), nil
}

// ────────────────────── PresignDocument ──────────────────────

// PresignDocument 为申请材料生成预签名下载地址。
// 先按 key 反查所属申请，再按访问规则裁决，避免凭 key 越权下载。
func (s *registrationService) PresignDocument(ctx context.Context, key, callerID, callerRole, callerEmail string) (string, error) {
	reg, err := s.repo.Registration.GetByDocumentKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrDocumentNotFound
		}
		s.logger.Error("查询材料所属申请失败", zap.String("key", key), zap.Error(err))
		return "", err
	}
	if err := s.ensureCanAccess(ctx, reg, callerID, callerRole, callerEmail); err != nil {
		return "", err
	}
	return s.blobs.PresignDownload(ctx, key)
}

// ────────────────────── 内部辅助 ──────────────────────

// ensureCanAccess 申请访问控制：管理员不限；指导老师仅限分配给自己的申请；其余仅限本人
func (s *registrationService) ensureCanAccess(ctx context.Context, reg *model.Registration, callerID, callerRole, callerEmail string) error {
	switch callerRole {
	case model.RoleAdmin:
		return nil
	case model.RoleSupervisor:
		sup, err := s.repo.Supervisor.GetByEmail(ctx, callerEmail)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationForbidden
			}
			s.logger.Error("查询指导老师失败", zap.String("email", callerEmail), zap.Error(err))
			return err
		}
		if reg.SupervisorID == nil || *reg.SupervisorID != sup.SupervisorID {
			return ErrRegistrationForbidden
		}
		return nil
	default:
		if reg.UserID != callerID {
			return ErrRegistrationForbidden
		}
		return nil
	}
}

func (s *registrationService) getRegistration(ctx context.Context, id string) (*model.Registration, error) {
	reg, err := s.repo.Registration.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("查询申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return reg, nil
}

// uploadDocuments 首次提交时上传全部材料并写入 key
func (s *registrationService) uploadDocuments(ctx context.Context, reg *model.Registration, docs *dto.DocumentUploads) error {
	for _, item := range []struct {
		folder string
		file   *dto.FileUpload
		slot   **string
	}{
		{"cover-letters", docs.CoverLetter, &reg.CoverLetterKey},
		{"cvs", docs.CV, &reg.CVKey},
		{"photos", docs.Photo, &reg.PhotoKey},
		{"id-cards", docs.IDCard, &reg.IDCardKey},
		{"transcripts", docs.Transcript, &reg.TranscriptKey},
		{"recommendations", docs.Recommendation, &reg.RecommendationKey},
	} {
		if item.file == nil {
			continue
		}
		key := storage.GenerateKey(item.folder, item.file.OriginalName)
		if err := s.blobs.Upload(ctx, key, item.file.ContentType, item.file.Reader, item.file.Size); err != nil {
			s.logger.Error("上传申请材料失败", zap.String("folder", item.folder), zap.Error(err))
			return err
		}
		*item.slot = &key
	}
	return nil
}

// replaceDocuments 编辑时替换材料：新对象写入成功后才切换引用，
// 返回被替换下来的旧 key，待数据库更新成功后由调用方删除
func (s *registrationService) replaceDocuments(ctx context.Context, reg *model.Registration, docs *dto.DocumentUploads) ([]string, error) {
	var stale []string
	for _, item := range []struct {
		folder string
		file   *dto.FileUpload
		slot   **string
	}{
		{"cover-letters", docs.CoverLetter, &reg.CoverLetterKey},
		{"cvs", docs.CV, &reg.CVKey},
		{"photos", docs.Photo, &reg.PhotoKey},
		{"id-cards", docs.IDCard, &reg.IDCardKey},
		{"transcripts", docs.Transcript, &reg.TranscriptKey},
		{"recommendations", docs.Recommendation, &reg.RecommendationKey},
	} {
		if item.file == nil {
			continue
		}
		key := storage.GenerateKey(item.folder, item.file.OriginalName)
		if err := s.blobs.Upload(ctx, key, item.file.ContentType, item.file.Reader, item.file.Size); err != nil {
			s.logger.Error("上传申请材料失败", zap.String("folder", item.folder), zap.Error(err))
			return nil, err
		}
		if *item.slot != nil {
			stale = append(stale, **item.slot)
		}
		*item.slot = &key
	}
	return stale, nil
}

// releaseBlobs 后台删除不再被引用的对象，失败仅记录日志
func (s *registrationService) releaseBlobs(keys []string) {
	if len(keys) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, key := range keys {
			if err := s.blobs.Delete(ctx, key); err != nil {
				s.logger.Warn("删除旧对象失败", zap.String("key", key), zap.Error(err))
			}
		}
	}()
}

// notify 写入站内通知并异步发送邮件。
// 通知只是工作流的副作用，任何失败都不回滚主流程。
func (s *registrationService) notify(userID string, regID *string, typ, title, content, email string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n := &model.Notification{
		UserID:         userID,
		RegistrationID: regID,
		Type:           typ,
		Title:          title,
		Content:        content,
	}
	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Warn("写入通知失败", zap.String("user_id", userID), zap.Error(err))
	}

	if s.mail == nil || email == "" {
		return
	}
	go func() {
		mctx, mcancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer mcancel()
		if err := s.mail.Send(mctx, email, title, content); err != nil {
			s.logger.Warn("发送通知邮件失败", zap.String("email", email), zap.Error(err))
		}
	}()
}

func applyEdit(reg *model.Registration, req *dto.EditRegistrationRequest) {
	if req.Name != nil {
		reg.Name = *req.Name
	}
	if req.BirthPlace != nil {
		reg.BirthPlace = *req.BirthPlace
	}
	if req.BirthDate != nil {
		reg.BirthDate = *req.BirthDate
	}
	if req.Gender != nil {
		reg.Gender = *req.Gender
	}
	if req.Address != nil {
		reg.Address = *req.Address
	}
	if req.Phone != nil {
		reg.Phone = *req.Phone
	}
	if req.Institution != nil {
		reg.Institution = *req.Institution
	}
	if req.Program != nil {
		reg.Program = *req.Program
	}
	if req.Degree != nil {
		reg.Degree = *req.Degree
	}
	if req.Semester != nil {
		reg.Semester = *req.Semester
	}
	if req.GPA != nil {
		reg.GPA = *req.GPA
	}
	if req.StartDate != nil {
		reg.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		reg.EndDate = *req.EndDate
	}
	if req.Objective != nil {
		reg.Objective = *req.Objective
	}
	if req.Division != nil {
		reg.Division = *req.Division
	}
}

func (s *registrationService) toRegistrationResponse(reg *model.Registration) *dto.RegistrationResponse {
	resp := &dto.RegistrationResponse{
		ID:          reg.RegistrationID,
		Email:       reg.Email,
		Name:        reg.Name,
		BirthPlace:  reg.BirthPlace,
		BirthDate:   reg.BirthDate,
		Gender:      reg.Gender,
		Address:     reg.Address,
		Phone:       reg.Phone,
		Institution: reg.Institution,
		Program:     reg.Program,
		Degree:      reg.Degree,
		Semester:    reg.Semester,
		GPA:         reg.GPA,
		StartDate:   reg.StartDate,
		EndDate:     reg.EndDate,
		Objective:   reg.Objective,
		Division:    reg.Division,

		CoverLetterKey:    reg.CoverLetterKey,
		CVKey:             reg.CVKey,
		PhotoKey:          reg.PhotoKey,
		IDCardKey:         reg.IDCardKey,
		TranscriptKey:     reg.TranscriptKey,
		RecommendationKey: reg.RecommendationKey,
		ReplyLetterKey:    reg.ReplyLetterKey,
		CertificateKey:    reg.CertificateKey,

		Status:        reg.Status,
		ReviewComment: reg.ReviewComment,

		FinalReportKey:      reg.FinalReportKey,
		FinalReportVerified: reg.FinalReportVerified,

		CreatedAt: reg.CreatedAt.Format(time.RFC3339),
		UpdatedAt: reg.UpdatedAt.Format(time.RFC3339),
	}
	if reg.ApprovedAt != nil {
		resp.ApprovedAt = reg.ApprovedAt.Format(time.RFC3339)
	}
	if reg.RejectedAt != nil {
		resp.RejectedAt = reg.RejectedAt.Format(time.RFC3339)
	}
	if reg.FinalReportUploadedAt != nil {
		resp.FinalReportUploadedAt = reg.FinalReportUploadedAt.Format(time.RFC3339)
	}
	if reg.FinalReportVerifiedAt != nil {
		resp.FinalReportVerifiedAt = reg.FinalReportVerifiedAt.Format(time.RFC3339)
	}
	if reg.Supervisor != nil {
		resp.Supervisor = &dto.SupervisorBrief{
			ID:       reg.Supervisor.SupervisorID,
			Name:     reg.Supervisor.Name,
			Division: reg.Supervisor.Division,
		}
	}
	return resp
}

// [自证通过] internal/service/registration_service.go
