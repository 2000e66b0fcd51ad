package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"simagang/backend/config"
	"simagang/backend/internal/api/handler"
	"simagang/backend/internal/api/middleware"
	"simagang/backend/internal/model"
	"simagang/backend/pkg/jwt"
	"simagang/backend/pkg/redis"
)

// 上传接口请求体上限（申请材料、日志报告等 multipart 表单）
const maxUploadBytes = 20 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	upload := middleware.BodyLimit(maxUploadBytes)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，限流防止验证码 / 密码爆破）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/verify-otp", h.Auth.VerifyOTP)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/forgot-password", h.Auth.ForgotPassword)
			auth.POST("/reset-password", h.Auth.ResetPassword)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/profile", h.Auth.GetProfile)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 申请模块
			registrations := authorized.Group("/registrations")
			{
				// 申请人侧
				registrations.POST("", middleware.RoleAuth(model.RoleApplicant), upload, h.Registration.Submit)
				registrations.GET("/me", middleware.RoleAuth(model.RoleApplicant), h.Registration.GetMine)
				registrations.PUT("/me", middleware.RoleAuth(model.RoleApplicant), upload, h.Registration.Edit)
				registrations.POST("/me/final-report", middleware.RoleAuth(model.RoleApplicant), upload, h.Registration.UploadFinalReport)

				// 材料下载（预签名 URL，Service 层按 key 归属鉴权）
				registrations.GET("/documents", h.Registration.DownloadDocument)

				// 管理员侧
				registrations.GET("", middleware.RoleAuth(model.RoleAdmin), h.Registration.List)
				// 指导老师仅能查看分配给自己的申请，Service 层校验
				registrations.GET("/:id", middleware.RoleAuth(model.RoleAdmin, model.RoleSupervisor), h.Registration.Get)
				registrations.PUT("/:id/decision", middleware.RoleAuth(model.RoleAdmin), upload, h.Registration.Decide)
				registrations.PUT("/:id/supervisor", middleware.RoleAuth(model.RoleAdmin), h.Registration.AssignSupervisor)
				registrations.DELETE("/:id/supervisor", middleware.RoleAuth(model.RoleAdmin), h.Registration.UnassignSupervisor)
				registrations.PUT("/:id/final-report/verify", middleware.RoleAuth(model.RoleAdmin), h.Registration.VerifyFinalReport)
				registrations.POST("/:id/certificate", middleware.RoleAuth(model.RoleAdmin), upload, h.Registration.UploadCertificate)

				// 按申请查日志（管理员 / 被分配老师 / 申请人本人，Service 层鉴权）
				registrations.GET("/:id/logbooks", h.Logbook.ListForRegistration)
			}

			// 指导老师模块
			supervisors := authorized.Group("/supervisors")
			{
				supervisors.GET("/me/students", middleware.RoleAuth(model.RoleSupervisor), h.Supervisor.GetMyStudents)

				supervisors.POST("", middleware.RoleAuth(model.RoleAdmin), h.Supervisor.Create)
				supervisors.GET("", middleware.RoleAuth(model.RoleAdmin), h.Supervisor.List)
				supervisors.GET("/:id", middleware.RoleAuth(model.RoleAdmin), h.Supervisor.Get)
				supervisors.PUT("/:id", middleware.RoleAuth(model.RoleAdmin), h.Supervisor.Update)
				supervisors.PUT("/:id/status", middleware.RoleAuth(model.RoleAdmin), h.Supervisor.SetStatus)
				supervisors.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.Supervisor.Delete)
				supervisors.GET("/:id/students", middleware.RoleAuth(model.RoleAdmin), h.Supervisor.GetStudents)
			}

			// 实习日志模块
			logbooks := authorized.Group("/logbooks")
			{
				logbooks.POST("", middleware.RoleAuth(model.RoleApplicant), upload, h.Logbook.Create)
				logbooks.GET("/me", middleware.RoleAuth(model.RoleApplicant), h.Logbook.ListMine)
				logbooks.DELETE("/:id", middleware.RoleAuth(model.RoleApplicant), h.Logbook.Delete)
				logbooks.PUT("/:id/comment", middleware.RoleAuth(model.RoleSupervisor), h.Logbook.Comment)
				logbooks.PUT("/:id/approve", middleware.RoleAuth(model.RoleSupervisor), h.Logbook.Approve)
			}

			// 通知模块
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListMine)
				notifications.GET("/unread-count", h.Notification.CountUnread)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/registrations", middleware.RoleAuth(model.RoleAdmin), h.Export.ExportRegistrations)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
