package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tutorlink/backend/config"
	"tutorlink/backend/internal/api/handler"
	"tutorlink/backend/internal/api/middleware"
	"tutorlink/backend/internal/model"
	"tutorlink/backend/pkg/jwt"
	"tutorlink/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录接口限流）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 每周课表模块
			schedule := authorized.Group("/schedule")
			{
				schedule.GET("/me", middleware.RoleAuth(model.RoleTeacher), h.Schedule.GetMySchedule)
				schedule.PUT("/me", middleware.RoleAuth(model.RoleTeacher), h.Schedule.ReplaceMySchedule)
				schedule.POST("/me/conflicts", middleware.RoleAuth(model.RoleTeacher), h.Schedule.ScanConflicts)
			}

			// 学生查看教师课表
			authorized.GET("/teachers/:id/schedule", h.Schedule.GetTeacherSchedule)

			// 预约模块
			reservations := authorized.Group("/reservations")
			{
				reservations.POST("", middleware.RoleAuth(model.RoleStudent), h.Reservation.Create)
				reservations.GET("", h.Reservation.List)
				reservations.GET("/:id", h.Reservation.Get)
				reservations.POST("/:id/confirm", middleware.RoleAuth(model.RoleTeacher), h.Reservation.Confirm)
				reservations.POST("/:id/reject", middleware.RoleAuth(model.RoleTeacher), h.Reservation.Reject)
				reservations.POST("/:id/complete", h.Reservation.Complete)
				reservations.POST("/:id/cancel", h.Reservation.Cancel)
			}

			// 内部接口（评价超期流转，供后台任务或管理端调用）
			internal := authorized.Group("/internal", middleware.RoleAuth(model.RoleAdmin))
			{
				internal.POST("/reservations/:id/overdue", h.Reservation.MarkOverdue)
				internal.POST("/reservations/:id/review", h.Reservation.ReviewSubmitted)
			}

			// 日历模块
			authorized.GET("/calendar", h.Calendar.GetCalendar)

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/calendar.xlsx", h.Export.ExportCalendarXLSX)
				export.GET("/reservations.ics", h.Export.ExportReservationsICS)
			}
		}
	}

	return r
}
