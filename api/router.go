package api

import (
	"crypto/subtle"
	"html/template"
	"net/http"
	"strings"

	"github.com/fyerfyer/motorsport-site/api/handler"
	"github.com/fyerfyer/motorsport-site/api/middleware"
	"github.com/fyerfyer/motorsport-site/web"
	"github.com/gin-gonic/gin"
)

// Handlers 路由使用的处理器
type Handlers struct {
	Page    *handler.PageHandler
	SEO     *handler.SEOHandler
	Contact *handler.ContactHandler
	Health  *handler.HealthHandler

	// RevalidateToken 清除缓存接口的令牌，为空时不注册该接口
	RevalidateToken string
}

// SetupRouter 设置路由
// 配置页面、API端点并应用中间件
func SetupRouter(h Handlers, templates *template.Template) *gin.Engine {
	router := gin.New()

	// 应用全局中间件
	router.Use(middleware.SetTraceID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())

	// 在调试模式下记录请求体和响应体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
		router.Use(middleware.ResponseLogger())
	}

	router.SetHTMLTemplate(templates)
	RegisterWebUI(router)

	// 页面
	router.GET("/", h.Page.Home)
	router.GET("/sitemap.xml", h.SEO.Sitemap)
	router.GET("/robots.txt", h.SEO.Robots)
	router.GET("/schedule.pdf", h.Page.SchedulePDF)
	router.GET("/:slug", h.Page.Legal)
	router.NoRoute(h.Page.NotFound)

	// 创建API分组
	api := router.Group("/api")
	api.Use(Cors())
	{
		// 简介切分结果 - GET /api/bio
		api.GET("/bio", h.Page.Bio)

		// 联系表单 - POST /api/contact
		api.POST("/contact", h.Contact.Submit)

		// 投递状态 - GET /api/contact/:id
		api.GET("/contact/:id", h.Contact.Status)

		// 健康检查 - GET /api/health
		api.GET("/health", h.Health.Health)

		// 清除内容缓存 - POST /api/revalidate
		if h.RevalidateToken != "" {
			api.POST("/revalidate", RequireToken(h.RevalidateToken), h.Page.Revalidate)
		}
	}

	return router
}

// RegisterWebUI 注册内嵌的静态资源
func RegisterWebUI(router *gin.Engine) {
	router.StaticFS("/static", http.FS(web.Static()))
}

// RequireToken 校验 Bearer 令牌
func RequireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Next()
	}
}

// Cors 跨域资源共享中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
