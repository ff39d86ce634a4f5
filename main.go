package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	gzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/mosque/tap2give/routes"
	"github.com/mosque/tap2give/services"
	"github.com/mosque/tap2give/utils"
	"github.com/spf13/viper"
)

func main() {
	// 获取当前执行文件的目录
	execDir, err := filepath.Abs(filepath.Dir(os.Args[0]))
	if err != nil {
		log.Fatalf("Failed to get exec dir: %v", err)
	}

	// 优先从当前工作目录加载配置文件
	viper.SetConfigFile("config.yaml")
	if err := viper.ReadInConfig(); err != nil {
		// 如果当前目录找不到，再尝试从执行文件目录查找
		viper.SetConfigFile(filepath.Join(execDir, "config.yaml"))
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("Failed to read config: %v", err)
		}
	}

	// Stripe密钥只从环境变量或配置读取，不硬编码
	viper.BindEnv("stripe.secret_key", "STRIPE_SECRET_KEY")

	// 初始化数据库
	dbConnected := false
	if err := utils.InitDatabase(
		viper.GetString("mysql.host"),
		viper.GetString("mysql.user"),
		viper.GetString("mysql.password"),
		viper.GetString("mysql.dbname"),
		viper.GetInt("mysql.port"),
	); err != nil {
		log.Printf("Warning: Database connection failed: %v", err)
		log.Printf("Server will start with in-memory ledger, records are lost on restart")
	} else {
		dbConnected = true
		utils.MigrateDatabase()
		log.Printf("Database connected successfully")
	}

	// 台账存储：数据库可用时走MySQL，否则降级为内存存储
	var store services.LedgerStore
	if dbConnected {
		store = services.NewGormLedgerStore(utils.DB)
	} else {
		store = services.NewMemoryLedgerStore()
	}
	ledger := services.NewDonationLedger(store)

	// 支付服务：有真实Stripe密钥时对接Stripe，否则使用模拟服务
	var provider services.PaymentProvider
	secretKey := viper.GetString("stripe.secret_key")
	if services.IsPlaceholderKey(secretKey) {
		log.Printf("Warning: No Stripe secret key configured, using simulated payment provider")
		provider = services.NewSimulatedProvider()
	} else {
		provider = services.NewStripeProvider(services.StripeConfig{SecretKey: secretKey})
		log.Printf("Stripe payment provider initialized")
	}

	// 设置 GIN 为生产模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 设置可信代理，消除安全警告
	router.SetTrustedProxies([]string{"127.0.0.1"})

	router.Use(gin.Recovery())

	// 添加gzip压缩中间件
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 添加安全头部和CORS中间件
	router.Use(func(c *gin.Context) {
		// 安全头部
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")

		// CORS配置，捐款箱App跨域调用
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// 处理OPTIONS请求
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 初始化 API 路由
	apiRoutes := routes.NewAPIRoutes(provider, ledger)
	apiRoutes.SetupRoutes(router)

	// 配置 HTTP 服务器
	port := viper.GetInt("server.port")
	addr := fmt.Sprintf(":%d", port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server running on http://localhost%s", addr)
	log.Printf("Server mode: %s", gin.Mode())

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
