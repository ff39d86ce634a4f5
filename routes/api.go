package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mosque/tap2give/services"
	"github.com/mosque/tap2give/utils"
)

type APIRoutes struct {
	provider services.PaymentProvider
	ledger   *services.DonationLedger
	// WebSocket相关：大厅展示屏实时推送
	upgrader   websocket.Upgrader
	clients    map[*websocket.Conn]string // 连接 -> 连接ID
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.Mutex
}

func NewAPIRoutes(provider services.PaymentProvider, ledger *services.DonationLedger) *APIRoutes {
	ar := &APIRoutes{
		provider: provider,
		ledger:   ledger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有来源的WebSocket连接
			},
		},
		clients:    make(map[*websocket.Conn]string),
		broadcast:  make(chan []byte),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}

	// 启动WebSocket处理协程
	go ar.runWebSocketServer()

	return ar
}

// SetupRoutes 设置路由
func (ar *APIRoutes) SetupRoutes(router *gin.Engine) {
	// 路径不匹配HTTP方法时返回405，与终端侧约定一致
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	api := router.Group("/api")
	{
		api.POST("/createConnectionToken", ar.CreateConnectionToken) // 终端连接令牌
		api.POST("/createPaymentIntent", ar.CreatePaymentIntent)     // 创建支付意向
		api.POST("/logDonation", ar.LogDonation)                     // 记录已完成捐款
		api.GET("/getDailySummary", ar.GetDailySummary)              // 当日捐款汇总
	}

	// WebSocket路由，展示屏实时接收新捐款
	router.GET("/ws", ar.WebSocketHandler)

	// 生成捐款页二维码
	router.GET("/qrcode", ar.GenerateQRCode)
}

// CreateConnectionToken 为现场支付终端签发连接令牌
func (ar *APIRoutes) CreateConnectionToken(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	secret, err := ar.provider.CreateConnectionToken(ctx)
	if err != nil {
		log.Printf("Error creating connection token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create connection token",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"secret": secret})
}

// CreatePaymentIntent 创建支付意向（金额单位为美分）
func (ar *APIRoutes) CreatePaymentIntent(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	var req struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}

	// 请求体不合法与金额缺失/非正统一按无效金额处理
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount provided"})
		return
	}

	if req.Currency == "" {
		req.Currency = "usd"
	}

	intent, err := ar.provider.CreatePaymentIntent(ctx, req.Amount, req.Currency)
	if err != nil {
		log.Printf("Error creating PaymentIntent: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create PaymentIntent",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_secret": intent.ClientSecret,
		"id":            intent.ID,
	})
}

// LogDonation 记录一笔已完成捐款。整个系统只有这个入口写台账
func (ar *APIRoutes) LogDonation(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	var req struct {
		Amount          float64 `json:"amount"`
		PaymentIntentID string  `json:"paymentIntentId"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 || req.PaymentIntentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: amount, paymentIntentId"})
		return
	}

	record, err := ar.ledger.LogDonation(ctx, req.Amount, req.PaymentIntentID)
	if err != nil {
		log.Printf("Error logging donation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to log donation",
			"details": err.Error(),
		})
		return
	}

	log.Printf("Donation logged: $%.2f - %s", record.Amount, record.PaymentIntentID)

	// 推送给展示屏
	ar.broadcastDonation(record.Amount, record.PaymentIntentID, record.CreatedAt)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Donation logged successfully",
	})
}

// GetDailySummary 获取当日捐款汇总（本地时区零点为界）
func (ar *APIRoutes) GetDailySummary(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	summary, err := ar.ledger.DailySummary(ctx, time.Now())
	if err != nil {
		log.Printf("Error getting daily summary: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get daily summary",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GenerateQRCode 生成捐款页二维码，展示屏引导手机端捐款
func (ar *APIRoutes) GenerateQRCode(c *gin.Context) {
	host := c.Request.Host

	donateURL := fmt.Sprintf("http://%s/", host)

	// 可选amount参数，预填捐款金额
	if amount := c.Query("amount"); amount != "" {
		donateURL += fmt.Sprintf("?amount=%s", amount)
	}

	qrBytes, err := utils.GenerateQRCode(donateURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "image/png")
	c.Writer.Write(qrBytes)
}

// broadcastDonation 把新捐款序列化后送入广播通道
func (ar *APIRoutes) broadcastDonation(amount float64, paymentIntentID string, createdAt time.Time) {
	message, err := json.Marshal(gin.H{
		"type":            "donation_completed",
		"amount":          amount,
		"paymentIntentId": paymentIntentID,
		"created_at":      createdAt,
		"time":            utils.Now(), // 展示屏直接显示的时间字符串
	})
	if err != nil {
		log.Printf("Error marshaling broadcast message: %v", err)
		return
	}

	// 发送到广播通道，每笔捐款必达；通道由hub协程持续消费
	ar.broadcast <- message
}

// runWebSocketServer 运行WebSocket服务器
func (ar *APIRoutes) runWebSocketServer() {
	log.Printf("WebSocket server started")

	// 定期清理无效连接的定时器
	cleanupTicker := time.NewTicker(30 * time.Second)
	defer cleanupTicker.Stop()

	for {
		select {
		case client := <-ar.register:
			connID := utils.GenerateConnID()
			ar.mutex.Lock()
			ar.clients[client] = connID
			clientCount := len(ar.clients)
			ar.mutex.Unlock()
			log.Printf("WebSocket client %s connected, total: %d", connID, clientCount)

			// 发送初始数据
			go ar.sendInitialData(client)

		case client := <-ar.unregister:
			ar.mutex.Lock()
			if _, ok := ar.clients[client]; ok {
				delete(ar.clients, client)
				client.Close()
			}
			clientCount := len(ar.clients)
			ar.mutex.Unlock()
			log.Printf("WebSocket client disconnected, total: %d", clientCount)

		case message := <-ar.broadcast:
			ar.mutex.Lock()
			for client := range ar.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Printf("Broadcast to client failed: %v", err)
					client.Close()
					delete(ar.clients, client)
				}
			}
			ar.mutex.Unlock()

		case <-cleanupTicker.C:
			// 定期清理无效连接
			ar.cleanupInvalidConnections()
		}
	}
}

// sendInitialData 新连接的展示屏先收到一次当日汇总
func (ar *APIRoutes) sendInitialData(client *websocket.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	summary, err := ar.ledger.DailySummary(ctx, time.Now())
	if err != nil {
		log.Printf("Error loading initial summary: %v", err)
		return
	}

	message, err := json.Marshal(gin.H{
		"type":    "daily_summary",
		"summary": summary,
	})
	if err != nil {
		return
	}

	ar.mutex.Lock()
	defer ar.mutex.Unlock()
	if _, ok := ar.clients[client]; !ok {
		return
	}
	if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
		log.Printf("Initial data send failed: %v", err)
	}
}

// cleanupInvalidConnections 对所有客户端发ping，不可写的连接移除
func (ar *APIRoutes) cleanupInvalidConnections() {
	ar.mutex.Lock()
	defer ar.mutex.Unlock()

	for client := range ar.clients {
		deadline := time.Now().Add(5 * time.Second)
		if err := client.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			log.Printf("Removing unresponsive WebSocket client: %v", err)
			client.Close()
			delete(ar.clients, client)
		}
	}
}

// WebSocketHandler 处理WebSocket连接
func (ar *APIRoutes) WebSocketHandler(c *gin.Context) {
	conn, err := ar.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	// 注册新客户端
	ar.register <- conn

	// 展示屏不上行业务消息，读循环只维持连接
	for {
		messageType, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if messageType == websocket.PingMessage {
			if err := conn.WriteMessage(websocket.PongMessage, nil); err != nil {
				break
			}
		}
	}

	// 注销客户端
	ar.unregister <- conn
}
