package api

import (
	"net/http"

	"github.com/ah-its-andy/docconvert/internal/config"
	"github.com/ah-its-andy/docconvert/internal/convert"
	"github.com/ah-its-andy/docconvert/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const apiVersion = "1.0.0"

type Server struct {
	router  *gin.Engine
	cfg     *config.Config
	store   storage.Store
	disp    *convert.Dispatcher
	sweeper *storage.Sweeper // optional inline sweep trigger
	log     *zap.SugaredLogger
}

func NewServer(cfg *config.Config, store storage.Store, disp *convert.Dispatcher, sweeper *storage.Sweeper, log *zap.SugaredLogger) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.New()
	g.Use(gin.Recovery())

	s := &Server{router: g, cfg: cfg, store: store, disp: disp, sweeper: sweeper, log: log}
	g.Use(corsMiddleware())

	g.GET("/", s.handleIndex)
	api := g.Group("/api")
	api.GET("/formats", s.handleFormats)
	api.POST("/convert", s.handleConvert)
	api.GET("/download/:file_id", s.handleDownload)
	api.GET("/system-check", s.handleSystemCheck)
	api.GET("/list-files", s.handleListFiles)

	return s
}

// Router exposes the gin engine for tests and for embedding in an http.Server.
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) Run() error {
	s.log.Infow("http server listening", "addr", s.cfg.Addr())
	return s.router.Run(s.cfg.Addr())
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
