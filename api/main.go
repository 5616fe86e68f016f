// The api server exposes the idea-to-video pipeline over HTTP: create a
// session, generate candidate scripts, pick one and run it, then poll status
// and download the finished videos.
package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"story_video_automation/config"
	"story_video_automation/imagegen"
	"story_video_automation/llm"
	"story_video_automation/media"
	"story_video_automation/pipeline"
	"story_video_automation/session"
	"story_video_automation/transcribe"
	"story_video_automation/tts"
	"story_video_automation/videogen"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	for _, missing := range cfg.MissingEnv() {
		log.Printf("⚠️ Missing credential: %s", missing)
	}

	store, err := session.NewStore(cfg.Server.SessionsRoot)
	if err != nil {
		log.Fatalf("❌ Failed to prepare sessions root: %v", err)
	}

	var catalog *session.Catalog
	if cfg.Mongo.URI != "" {
		catalog, err = session.NewCatalog(context.Background(), cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Printf("⚠️ Session catalog unavailable, continuing without MongoDB: %v", err)
			catalog = nil
		} else {
			log.Println("📊 Session catalog connected")
			defer catalog.Close(context.Background())
		}
	}

	editor := &media.Editor{
		FPS:          cfg.Video.FPS,
		Codec:        cfg.Video.Codec,
		Font:         cfg.Subtitles.Font,
		MarginBottom: cfg.Subtitles.MarginBottom,
		StrokeWidth:  cfg.Subtitles.StrokeWidth,
	}
	spaceImages := imagegen.NewSpaceGenerator(cfg.Images.FallbackSpace, cfg.Images.HFToken)
	inferenceImages := imagegen.NewInferenceGenerator(cfg.Images.HFToken, cfg.Images.InferenceModel)

	runner := &pipeline.Runner{
		Store:      store,
		Catalog:    catalog,
		Scripts:    llm.NewClient(cfg.Scripts.GroqAPIKey, cfg.Scripts.Model),
		Prompts:    llm.NewClient(cfg.Scripts.GroqAPIKey, cfg.Scripts.Model),
		Narrator:   tts.NewClient(cfg.Voice.Rate),
		Images:     spaceImages,
		ImagesSafe: &imagegen.Fallback{Primary: inferenceImages, Secondary: spaceImages},
		Videos:     videogen.NewClient(cfg.Video.Space, cfg.Video.HFTokenVideo),
		Transcribe: transcribe.NewClient(cfg.Subtitles.WhisperURL, cfg.Subtitles.WhisperModel, cfg.Subtitles.Language),
		Editor:     editor,

		DefaultVoice: cfg.Voice.DefaultVoice,
		RetryWait:    cfg.Video.GenWaitSeconds,
		MaxRetries:   cfg.Video.GenMaxRetries,
	}

	srv := &server{
		cfg:     cfg,
		store:   store,
		catalog: catalog,
		runner:  runner,
		voices:  tts.LoadCatalog(cfg.Voice.VoicesFile),
	}

	r := srv.routes()

	log.Printf("🚀 Story video server starting on port %s", cfg.Server.Port)
	log.Printf("📂 Sessions root: %s", cfg.Server.SessionsRoot)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}

func (s *server) routes() *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/health", s.health)
	api := r.Group("/api")
	{
		api.POST("/sessions", s.createSession)
		api.POST("/scripts", s.generateScripts)
		api.POST("/sessions/:id/run", s.runSession)
		api.GET("/sessions", s.listSessions)
		api.GET("/sessions/:id", s.sessionStatus)
		api.GET("/sessions/:id/download/:kind", s.downloadVideo)
		api.GET("/sessions/:id/artifact/*relpath", s.downloadArtifact)
		api.GET("/voices", s.listVoices)
	}
	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
