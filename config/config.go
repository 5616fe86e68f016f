package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for the story video pipeline.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Scripts   ScriptsConfig   `yaml:"scripts"`
	Voice     VoiceConfig     `yaml:"voice"`
	Images    ImagesConfig    `yaml:"images"`
	Video     VideoConfig     `yaml:"video"`
	Subtitles SubtitlesConfig `yaml:"subtitles"`
	Mongo     MongoConfig     `yaml:"mongo"`
}

type ServerConfig struct {
	Port         string `yaml:"port"`
	SessionsRoot string `yaml:"sessions_root"`
}

type ScriptsConfig struct {
	GroqAPIKey string `yaml:"groq_api_key"`
	Model      string `yaml:"model"`
}

type VoiceConfig struct {
	DefaultVoice string `yaml:"default_voice"`
	Rate         string `yaml:"rate"`
	VoicesFile   string `yaml:"voices_file"`
}

type ImagesConfig struct {
	HFToken        string `yaml:"hf_token"`
	InferenceModel string `yaml:"inference_model"`
	FallbackSpace  string `yaml:"fallback_space"`
}

type VideoConfig struct {
	HFTokenVideo   string        `yaml:"hf_token_video"`
	Space          string        `yaml:"space"`
	GenWaitSeconds time.Duration `yaml:"-"`
	GenMaxRetries  int           `yaml:"gen_max_retries"`
	FPS            int           `yaml:"fps"`
	Codec          string        `yaml:"codec"`
}

type SubtitlesConfig struct {
	WhisperURL   string `yaml:"whisper_url"`
	WhisperModel string `yaml:"whisper_model"`
	Language     string `yaml:"language"`
	Font         string `yaml:"font"`
	MarginBottom int    `yaml:"margin_bottom"`
	StrokeWidth  int    `yaml:"stroke_width"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// Load reads config.yaml (if present) and applies environment overrides.
// A missing file is not an error; defaults plus env are enough to run.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8090",
			SessionsRoot: "sessions",
		},
		Scripts: ScriptsConfig{
			Model: "meta-llama/llama-4-scout-17b-16e-instruct",
		},
		Voice: VoiceConfig{
			DefaultVoice: "en-US-AriaNeural",
			Rate:         "+10%",
			VoicesFile:   "voices.json",
		},
		Images: ImagesConfig{
			InferenceModel: "Qwen/Qwen-Image",
			FallbackSpace:  "multimodalart/Qwen-Image-Fast",
		},
		Video: VideoConfig{
			Space:          "end9214/wan2-2-fp8da-aoti-faster",
			GenWaitSeconds: 10 * time.Second,
			GenMaxRetries:  5,
			FPS:            24,
			Codec:          "libx264",
		},
		Subtitles: SubtitlesConfig{
			WhisperURL:   "http://localhost:8086",
			WhisperModel: "ggml-base.bin",
			Font:         "Segoe UI",
			MarginBottom: 40,
			StrokeWidth:  2,
		},
		Mongo: MongoConfig{
			Database: "story_video",
		},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("SESSIONS_ROOT"); v != "" {
		c.Server.SessionsRoot = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		c.Scripts.GroqAPIKey = v
	}
	if v := os.Getenv("HF_TOKEN"); v != "" {
		c.Images.HFToken = v
	}
	if v := os.Getenv("HF_TOKEN_VIDEO"); v != "" {
		c.Video.HFTokenVideo = v
	}
	if v := os.Getenv("EDGE_TTS_VOICE"); v != "" {
		c.Voice.DefaultVoice = v
	}
	if v := os.Getenv("WHISPER_URL"); v != "" {
		c.Subtitles.WhisperURL = v
	}
	if v := os.Getenv("WHISPER_MODEL"); v != "" {
		c.Subtitles.WhisperModel = v
	}
	if v := os.Getenv("WHISPER_LANG"); v != "" {
		c.Subtitles.Language = v
	}
	if v := os.Getenv("SUBTITLES_FONT"); v != "" {
		c.Subtitles.Font = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("MONGODB_DATABASE"); v != "" {
		c.Mongo.Database = v
	}
	if v := os.Getenv("VIDEO_GEN_WAIT_SECONDS"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
			c.Video.GenWaitSeconds = time.Duration(secs * float64(time.Second))
		}
	}
	if v := os.Getenv("VIDEO_GEN_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Video.GenMaxRetries = n
		}
	}
}

// MissingEnv reports which credentials are absent so main can warn at startup.
func (c *Config) MissingEnv() []string {
	var missing []string
	if c.Scripts.GroqAPIKey == "" {
		missing = append(missing, "GROQ_API_KEY (LLM)")
	}
	if c.Images.HFToken == "" {
		missing = append(missing, "HF_TOKEN (image generation)")
	}
	if c.Video.HFTokenVideo == "" {
		missing = append(missing, "HF_TOKEN_VIDEO (image-to-video)")
	}
	return missing
}
