package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Escalation: EscalationConfig{
			Keywords:          []string{"plainte"},
			MinConfidence:     0.5,
			SevereSentiment:   -0.7,
			CriticalSentiment: -0.85,
		},
		Social: SocialConfig{
			Hashtags:            []string{"freemobile"},
			MaxRepliesPerAuthor: 2,
		},
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "support-assistant", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.InDelta(t, 0.5, cfg.Escalation.MinConfidence, 1e-9)
	assert.InDelta(t, -0.7, cfg.Escalation.SevereSentiment, 1e-9)
	assert.NotEmpty(t, cfg.Escalation.Keywords)
	assert.NotEmpty(t, cfg.Escalation.LegalKeywords)
	assert.False(t, cfg.Social.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Social.DedupWindow())
	assert.Equal(t, time.Hour, cfg.Social.ReplyWindow())
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ESCALATION_KEYWORDS", "refund, complaint ,legal action")
	t.Setenv("ESCALATION_MIN_CONFIDENCE", "0.35")
	t.Setenv("SOCIAL_WATCH_ENABLED", "true")
	t.Setenv("SOCIAL_HASHTAGS", "acmesupport")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"refund", "complaint", "legal action"}, cfg.Escalation.Keywords)
	assert.InDelta(t, 0.35, cfg.Escalation.MinConfidence, 1e-9)
	assert.True(t, cfg.Social.Enabled)
	assert.Equal(t, []string{"acmesupport"}, cfg.Social.Hashtags)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadRejectsBlankKeywordVocabulary(t *testing.T) {
	t.Setenv("ESCALATION_KEYWORDS", " , ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ESCALATION_KEYWORDS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config passes",
			mutate: func(*Config) {},
		},
		{
			name:    "empty keyword vocabulary",
			mutate:  func(c *Config) { c.Escalation.Keywords = nil },
			wantErr: "ESCALATION_KEYWORDS",
		},
		{
			name:    "confidence above one",
			mutate:  func(c *Config) { c.Escalation.MinConfidence = 1.2 },
			wantErr: "ESCALATION_MIN_CONFIDENCE",
		},
		{
			name:    "severe sentiment positive",
			mutate:  func(c *Config) { c.Escalation.SevereSentiment = 0.3 },
			wantErr: "ESCALATION_SEVERE_SENTIMENT",
		},
		{
			name:    "critical sentiment above severe",
			mutate:  func(c *Config) { c.Escalation.CriticalSentiment = -0.5 },
			wantErr: "ESCALATION_CRITICAL_SENTIMENT",
		},
		{
			name: "watch loop without hashtags",
			mutate: func(c *Config) {
				c.Social.Enabled = true
				c.Social.Hashtags = nil
			},
			wantErr: "SOCIAL_HASHTAGS",
		},
		{
			name: "watch loop without reply budget",
			mutate: func(c *Config) {
				c.Social.Enabled = true
				c.Social.MaxRepliesPerAuthor = 0
			},
			wantErr: "SOCIAL_MAX_REPLIES_PER_AUTHOR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
