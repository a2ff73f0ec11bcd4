package squeeze

import "testing"

func TestNewRelayConfigBuilder_Defaults(t *testing.T) {
	cfg := NewRelayConfigBuilder().Build()

	if cfg.BitrateKbps != 300 {
		t.Errorf("expected bitrate 300, got %d", cfg.BitrateKbps)
	}
	if cfg.Preset != "slow" {
		t.Errorf("expected preset slow, got %q", cfg.Preset)
	}
	if cfg.CRF != 28 {
		t.Errorf("expected CRF 28, got %d", cfg.CRF)
	}
	if cfg.Codec != "libx264" {
		t.Errorf("expected codec libx264, got %q", cfg.Codec)
	}
	if cfg.QueueDepth != 4 {
		t.Errorf("expected queue depth 4, got %d", cfg.QueueDepth)
	}
}

func TestNewTranscodeConfigBuilder_Defaults(t *testing.T) {
	cfg := NewTranscodeConfigBuilder().Build()

	if cfg.BitrateKbps != 1000 {
		t.Errorf("expected bitrate 1000, got %d", cfg.BitrateKbps)
	}
	if cfg.Preset != "slow" || cfg.CRF != 28 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigBuilder_Chaining(t *testing.T) {
	cfg := NewRelayConfigBuilder().
		WithCodec("libx264").
		WithBitrate(MbpsToKbps(1.5)).
		WithPreset("veryfast").
		WithCRF(23).
		WithQueueDepth(8).
		WithKeepPartial(true).
		WithProbeOutput(true).
		Build()

	if cfg.BitrateKbps != 1500 {
		t.Errorf("expected bitrate 1500, got %d", cfg.BitrateKbps)
	}
	if cfg.Preset != "veryfast" || cfg.CRF != 23 || cfg.QueueDepth != 8 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.KeepPartial || !cfg.ProbeOutput {
		t.Error("expected KeepPartial and ProbeOutput")
	}
}

func TestConfigBuilder_Constraints(t *testing.T) {
	cfg := NewRelayConfigBuilder().WithCRF(70).WithQueueDepth(0).WithBitrate(-5).Build()

	if cfg.CRF != 51 {
		t.Errorf("expected CRF clamped to 51, got %d", cfg.CRF)
	}
	if cfg.QueueDepth != 1 {
		t.Errorf("expected queue depth forced to 1, got %d", cfg.QueueDepth)
	}
	if cfg.BitrateKbps != 0 {
		t.Errorf("expected negative bitrate to become unset, got %d", cfg.BitrateKbps)
	}

	cfg = NewRelayConfigBuilder().WithCRF(-3).Build()
	if cfg.CRF != 0 {
		t.Errorf("expected CRF clamped to 0, got %d", cfg.CRF)
	}
}

func TestQualityPresets(t *testing.T) {
	tests := []struct {
		preset QualityPreset
		crf    int
	}{
		{QualityLow, 35},
		{QualityMedium, 28},
		{QualityHigh, 20},
		{"unknown", 28},
	}
	for _, tt := range tests {
		cfg := NewTranscodeConfigBuilder().WithQualityPreset(tt.preset).Build()
		if cfg.CRF != tt.crf {
			t.Errorf("preset %q: expected CRF %d, got %d", tt.preset, tt.crf, cfg.CRF)
		}
	}
}

func TestConfig_ToOrchestratorConfigs(t *testing.T) {
	cfg := NewTranscodeConfigBuilder().WithCheckInput(true).Build()

	tc := cfg.ToTranscodeConfig("in.h264", "out.h264")
	if tc.InputPath != "in.h264" || tc.OutputPath != "out.h264" {
		t.Errorf("unexpected paths: %+v", tc)
	}
	if tc.Settings.BitrateKbps != 1000 || !tc.CheckInput {
		t.Errorf("unexpected transcode config: %+v", tc)
	}

	rc := NewRelayConfigBuilder().Build().ToRelayConfig("a.h264", "b.h264")
	if rc.Settings.BitrateKbps != 300 || rc.QueueDepth != 4 {
		t.Errorf("unexpected relay config: %+v", rc)
	}
}
