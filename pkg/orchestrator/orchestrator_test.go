package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/squeeze/pkg/adapters/osfilesystem"
	"github.com/user/squeeze/pkg/mocks"
	"github.com/user/squeeze/pkg/pipeline"
	"github.com/user/squeeze/pkg/ports"
)

// mockProbeStage is a mock for the probe stage.
type mockProbeStage struct {
	result pipeline.ProbeResult
	err    error
	calls  []pipeline.ProbeInput
}

func (m *mockProbeStage) Execute(ctx context.Context, input pipeline.ProbeInput) (pipeline.ProbeResult, error) {
	m.calls = append(m.calls, input)
	if m.err != nil {
		return pipeline.ProbeResult{}, m.err
	}
	return m.result, nil
}

// mockRelayStage is a mock for the relay stage. When fs is set it writes
// the output file like a real encoder would.
type mockRelayStage struct {
	result pipeline.RelayResult
	err    error
	fs     *mocks.FileSystem
	calls  []pipeline.RelayInput
}

func (m *mockRelayStage) Execute(ctx context.Context, input pipeline.RelayInput) (pipeline.RelayResult, error) {
	m.calls = append(m.calls, input)
	if m.fs != nil {
		m.fs.WriteFile(input.OutputPath, []byte("partial-h264"))
	}
	if m.err != nil {
		return m.result, m.err
	}
	return m.result, nil
}

// mockTranscodeStage is a mock for the transcode stage.
type mockTranscodeStage struct {
	err     error
	fs      *mocks.FileSystem
	payload []byte
	calls   []pipeline.TranscodeInput
}

func (m *mockTranscodeStage) Execute(ctx context.Context, input pipeline.TranscodeInput) (pipeline.TranscodeResult, error) {
	m.calls = append(m.calls, input)
	if m.fs != nil {
		m.fs.WriteFile(input.OutputPath, m.payload)
	}
	if m.err != nil {
		return pipeline.TranscodeResult{}, m.err
	}
	return pipeline.TranscodeResult{Elapsed: 10 * time.Millisecond}, nil
}

var inputDescriptor = ports.StreamDescriptor{
	Codec:       "h264",
	Width:       640,
	Height:      480,
	FrameRate:   ports.Rational{Num: 30, Den: 1},
	PixelFormat: "yuv420p",
}

var relaySettings = ports.EncoderSettings{Codec: "libx264", BitrateKbps: 300, Preset: "slow", CRF: 28}

func relayConfig() RelayConfig {
	return RelayConfig{
		InputPath:  "San Andreas/gtaSA.h264",
		OutputPath: "San Andreas/compressed_SA.h264",
		Settings:   relaySettings,
		QueueDepth: 4,
	}
}

func TestOrchestrator_RunRelay(t *testing.T) {
	fs := mocks.NewFileSystem()
	log := mocks.NewLogger()
	probeStage := &mockProbeStage{result: pipeline.ProbeResult{Descriptor: inputDescriptor}}
	relayStage := &mockRelayStage{
		result: pipeline.RelayResult{Frames: 300, Bytes: 300 * 460800},
		fs:     fs,
	}
	outDesc := inputDescriptor
	prober := &mocks.Prober{Descriptor: outDesc}

	orch := New(probeStage, relayStage, &mockTranscodeStage{}, prober, fs, log)

	config := relayConfig()
	config.ProbeOutput = true
	result, err := orch.RunRelay(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(probeStage.calls) != 1 || !probeStage.calls[0].RequireH264 {
		t.Errorf("expected one H.264-only probe, got %+v", probeStage.calls)
	}
	if len(relayStage.calls) != 1 {
		t.Fatalf("expected one relay, got %d", len(relayStage.calls))
	}
	in := relayStage.calls[0]
	if in.Descriptor.Width != 640 || in.Settings.BitrateKbps != 300 || in.QueueDepth != 4 {
		t.Errorf("unexpected relay input: %+v", in)
	}

	if !fs.HasDir("San Andreas") {
		t.Error("expected output directory to be created")
	}

	if result.Flow != FlowRelay || result.Frames != 300 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Input == nil || result.Input.Width != 640 {
		t.Errorf("expected input descriptor in result, got %+v", result.Input)
	}
	if result.Output == nil {
		t.Error("expected output descriptor when ProbeOutput is set")
	}
	if result.OutputSize != int64(len("partial-h264")) {
		t.Errorf("expected output size, got %d", result.OutputSize)
	}

	if !log.Contains("Video width: 640, height: 480, fps: 30") {
		t.Error("expected descriptor to be logged")
	}
	if !log.Contains("Compressed video saved as San Andreas/compressed_SA.h264") {
		t.Error("expected output path to be logged")
	}
}

func TestOrchestrator_RunRelay_ProbeFailure(t *testing.T) {
	fs := mocks.NewFileSystem()
	probeStage := &mockProbeStage{err: errors.New("ffprobe: no video stream")}
	relayStage := &mockRelayStage{fs: fs}

	orch := New(probeStage, relayStage, &mockTranscodeStage{}, &mocks.Prober{}, fs, mocks.NewLogger())

	_, err := orch.RunRelay(context.Background(), relayConfig())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(relayStage.calls) != 0 {
		t.Error("relay must not start when probing fails")
	}
	if len(fs.GetAllFiles()) != 0 {
		t.Error("no output may be created when probing fails")
	}
	if fs.HasDir("San Andreas") {
		t.Error("output directory should not be created when probing fails")
	}
}

func TestOrchestrator_RunRelay_FailureRemovesPartialOutput(t *testing.T) {
	fs := mocks.NewFileSystem()
	log := mocks.NewLogger()
	probeStage := &mockProbeStage{result: pipeline.ProbeResult{Descriptor: inputDescriptor}}
	relayErr := &ports.ProcessError{Role: "encoder", Err: errors.New("exit status 1"), Stderr: "Conversion failed!"}
	relayStage := &mockRelayStage{
		result: pipeline.RelayResult{Frames: 12},
		err:    relayErr,
		fs:     fs,
	}

	orch := New(probeStage, relayStage, &mockTranscodeStage{}, &mocks.Prober{}, fs, log)

	result, err := orch.RunRelay(context.Background(), relayConfig())
	if !errors.Is(err, relayErr) {
		t.Fatalf("expected relay error, got %v", err)
	}
	if result.Frames != 12 {
		t.Errorf("expected partial frame count, got %d", result.Frames)
	}
	if _, ok := fs.GetFile("San Andreas/compressed_SA.h264"); ok {
		t.Error("expected partial output to be removed")
	}
	if !log.Contains("Removed partial output") {
		t.Error("expected removal to be logged")
	}
}

func TestOrchestrator_RunRelay_KeepPartial(t *testing.T) {
	fs := mocks.NewFileSystem()
	probeStage := &mockProbeStage{result: pipeline.ProbeResult{Descriptor: inputDescriptor}}
	relayStage := &mockRelayStage{err: errors.New("broken pipe"), fs: fs}

	orch := New(probeStage, relayStage, &mockTranscodeStage{}, &mocks.Prober{}, fs, mocks.NewLogger())

	config := relayConfig()
	config.KeepPartial = true
	if _, err := orch.RunRelay(context.Background(), config); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := fs.GetFile("San Andreas/compressed_SA.h264"); !ok {
		t.Error("expected partial output to be kept")
	}
}

func TestOrchestrator_RunRelay_TrailingBytesWarned(t *testing.T) {
	fs := mocks.NewFileSystem()
	log := mocks.NewLogger()
	probeStage := &mockProbeStage{result: pipeline.ProbeResult{Descriptor: inputDescriptor}}
	relayStage := &mockRelayStage{result: pipeline.RelayResult{Frames: 2, TrailingBytes: 100}, fs: fs}

	orch := New(probeStage, relayStage, &mockTranscodeStage{}, &mocks.Prober{}, fs, log)

	result, err := orch.RunRelay(context.Background(), relayConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TrailingBytes != 100 {
		t.Errorf("expected trailing bytes in result, got %d", result.TrailingBytes)
	}

	found := false
	for _, e := range log.Entries() {
		if e.Level == ports.LevelWarn && e.Key == "Dropped %d trailing bytes (incomplete frame)" {
			found = true
		}
	}
	if !found {
		t.Error("expected trailing bytes warning")
	}
}

func TestOrchestrator_RunRelay_OutputProbeFailureIsNotFatal(t *testing.T) {
	fs := mocks.NewFileSystem()
	log := mocks.NewLogger()
	probeStage := &mockProbeStage{result: pipeline.ProbeResult{Descriptor: inputDescriptor}}
	prober := &mocks.Prober{
		ProbeFunc: func(ctx context.Context, path string) (ports.StreamDescriptor, error) {
			return ports.StreamDescriptor{}, errors.New("moov atom not found")
		},
	}

	orch := New(probeStage, &mockRelayStage{fs: fs}, &mockTranscodeStage{}, prober, fs, log)

	config := relayConfig()
	config.ProbeOutput = true
	result, err := orch.RunRelay(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != nil {
		t.Error("expected no output descriptor")
	}
	if !log.Contains("Could not probe output") {
		t.Error("expected output probe warning")
	}
}

func transcodeConfig() TranscodeConfig {
	return TranscodeConfig{
		InputPath:  "San Andreas/gtaSA_og.h264",
		OutputPath: "San Andreas/compressed_gtaSA.h264",
		Settings:   ports.EncoderSettings{Codec: "libx264", BitrateKbps: 1000, Preset: "slow", CRF: 28},
	}
}

func TestOrchestrator_RunTranscode(t *testing.T) {
	fs := mocks.NewFileSystem()
	probeStage := &mockProbeStage{}
	relayStage := &mockRelayStage{}
	transcodeStage := &mockTranscodeStage{fs: fs, payload: []byte("first")}

	orch := New(probeStage, relayStage, transcodeStage, &mocks.Prober{}, fs, mocks.NewLogger())

	result, err := orch.RunTranscode(context.Background(), transcodeConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(probeStage.calls) != 0 || len(relayStage.calls) != 0 {
		t.Error("transcode must not probe or relay")
	}
	if len(transcodeStage.calls) != 1 || transcodeStage.calls[0].Settings.BitrateKbps != 1000 {
		t.Errorf("unexpected transcode calls: %+v", transcodeStage.calls)
	}
	if result.Flow != FlowTranscode || result.OutputSize != 5 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestOrchestrator_RunTranscode_Twice(t *testing.T) {
	fs := mocks.NewFileSystem()
	transcodeStage := &mockTranscodeStage{fs: fs, payload: []byte("first run output")}
	orch := New(&mockProbeStage{}, &mockRelayStage{}, transcodeStage, &mocks.Prober{}, fs, mocks.NewLogger())

	if _, err := orch.RunTranscode(context.Background(), transcodeConfig()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	transcodeStage.payload = []byte("second")
	result, err := orch.RunTranscode(context.Background(), transcodeConfig())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	data, _ := fs.GetFile("San Andreas/compressed_gtaSA.h264")
	if string(data) != "second" {
		t.Errorf("expected second output to replace the first, got %q", data)
	}
	if result.OutputSize != int64(len("second")) {
		t.Errorf("expected size of second output, got %d", result.OutputSize)
	}
}

func TestOrchestrator_RunTranscode_CheckInput(t *testing.T) {
	fs := mocks.NewFileSystem()
	transcodeStage := &mockTranscodeStage{}
	orch := New(&mockProbeStage{}, &mockRelayStage{}, transcodeStage, &mocks.Prober{}, fs, mocks.NewLogger())

	config := transcodeConfig()
	config.CheckInput = true
	_, err := orch.RunTranscode(context.Background(), config)
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
	if len(transcodeStage.calls) != 0 {
		t.Error("ffmpeg must not run for a missing input")
	}

	fs.WriteFile(config.InputPath, []byte("h264"))
	if _, err := orch.RunTranscode(context.Background(), config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOrchestrator_RunTranscode_Failure(t *testing.T) {
	fs := mocks.NewFileSystem()
	stageErr := &ports.ProcessError{Role: "ffmpeg", Err: errors.New("exit status 1"), Stderr: "Invalid data found when processing input"}
	transcodeStage := &mockTranscodeStage{fs: fs, payload: []byte("junk"), err: stageErr}
	orch := New(&mockProbeStage{}, &mockRelayStage{}, transcodeStage, &mocks.Prober{}, fs, mocks.NewLogger())

	_, err := orch.RunTranscode(context.Background(), transcodeConfig())
	var perr *ports.ProcessError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ports.ProcessError, got %v", err)
	}
	if _, ok := fs.GetFile("San Andreas/compressed_gtaSA.h264"); ok {
		t.Error("expected failed output to be removed")
	}
}

func TestOrchestrator_RunTranscode_FailureKeepsUntouchedOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "existing.h264")
	if err := os.WriteFile(output, []byte("previous good encode"), 0644); err != nil {
		t.Fatal(err)
	}

	stageErr := &ports.ProcessError{Role: "ffmpeg", Err: errors.New("exit status 1"), Stderr: "typo.h264: No such file or directory"}
	var calls int
	failing := pipeline.StageFunc[pipeline.TranscodeInput, pipeline.TranscodeResult](
		func(ctx context.Context, input pipeline.TranscodeInput) (pipeline.TranscodeResult, error) {
			calls++
			return pipeline.TranscodeResult{}, stageErr
		})

	log := mocks.NewLogger()
	orch := New(&mockProbeStage{}, &mockRelayStage{}, failing, &mocks.Prober{}, osfilesystem.New(), log)

	config := transcodeConfig()
	config.InputPath = filepath.Join(dir, "typo.h264")
	config.OutputPath = output
	_, err := orch.RunTranscode(context.Background(), config)
	if !errors.Is(err, stageErr) {
		t.Fatalf("expected stage error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one stage call, got %d", calls)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("pre-existing output was removed: %v", err)
	}
	if string(data) != "previous good encode" {
		t.Errorf("pre-existing output changed: %q", data)
	}
	if log.Contains("Removed partial output") {
		t.Error("untouched output must not be reported as removed")
	}
}

func TestOrchestrator_RunRelay_FailureKeepsUntouchedOutput(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFile("San Andreas/compressed_SA.h264", []byte("previous good encode"))
	probeStage := &mockProbeStage{result: pipeline.ProbeResult{Descriptor: inputDescriptor}}
	relayStage := &mockRelayStage{err: &ports.ProcessError{Role: "decoder", Err: errors.New("exit status 1")}}

	orch := New(probeStage, relayStage, &mockTranscodeStage{}, &mocks.Prober{}, fs, mocks.NewLogger())

	if _, err := orch.RunRelay(context.Background(), relayConfig()); err == nil {
		t.Fatal("expected error")
	}
	data, ok := fs.GetFile("San Andreas/compressed_SA.h264")
	if !ok || string(data) != "previous good encode" {
		t.Errorf("expected pre-existing output to survive, got %q (present=%v)", data, ok)
	}
}

func TestOrchestrator_RunTranscode_FailureRemovesOverwrittenOutput(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFile("San Andreas/compressed_gtaSA.h264", []byte("previous"))
	transcodeStage := &mockTranscodeStage{fs: fs, payload: []byte("truncated"), err: errors.New("exit status 1")}

	orch := New(&mockProbeStage{}, &mockRelayStage{}, transcodeStage, &mocks.Prober{}, fs, mocks.NewLogger())

	if _, err := orch.RunTranscode(context.Background(), transcodeConfig()); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := fs.GetFile("San Andreas/compressed_gtaSA.h264"); ok {
		t.Error("expected output rewritten by the failed stage to be removed")
	}
}

func TestOrchestrator_RunRelay_FailureKeepsOutputWhenUninspectable(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.ExistsFunc = func(path string) (bool, error) { return false, errors.New("permission denied") }
	probeStage := &mockProbeStage{result: pipeline.ProbeResult{Descriptor: inputDescriptor}}
	relayStage := &mockRelayStage{err: errors.New("broken pipe"), fs: fs}

	orch := New(probeStage, relayStage, &mockTranscodeStage{}, &mocks.Prober{}, fs, mocks.NewLogger())

	if _, err := orch.RunRelay(context.Background(), relayConfig()); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := fs.GetFile("San Andreas/compressed_SA.h264"); !ok {
		t.Error("output must not be removed when its prior state is unknown")
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		in   ports.Rational
		want string
	}{
		{ports.Rational{Num: 30, Den: 1}, "30"},
		{ports.Rational{Num: 30000, Den: 1001}, "29.97"},
		{ports.Rational{Num: 25, Den: 2}, "12.50"},
	}
	for _, tt := range tests {
		if got := formatRate(tt.in); got != tt.want {
			t.Errorf("formatRate(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
