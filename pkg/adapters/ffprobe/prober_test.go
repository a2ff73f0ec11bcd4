package ffprobe

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/squeeze/pkg/adapters/execlauncher"
	"github.com/user/squeeze/pkg/mocks"
	"github.com/user/squeeze/pkg/ports"
)

const sampleH264 = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "h264",
      "codec_type": "video",
      "pix_fmt": "yuv420p",
      "width": 640,
      "height": 480,
      "r_frame_rate": "30/1",
      "avg_frame_rate": "30/1",
      "duration": "10.000000",
      "nb_frames": "300",
      "disposition": {"default": 1, "attached_pic": 0},
      "tags": {"handler_name": "VideoHandler"}
    }
  ],
  "format": {
    "format_name": "h264",
    "duration": "10.033333",
    "tags": {"encoder": "Lavf60.3.100"}
  }
}`

func TestParseJSON_ElementaryStream(t *testing.T) {
	desc, err := ParseJSON([]byte(sampleH264))
	require.NoError(t, err)

	assert.Equal(t, "h264", desc.Codec)
	assert.Equal(t, 640, desc.Width)
	assert.Equal(t, 480, desc.Height)
	assert.Equal(t, ports.Rational{Num: 30, Den: 1}, desc.FrameRate)
	assert.Equal(t, "yuv420p", desc.PixelFormat)
	assert.InDelta(t, 10.0, desc.DurationSec, 0.0001)
	assert.Equal(t, int64(300), desc.FrameCount)
	assert.Equal(t, 460800, desc.FrameSize())
	assert.Equal(t, "VideoHandler", desc.Tags["handler_name"])
	assert.Equal(t, "Lavf60.3.100", desc.Tags["encoder"])
}

func TestParseJSON_FallsBackToAvgFrameRateAndFormatDuration(t *testing.T) {
	data := `{
	  "streams": [{
	    "codec_name": "h264", "codec_type": "video",
	    "width": 1280, "height": 720,
	    "r_frame_rate": "0/0", "avg_frame_rate": "30000/1001"
	  }],
	  "format": {"duration": "4.5"}
	}`

	desc, err := ParseJSON([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, ports.Rational{Num: 30000, Den: 1001}, desc.FrameRate)
	assert.InDelta(t, 4.5, desc.DurationSec, 0.0001)
	assert.Equal(t, int64(0), desc.FrameCount)
}

func TestParseJSON_SkipsCoverArt(t *testing.T) {
	data := `{
	  "streams": [
	    {"codec_name": "mjpeg", "codec_type": "video", "width": 300, "height": 300,
	     "r_frame_rate": "90000/1", "disposition": {"attached_pic": 1}},
	    {"codec_name": "h264", "codec_type": "video", "width": 320, "height": 240,
	     "r_frame_rate": "25/1"}
	  ],
	  "format": {}
	}`

	desc, err := ParseJSON([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "h264", desc.Codec)
	assert.Equal(t, 320, desc.Width)
}

func TestParseJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{
			name: "audio only",
			data: `{"streams":[{"codec_type":"audio","codec_name":"aac"}],"format":{}}`,
			want: ErrNoVideoStream,
		},
		{
			name: "no streams",
			data: `{"format":{}}`,
			want: ErrNoVideoStream,
		},
		{
			name: "zero width",
			data: `{"streams":[{"codec_type":"video","width":0,"height":480,"r_frame_rate":"30/1"}]}`,
			want: ErrInvalidDimensions,
		},
		{
			name: "unknown frame rate",
			data: `{"streams":[{"codec_type":"video","width":640,"height":480,"r_frame_rate":"0/0","avg_frame_rate":"0/0"}]}`,
			want: ErrInvalidFrameRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseJSON_Malformed(t *testing.T) {
	_, err := ParseJSON([]byte("not json"))
	assert.Error(t, err)
}

func TestProber_MissingBinary(t *testing.T) {
	_, err := New(execlauncher.New(), "/nonexistent/ffprobe").Probe(context.Background(), "in.h264")
	assert.Error(t, err)
}

func TestProber_RealBinary(t *testing.T) {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		t.Skip("ffprobe not found")
	}

	_, err = New(execlauncher.New(), path).Probe(context.Background(), "/nonexistent/input.h264")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input.h264")
}

func TestProber_UsesLauncher(t *testing.T) {
	launcher := &mocks.ProcessLauncher{Behaviors: []mocks.Behavior{mocks.EmitBytes([]byte(sampleH264))}}

	desc, err := New(launcher, "/opt/ffprobe").Probe(context.Background(), "San Andreas/gtaSA.h264")
	require.NoError(t, err)
	assert.Equal(t, 640, desc.Width)

	started := launcher.Processes()
	require.Len(t, started, 1)
	assert.Equal(t, "/opt/ffprobe", started[0].Spec.Path)
	assert.Equal(t, Args("San Andreas/gtaSA.h264"), started[0].Spec.Args)
	assert.True(t, started[0].Spec.PipeStdout)
	assert.False(t, started[0].Spec.PipeStdin)
}

func TestProber_ProcessFailureCarriesStderr(t *testing.T) {
	launcher := &mocks.ProcessLauncher{Behaviors: []mocks.Behavior{
		mocks.Fail("in.h264: Invalid data found when processing input"),
	}}

	_, err := New(launcher, "ffprobe").Probe(context.Background(), "in.h264")
	require.Error(t, err)

	var perr *ports.ProcessError
	require.True(t, errors.As(err, &perr), "got %T: %v", err, err)
	assert.Equal(t, "ffprobe", perr.Role)
	assert.Contains(t, perr.Stderr, "Invalid data found")
}

func TestProber_StartFailure(t *testing.T) {
	launcher := &mocks.ProcessLauncher{
		StartFunc: func(ctx context.Context, spec ports.ProcessSpec) (ports.Process, error) {
			return nil, errors.New("exec: permission denied")
		},
	}

	_, err := New(launcher, "ffprobe").Probe(context.Background(), "in.h264")
	assert.ErrorContains(t, err, "permission denied")
}
