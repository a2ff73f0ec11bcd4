// Package codecdetect identifies the video codec of an input file before
// any ffmpeg process is started.
//
// MP4/MOV containers are read with mp4ff's box parser. Raw Annex-B
// elementary streams (the usual .h264 file) are scanned for their first
// sequence parameter set, which also yields the coded picture size.
package codecdetect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecAV1     Codec = "av1"
	CodecHEVC    Codec = "hevc"
	CodecUnknown Codec = "unknown"
)

// Container is the file layout the codec was found in.
type Container string

const (
	ContainerMP4     Container = "mp4"
	ContainerAnnexB  Container = "annexb"
	ContainerUnknown Container = "unknown"
)

// scanLimit bounds how much of an elementary stream is read looking for an SPS.
const scanLimit = 1 << 20

// ElementaryInfo is what the first SPS of an H.264 elementary stream reports.
type ElementaryInfo struct {
	Width           int
	Height          int
	ChromaFormatIDC int
	Profile         int
	Level           int
}

// Result is the outcome of a detection.
type Result struct {
	Codec      Codec
	Container  Container
	Elementary *ElementaryInfo // nil unless Container is ContainerAnnexB and an SPS was parsed
}

// Certain reports whether the detector positively identified the codec.
func (r Result) Certain() bool {
	return r.Codec != CodecUnknown
}

// DetectFile inspects the file at path. Unrecognized layouts return
// CodecUnknown without error so that ffprobe can decide.
func DetectFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{Codec: CodecUnknown, Container: ContainerUnknown}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	head := make([]byte, scanLimit)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{Codec: CodecUnknown, Container: ContainerUnknown}, fmt.Errorf("read file: %w", err)
	}
	head = head[:n]

	switch {
	case isMP4(head):
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return Result{Codec: CodecUnknown, Container: ContainerMP4}, fmt.Errorf("seek: %w", err)
		}
		codec, err := DetectFromReader(f)
		if err != nil {
			return Result{Codec: CodecUnknown, Container: ContainerMP4}, nil
		}
		return Result{Codec: codec, Container: ContainerMP4}, nil
	case hasStartCode(head):
		return DetectAnnexB(head), nil
	default:
		return Result{Codec: CodecUnknown, Container: ContainerUnknown}, nil
	}
}

// DetectAnnexB scans an Annex-B byte stream for an H.264 SPS.
func DetectAnnexB(data []byte) Result {
	res := Result{Codec: CodecUnknown, Container: ContainerAnnexB}
	for _, nalu := range avc.ExtractNalusFromByteStream(data) {
		if len(nalu) == 0 || avc.GetNaluType(nalu[0]) != avc.NALU_SPS {
			continue
		}
		sps, err := avc.ParseSPSNALUnit(nalu, false)
		if err != nil {
			continue
		}
		res.Codec = CodecH264
		res.Elementary = &ElementaryInfo{
			Width:           int(sps.Width),
			Height:          int(sps.Height),
			ChromaFormatIDC: int(sps.ChromaFormatIDC),
			Profile:         int(sps.Profile),
			Level:           int(sps.Level),
		}
		return res
	}
	return res
}

// DetectFromReader detects the video codec of an MP4 read from an io.ReadSeeker.
func DetectFromReader(reader io.ReadSeeker) (Codec, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return CodecUnknown, fmt.Errorf("decode mp4: %w", err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return CodecUnknown, fmt.Errorf("seek: %w", err)
	}

	return detectFromMP4File(mp4File)
}

// DetectFromBytes detects the video codec from MP4 data bytes.
func DetectFromBytes(data []byte) (Codec, error) {
	return DetectFromReader(bytes.NewReader(data))
}

func detectFromMP4File(mp4File *mp4.File) (Codec, error) {
	if mp4File.IsFragmented() && mp4File.Init != nil && mp4File.Init.Moov != nil {
		for _, trak := range mp4File.Init.Moov.Traks {
			if codec := detectCodecFromTrack(trak); codec != CodecUnknown {
				return codec, nil
			}
		}
	}

	if mp4File.Moov != nil {
		for _, trak := range mp4File.Moov.Traks {
			if codec := detectCodecFromTrack(trak); codec != CodecUnknown {
				return codec, nil
			}
		}
	}

	return CodecUnknown, fmt.Errorf("no video track found")
}

func detectCodecFromTrack(trak *mp4.TrakBox) Codec {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return CodecUnknown
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264
		case "av01":
			return CodecAV1
		case "hvc1", "hev1":
			return CodecHEVC
		}
	}
	return CodecUnknown
}

// isMP4 looks for an ftyp box at the start of the file.
func isMP4(head []byte) bool {
	return len(head) >= 8 && string(head[4:8]) == "ftyp"
}

func hasStartCode(head []byte) bool {
	return bytes.HasPrefix(head, []byte{0, 0, 1}) || bytes.HasPrefix(head, []byte{0, 0, 0, 1})
}
