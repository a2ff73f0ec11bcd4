// Package main provides localization for the squeeze CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input and Output": "入力と出力",
		"Encoding":         "エンコード",
		"Relay":            "リレー",
		"Output Handling":  "出力の扱い",
		"Binaries":         "実行ファイル",
		"Logging":          "ログ",

		// Root command
		"Re-encode H.264 video with ffmpeg": "ffmpegでH.264動画を再エンコード",
		"squeeze compresses H.264 video either by relaying decoded frames between two ffmpeg processes or by a single ffmpeg transcode.": "squeezeは2つのffmpegプロセス間でデコード済みフレームを中継するか、1回のffmpegトランスコードでH.264動画を圧縮します。",

		// Relay command
		"Relay decoded frames into a second ffmpeg encoder":                                                        "デコードしたフレームを2つ目のffmpegエンコーダーへ中継",
		"Probe the input, decode it to raw yuv420p frames and feed them to an H.264 encoder (default 300 kbit/s).": "入力を解析し、yuv420pの生フレームにデコードしてH.264エンコーダーへ渡します（デフォルト 300 kbit/s）。",

		// Transcode command
		"Re-encode with a single ffmpeg call":                                                    "1回のffmpeg呼び出しで再エンコード",
		"Run one ffmpeg invocation that decodes and re-encodes the input (default 1000 kbit/s).": "入力のデコードと再エンコードを1回のffmpeg実行で行います（デフォルト 1000 kbit/s）。",

		// Probe command
		"Show the video stream of a file":                                    "ファイルの動画ストリームを表示",
		"Print the probed stream descriptor and detected container as YAML.": "解析したストリーム情報と検出したコンテナをYAMLで出力します。",

		// Version command
		"Show version information": "バージョン情報を表示",
		"squeeze version %s":       "squeeze バージョン %s",

		// File flags
		"Input video file path":                                "入力動画ファイルのパス",
		"Output video file path":                               "出力動画ファイルのパス",
		"YAML configuration file":                              "YAML設定ファイル",
		"Output execution summary to file (Markdown format)":   "実行サマリーをファイルに出力（Markdown形式）",
		"Fail before running ffmpeg when the input is missing": "入力が存在しない場合はffmpeg実行前に失敗",

		// Encoding flags
		"ffmpeg encoder name (default: libx264)":                                 "ffmpegエンコーダー名（デフォルト: libx264）",
		"Target bitrate in kbit/s (0 = unset)":                                   "目標ビットレート（kbit/s、0 = 未設定）",
		"Target bitrate in Mbit/s, overrides --bitrate":                          "目標ビットレート（Mbit/s、--bitrateを上書き）",
		"Encoder speed preset (default: slow)":                                   "エンコード速度プリセット（デフォルト: slow）",
		"Constant rate factor (0-51, lower is better, overrides quality preset)": "CRF値（0-51、低いほど高品質、品質プリセットを上書き）",
		"Quality preset (low, medium, high)":                                     "品質プリセット（low, medium, high）",

		// Relay flags
		"Frames buffered between decoder and encoder": "デコーダーとエンコーダー間でバッファするフレーム数",
		"Show a progress bar on a terminal":           "端末に進捗バーを表示",
		"Relaying frames":                             "フレームを中継中",

		// Output flags
		"Keep partially written output on failure": "失敗時に書きかけの出力を残す",
		"Probe the output file after encoding":     "エンコード後に出力ファイルを解析",

		// Binary flags
		"Path to ffmpeg executable (falls back to FFMPEG_PATH env, then PATH)":   "ffmpeg実行ファイルのパス（未指定時は環境変数FFMPEG_PATH、次にPATH）",
		"Path to ffprobe executable (falls back to FFPROBE_PATH env, then PATH)": "ffprobe実行ファイルのパス（未指定時は環境変数FFPROBE_PATH、次にPATH）",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Log format (text, json)":              "ログ形式（text, json）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Error messages
		"Error: %s": "エラー: %s",

		// Summary content
		"Compression Summary": "圧縮サマリー",
		"Run":                 "実行",
		"Run ID":              "実行ID",
		"Flow":                "フロー",
		"Generated At":        "生成日時",
		"Elapsed":             "所要時間",
		"Files":               "ファイル",
		"Input":               "入力",
		"Output":              "出力",
		"Output Size":         "出力サイズ",
		"Item":                "項目",
		"Value":               "値",
		"N/A":                 "なし",
		"Generated by":        "生成:",

		// Settings section
		"Encoder Settings": "エンコーダー設定",
		"Codec":            "コーデック",
		"Bitrate":          "ビットレート",
		"Preset":           "プリセット",
		"Queue Depth":      "キュー深さ",

		// Relay section
		"Frames Relayed":         "中継フレーム数",
		"Bytes Relayed":          "中継バイト数",
		"Dropped Trailing Bytes": "破棄した末尾バイト数",

		// Stream sections
		"Input Stream":   "入力ストリーム",
		"Output Stream":  "出力ストリーム",
		"Resolution":     "解像度",
		"Frame Rate":     "フレームレート",
		"Pixel Format":   "ピクセル形式",
		"Duration":       "再生時間",
		"Frames":         "フレーム数",
		"Raw Frame Size": "生フレームサイズ",
	})
}
