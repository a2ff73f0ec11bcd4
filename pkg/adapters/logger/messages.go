package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Relaying %s -> %s":                    "%s を %s へリレー中",
		"Transcoding %s -> %s":                 "%s を %s へトランスコード中",
		"Video width: %d, height: %d, fps: %s": "動画 幅: %d, 高さ: %d, fps: %s",
		"Compressed video saved as %s":         "圧縮した動画を %s に保存しました",
		"Transcoded video saved as %s":         "トランスコードした動画を %s に保存しました",
		"Interrupted, shutting down...":        "中断されました。シャットダウン中...",
		"Summary saved to %s":                  "サマリーを %s に保存しました",

		// Probe stage
		"Probing %s":         "%s を解析中",
		"Detected codec: %s": "検出したコーデック: %s",
		"Elementary stream SPS: %dx%d, chroma format %d": "エレメンタリストリームSPS: %dx%d, クロマ形式 %d",
		"Stream: %s %s %s fps, pix_fmt %s":               "ストリーム: %s %s %s fps, pix_fmt %s",

		// Relay stage
		"Frame size: %d bytes, queue depth: %d": "フレームサイズ: %d バイト, キュー深さ: %d",
		"Starting decoder: %s":                  "デコーダーを起動: %s",
		"Starting encoder: %s":                  "エンコーダーを起動: %s",
		"Short read of %d bytes, end of stream": "%d バイトの短い読み込み、ストリーム終端",
		"Relayed %d frames (%d bytes) in %s":    "%d フレーム (%d バイト) を %s でリレーしました",
		"Stopping subprocesses":                 "サブプロセスを停止中",

		// Transcode stage
		"Running: %s":              "実行中: %s",
		"Transcode finished in %s": "トランスコードが %s で完了しました",

		// Output inspection
		"Output: %s, %d bytes":       "出力: %s, %d バイト",
		"Could not probe output: %s": "出力を解析できませんでした: %s",

		// Warnings
		"Dropped %d trailing bytes (incomplete frame)": "末尾の %d バイトを破棄しました (不完全なフレーム)",
		"Removed partial output %s":                    "不完全な出力 %s を削除しました",
		"Input codec is %s, not H.264":                 "入力コーデックは %s で、H.264 ではありません",

		// Errors
		"Failed to probe input: %s":   "入力の解析に失敗しました: %s",
		"Failed to relay frames: %s":  "フレームのリレーに失敗しました: %s",
		"Failed to transcode: %s":     "トランスコードに失敗しました: %s",
		"Failed to write summary: %s": "サマリーの書き込みに失敗しました: %s",
	})
}
