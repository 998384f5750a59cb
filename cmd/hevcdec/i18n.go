// Package main provides localization for the hevcdec CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Decode HEVC video from fragmented MP4 files": "フラグメント化MP4ファイルからHEVC動画をデコード",

		// Decode command
		"Decode an HEVC track into raw frames":                          "HEVCトラックを生フレームにデコード",
		"Output path (Y4M file or PNG directory)":                       "出力先（Y4MファイルまたはPNGディレクトリ）",
		"Output format (y4m, png, null)":                                "出力フォーマット（y4m, png, null）",
		"Load settings from a YAML file":                                "YAMLファイルから設定を読み込む",
		"Override the container frame rate":                             "コンテナのフレームレートを上書き",
		"Decoder thread count hint (0 = all CPUs)":                      "デコーダのスレッド数ヒント（0 = 全CPU）",
		"Frame recycling pool capacity":                                 "フレーム再利用プールの容量",
		"Decode into engine-owned buffers instead of host frames":       "ホストフレームではなくエンジン側バッファへデコード",
		"Skip in-loop filters for faster decoding":                      "ループ内フィルタを省略して高速にデコード",
		"Decode only this percentage of frames (drops temporal layers)": "フレームのこの割合のみデコード（時間レイヤーを間引く）",
		"Downscale PNG output to this width (0 = original size)":        "PNG出力をこの幅に縮小（0 = 原寸）",
		"Write a Markdown summary of the run to this path":              "実行結果のMarkdownサマリーをこのパスに書き出す",
		"Log level (debug, info, warn, error)":                          "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                                       "すべてのログ出力を抑制",

		// Probe command
		"Show the HEVC track of a file without decoding": "デコードせずにファイルのHEVCトラックを表示",
		"Track %d: %d samples, timescale %d":             "トラック %d: %d サンプル、タイムスケール %d",
		"Estimated frame rate: %g fps":                   "推定フレームレート: %g fps",
		"Configuration record: %d bytes":                 "設定レコード: %d バイト",
	})
}
