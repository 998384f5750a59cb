package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Decoding %s":                     "%s をデコード中",
		"Output saved to %s":              "出力を %s に保存しました",
		"Decoded %d frames in %d ms":      "%d フレームを %d ms でデコードしました",
		"Pipeline completed successfully": "パイプラインが正常に完了しました",
		"Interrupted, shutting down...":   "中断されました。シャットダウン中...",
		"dimension change %dx%d -> %dx%d": "画像サイズが変更されました %dx%d -> %dx%d",

		// Decoder component
		"assuming packetized data (%d byte lengths, %d parameter sets)": "パケット化データとして処理します (長さ %d バイト, パラメータセット %d 個)",
		"assuming non-packetized data":                                  "非パケット化データとして処理します",
		"no host format for %s at %d bits, engine allocates":            "%s %d ビットに対応するホスト形式がないため、エンジン側で確保します",
		"frame misaligned for %d byte planes, engine allocates":         "プレーンが %d バイト境界に揃っていないため、エンジン側で確保します",

		// Reader component
		"track %d: %d samples at %d timescale": "トラック %d: サンプル %d 個, タイムスケール %d",

		// Warnings
		"releasing decoded image: %v":                   "デコード済み画像の解放中: %v",
		"stream carries no frame rate, assuming %g fps": "ストリームにフレームレートがないため %g fps とみなします",

		// Errors
		"Failed to open input: %s": "入力を開けませんでした: %s",
		"Failed to decode: %s":     "デコードに失敗しました: %s",
	})
}
