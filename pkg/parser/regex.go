package parser

import "regexp"

var (
	// JSONBlockRegex は ```json ... ``` 形式（言語タグは任意）の最初のフェンスブロックの中身をキャプチャします。
	JSONBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)
