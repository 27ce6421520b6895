package gemini

import (
	"errors"
	"fmt"
)

// ErrNotConfigured は API キー（クライアント）が未設定のまま呼び出された場合のエラーです。
var ErrNotConfigured = errors.New("gemini API key not set")

// ProviderError は生成プロバイダーがテキストまたは画像を返せなかったことを表します。
// 通信失敗、認証失敗、空の応答などはすべてこの型に集約されます。
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func providerError(op string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Op: op, Err: err}
}
