package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/go-diagram-kit/pkg/domain"
)

// ErrMalformedCritique は批評応答から期待する形の JSON を取り出せなかったことを表します。
// 呼び出し側はこの反復をスキップして処理を続けます。
var ErrMalformedCritique = errors.New("malformed critique response")

// ParseCritique は批評モデルの生の応答から改訂判断を取り出します。
// フェンスブロックがあればその中身を、無ければ応答全体を JSON として解釈します。
// 散文中の波括弧を探すようなフォールバックは行いません。
func ParseCritique(raw string) (domain.CritiqueDecision, error) {
	payload := extractPayload(raw)
	if !strings.HasPrefix(payload, "{") {
		return domain.CritiqueDecision{}, fmt.Errorf("%w: JSON オブジェクトではありません (応答抜粋: %q)", ErrMalformedCritique, truncateString(raw, 200))
	}

	var decision domain.CritiqueDecision
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	if err := dec.Decode(&decision); err != nil {
		return domain.CritiqueDecision{}, fmt.Errorf("%w: %v (応答抜粋: %q)", ErrMalformedCritique, err, truncateString(raw, 200))
	}
	if dec.More() {
		return domain.CritiqueDecision{}, fmt.Errorf("%w: JSON の後に余分なデータがあります", ErrMalformedCritique)
	}

	return decision, nil
}

func extractPayload(raw string) string {
	if matches := JSONBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return strings.TrimSpace(raw)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
