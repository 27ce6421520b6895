package prompt

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/shouni/go-diagram-kit/pkg/prompts"
)

// LoadOverridesFile は YAML ファイルからプロンプトの上書き設定を読み込むのだ。
// path が空なら nil を返し、組み込みテンプレートがそのまま使われるのだ。
func LoadOverridesFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("プロンプト設定ファイル '%s' の読み込みに失敗したのだ: %w", path, err)
	}

	overrides, err := prompts.LoadOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("プロンプト設定ファイル '%s' の解析に失敗したのだ: %w", path, err)
	}
	return overrides, nil
}

// NewPromptBuilder は上書き設定を反映した PromptBuilder を作るのだ。
func NewPromptBuilder(path string) (prompts.PromptBuilder, error) {
	overrides, err := LoadOverridesFile(path)
	if err != nil {
		return nil, err
	}

	pb, err := prompts.NewTemplateBuilder(prompts.WithOverrides(overrides))
	if err != nil {
		kinds := slices.Sorted(maps.Keys(overrides))
		return nil, fmt.Errorf("プロンプトの上書き [%s] を適用できなかったのだ: %w", strings.Join(kinds, ", "), err)
	}
	return pb, nil
}
