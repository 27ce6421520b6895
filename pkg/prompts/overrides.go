package prompts

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LoadOverrides は YAML からテンプレートの上書き定義を読み込みます。
//
//	planner: |
//	  ...{source_context}...{caption}...
//	critic: |
//	  ...
func LoadOverrides(data []byte) (map[string]string, error) {
	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("テンプレート上書き定義のパースに失敗しました: %w", err)
	}
	return overrides, nil
}
