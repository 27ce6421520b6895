package prompts

import (
	"sort"
	"strings"
)

// Fill はテンプレート中の {name} 形式のプレースホルダーを vars の値で置換します。
// vars に無いプレースホルダーはそのまま残るため、段階的に埋めることもできます。
// 置換は 1 パスで行われ、挿入された値が再走査されることはありません。
func Fill(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names)*2)
	for _, name := range names {
		pairs = append(pairs, "{"+name+"}", vars[name])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
