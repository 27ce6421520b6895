package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Writer は成果物の書き出し先を抽象化します。
type Writer interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// Pruner は書き出し先から不要になったファイルを削除できる Writer が実装します。
type Pruner interface {
	// Prune は dir 直下で match に一致するファイルを削除し、削除したパスを返します。
	Prune(ctx context.Context, dir string, match func(name string) bool) ([]string, error)
}

// LocalWriter はローカルファイルシステムに書き出す Writer です。
type LocalWriter struct{}

// Write は親ディレクトリを作成してからファイルを書き出します。
func (LocalWriter) Write(ctx context.Context, path string, r io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗しました: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ファイルの作成に失敗しました: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("ファイルの書き込みに失敗しました: %w", err)
	}
	return f.Close()
}

// Prune は dir 直下の一致するファイルを削除します。dir が存在しない場合は何もしません。
func (LocalWriter) Prune(ctx context.Context, dir string, match func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("ディレクトリの読み込みに失敗しました: %w", err)
	}

	var removed []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if e.IsDir() || !match(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("ファイルの削除に失敗しました %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
