package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultLimit は保持する履歴の最大件数です。
const DefaultLimit = 20

// ErrNotFound は指定した実行 ID の履歴が存在しないことを表します。
var ErrNotFound = errors.New("history record not found")

// Store は新しい順に最大 limit 件を保持する履歴ストアです。
type Store struct {
	db    *gorm.DB
	limit int
}

// Open は SQLite ファイルを開き、テーブルを準備した Store を返します。
func Open(path string, limit int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("履歴ディレクトリの作成に失敗しました: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("履歴データベースのオープンに失敗しました: %w", err)
	}
	return NewStore(db, limit)
}

// NewStore は既存の gorm ハンドルから Store を作成します。limit が 1 未満なら DefaultLimit を使います。
func NewStore(db *gorm.DB, limit int) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("history: データベースハンドルが指定されていません")
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("履歴テーブルのマイグレーションに失敗しました: %w", err)
	}
	return &Store{db: db, limit: limit}, nil
}

// Limit は保持件数の上限を返します。
func (s *Store) Limit() int {
	return s.limit
}

// Add は履歴を追加し、上限を超えた古いエントリを削除します。
func (s *Store) Add(ctx context.Context, rec *Record) error {
	if rec == nil || rec.RunID == "" {
		return fmt.Errorf("history: 実行 ID のない履歴は追加できません")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("履歴の追加に失敗しました: %w", err)
		}
		keep := tx.Model(&Record{}).Select("seq").Order("seq DESC").Limit(s.limit)
		if err := tx.Where("seq NOT IN (?)", keep).Delete(&Record{}).Error; err != nil {
			return fmt.Errorf("古い履歴の削除に失敗しました: %w", err)
		}
		return nil
	})
}

// List は新しい順に全履歴を返します。
func (s *Store) List(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := s.db.WithContext(ctx).Order("seq DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("履歴の取得に失敗しました: %w", err)
	}
	return records, nil
}

// Get は実行 ID で履歴を 1 件取得します。
func (s *Store) Get(ctx context.Context, runID string) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("履歴の取得に失敗しました: %w", err)
	}
	return &rec, nil
}

// Delete は実行 ID の履歴を削除します。
func (s *Store) Delete(ctx context.Context, runID string) error {
	res := s.db.WithContext(ctx).Where("run_id = ?", runID).Delete(&Record{})
	if res.Error != nil {
		return fmt.Errorf("履歴の削除に失敗しました: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

// Clear は全履歴を削除します。
func (s *Store) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("履歴の全削除に失敗しました: %w", err)
	}
	return nil
}

// Close は内部のデータベース接続を閉じます。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
