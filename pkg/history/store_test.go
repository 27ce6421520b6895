package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shouni/go-diagram-kit/pkg/domain"
)

func openTestStore(t *testing.T, limit int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "history.db"), limit)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(id string) *Record {
	input := domain.PipelineInput{Caption: "caption " + id, DiagramType: domain.DiagramMethodology}
	result := &domain.PipelineResult{
		ImageBase64: "IMG",
		MimeType:    "image/png",
		Description: "desc " + id,
		Iterations:  []domain.IterationImage{{DataURI: "data:image/png;base64,IMG", Label: domain.InitialIterationLabel}},
	}
	return NewRecord(id, input, result)
}

func TestStore_AddAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 0)

	if s.Limit() != DefaultLimit {
		t.Errorf("Limit: got %d, want %d", s.Limit(), DefaultLimit)
	}
	if err := s.Add(ctx, sampleRecord("run-1")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := &domain.PipelineResult{
		ImageBase64: "IMG",
		MimeType:    "image/png",
		Description: "desc run-1",
		Iterations:  []domain.IterationImage{{DataURI: "data:image/png;base64,IMG", Label: domain.InitialIterationLabel}},
	}
	if diff := cmp.Diff(want, got.Result()); diff != "" {
		t.Errorf("結果 (-want +got):\n%s", diff)
	}
	if got.Caption != "caption run-1" || got.DiagramType != "methodology" {
		t.Errorf("メタデータ: %+v", got)
	}

	t.Run("存在しない ID は ErrNotFound", func(t *testing.T) {
		if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("実行 ID が空なら追加できない", func(t *testing.T) {
		if err := s.Add(ctx, &Record{}); err == nil {
			t.Error("エラーが返されること")
		}
	})
}

func TestStore_Eviction(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 3)

	for i := 1; i <= 5; i++ {
		if err := s.Add(ctx, sampleRecord(fmt.Sprintf("run-%d", i))); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.RunID)
	}
	want := []string{"run-5", "run-4", "run-3"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("新しい順に上限件数だけ残ること (-want +got):\n%s", diff)
	}
}

func TestStore_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 10)

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Add(ctx, sampleRecord(id)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("二重削除は ErrNotFound: got %v", err)
	}
	records, _ := s.List(ctx)
	if len(records) != 2 {
		t.Errorf("件数: got %d, want 2", len(records))
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	records, _ = s.List(ctx)
	if len(records) != 0 {
		t.Errorf("全削除後の件数: got %d", len(records))
	}
}
