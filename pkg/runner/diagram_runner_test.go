package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-diagram-kit/pkg/domain"
	"github.com/shouni/go-diagram-kit/pkg/history"
	"github.com/shouni/go-diagram-kit/pkg/pipeline"
)

type fakePipeline struct {
	err    error
	block  chan struct{}
	active atomic.Int32
	peak   atomic.Int32
	calls  atomic.Int32
}

func (p *fakePipeline) Run(ctx context.Context, _ domain.PipelineInput, onStatus pipeline.StatusFunc) (*domain.PipelineResult, error) {
	p.calls.Add(1)
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		if onStatus != nil {
			onStatus(domain.StatusError, p.err.Error())
		}
		return nil, p.err
	}
	if onStatus != nil {
		onStatus(domain.StatusDone, "")
	}
	return &domain.PipelineResult{
		ImageBase64: "aW1n", // "img"
		MimeType:    "image/png",
		Description: "desc",
		Iterations:  []domain.IterationImage{{DataURI: "data:image/png;base64,aW1n", Label: domain.InitialIterationLabel}},
	}, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	records []*history.Record
	err     error
}

func (h *fakeHistory) Add(_ context.Context, rec *history.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, rec)
	return nil
}

func validInput() domain.PipelineInput {
	return domain.PipelineInput{
		SourceContext: "source",
		Caption:       "caption",
		DiagramType:   domain.DiagramMethodology,
		Iterations:    1,
	}
}

func TestDiagramRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("成功時に実行 ID を採番して履歴に記録すること", func(t *testing.T) {
		p := &fakePipeline{}
		h := &fakeHistory{}
		r := NewDiagramRunner(p, WithHistory(h))

		var got []domain.PipelineStatus
		outcome, err := r.Run(ctx, validInput(), func(s domain.PipelineStatus, _ string) { got = append(got, s) })
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if outcome.RunID == "" {
			t.Error("実行 ID が採番されること")
		}
		if len(h.records) != 1 || h.records[0].RunID != outcome.RunID {
			t.Errorf("履歴: %+v", h.records)
		}
		if h.records[0].Caption != "caption" || h.records[0].Description != "desc" {
			t.Errorf("履歴の内容: %+v", h.records[0])
		}
		if len(got) != 1 || got[0] != domain.StatusDone {
			t.Errorf("ステータス通知がそのまま渡ること: %v", got)
		}
	})

	t.Run("不正な入力はパイプラインを呼ばずにエラー", func(t *testing.T) {
		p := &fakePipeline{}
		r := NewDiagramRunner(p)
		in := validInput()
		in.Iterations = domain.MaxIterations + 1

		if _, err := r.Run(ctx, in, nil); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("ErrInvalidInput が返されること: %v", err)
		}
		if p.calls.Load() != 0 {
			t.Error("パイプラインが呼ばれないこと")
		}
	})

	t.Run("パイプラインの失敗は履歴に残さずエラーを伝播すること", func(t *testing.T) {
		sentinel := errors.New("provider down")
		h := &fakeHistory{}
		r := NewDiagramRunner(&fakePipeline{err: sentinel}, WithHistory(h))

		if _, err := r.Run(ctx, validInput(), nil); !errors.Is(err, sentinel) {
			t.Errorf("元のエラーを判別できること: %v", err)
		}
		if len(h.records) != 0 {
			t.Error("履歴に記録されないこと")
		}
	})

	t.Run("履歴の失敗は実行を失敗させないこと", func(t *testing.T) {
		r := NewDiagramRunner(&fakePipeline{}, WithHistory(&fakeHistory{err: errors.New("disk full")}))
		if _, err := r.Run(ctx, validInput(), nil); err != nil {
			t.Errorf("予期しないエラー: %v", err)
		}
	})
}

func TestDiagramRunner_ConcurrencyLimit(t *testing.T) {
	p := &fakePipeline{block: make(chan struct{})}
	r := NewDiagramRunner(p, WithMaxConcurrentRuns(2))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Run(context.Background(), validInput(), nil); err != nil {
				t.Errorf("予期しないエラー: %v", err)
			}
		}()
	}

	// 2 件が実行中になるまで待ってから解放する
	deadline := time.Now().Add(2 * time.Second)
	for p.active.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	close(p.block)
	wg.Wait()

	if peak := p.peak.Load(); peak > 2 {
		t.Errorf("同時実行数が上限を超えました: %d", peak)
	}
	if calls := p.calls.Load(); calls != 5 {
		t.Errorf("全件実行されること: %d", calls)
	}
}

func TestDiagramRunner_AcquireCancelled(t *testing.T) {
	p := &fakePipeline{block: make(chan struct{})}
	r := NewDiagramRunner(p, WithMaxConcurrentRuns(1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.Run(context.Background(), validInput(), nil)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for p.active.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Run(ctx, validInput(), nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("枠を確保できずにタイムアウトすること: %v", err)
	}

	close(p.block)
	<-done
}

func TestDiagramRunner_RunAndSave(t *testing.T) {
	dir := t.TempDir()
	r := NewDiagramRunner(&fakePipeline{})

	outcome, err := r.RunAndSave(context.Background(), validInput(), filepath.Join(dir, "diagram.png"), true, nil)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if outcome.Files == nil {
		t.Fatal("保存先が返されること")
	}
	data, err := os.ReadFile(outcome.Files.ImagePath)
	if err != nil || string(data) != "img" {
		t.Errorf("最終画像: %q, %v", data, err)
	}
	if len(outcome.Files.IterationPaths) != 1 {
		t.Errorf("反復画像: %v", outcome.Files.IterationPaths)
	}
	if _, err := os.Stat(outcome.Files.ReportPath); err != nil {
		t.Errorf("レポートが書き出されること: %v", err)
	}
}
