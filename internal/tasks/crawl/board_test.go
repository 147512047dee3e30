package crawl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/pkg/xerr"
)

type fakeCrawler struct {
	calls []BoardParams
	res   core.SaveResult
	err   error
}

func (f *fakeCrawler) Crawl(_ context.Context, source, board string, pages int) (core.SaveResult, error) {
	f.calls = append(f.calls, BoardParams{Source: source, Board: board, Pages: pages})
	return f.res, f.err
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams(map[string]any{"source": "dcard", "board": "funny", "pages": 2})
	require.NoError(t, err)
	assert.Equal(t, BoardParams{Source: "dcard", Board: "funny", Pages: 2}, p)

	p, err = ParseParams(map[string]any{"pages": float64(3)})
	require.NoError(t, err)
	assert.Equal(t, BoardParams{Source: "ptt", Pages: 3}, p)

	p, err = ParseParams(map[string]any{"pages": "4"})
	require.NoError(t, err)
	assert.Equal(t, 4, p.Pages)

	_, err = ParseParams(map[string]any{"pages": "many"})
	assert.Error(t, err)
}

func TestBoardTaskRun(t *testing.T) {
	svc := &fakeCrawler{res: core.SaveResult{New: 3, Duplicate: 1}}
	task := NewCreator(svc)()

	assert.Equal(t, Name, task.Identifier())
	require.NoError(t, task.Run(context.Background(), map[string]any{"source": "ptt", "board": "Gossiping", "pages": 1}))

	assert.Equal(t, []BoardParams{{Source: "ptt", Board: "Gossiping", Pages: 1}}, svc.calls)
	reporter, ok := task.(core.Reporter)
	require.True(t, ok)
	assert.Equal(t, core.SaveResult{New: 3, Duplicate: 1}, reporter.LastResult())
}

func TestBoardTaskRunError(t *testing.T) {
	svc := &fakeCrawler{err: xerr.ErrLocked}
	task := NewCreator(svc)()

	err := task.Run(context.Background(), nil)
	assert.ErrorIs(t, err, xerr.ErrLocked)
	assert.Nil(t, task.(core.Reporter).LastResult())
}
