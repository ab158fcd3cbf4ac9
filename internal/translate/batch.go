package translate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mgpai22/danmaku/internal/danmaku"
)

// translates one request-sized batch
type batchFunc func(ctx context.Context, items []TranslationItem) ([]TranslationResult, error)

func splitBatches(items []TranslationItem, size int) [][]TranslationItem {
	var batches [][]TranslationItem
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

// Items are split into batches of BatchSize (default 50). Each batch becomes
// one API request. Workers (up to Concurrency) pull batches from a shared
// queue and the first failure cancels the rest.
func runBatches(
	ctx context.Context,
	items []TranslationItem,
	opts Options,
	translateBatch batchFunc,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	batches := splitBatches(items, opts.batchSize())
	if len(batches) == 1 {
		return translateBatch(ctx, batches[0])
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		Index   int
		Results []TranslationResult
		Error   error
	}

	workChan := make(chan int)
	resultChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < opts.concurrency() && i < len(batches); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case batchIdx, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					results, err := translateBatch(ctx, batches[batchIdx])
					if err != nil {
						cancel()
					}
					resultChan <- batchResult{
						Index:   batchIdx,
						Results: results,
						Error:   err,
					}
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var (
		allResults []TranslationResult
		firstErr   error
		completed  int
	)
	for result := range resultChan {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("batch %d failed: %w", result.Index, result.Error)
			}
			continue
		}
		completed++
		allResults = append(allResults, result.Results...)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if completed != len(batches) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("only %d of %d batches completed", completed, len(batches))
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].Index < allResults[j].Index
	})

	return allResults, nil
}

// Translates comment texts and returns copies carrying the translations;
// comments without a matching result keep their original text.
func TranslateComments(
	ctx context.Context,
	translator Translator,
	comments []danmaku.Comment,
) ([]danmaku.Comment, error) {
	items := make([]TranslationItem, len(comments))
	for i, c := range comments {
		items[i] = TranslationItem{Index: i, Text: c.Content}
	}

	results, err := translator.Translate(ctx, items)
	if err != nil {
		return nil, err
	}

	translated := make([]danmaku.Comment, len(comments))
	copy(translated, comments)
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(translated) || r.Text == "" {
			continue
		}
		translated[r.Index] = comments[r.Index].WithContent(r.Text)
	}

	return translated, nil
}
