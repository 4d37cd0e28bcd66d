package store

import (
	"context"
	"sort"
)

// rrfConstant is the Reciprocal Rank Fusion constant C in
// score(d) = sum(1 / (C + rank_i(d) + 1)) over the candidate lists d
// appears in, with 0-based ranks.
const rrfConstant = 60

// HybridSearch fuses the top 3k vector results and top 3k keyword results
// via Reciprocal Rank Fusion, returning the top k by fused score. A
// document present in both lists outranks one present in only one list at
// the same rank, since its score is the sum over both lists.
func (s *Store) HybridSearch(ctx context.Context, queryVec []float32, queryText string, k int, filter Filter) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}

	fetch := k * 3
	vectorResults, err := s.VectorSearch(ctx, queryVec, fetch, filter)
	if err != nil {
		return nil, err
	}
	keywordResults, err := s.KeywordSearch(ctx, queryText, fetch, filter)
	if err != nil {
		return nil, err
	}

	type fused struct {
		chunk Chunk
		score float64
	}
	byID := map[int64]*fused{}
	order := []int64{}

	accumulate := func(list []Result) {
		for rank, r := range list {
			f, ok := byID[r.Chunk.ID]
			if !ok {
				f = &fused{chunk: r.Chunk}
				byID[r.Chunk.ID] = f
				order = append(order, r.Chunk.ID)
			}
			f.score += 1.0 / float64(rrfConstant+rank+1)
		}
	}
	accumulate(vectorResults)
	accumulate(keywordResults)

	results := make([]Result, 0, len(order))
	for _, id := range order {
		f := byID[id]
		results = append(results, Result{Chunk: f.chunk, Score: f.score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
