package grouping

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"losslessvault/internal/matching"
	"losslessvault/internal/photo"
	"losslessvault/internal/ranking"
)

// Build clusters photos on the calling goroutine.
func Build(photos []photo.Photo) []photo.DuplicateGroup {
	groups, _ := Builder{Workers: 1}.Build(context.Background(), photos)
	return groups
}

// Builder configures a grouping pass.
type Builder struct {
	// Workers splits perceptual comparison rows across goroutines. Unions are
	// always applied on the calling goroutine.
	Workers int
}

type edge struct {
	a, b       int
	confidence photo.Confidence
}

// Build clusters photos into duplicate groups with elected sources of truth.
// Group ids start at 1 and follow the smallest member id. A cancelled
// context yields no groups at all.
func (b Builder) Build(ctx context.Context, photos []photo.Photo) ([]photo.DuplicateGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sorted := slices.Clone(photos)
	slices.SortFunc(sorted, func(x, y photo.Photo) int { return cmp.Compare(x.ID, y.ID) })

	set := NewDisjointSet(len(sorted))
	nodes := exactPass(sorted, func(e edge) { set.Union(e.a, e.b) })

	edges, err := b.perceptualEdges(ctx, sorted, nodes)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		set.Union(e.a, e.b)
	}

	// Content-hash edges are Certain and cannot lower a group, so the
	// weakest link is the weakest perceptual edge inside each component,
	// including edges that closed a cycle.
	strength := make([]photo.Confidence, len(sorted))
	for i := range strength {
		strength[i] = photo.ConfidenceCertain
	}
	for _, e := range edges {
		root := set.Find(e.a)
		strength[root] = strength[root].Min(e.confidence)
	}

	return collect(sorted, set, strength), nil
}

// exactPass unions photos sharing a content hash and returns one index per
// distinct (content hash, fingerprint) pair for the perceptual pass.
func exactPass(sorted []photo.Photo, apply func(edge)) []int {
	type key struct {
		hash string
		fp   photo.Fingerprint
	}
	firstByHash := make(map[string]int, len(sorted))
	seen := make(map[key]struct{})
	var nodes []int

	for i, p := range sorted {
		if p.ContentHash != "" {
			if first, ok := firstByHash[p.ContentHash]; ok {
				apply(edge{a: first, b: i, confidence: photo.ConfidenceCertain})
			} else {
				firstByHash[p.ContentHash] = i
			}
		}
		if p.Fingerprint == nil {
			continue
		}
		k := key{hash: p.ContentHash, fp: *p.Fingerprint}
		if p.ContentHash != "" {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		nodes = append(nodes, i)
	}
	return nodes
}

func (b Builder) perceptualEdges(ctx context.Context, sorted []photo.Photo, nodes []int) ([]edge, error) {
	compareRow := func(row int) []edge {
		var out []edge
		left := sorted[nodes[row]]
		for _, j := range nodes[row+1:] {
			right := sorted[j]
			if left.ContentHash != "" && left.ContentHash == right.ContentHash {
				continue
			}
			if c, ok := matching.CompareFingerprints(*left.Fingerprint, *right.Fingerprint); ok {
				out = append(out, edge{a: nodes[row], b: j, confidence: c})
			}
		}
		return out
	}

	workers := b.Workers
	if workers <= 1 || len(nodes) < 2 {
		var edges []edge
		for row := range nodes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			edges = append(edges, compareRow(row)...)
		}
		return edges, nil
	}

	var (
		mu    sync.Mutex
		edges []edge
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for row := range nodes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found := compareRow(row)
			if len(found) == 0 {
				return nil
			}
			mu.Lock()
			edges = append(edges, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

func collect(sorted []photo.Photo, set *DisjointSet, strength []photo.Confidence) []photo.DuplicateGroup {
	members := make(map[int][]int)
	var roots []int
	for i := range sorted {
		root := set.Find(i)
		if _, ok := members[root]; !ok {
			roots = append(roots, root)
		}
		members[root] = append(members[root], i)
	}

	// roots is ordered by each component's first (smallest id) member.
	groups := make([]photo.DuplicateGroup, 0)
	for _, root := range roots {
		idx := members[root]
		if len(idx) < 2 {
			continue
		}
		group := photo.DuplicateGroup{
			ID:         int64(len(groups) + 1),
			Members:    make([]photo.Photo, len(idx)),
			Confidence: strength[root],
		}
		for k, i := range idx {
			group.Members[k] = sorted[i]
		}
		group.SourceOfTruth = ranking.ElectAll(group.Members).ID
		groups = append(groups, group)
	}
	return groups
}
