// Package rankgo provides an embeddable PageRank engine for many independent,
// modestly sized graphs.
//
// A Graph keeps per-node state in a flat float32 table and its edges in an
// append-only store that can move to a temp file once the graph grows past a
// threshold. Each graph is owned by a single goroutine; run many graphs side
// by side for throughput (see package runner).
//
// # Quick Start
//
//	ctx := context.Background()
//	g, _ := rankgo.New(rankgo.WithDanglingNodeHandling(true))
//	defer g.Close()
//
//	_ = g.AddNode(ctx, 1, []rankgo.Edge{{Dest: 2, Weight: 1}, {Dest: 3, Weight: 0.5}})
//	_ = g.AddNode(ctx, 2, []rankgo.Edge{{Dest: 1, Weight: 1}})
//
//	_ = g.Init(ctx)
//	res, _ := rankgo.Iterate(ctx, g, rankgo.DriverOptions{})
//	for id, rank := range g.Ranks() {
//	    fmt.Println(id, rank)
//	}
//
// # Personalized PageRank
//
// With WithNodeBiasing(true), AddBiasedNode attaches a raw restart weight to
// each source node. Init normalizes the weights to sum to 1 and each Commit
// restarts according to them instead of uniformly. Nodes that only appear as
// destinations have bias 0.
//
// # Edge Disk Caching
//
// WithEdgeDiskCaching(true) lets a graph move its edges to a temp file the
// first time the edge count would pass WithEdgeCachingThreshold. Every
// iteration then pays one sequential read of the file. Spill blocks can be
// compressed with LZ4 or Zstandard (WithSpillCompression). Always Close the
// graph so the file is removed.
//
// # Numerics
//
// Ranks are float32. Edge weights are quantized to max(1, round(w*100000)).
// The sum of ranks stays close to 1 after every step but is not exact, and
// results are not bit-for-bit reproducible across hardware.
package rankgo
