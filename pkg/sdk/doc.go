// Package tripdex is an in-process client for semantic travel destination search.
//
// The client owns the full core: it keeps the vector collection ready,
// vectorizes catalog records through the supplied Embedder and answers
// natural-language queries with structured filters.
//
//	client, _ := tripdex.New(ctx,
//	    tripdex.WithQdrant("localhost", 6334, ""),
//	    tripdex.WithEmbedder(myEmbedder),
//	    tripdex.WithVectorSize(1536),
//	)
//	defer client.Close()
//
//	_, _ = client.IndexBatch(ctx, destinations)
//	res, _ := client.Search(ctx, "quiet beach in Greece", tripdex.Criteria{
//	    TripType: "playa",
//	    PriceMax: tripdex.Float(1000),
//	})
//
// WithMemoryStore swaps Qdrant for an in-memory collection, which is handy in tests.
package tripdex
