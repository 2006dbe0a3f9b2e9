// Package compression implements the middle-out codec family and the
// dispatcher that routes calls to them.
//
// Five codecs are available, each identified by the tag written into the
// envelope (see package envelope):
//
//   - rle: run-length encoding ("aabcccccaaa" -> "a2bc5a3")
//   - stk: fixed phrase-to-token substitution (Exception -> T1, ...)
//   - tnt: every third character replaced with '*' (lossy)
//   - zph: runs of three or more collapsed to {c:n}
//   - middle-out: the middle third discarded (lossy)
//
// The transforms are not meant to compress well. Correctness means
// reproducing the documented transform, including the lossy ones.
//
// # Usage
//
//	svc, err := compression.NewService(compression.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	cfg := compression.DefaultConfig()
//	result, err := svc.Compress(ctx, "aaabbbccc", "rle", cfg)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Encoded) // MO::rle:a3b3c3::WEISSMAN::4.66
//
//	fmt.Println(svc.Decompress(ctx, result.Encoded, cfg)) // aaabbbccc
//
// # Fallbacks
//
// Compressing with an empty or unknown algorithm name uses middle-out.
// Decompress never fails: a malformed envelope, an unknown tag or an
// undecodable payload is answered by middle-out raw recovery, which reverses
// the input and labels it [DECODE_FAIL_FALLBACK]. Callers that need the
// underlying error use DecodeWith or DecodeEnvelope directly.
//
// # Tag validation
//
// Every codec validates the envelope tag against its own algorithm before
// decoding (DecodeWith) and fails with *AlgorithmMismatchError on mismatch.
//
// # Observability
//
// The service records spans (compression.compress, compression.decompress,
// compression.compare) and metrics:
//   - compression.operations_total (counter): operations by algorithm
//   - compression.fallbacks_total (counter): raw recoveries by reason
//   - compression.duration_seconds (histogram): time spent in codecs
//   - compression.ratio (histogram): original/compressed sizes
//   - compression.weissman_score (histogram): score distribution
package compression
