// Package evaluate scores essays across three quality dimensions in parallel.
//
// An Evaluator fans an essay out to three concurrent model calls, one per
// dimension (language, depth of analysis, clarity of thought), waits for all
// three, then asks the model to summarize the combined feedback into an
// overall evaluation. Each dimension response carries a trailing "Score: X/10"
// line; responses without one score the documented default. When the parallel
// pipeline fails, the evaluator degrades to a single combined request.
package evaluate
