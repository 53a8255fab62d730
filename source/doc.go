// Package source decodes graph records and loads them into a rank graph.
//
// The input format is JSON lines, one source node per line:
//
//	{"source":1,"edges":[{"dest":2,"weight":0.5},{"dest":3}],"bias":0.2}
//
// An edge without a weight has weight 1. The bias field is optional and only
// valid when the graph was built with node biasing. Blank lines are skipped.
package source
