// Package query describes server-side listing requests and compiles them
// to SQL.
//
// A Params value carries 0-based pagination, at most one sort and a list
// of filters. It round-trips through a query string (Values, ParseValues)
// and compiles against a Schema, which whitelists the fields a listing
// may sort or filter on:
//
//	[grid external sort] -> [Params] -> [Compile] -> [SQL + args]
//
// Generated SQL never interpolates values. Column names come only from the
// schema, and every statement ends in a deterministic ORDER BY with the
// schema key as tiebreaker.
package query
