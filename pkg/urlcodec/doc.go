// Package urlcodec converts values to and from single query-parameter
// strings.
//
// Encode returns false for values that should be absent from the URL,
// so callers can delete the parameter instead of writing "null":
//
//	s, ok := urlcodec.Encode(filter.Library)
//	if !ok {
//	    delete(params, "library")
//	}
//
// Entities (records with an "id" field) are reduced to their id and one
// display field, which keeps links short and stable:
//
//	urlcodec.Encode(Library{ID: 7, Name: "Central", Address: "..."})
//	// {"id":7,"name":"Central"}
//
// Decode is the inverse for generic values; DecodeInto decodes into a
// typed target and is what the query-parameter binder uses.
package urlcodec
