// Package overlap aggregates participant availability into 30 minute buckets
// per candidate date and reports the buckets where several participants are
// available at once.
//
// The computation is pure: it works on a snapshot of submissions that the
// caller has already fetched and never touches the store. Results are only as
// fresh as that snapshot.
package overlap
