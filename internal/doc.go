// Package internal groups goAuthClient coordination code that must never
// be imported by API consumers: the request pipeline, the refresh
// coordinator, the retry policy, metrics storage, and audit dispatch.
package internal
