// Package flows contains the request pipeline, expressed as stateless
// functions over injected dependency structs.
//
// The root package builds one [RequestDeps] at client construction and
// delegates every outbound call here. Keeping the pipeline free of client
// state makes the retry/refresh interleavings testable without a real
// client or network.
package flows
