// Package server exposes an Explorer over HTTP.
//
// Routes:
//
//	POST /embeddings   {"inputs": [...]}  -> {"embeddings": [[...], ...]}
//	POST /projections  embedviz.Request   -> embedviz.Report
//	GET  /runs                            -> archived run IDs
//	GET  /runs/{id}                       -> archive.Record
//	GET  /healthz
//
// POST routes are rate limited per client address. Cross-origin requests are
// answered only for origins on the allow-list.
package server
