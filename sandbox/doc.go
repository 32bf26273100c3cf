// Package sandbox implements a local stand-in for the remote storage
// service: the authentication endpoint, the storage master and the storage
// agent, all on one chi router.
//
// Routes:
//
//	POST /authenticate                                        form or JSON credentials -> {token}
//	POST /storage                                             allocate a volume (201)
//	GET  /storage                                             search volumes
//	GET  /storage/{id}                                        volume by id
//	GET  /storage/{owner}/{name}                              newest volume by owner and name
//	POST /agent_api/agent_storage/{id}/directory/{path}       create one directory (201)
//	POST /agent_api/agent_storage/{id}/file/{path}            create one file (201)
//	GET  /agent_api/agent_storage/{id}/list?entry={path}      list entries
//	GET  /agent_api/agent_storage/{id}/entry_content/{path}   file content
//	GET  /metrics                                             Prometheus metrics
//
// Everything except /authenticate and /metrics needs a bearer token issued
// by /authenticate. Agent routes only serve volumes owned by the caller,
// whose owner key is "user:<username>".
//
// Directories and files are never created implicitly. A missing parent
// answers 404 and an existing file answers 409. An existing directory
// answers 409 or, when configured, 202 Accepted.
package sandbox
