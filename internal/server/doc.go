// Package server provides HTTP routing, middleware and the JSON API used by an external record editor.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /records/{id}").
//
// # Records API
//
// [RecordsHandler] serves:
//
//	GET    /records            list, filtered by ?q= with ?limit= and ?offset=
//	GET    /records/{id}       one release
//	PUT    /records/{id}       replace a release (whole record, no field patches)
//	GET    /contributors/{id}  one contributor
//	GET    /skips              the skip set
//	DELETE /skips/{id}         clear a skip entry so the next sync retries it
//	GET    /status             the stored checkpoint
//
// Errors are JSON objects with an "error" field. Missing records are 404, bad input 400 and an
// unreachable store 503.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
