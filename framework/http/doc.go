// Package http provides JSON response helpers and the container inspector.
//
// # Response
//
//	res := gohttp.NewResponse(w)
//	res.JSON(200, data)           // raw JSON with status
//	res.Success(data)             // 200 {"data": ...}
//	res.NoContent()               // 204
//	res.Error(409, "conflict")    // {"message": "conflict"}
//	res.NotFound()                // 404 {"message": "Not found."}
//
// # Inspector
//
// Inspector exposes the container's registered specifications as JSON:
//
//	GET    /_container/services        every service id with its description
//	GET    /_container/services/{id}   one service, by id, alias or wildcard match
//	DELETE /_container/services/{id}   forget a non-final service
//	GET    /_container/classes         names in the class registry
//
//	gohttp.NewInspector(app.Container).Routes(router)
package http
