// Package api serves extracted schedules over HTTP.
//
// Routes:
//
//	GET /                                       placeholder, {"test":"value"}
//	GET /healthz                                liveness
//	GET /courses/:symbol/:term/:program/groups  groups of one course, e.g. /courses/inf1070/20223/7316/groups
//
// The groups route accepts the filters day, teacher, campus and type (repeatable)
// and min_places, e.g. ?day=lundi&day=mercredi&min_places=1.
//
// Every response carries an X-Request-ID header.
package api
