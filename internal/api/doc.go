// Package api serves the course catalog, plans and their entries, and plan
// validation over HTTP. Handlers decode and validate requests, call the
// service layer, and map service errors to status codes and safe messages.
package api
