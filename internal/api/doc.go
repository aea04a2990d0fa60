// Package api exposes the REST surface: load search, negotiation, call log
// CRUD, the call summary, recent bookings and the metrics endpoint. It maps
// coded errors to HTTP statuses and leaves business rules to the services.
package api
