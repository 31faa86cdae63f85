package contracts

import "github.com/julienschmidt/httprouter"

// Handler is a group of routes that a service mounts on its app router.
// Reservations and floor handlers both implement it.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
