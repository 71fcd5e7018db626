package services

const RouteHome = "/"

func RouteFindingMechanic(requestID string) string {
	return "/finding-mechanic/" + requestID
}

func RouteMechanicFound(requestID string) string {
	return "/mechanic-found/" + requestID
}
