package server

import (
	"net/http"

	"github.com/microcosm-cc/gamecatalog/controller"
)

// handlers maps each route to the controller that serves it. Item ids are
// not constrained by the route so a malformed id is a 400 rather than a 404.
func handlers(d Deps) map[string]func(http.ResponseWriter, *http.Request) {
	videogames := controller.NewVideoGamesController(d.Games, d.Audit)
	videogame := controller.NewVideoGameController(d.Games, d.Audit)
	health := controller.NewHealthController(d.Checks)

	return map[string]func(http.ResponseWriter, *http.Request){
		controller.VideoGamesPath: videogames.Handler,
		controller.VideoGamesPath + "/{" + controller.VideoGameIDVar + "}": videogame.Handler,

		"/api/health":  health.Handler,
		"/api/version": controller.VersionHandler,

		controller.OpenAPIPath: controller.OpenAPIHandler,
	}
}
