package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"

	"github.com/microcosm-cc/gamecatalog/audit"
	"github.com/microcosm-cc/gamecatalog/models"
)

// VideoGamesPath is the collection resource. Items live below it.
const VideoGamesPath = "/api/videogame"

// VideoGamesController handles the video game collection
type VideoGamesController struct {
	Games *models.VideoGames
	Audit *audit.Recorder
}

// NewVideoGamesController returns a controller over games. rec may be nil.
func NewVideoGamesController(games *models.VideoGames, rec *audit.Recorder) *VideoGamesController {
	return &VideoGamesController{Games: games, Audit: rec}
}

// Handler dispatches requests for the collection by method
func (ctl *VideoGamesController) Handler(w http.ResponseWriter, r *http.Request) {
	c := models.MakeContext(r, w)

	switch c.GetHTTPMethod() {
	case http.MethodOptions:
		c.RespondWithOptions([]string{"OPTIONS", "HEAD", "GET", "POST"})
		return
	case http.MethodHead:
		ctl.ReadMany(c)
	case http.MethodGet:
		ctl.ReadMany(c)
	case http.MethodPost:
		ctl.Create(c)
	default:
		c.RespondWithMethodNotAllowed([]string{"OPTIONS", "HEAD", "GET", "POST"})
		return
	}
}

// ReadMany responds with every video game
func (ctl *VideoGamesController) ReadMany(c *models.Context) {
	ems, err := ctl.Games.List(c.Request.Context())
	if err != nil {
		c.RespondWithError(err)
		return
	}

	c.RespondWithData(ems)
}

// Create stores a new video game and responds with it
func (ctl *VideoGamesController) Create(c *models.Context) {
	var m *models.VideoGameType
	if err := c.Fill(&m); err != nil {
		c.RespondWithError(err)
		return
	}
	if m != nil {
		m.ID = 0
		m.Sanitise()
	}

	created, err := ctl.Games.Create(c.Request.Context(), m)
	if err != nil {
		c.RespondWithError(err)
		return
	}

	ctl.Audit.Create(c.Request.Context(), created.ID, time.Now(), c.IP)

	if glog.V(2) {
		glog.Infof("[%s] created videogame %d from %s", c.RequestID(), created.ID, c.IP)
	}

	c.RespondWithCreated(fmt.Sprintf("%s/%d", VideoGamesPath, created.ID), created)
}
