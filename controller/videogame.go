package controller

import (
	"net/http"
	"time"

	"github.com/microcosm-cc/gamecatalog/audit"
	"github.com/microcosm-cc/gamecatalog/models"
)

// VideoGameIDVar is the route variable holding the item id
const VideoGameIDVar = "videogame_id"

// VideoGameController handles single video games
type VideoGameController struct {
	Games *models.VideoGames
	Audit *audit.Recorder
}

// NewVideoGameController returns a controller over games. rec may be nil.
func NewVideoGameController(games *models.VideoGames, rec *audit.Recorder) *VideoGameController {
	return &VideoGameController{Games: games, Audit: rec}
}

// Handler dispatches requests for one video game by method
func (ctl *VideoGameController) Handler(w http.ResponseWriter, r *http.Request) {
	c := models.MakeContext(r, w)

	switch c.GetHTTPMethod() {
	case http.MethodOptions:
		c.RespondWithOptions([]string{"OPTIONS", "HEAD", "GET", "PUT", "DELETE"})
		return
	case http.MethodHead:
		ctl.Read(c)
	case http.MethodGet:
		ctl.Read(c)
	case http.MethodPut:
		ctl.Update(c)
	case http.MethodDelete:
		ctl.Delete(c)
	default:
		c.RespondWithMethodNotAllowed([]string{"OPTIONS", "HEAD", "GET", "PUT", "DELETE"})
		return
	}
}

// Read responds with the video game named by the route
func (ctl *VideoGameController) Read(c *models.Context) {
	id, err := c.GetInt64RouteVar(VideoGameIDVar)
	if err != nil {
		c.RespondWithError(err)
		return
	}

	m, err := ctl.Games.Get(c.Request.Context(), id)
	if err != nil {
		c.RespondWithError(err)
		return
	}

	c.RespondWithData(m)
}

// Update applies the non-blank fields of the body to the stored video game
func (ctl *VideoGameController) Update(c *models.Context) {
	id, err := c.GetInt64RouteVar(VideoGameIDVar)
	if err != nil {
		c.RespondWithError(err)
		return
	}

	var m *models.VideoGameType
	if err := c.Fill(&m); err != nil {
		c.RespondWithError(err)
		return
	}
	if m != nil {
		m.ID = id
		m.Sanitise()
	}

	if err := ctl.Games.Update(c.Request.Context(), id, m); err != nil {
		c.RespondWithError(err)
		return
	}

	ctl.Audit.Update(c.Request.Context(), id, time.Now(), c.IP)

	c.RespondWithNoContent()
}

// Delete removes the video game named by the route
func (ctl *VideoGameController) Delete(c *models.Context) {
	id, err := c.GetInt64RouteVar(VideoGameIDVar)
	if err != nil {
		c.RespondWithError(err)
		return
	}

	if err := ctl.Games.Delete(c.Request.Context(), id); err != nil {
		c.RespondWithError(err)
		return
	}

	ctl.Audit.Delete(c.Request.Context(), id, time.Now(), c.IP)

	c.RespondWithNoContent()
}
