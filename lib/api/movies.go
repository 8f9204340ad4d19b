package api

import (
	"errors"
	"fmt"
	"net/http"
)

// @Summary	Status of every movie
// @Router		/api/movies [get]
// @Tags		movies
// @Produce	json
// @Success	200	{array}	movie.Status
func (a *Api) getMovies(w http.ResponseWriter, _ *http.Request) {
	a.writeJson(w, a.player.Statuses())
}

// @Summary	Status of one movie
// @Router		/api/movies/{movie} [get]
// @Tags		movies
// @Param		movie	path	string	true	"Movie name"
// @Produce	json
// @Success	200	{object}	movie.Status
// @Failure	404	{string}	string	"Movie does not exist"
func (a *Api) getMovie(w http.ResponseWriter, req *http.Request) {
	name := req.PathValue("movie")
	for _, s := range a.player.Statuses() {
		if s.Name == name {
			a.writeJson(w, s)
			return
		}
	}
	http.Error(w, "Movie does not exist", http.StatusNotFound)
}

// @Summary	Close a movie and open it again from its source
// @Router		/api/movies/{movie}/reopen [post]
// @Tags		movies
// @Param		movie	path	string	true	"Movie name"
// @Success	200
// @Failure	404	{string}	string	"Movie does not exist"
// @Failure	500	{string}	string	"Could not reopen"
func (a *Api) reopenMovie(w http.ResponseWriter, req *http.Request) {
	name := req.PathValue("movie")
	err := a.player.Reopen(name)
	switch {
	case errors.Is(err, ErrUnknownMovie):
		http.Error(w, "Movie does not exist", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, fmt.Sprintf("could not reopen: %s", err), http.StatusInternalServerError)
		return
	}
	a.log.Info("movie reopened", "movie", name)
	a.writeJson(w, "ok")
}
