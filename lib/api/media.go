package api

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
)

// @Summary	Get or replace the still image an image movie is playing
// @Router		/api/media/{movie} [get]
// @Router		/api/media/{movie} [put]
// @Tags		media
// @Param		movie	path	string	true	"Movie name"
// @Param		format	query	string	false	"png or jpeg, for GET"
// @Accept		png
// @Produce	png
// @Success	200
// @Failure	400	{string}	string	"Not an image movie or not a valid image"
// @Failure	404	{string}	string	"Movie does not exist"
func (a *Api) handleMedia(w http.ResponseWriter, req *http.Request) {
	name := req.PathValue("movie")
	if name == "" {
		http.Error(w, "Missing movie name", http.StatusBadRequest)
		return
	}
	if !a.hasMovie(name) {
		http.Error(w, "Movie does not exist", http.StatusNotFound)
		return
	}
	imgSource, ok := a.player.ImageSource(name)
	if !ok {
		http.Error(w, "not an image movie", http.StatusBadRequest)
		return
	}

	switch req.Method {
	case http.MethodGet:
		img := imgSource.GetImage()
		if img == nil {
			http.Error(w, "No image loaded", http.StatusFailedDependency)
			return
		}
		switch req.URL.Query().Get("format") {
		case "", "png":
			w.Header().Set("Content-Type", "image/png")
			if err := png.Encode(w, img); err != nil {
				http.Error(w, "Could not png encode this image", http.StatusInternalServerError)
			}
		case "jpeg":
			w.Header().Set("Content-Type", "image/jpeg")
			if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 80}); err != nil {
				http.Error(w, "Could not jpeg encode this image", http.StatusInternalServerError)
			}
		default:
			http.Error(w, "Unsupported format", http.StatusBadRequest)
		}
	case http.MethodPut:
		newImage, ftype, err := image.Decode(req.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("not a valid image: %s", err), http.StatusBadRequest)
			return
		}
		a.log.Info("image movie updated", "movie", name, "type", ftype,
			"width", newImage.Bounds().Dx(), "height", newImage.Bounds().Dy())
		err = imgSource.SetImage(newImage)
		if err != nil {
			http.Error(w, fmt.Sprintf("could not update image: %s", err), http.StatusBadRequest)
			return
		}
		a.writeJson(w, "ok")
	default:
		http.Error(w, "Invalid method, only GET and PUT supported", http.StatusMethodNotAllowed)
	}
}

func (a *Api) hasMovie(name string) bool {
	for _, s := range a.player.Statuses() {
		if s.Name == name {
			return true
		}
	}
	return false
}
