// Package filedrop accepts image uploads for hotel cards and the design overlay.
package filedrop

import (
	"bufio"
	"net/http"
	"slices"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"voyage/images"
	"voyage/utils"
)

const maxUploadSize = 10 << 20

var allowedMIMEs = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ImageUploadHandler handles POST /api/uploads/images with a multipart
// "image" field. The response carries the URL to store in the document.
func ImageUploadHandler(u *images.Uploader) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "File too large or malformed form")
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "no image uploaded")
			return
		}
		defer file.Close()

		br := bufio.NewReader(file)
		head, _ := br.Peek(512)
		if mime := http.DetectContentType(head); !slices.Contains(allowedMIMEs, mime) {
			utils.RespondWithError(w, http.StatusUnsupportedMediaType, "unsupported image type "+mime)
			return
		}

		res, err := u.Save(br)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Info().
			Str("userId", utils.GetUserIDFromRequest(r)).
			Str("file", header.Filename).
			Bool("inline", res.Inline).
			Msg("image uploaded")
		utils.RespondWithJSON(w, http.StatusCreated, res)
	}
}
