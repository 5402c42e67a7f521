package proposal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"voyage/editor"
	"voyage/export"
	"voyage/models"
	"voyage/rdx"
	"voyage/store"
	"voyage/utils"
)

func (h *Handler) overlay(ctx context.Context, userID string) *models.DesignOverlay {
	if h.Overlays != nil {
		s, err := h.Overlays.Session(ctx, userID)
		if err == nil {
			o := s.Overlay()
			return &o
		}
		log.Warn().Err(err).Str("userId", userID).Msg("export without design overlay")
		return nil
	}
	o, err := h.Profiles.LoadOverlay(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("export without design overlay")
		return nil
	}
	return &o
}

// cacheKey hashes everything that affects the rendered bytes.
func cacheKey(kind string, s *editor.Session, doc *models.VoyageDocument, overlay *models.DesignOverlay, hidden []string) string {
	docJSON, _ := json.Marshal(doc)
	overlayJSON, _ := json.Marshal(overlay)
	docID := s.DocumentID()
	if docID == "" {
		docID = "unsaved"
	}
	return rdx.Key(kind, docID, docJSON, overlayJSON, []byte(strings.Join(hidden, ",")))
}

// cached returns the entry for key, or renders, stores and returns it.
// Cache failures are logged and bypassed.
func (h *Handler) cached(ctx context.Context, key string, render func() ([]byte, error)) ([]byte, bool, error) {
	if h.Cache != nil {
		data, hit, err := h.Cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("export cache read")
		}
		if hit {
			return data, true, nil
		}
	}
	data, err := render()
	if err != nil {
		return nil, false, err
	}
	if h.Cache != nil {
		if err := h.Cache.Set(ctx, key, data, h.CacheTTL); err != nil {
			log.Warn().Err(err).Msg("export cache write")
		}
	}
	return data, false, nil
}

func cacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
}

// GET /api/proposal/export/html
func (h *Handler) ExportHTML(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), ioTimeout)
	defer cancel()

	doc := s.Snapshot()
	hidden := s.Hidden()
	overlay := h.overlay(ctx, utils.GetUserIDFromRequest(r))

	data, hit, err := h.cached(ctx, cacheKey("html", s, doc, overlay, hidden), func() ([]byte, error) {
		return export.RenderHTML(doc, export.Options{Overlay: overlay, Hidden: hidden})
	})
	if err != nil {
		log.Error().Err(err).Msg("html export")
		utils.RespondWithError(w, http.StatusInternalServerError, "HTML export failed")
		return
	}
	cacheHeader(w, hit)
	utils.Attachment(w, "text/html; charset=utf-8", export.HTMLFilename, data)
}

// GET /api/proposal/export/pdf streams the remote renderer's output, or
// renders locally when no renderer is configured.
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	doc := s.Snapshot()

	if h.PDF != nil {
		// the remote render runs until the client goes away; only the
		// transport's own limits apply
		body, err := h.PDF.Render(r.Context(), doc)
		if err != nil {
			log.Error().Err(err).Str("documentId", s.DocumentID()).Msg("pdf export")
			utils.RespondWithError(w, StatusFor(err), "PDF export failed")
			return
		}
		defer body.Close()
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.PDFFilename+`"`)
		if _, err := io.Copy(w, body); err != nil {
			log.Warn().Err(err).Msg("pdf stream interrupted")
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), ioTimeout)
	defer cancel()
	hidden := s.Hidden()
	opts := export.PDFOptions{Hidden: hidden}
	if h.PublicBaseURL != "" && s.DocumentID() != "" {
		opts.ShareURL = ShareURL(h.PublicBaseURL, s.DocumentID())
	}
	data, hit, err := h.cached(ctx, cacheKey("pdf", s, doc, nil, hidden), func() ([]byte, error) {
		var buf bytes.Buffer
		if err := export.RenderPDF(doc, &buf, opts); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		log.Error().Err(err).Msg("local pdf export")
		utils.RespondWithError(w, http.StatusInternalServerError, "PDF export failed")
		return
	}
	cacheHeader(w, hit)
	utils.Attachment(w, "application/pdf", export.PDFFilename, data)
}

// ShareURL is the public address of a saved proposal's HTML page.
func ShareURL(base, docID string) string {
	return base + "/proposal/" + url.PathEscape(docID)
}

// GET /proposal/:id serves the last saved version of a proposal as its
// standalone HTML page. The local PDF's QR code points here.
func (h *Handler) SharedHTML(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	docID := ps.ByName("id")
	if docID == "" || strings.Contains(docID, ":") {
		utils.RespondWithError(w, http.StatusNotFound, "Proposal not found")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), ioTimeout)
	defer cancel()

	doc, err := h.Documents.Load(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Proposal not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("documentId", docID).Msg("shared proposal load")
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to load proposal")
		return
	}

	docJSON, _ := json.Marshal(doc)
	data, hit, err := h.cached(ctx, rdx.Key("share", docID, docJSON), func() ([]byte, error) {
		return export.RenderHTML(doc, export.Options{})
	})
	if err != nil {
		log.Error().Err(err).Str("documentId", docID).Msg("shared proposal render")
		utils.RespondWithError(w, http.StatusInternalServerError, "HTML export failed")
		return
	}
	cacheHeader(w, hit)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Warn().Err(err).Msg("shared proposal write")
	}
}
