package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-profile-uploader/server/picturestore"
	"github.com/jrsteele09/go-profile-uploader/upload"
	"github.com/rs/zerolog/log"
)

// UploadProfilePicHandler stores the multipart "profilePic" file and points
// the caller's profile at it. It must run behind RequireAuth.
func (s *Server) UploadProfilePicHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFromContext(r.Context())
		maxBytes := s.config.GetMaxUploadBytes()

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
				writeFailure(w, http.StatusRequestEntityTooLarge, "File too large")
				return
			}
			writeFailure(w, http.StatusBadRequest, "Invalid multipart body")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile(upload.FieldName)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "Missing "+upload.FieldName+" file")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			writeFailure(w, http.StatusUnsupportedMediaType, "Unsupported file type")
			return
		}
		data, err := io.ReadAll(file)
		if err != nil || len(data) == 0 {
			writeFailure(w, http.StatusBadRequest, "Empty file")
			return
		}

		user, err := s.repos.Users.GetByID(claims.Subject)
		if err != nil {
			writeFailure(w, http.StatusUnauthorized, "Unknown user")
			return
		}

		name := uuid.NewString() + extensionFor(contentType)
		if err := s.repos.Pictures.Upsert(picturestore.Picture{
			Name:        name,
			ContentType: contentType,
			Data:        data,
			OwnerID:     user.ID,
			CreatedAt:   time.Now(),
		}); err != nil {
			log.Err(err).Str("user_id", user.ID).Msg("Pictures.Upsert")
			writeFailure(w, http.StatusInternalServerError, "Failed to store picture")
			return
		}

		updated, previous, err := s.repos.Users.SetProfilePic(user.ID, s.config.GetPublicURL()+RouteUploadsPrefix+name)
		if err != nil {
			log.Err(err).Str("user_id", user.ID).Msg("Users.SetProfilePic")
			s.deleteStoredPicture(name)
			writeFailure(w, http.StatusInternalServerError, "Failed to update profile")
			return
		}
		s.deleteReplacedPicture(previous)

		log.Info().Str("user_id", user.ID).Str("file", name).Str("client_file", header.Filename).Int("bytes", len(data)).Msg("Profile picture stored")
		writeSuccess(w, updated.Profile(), "Profile picture updated")
	}
}

// RemoveProfilePicHandler clears the caller's picture. Removing when there
// is none succeeds.
func (s *Server) RemoveProfilePicHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFromContext(r.Context())

		user, err := s.repos.Users.GetByID(claims.Subject)
		if err != nil {
			writeFailure(w, http.StatusUnauthorized, "Unknown user")
			return
		}
		updated, previous, err := s.repos.Users.SetProfilePic(user.ID, "")
		if err != nil {
			log.Err(err).Str("user_id", user.ID).Msg("Users.SetProfilePic")
			writeFailure(w, http.StatusInternalServerError, "Failed to update profile")
			return
		}
		s.deleteReplacedPicture(previous)

		log.Info().Str("user_id", user.ID).Msg("Profile picture removed")
		writeSuccess(w, updated.Profile(), "Profile picture removed")
	}
}

func (s *Server) ServeUploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		picture, err := s.repos.Pictures.Get(chi.URLParam(r, "file"))
		if err != nil {
			writeFailure(w, http.StatusNotFound, "Not found")
			return
		}
		w.Header().Set("Content-Type", picture.ContentType)
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		_, _ = w.Write(picture.Data)
	}
}

// deleteReplacedPicture drops the stored file previousURL points at
func (s *Server) deleteReplacedPicture(previousURL string) {
	_, name, ok := strings.Cut(previousURL, RouteUploadsPrefix)
	if !ok || name == "" {
		return
	}
	s.deleteStoredPicture(name)
}

func (s *Server) deleteStoredPicture(name string) {
	if err := s.repos.Pictures.Delete(name); err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Failed to delete replaced picture")
	}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".img"
}
