package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ApniDukan/pkg/kit"
)

const (
	MaxFileSize = 5 << 20
	MaxFiles    = 10

	sniffLen = 512
)

var (
	errNoFile       = errors.New("no file uploaded")
	errTooLarge     = errors.New("file too large")
	errNotImage     = errors.New("not an image")
	errTooManyFiles = errors.New("too many files")
)

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

type Server struct {
	Dir string
	Log *zap.Logger
}

type File struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func (s *Server) routes(r chi.Router) {
	r.Get("/readyz", kit.Readyz(s.Log, s.ping))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", s.files()))

	r.Group(func(pr chi.Router) {
		pr.Use(kit.RequireUserHeaders)
		pr.Post("/upload", s.single)
		pr.Post("/upload/multiple", s.multiple)
	})
}

func (s *Server) ping(context.Context) error {
	st, err := os.Stat(s.Dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", s.Dir)
	}
	return nil
}

// files serves stored uploads without directory listings.
func (s *Server) files() http.Handler {
	fs := http.FileServer(http.Dir(s.Dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
			return
		}
		fs.ServeHTTP(w, r)
	})
}

func (s *Server) single(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		s.writeError(w, r, formError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	fhs := r.MultipartForm.File["file"]
	if len(fhs) == 0 {
		s.writeError(w, r, errNoFile)
		return
	}

	f, err := s.save(fhs[0])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "File uploaded successfully",
		"url":      f.URL,
		"filename": f.Filename,
	})
}

func (s *Server) multiple(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFiles*MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		s.writeError(w, r, formError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	fhs := r.MultipartForm.File["files"]
	switch {
	case len(fhs) == 0:
		s.writeError(w, r, errNoFile)
		return
	case len(fhs) > MaxFiles:
		s.writeError(w, r, errTooManyFiles)
		return
	}

	out := make([]File, 0, len(fhs))
	for _, fh := range fhs {
		f, err := s.save(fh)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out = append(out, f)
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Files uploaded successfully",
		"files":   out,
	})
}

func (s *Server) save(fh *multipart.FileHeader) (File, error) {
	if fh.Size > MaxFileSize {
		return File{}, errTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return File{}, err
	}
	defer src.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return File{}, err
	}
	head = head[:n]

	ctype := http.DetectContentType(head)
	if !strings.HasPrefix(ctype, "image/") {
		return File{}, errNotImage
	}
	ext, ok := extByType[ctype]
	if !ok {
		ext = strings.ToLower(filepath.Ext(fh.Filename))
	}

	name := uuid.NewString() + ext
	dst, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return File{}, err
	}

	_, err = io.Copy(dst, io.MultiReader(bytes.NewReader(head), src))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.Dir, name))
		return File{}, err
	}

	s.Log.Info("file stored", zap.String("filename", name), zap.Int64("size", fh.Size), zap.String("type", ctype))
	return File{URL: "/uploads/" + name, Filename: name}, nil
}

func formError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return errTooLarge
	}
	if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
		return errNoFile
	}
	return err
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errNoFile):
		kit.WriteError(w, r, http.StatusBadRequest, "No file uploaded", nil)
	case errors.Is(err, errNotImage):
		kit.WriteError(w, r, http.StatusBadRequest, "Only image files are allowed", nil)
	case errors.Is(err, errTooManyFiles):
		kit.WriteError(w, r, http.StatusBadRequest, fmt.Sprintf("Too many files (max %d)", MaxFiles), nil)
	case errors.Is(err, errTooLarge):
		kit.WriteError(w, r, http.StatusRequestEntityTooLarge, "File too large (max 5MB)", nil)
	default:
		s.Log.Error("upload failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
