package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type uploadResponse struct {
	URL string `json:"url"`
}

// картинки слоёв превью
var allowedImageExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".svg":  true,
}

// HandleUpload обслуживает POST /api/upload (только админ).
// Принимает multipart/form-data с полем file, сохраняет картинку слоя в UploadDir
// и возвращает { "url": "/uploads/имяфайла" } для поля image в каталоге.
func (e *Env) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !e.requireAdmin(w, r) {
		return
	}

	if err := os.MkdirAll(e.UploadDir, 0755); err != nil {
		http.Error(w, "cannot create upload dir: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10 МБ
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExt[ext] {
		http.Error(w, "only png, jpg, webp or svg images", http.StatusBadRequest)
		return
	}
	nameOnly := sanitizeFilename(strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename)))

	filename := time.Now().Format("20060102_150405") + "_" + nameOnly + ext
	dstPath := filepath.Join(e.UploadDir, filename)

	dst, err := os.Create(dstPath)
	if err != nil {
		http.Error(w, "cannot create file: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		http.Error(w, "cannot save file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	e.Log.Info("layer image uploaded", "file", filename, "size", header.Size)
	e.writeJSONStatus(w, http.StatusCreated, uploadResponse{URL: "/uploads/" + filename})
}

func sanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	// простая зачистка
	s = strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "..", "_").Replace(s)
	if s == "" {
		return "file"
	}
	return s
}
